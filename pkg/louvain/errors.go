package louvain

import "errors"

var (
	// Malformed input graphs
	ErrEmptyGraph        = errors.New("graph has no nodes")
	ErrUnknownNode       = errors.New("edge references unknown node")
	ErrDuplicateNode     = errors.New("duplicate node id")
	ErrInvalidWeight     = errors.New("edge weight must be a finite non-negative number")
	ErrMatrixShape       = errors.New("weight matrix must be square and match the node count")
	ErrAsymmetricMatrix  = errors.New("weight matrix must be symmetric")
	ErrInvalidPartition  = errors.New("communities must partition the node set")
	ErrNodeOutOfRange    = errors.New("node index out of range")
	ErrCommunityOutRange = errors.New("community index out of range")
	ErrInvalidMove       = errors.New("invalid move")

	// Degenerate graphs
	ErrNoEdges = errors.New("graph has zero total weight: no edges to optimize")

	// State machine misuse
	ErrFinished     = errors.New("louvain state is finished")
	ErrInvalidState = errors.New("louvain state is inconsistent")
	ErrTickLimit    = errors.New("tick limit reached before convergence")
)
