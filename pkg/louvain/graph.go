package louvain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// DefaultEdgeWeight is used for edges that carry no explicit weight
const DefaultEdgeWeight = 1.0

// Node is a vertex of an edge-list graph.
// In JSON a node may be written either as a bare string id or as an object.
type Node struct {
	ID     string `json:"id"`
	Label  string `json:"label,omitempty"`
	Parent string `json:"parent,omitempty"`
}

// UnmarshalJSON accepts both "A" and {"id": "A"}
func (n *Node) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*n = Node{ID: id}
		return nil
	}

	type plainNode Node
	var p plainNode
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("node must be a string or an object with an id: %w", err)
	}
	*n = Node(p)
	return nil
}

// Edge is an undirected, optionally weighted edge of an edge-list graph
type Edge struct {
	ID     string   `json:"id,omitempty"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Label  string   `json:"label,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
}

// EffectiveWeight returns the edge weight, defaulting to 1 when unset
func (e Edge) EffectiveWeight() float64 {
	if e.Weight == nil {
		return DefaultEdgeWeight
	}
	return *e.Weight
}

// Graph is the display-oriented edge-list form exchanged with callers
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// CommunityGraph is a dense symmetric weight matrix over an ordered node set,
// together with a partition of the nodes into communities.
//
// The matrix is never modified after construction. The partition is
// copy-on-write: applying a move produces a new CommunityGraph that shares the
// matrix with its predecessor, so earlier snapshots stay valid.
type CommunityGraph struct {
	nodes   []string
	index   map[string]int
	matrix  *mat.SymDense
	degrees []float64
	total   float64

	// communities[c] holds member node indices in ascending order
	communities [][]int
	assignment  []int
}

// ToWeightedGraph converts an edge-list graph into a CommunityGraph with one
// singleton community per node.
//
// When the node list is empty, nodes are implied by the edges in order of
// first appearance. Otherwise every edge endpoint must be a declared node.
func ToWeightedGraph(g *Graph) (*CommunityGraph, error) {
	if g == nil {
		return nil, ErrEmptyGraph
	}

	nodes := make([]string, 0, len(g.Nodes))
	index := make(map[string]int, len(g.Nodes))
	addNode := func(id string) error {
		if _, exists := index[id]; exists {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, id)
		}
		index[id] = len(nodes)
		nodes = append(nodes, id)
		return nil
	}

	if len(g.Nodes) > 0 {
		for _, n := range g.Nodes {
			if err := addNode(n.ID); err != nil {
				return nil, err
			}
		}
	} else {
		for _, e := range g.Edges {
			for _, id := range []string{e.Source, e.Target} {
				if _, exists := index[id]; !exists {
					_ = addNode(id)
				}
			}
		}
	}

	if len(nodes) == 0 {
		return nil, ErrEmptyGraph
	}

	// Resolve and check every edge before touching the matrix
	type resolved struct {
		src, tgt int
		weight   float64
	}
	edges := make([]resolved, 0, len(g.Edges))
	for i, e := range g.Edges {
		src, ok := index[e.Source]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d source %q", ErrUnknownNode, i, e.Source)
		}
		tgt, ok := index[e.Target]
		if !ok {
			return nil, fmt.Errorf("%w: edge %d target %q", ErrUnknownNode, i, e.Target)
		}
		w := e.EffectiveWeight()
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: edge %d (%s-%s) has weight %v", ErrInvalidWeight, i, e.Source, e.Target, w)
		}
		edges = append(edges, resolved{src: src, tgt: tgt, weight: w})
	}

	matrix := mat.NewSymDense(len(nodes), nil)
	for _, e := range edges {
		// SetSym writes both [src][tgt] and [tgt][src]; a self-loop hits the diagonal once
		matrix.SetSym(e.src, e.tgt, matrix.At(e.src, e.tgt)+e.weight)
	}

	return newCommunityGraph(nodes, index, matrix, singletons(len(nodes))), nil
}

// NewCommunityGraph builds a CommunityGraph from an explicit weight matrix and
// partition. The matrix must be square, symmetric and sized to nodes; the
// communities must partition nodes exactly. Empty communities are allowed.
func NewCommunityGraph(nodes []string, weights [][]float64, communities [][]string) (*CommunityGraph, error) {
	n := len(nodes)
	if n == 0 {
		return nil, ErrEmptyGraph
	}

	index := make(map[string]int, n)
	for i, id := range nodes {
		if _, exists := index[id]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNode, id)
		}
		index[id] = i
	}

	if len(weights) != n {
		return nil, fmt.Errorf("%w: %d rows for %d nodes", ErrMatrixShape, len(weights), n)
	}
	for i, row := range weights {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrMatrixShape, i, len(row))
		}
	}
	matrix := mat.NewSymDense(n, nil)
	for i, row := range weights {
		for j := i; j < n; j++ {
			w := row[j]
			if w != weights[j][i] {
				return nil, fmt.Errorf("%w: [%d][%d]=%v but [%d][%d]=%v", ErrAsymmetricMatrix, i, j, w, j, i, weights[j][i])
			}
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: [%d][%d]=%v", ErrInvalidWeight, i, j, w)
			}
			matrix.SetSym(i, j, w)
		}
	}

	members := make([][]int, len(communities))
	seen := make([]bool, n)
	for c, community := range communities {
		members[c] = make([]int, 0, len(community))
		for _, id := range community {
			i, ok := index[id]
			if !ok {
				return nil, fmt.Errorf("%w: community %d contains unknown node %q", ErrInvalidPartition, c, id)
			}
			if seen[i] {
				return nil, fmt.Errorf("%w: node %q appears more than once", ErrInvalidPartition, id)
			}
			seen[i] = true
			members[c] = append(members[c], i)
		}
		sort.Ints(members[c])
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: node %q is in no community", ErrInvalidPartition, nodes[i])
		}
	}

	return newCommunityGraph(append([]string(nil), nodes...), index, matrix, members), nil
}

func singletons(n int) [][]int {
	members := make([][]int, n)
	for i := range members {
		members[i] = []int{i}
	}
	return members
}

func newCommunityGraph(nodes []string, index map[string]int, matrix *mat.SymDense, members [][]int) *CommunityGraph {
	n := len(nodes)
	degrees := make([]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			w := matrix.At(i, j)
			degrees[i] += w
			if j >= i {
				total += w
			}
		}
	}

	assignment := make([]int, n)
	for c, community := range members {
		for _, i := range community {
			assignment[i] = c
		}
	}

	return &CommunityGraph{
		nodes:       nodes,
		index:       index,
		matrix:      matrix,
		degrees:     degrees,
		total:       total,
		communities: members,
		assignment:  assignment,
	}
}

// Len returns the number of nodes
func (g *CommunityGraph) Len() int {
	return len(g.nodes)
}

// Nodes returns the node identifiers in index order
func (g *CommunityGraph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Node returns the identifier of node i
func (g *CommunityGraph) Node(i int) string {
	return g.nodes[i]
}

// IndexOf returns the index of the node with the given identifier
func (g *CommunityGraph) IndexOf(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Weight returns matrix[i][j]
func (g *CommunityGraph) Weight(i, j int) float64 {
	return g.matrix.At(i, j)
}

// Degree returns the weighted degree of node i (row sum, self-loop counted once)
func (g *CommunityGraph) Degree(i int) float64 {
	return g.degrees[i]
}

// Matrix returns a copy of the weight matrix as nested slices
func (g *CommunityGraph) Matrix() [][]float64 {
	n := len(g.nodes)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = g.matrix.At(i, j)
		}
	}
	return out
}

// NumCommunities returns the number of community slots, including empty ones
func (g *CommunityGraph) NumCommunities() int {
	return len(g.communities)
}

// NonEmptyCommunities returns the number of communities with at least one member
func (g *CommunityGraph) NonEmptyCommunities() int {
	count := 0
	for _, c := range g.communities {
		if len(c) > 0 {
			count++
		}
	}
	return count
}

// CommunityOf returns the index of the community containing node i
func (g *CommunityGraph) CommunityOf(i int) int {
	return g.assignment[i]
}

// Members returns the node indices of community c in ascending order
func (g *CommunityGraph) Members(c int) []int {
	return append([]int(nil), g.communities[c]...)
}

// Communities returns every community as a list of node identifiers.
// Empty communities are kept so that indices stay stable.
func (g *CommunityGraph) Communities() [][]string {
	out := make([][]string, len(g.communities))
	for c, members := range g.communities {
		out[c] = make([]string, len(members))
		for k, i := range members {
			out[c][k] = g.nodes[i]
		}
	}
	return out
}

// withMove returns a copy of g in which node has moved from one community to
// another. Only the two touched member lists are reallocated.
func (g *CommunityGraph) withMove(node, from, to int) *CommunityGraph {
	communities := make([][]int, len(g.communities))
	copy(communities, g.communities)

	remaining := make([]int, 0, len(g.communities[from]))
	for _, i := range g.communities[from] {
		if i != node {
			remaining = append(remaining, i)
		}
	}
	communities[from] = remaining

	joined := make([]int, 0, len(g.communities[to])+1)
	joined = append(joined, g.communities[to]...)
	pos := sort.SearchInts(joined, node)
	joined = append(joined, 0)
	copy(joined[pos+1:], joined[pos:])
	joined[pos] = node
	communities[to] = joined

	assignment := make([]int, len(g.assignment))
	copy(assignment, g.assignment)
	assignment[node] = to

	return &CommunityGraph{
		nodes:       g.nodes,
		index:       g.index,
		matrix:      g.matrix,
		degrees:     g.degrees,
		total:       g.total,
		communities: communities,
		assignment:  assignment,
	}
}

// CommunityNodeID is the id of the grouping node emitted for community c by ToEdgeListGraph
func CommunityNodeID(c int) string {
	return "c" + strconv.Itoa(c)
}

// ToEdgeListGraph renders g as an edge-list graph for display. It emits one
// grouping node per non-empty community, then every original node tagged with
// its community as parent, then one edge per non-zero cell with i <= j.
func ToEdgeListGraph(g *CommunityGraph) *Graph {
	n := len(g.nodes)
	out := &Graph{
		Nodes: make([]Node, 0, g.NonEmptyCommunities()+n),
		Edges: make([]Edge, 0),
	}

	for c, members := range g.communities {
		if len(members) > 0 {
			out.Nodes = append(out.Nodes, Node{ID: CommunityNodeID(c)})
		}
	}
	for i, id := range g.nodes {
		out.Nodes = append(out.Nodes, Node{ID: id, Parent: CommunityNodeID(g.assignment[i])})
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			w := g.matrix.At(i, j)
			if w == 0 {
				continue
			}
			weight := w
			out.Edges = append(out.Edges, Edge{
				ID:     g.nodes[i] + "-" + g.nodes[j],
				Source: g.nodes[i],
				Target: g.nodes[j],
				Label:  strconv.FormatFloat(w, 'f', -1, 64),
				Weight: &weight,
			})
		}
	}

	return out
}
