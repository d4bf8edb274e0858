package louvain

import "fmt"

// TotalWeight returns m, the sum of matrix[i][j] over i <= j. Every unordered
// pair and every self-loop is counted exactly once.
func TotalWeight(g *CommunityGraph) float64 {
	return g.total
}

// PairContribution returns (A_ab - k_a*k_b/2m) / 2m for nodes a and b
func PairContribution(a, b int, g *CommunityGraph) (float64, error) {
	if err := g.checkNode(a); err != nil {
		return 0, err
	}
	if err := g.checkNode(b); err != nil {
		return 0, err
	}
	if g.total == 0 {
		return 0, ErrNoEdges
	}
	return g.pairContribution(a, b), nil
}

func (g *CommunityGraph) pairContribution(a, b int) float64 {
	twoM := 2 * g.total
	return (g.matrix.At(a, b) - g.degrees[a]*g.degrees[b]/twoM) / twoM
}

// MoveGain returns the modularity change of moving node out of community from
// and into community to:
//
//	-Σ_{x∈from, x≠node} PairContribution(x, node) + Σ_{y∈to} PairContribution(y, node)
//
// Positive values mean the move improves modularity. The gain is summed over
// the members directly rather than from cached community totals.
func MoveGain(g *CommunityGraph, node, from, to int) (float64, error) {
	if err := g.checkNode(node); err != nil {
		return 0, err
	}
	if err := g.checkCommunity(from); err != nil {
		return 0, err
	}
	if err := g.checkCommunity(to); err != nil {
		return 0, err
	}
	if g.assignment[node] != from {
		return 0, fmt.Errorf("%w: node %d is not in community %d", ErrInvalidMove, node, from)
	}
	if from == to {
		return 0, fmt.Errorf("%w: node %d is already in community %d", ErrInvalidMove, node, to)
	}
	if g.total == 0 {
		return 0, ErrNoEdges
	}
	return g.moveGain(node, from, to), nil
}

func (g *CommunityGraph) moveGain(node, from, to int) float64 {
	removed := 0.0
	for _, x := range g.communities[from] {
		if x == node {
			continue
		}
		removed -= g.pairContribution(x, node)
	}

	added := 0.0
	for _, y := range g.communities[to] {
		added += g.pairContribution(y, node)
	}

	return removed + added
}

// AdjacentCommunities returns the communities, other than the node's own,
// that contain at least one neighbour of node. Communities are listed in the
// order their first neighbour appears in the node index, without duplicates.
func AdjacentCommunities(g *CommunityGraph, node int) []int {
	own := g.assignment[node]
	seen := make(map[int]bool)
	out := make([]int, 0)
	for i := range g.nodes {
		if g.matrix.At(node, i) <= 0 {
			continue
		}
		c := g.assignment[i]
		if c == own || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Modularity returns Σ_c Σ_{i,j∈c} PairContribution(i, j) over ordered pairs,
// self pairs included. A move with positive MoveGain raises it by exactly
// twice the gain.
func Modularity(g *CommunityGraph) (float64, error) {
	if g.total == 0 {
		return 0, ErrNoEdges
	}

	q := 0.0
	for _, members := range g.communities {
		for _, i := range members {
			for _, j := range members {
				q += g.pairContribution(i, j)
			}
		}
	}
	return q, nil
}

func (g *CommunityGraph) checkNode(i int) error {
	if i < 0 || i >= len(g.nodes) {
		return fmt.Errorf("%w: %d (graph has %d nodes)", ErrNodeOutOfRange, i, len(g.nodes))
	}
	return nil
}

func (g *CommunityGraph) checkCommunity(c int) error {
	if c < 0 || c >= len(g.communities) {
		return fmt.Errorf("%w: %d (graph has %d communities)", ErrCommunityOutRange, c, len(g.communities))
	}
	return nil
}
