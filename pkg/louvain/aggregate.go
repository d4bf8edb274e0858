package louvain

import "strconv"

// AggregateNodeID is the id given to the super-node built from community c
func AggregateNodeID(c int) string {
	return "ac" + strconv.Itoa(c)
}

// Aggregate collapses every non-empty community of g into a single node and
// returns the resulting graph with singleton communities. It is meant to be
// called on the graph of a finished State.
//
// The weight between two communities is the sum of the weights between their
// members. Within one community the cross product counts every internal pair
// twice and each self-loop once, so self-loops are added a second time and the
// total halved.
func Aggregate(g *CommunityGraph) (*CommunityGraph, error) {
	if g == nil || g.Len() == 0 {
		return nil, ErrEmptyGraph
	}

	kept := make([]int, 0, len(g.communities))
	nodes := make([]Node, 0, len(g.communities))
	for c, members := range g.communities {
		if len(members) == 0 {
			continue
		}
		kept = append(kept, c)
		nodes = append(nodes, Node{ID: AggregateNodeID(c)})
	}

	edges := make([]Edge, 0)
	for x, ci := range kept {
		for _, cj := range kept[x:] {
			weight := 0.0
			for _, a := range g.communities[ci] {
				for _, b := range g.communities[cj] {
					weight += g.matrix.At(a, b)
				}
			}
			if ci == cj {
				for _, a := range g.communities[ci] {
					weight += g.matrix.At(a, a)
				}
				weight /= 2
			}
			if weight > 0 {
				w := weight
				edges = append(edges, Edge{
					Source: AggregateNodeID(ci),
					Target: AggregateNodeID(cj),
					Weight: &w,
				})
			}
		}
	}

	return ToWeightedGraph(&Graph{Nodes: nodes, Edges: edges})
}
