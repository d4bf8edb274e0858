// Package louvain implements the Louvain modularity optimization as an
// explicitly driven state machine.
//
// A caller converts an edge-list Graph into a CommunityGraph, creates a State
// with InitState and calls Tick until the state is finished. Each node takes
// two ticks: one that evaluates the gain of moving it into every adjacent
// community, and one that applies the best positive move and advances to the
// next node. A pass over all nodes without any move finishes the level.
// Aggregate then collapses the communities into a coarser graph for the next
// level. Run bundles both steps for callers that do not need to animate.
//
//	g, err := louvain.ToWeightedGraph(graph)
//	s, err := louvain.InitState(g, 0, false, false)
//	for !s.Finished {
//		s, err = louvain.Tick(s)
//	}
//	next, err := louvain.Aggregate(s.Graph)
//
// States and graphs are immutable once built, so any State can be kept as a
// snapshot for history or rewind without cloning.
package louvain
