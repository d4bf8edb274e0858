package louvain

import (
	"context"
	"fmt"
)

// Options controls Run
type Options struct {
	// MaxLevels bounds the number of levels built; 0 means no bound
	MaxLevels int
	// MaxTicks bounds the ticks spent on one level; 0 means no bound
	MaxTicks int
	// OnTick is called with every state produced while running
	OnTick func(level int, s *State)
}

// Level is one converged level of the community hierarchy
type Level struct {
	Index       int             `json:"index"`
	Graph       *CommunityGraph `json:"-"`
	Modularity  float64         `json:"modularity"`
	Ticks       int             `json:"ticks"`
	Passes      int             `json:"passes"`
	Nodes       int             `json:"nodes"`
	Communities int             `json:"communities"`
}

// Hierarchy is the result of Run, finest level first
type Hierarchy struct {
	Levels []Level `json:"levels"`
}

// Final returns the coarsest level, or nil for an empty hierarchy
func (h *Hierarchy) Final() *Level {
	if len(h.Levels) == 0 {
		return nil
	}
	return &h.Levels[len(h.Levels)-1]
}

// Membership maps every node of the first level to the index of the
// community it ends up in at the final level.
func (h *Hierarchy) Membership() map[string]int {
	out := make(map[string]int)
	if len(h.Levels) == 0 {
		return out
	}

	first := h.Levels[0].Graph
	current := make(map[string]string, first.Len())
	for _, id := range first.nodes {
		current[id] = id
	}

	for l, level := range h.Levels {
		last := l == len(h.Levels)-1
		for original, id := range current {
			i, ok := level.Graph.IndexOf(id)
			if !ok {
				continue
			}
			c := level.Graph.CommunityOf(i)
			if last {
				out[original] = c
			} else {
				current[original] = AggregateNodeID(c)
			}
		}
	}
	return out
}

// Flatten returns the first-level graph partitioned by the final-level
// communities, keeping their indices
func (h *Hierarchy) Flatten() (*CommunityGraph, error) {
	final := h.Final()
	if final == nil {
		return nil, ErrEmptyGraph
	}
	first := h.Levels[0].Graph

	communities := make([][]string, final.Graph.NumCommunities())
	for c := range communities {
		communities[c] = []string{}
	}
	for original, c := range h.Membership() {
		communities[c] = append(communities[c], original)
	}
	return NewCommunityGraph(first.Nodes(), first.Matrix(), communities)
}

// RunLevel ticks s until it is finished and returns the finished state along
// with the number of ticks taken. A zero maxTicks means no limit.
func RunLevel(ctx context.Context, s *State, maxTicks int, onTick func(*State)) (*State, int, error) {
	ticks := 0
	for !s.Finished {
		if err := ctx.Err(); err != nil {
			return s, ticks, err
		}
		if maxTicks > 0 && ticks >= maxTicks {
			return s, ticks, fmt.Errorf("%w: %d ticks", ErrTickLimit, ticks)
		}

		next, err := Tick(s)
		if err != nil {
			return s, ticks, err
		}
		s = next
		ticks++
		if onTick != nil {
			onTick(s)
		}
	}
	return s, ticks, nil
}

// Run optimizes g to convergence, aggregates the communities, and repeats on
// the aggregated graph until a level merges nothing or MaxLevels is reached.
func Run(ctx context.Context, g *CommunityGraph, opts Options) (*Hierarchy, error) {
	h := &Hierarchy{}

	for level := 0; opts.MaxLevels == 0 || level < opts.MaxLevels; level++ {
		s, err := InitState(g, 0, false, false)
		if err != nil {
			return h, fmt.Errorf("level %d: %w", level, err)
		}

		var onTick func(*State)
		if opts.OnTick != nil {
			onTick = func(st *State) { opts.OnTick(level, st) }
		}

		final, ticks, err := RunLevel(ctx, s, opts.MaxTicks, onTick)
		if err != nil {
			return h, fmt.Errorf("level %d: %w", level, err)
		}

		q, err := Modularity(final.Graph)
		if err != nil {
			return h, fmt.Errorf("level %d: %w", level, err)
		}

		h.Levels = append(h.Levels, Level{
			Index:       level,
			Graph:       final.Graph,
			Modularity:  q,
			Ticks:       ticks,
			Passes:      final.Pass,
			Nodes:       final.Graph.Len(),
			Communities: final.Graph.NonEmptyCommunities(),
		})

		if final.Graph.NonEmptyCommunities() == final.Graph.Len() {
			break
		}

		g, err = Aggregate(final.Graph)
		if err != nil {
			return h, fmt.Errorf("level %d: aggregate: %w", level, err)
		}
	}

	return h, nil
}
