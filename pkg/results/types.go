// Package results persists the outcome of complete Louvain runs so they
// can be listed and fetched later. Runs are kept in a JSON file or in
// PostgreSQL.
package results

import (
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
)

// Run is one stored hierarchy
type Run struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Source     string          `json:"source,omitempty"`
	Nodes      int             `json:"nodes"`
	Edges      int             `json:"edges"`
	Levels     []louvain.Level `json:"levels"`
	Membership map[string]int  `json:"membership"`
	Modularity float64         `json:"modularity"`
}

// NewRun summarises h, computed on g, as a run with a fresh id
func NewRun(source string, g *louvain.Graph, h *louvain.Hierarchy) *Run {
	run := &Run{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		Source:     source,
		Nodes:      len(g.Nodes),
		Edges:      len(g.Edges),
		Levels:     h.Levels,
		Membership: h.Membership(),
	}
	if final := h.Final(); final != nil {
		run.Modularity = final.Modularity
	}
	return run
}

// Communities returns the number of distinct communities in the membership
func (r *Run) Communities() int {
	seen := make(map[int]struct{}, len(r.Membership))
	for _, c := range r.Membership {
		seen[c] = struct{}{}
	}
	return len(seen)
}
