package session

import (
	"time"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
)

// View is the JSON-facing picture of a session at its current state
type View struct {
	ID    string `json:"id"`
	Level int    `json:"level"`

	Phase            string        `json:"phase"`
	Pass             int           `json:"pass"`
	Finished         bool          `json:"finished"`
	CurrentNode      string        `json:"current_node"`
	CurrentNodeIndex int           `json:"current_node_index"`
	CurrentCommunity int           `json:"current_community"`
	Candidates       []int         `json:"candidates"`
	Gains            []float64     `json:"gains"`
	LastMove         *louvain.Move `json:"last_move,omitempty"`

	Nodes       []string    `json:"nodes"`
	Matrix      [][]float64 `json:"matrix"`
	Communities [][]string  `json:"communities"`
	Modularity  float64     `json:"modularity"`

	History int             `json:"history"`
	Levels  []louvain.Level `json:"levels"`
}

// Summary is the list entry for a session
type Summary struct {
	ID       string    `json:"id"`
	Level    int       `json:"level"`
	Nodes    int       `json:"nodes"`
	Phase    string    `json:"phase"`
	Created  time.Time `json:"created"`
	LastUsed time.Time `json:"last_used"`
}

func (s *Session) view() *View {
	st := s.history.Current()
	g := st.Graph
	q, _ := louvain.Modularity(g)

	return &View{
		ID:               s.id,
		Level:            len(s.levels),
		Phase:            st.Phase().String(),
		Pass:             st.Pass,
		Finished:         st.Finished,
		CurrentNode:      st.CurrentNode(),
		CurrentNodeIndex: st.CurrentNodeIndex,
		CurrentCommunity: st.CurrentCommunityIndex,
		Candidates:       append([]int{}, st.NeighbourCommunities...),
		Gains:            append([]float64{}, st.DeltaModularities...),
		LastMove:         st.LastMove,
		Nodes:            g.Nodes(),
		Matrix:           g.Matrix(),
		Communities:      g.Communities(),
		Modularity:       q,
		History:          s.history.Len(),
		Levels:           append([]louvain.Level{}, s.levels...),
	}
}

func (s *Session) summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.history.Current()
	return Summary{
		ID:       s.id,
		Level:    len(s.levels),
		Nodes:    st.Graph.Len(),
		Phase:    st.Phase().String(),
		Created:  s.created,
		LastUsed: s.lastUsed,
	}
}
