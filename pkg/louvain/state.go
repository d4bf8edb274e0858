package louvain

import "fmt"

// Phase is the position of a State within the per-node two-beat cycle
type Phase int

const (
	// PhaseComputingGains means the candidate gains have not all been evaluated yet
	PhaseComputingGains Phase = iota
	// PhaseReadyToDecide means every candidate has a gain and the next tick applies the best move
	PhaseReadyToDecide
	// PhaseFinished means a full pass produced no move
	PhaseFinished
	// PhaseInvalid means the gains and candidates are inconsistent
	PhaseInvalid
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseComputingGains:
		return "computing_gains"
	case PhaseReadyToDecide:
		return "ready_to_decide"
	case PhaseFinished:
		return "finished"
	default:
		return "invalid"
	}
}

// Move records a node changing community
type Move struct {
	Node int     `json:"node"`
	From int     `json:"from"`
	To   int     `json:"to"`
	Gain float64 `json:"gain"`
}

// State is a resumable cursor over one level of modularity optimization.
//
// Tick never modifies the State it is given; it returns a new one. A State and
// the CommunityGraph it references can therefore be kept as a snapshot.
type State struct {
	Graph                 *CommunityGraph
	CurrentNodeIndex      int
	CurrentCommunityIndex int
	NeighbourCommunities  []int
	DeltaModularities     []float64
	CommunitiesChanged    bool
	Finished              bool

	// Pass counts sweeps over the node set, starting at 1
	Pass int
	// LastMove is the move applied by the tick that produced this state, if any
	LastMove *Move
}

// InitState creates the state that evaluates nodeIndex next. The current
// community and the candidate communities are computed from the graph, and
// no gains have been evaluated.
func InitState(g *CommunityGraph, nodeIndex int, communitiesChanged, finished bool) (*State, error) {
	if g == nil || g.Len() == 0 {
		return nil, ErrEmptyGraph
	}
	if err := g.checkNode(nodeIndex); err != nil {
		return nil, err
	}
	if g.total == 0 {
		return nil, ErrNoEdges
	}
	return initState(g, nodeIndex, communitiesChanged, finished, 1), nil
}

func initState(g *CommunityGraph, nodeIndex int, communitiesChanged, finished bool, pass int) *State {
	return &State{
		Graph:                 g,
		CurrentNodeIndex:      nodeIndex,
		CurrentCommunityIndex: g.assignment[nodeIndex],
		NeighbourCommunities:  AdjacentCommunities(g, nodeIndex),
		DeltaModularities:     []float64{},
		CommunitiesChanged:    communitiesChanged,
		Finished:              finished,
		Pass:                  pass,
	}
}

// Phase reports where the state is in the tick cycle
func (s *State) Phase() Phase {
	switch {
	case s.Finished:
		return PhaseFinished
	case len(s.DeltaModularities) < len(s.NeighbourCommunities):
		return PhaseComputingGains
	case len(s.DeltaModularities) == len(s.NeighbourCommunities):
		return PhaseReadyToDecide
	default:
		return PhaseInvalid
	}
}

// CurrentNode returns the identifier of the node under evaluation
func (s *State) CurrentNode() string {
	return s.Graph.Node(s.CurrentNodeIndex)
}

// BestCandidate returns the position in NeighbourCommunities with the highest
// gain. Ties go to the earliest candidate. It returns -1 when there are no
// evaluated gains.
func (s *State) BestCandidate() int {
	best := -1
	for i, gain := range s.DeltaModularities {
		if best < 0 || gain > s.DeltaModularities[best] {
			best = i
		}
	}
	return best
}

// Tick advances the state machine by one beat.
//
// In PhaseComputingGains it evaluates the gain of every remaining candidate
// community and returns the state with a complete gain list. In
// PhaseReadyToDecide it moves the current node to the best candidate when
// that gain is positive, then returns the state for the next node, the first
// node of a new pass, or a finished state.
func Tick(s *State) (*State, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	switch phase := s.Phase(); phase {
	case PhaseFinished:
		return nil, ErrFinished
	case PhaseComputingGains:
		return s.computeGains(), nil
	case PhaseReadyToDecide:
		return s.decide(), nil
	default:
		return nil, fmt.Errorf("%w: %d gains for %d candidate communities",
			ErrInvalidState, len(s.DeltaModularities), len(s.NeighbourCommunities))
	}
}

func (s *State) validate() error {
	if s == nil || s.Graph == nil {
		return fmt.Errorf("%w: missing graph", ErrInvalidState)
	}
	g := s.Graph
	if s.CurrentNodeIndex < 0 || s.CurrentNodeIndex >= g.Len() {
		return fmt.Errorf("%w: current node %d out of range", ErrInvalidState, s.CurrentNodeIndex)
	}
	if g.assignment[s.CurrentNodeIndex] != s.CurrentCommunityIndex {
		return fmt.Errorf("%w: node %d is not in community %d",
			ErrInvalidState, s.CurrentNodeIndex, s.CurrentCommunityIndex)
	}
	for _, c := range s.NeighbourCommunities {
		if c < 0 || c >= g.NumCommunities() || c == s.CurrentCommunityIndex {
			return fmt.Errorf("%w: bad candidate community %d", ErrInvalidState, c)
		}
	}
	if g.total == 0 && !s.Finished {
		return ErrNoEdges
	}
	return nil
}

func (s *State) computeGains() *State {
	next := *s
	next.LastMove = nil
	next.DeltaModularities = make([]float64, len(s.DeltaModularities), len(s.NeighbourCommunities))
	copy(next.DeltaModularities, s.DeltaModularities)

	for k := len(s.DeltaModularities); k < len(s.NeighbourCommunities); k++ {
		gain := s.Graph.moveGain(s.CurrentNodeIndex, s.CurrentCommunityIndex, s.NeighbourCommunities[k])
		next.DeltaModularities = append(next.DeltaModularities, gain)
	}

	return &next
}

func (s *State) decide() *State {
	g := s.Graph
	changed := s.CommunitiesChanged

	// No candidates means no eligible move
	var move *Move
	if best := s.BestCandidate(); best >= 0 && s.DeltaModularities[best] > 0 {
		move = &Move{
			Node: s.CurrentNodeIndex,
			From: s.CurrentCommunityIndex,
			To:   s.NeighbourCommunities[best],
			Gain: s.DeltaModularities[best],
		}
		g = g.withMove(move.Node, move.From, move.To)
		changed = true
	}

	var next *State
	switch {
	case s.CurrentNodeIndex+1 < g.Len():
		next = initState(g, s.CurrentNodeIndex+1, changed, false, s.Pass)
	case changed:
		next = initState(g, 0, false, false, s.Pass+1)
	default:
		next = initState(g, 0, false, true, s.Pass)
	}
	next.LastMove = move
	return next
}
