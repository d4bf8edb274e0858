package louvain

// History is a bounded stack of state snapshots used to step backwards.
// States are immutable, so snapshots are stored without copying.
type History struct {
	states []*State
	limit  int
}

// NewHistory creates a history keeping at most limit states; limit <= 0 keeps everything
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Push records s as the current state, dropping the oldest snapshot when full
func (h *History) Push(s *State) {
	h.states = append(h.states, s)
	if h.limit > 0 && len(h.states) > h.limit {
		h.states = append(h.states[:0:0], h.states[len(h.states)-h.limit:]...)
	}
}

// Current returns the most recent state, or nil when empty
func (h *History) Current() *State {
	if len(h.states) == 0 {
		return nil
	}
	return h.states[len(h.states)-1]
}

// Back discards the current state and returns the one before it.
// It returns false, leaving the history untouched, when there is nothing to go back to.
func (h *History) Back() (*State, bool) {
	if len(h.states) < 2 {
		return h.Current(), false
	}
	h.states[len(h.states)-1] = nil
	h.states = h.states[:len(h.states)-1]
	return h.Current(), true
}

// At returns the i-th retained snapshot, oldest first
func (h *History) At(i int) *State {
	return h.states[i]
}

// Len returns the number of retained snapshots
func (h *History) Len() int {
	return len(h.states)
}

// Reset drops every snapshot and starts again from s
func (h *History) Reset(s *State) {
	h.states = []*State{s}
}
