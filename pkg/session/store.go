package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-louvain/pkg/events"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/metrics"
	"github.com/dd0wney/cluso-louvain/pkg/validation"
)

// Options bounds the store and the sessions it creates
type Options struct {
	MaxSessions int
	TTL         time.Duration
	HistorySize int
	MaxTicks    int
	MaxNodes    int

	// Events receives session activity; nil discards it
	Events events.Publisher
}

// Store keeps sessions in memory, keyed by id
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	opts    Options
	logger  logging.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// NewStore creates an empty store
func NewStore(opts Options, logger logging.Logger, reg *metrics.Registry) *Store {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	if opts.Events == nil {
		opts.Events = events.NopPublisher{}
	}
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
		logger:   logger.With(logging.Component("session_store")),
		metrics:  reg,
		now:      time.Now,
	}
}

// Create validates g, converts it, and opens a session on it
func (st *Store) Create(g *louvain.Graph) (*Session, error) {
	if err := validation.ValidateGraph(g, st.opts.MaxNodes); err != nil {
		return nil, err
	}
	cg, err := louvain.ToWeightedGraph(g)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.opts.MaxSessions > 0 && len(st.sessions) >= st.opts.MaxSessions {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManySessions, st.opts.MaxSessions)
	}

	id := uuid.NewString()
	s, err := newSession(id, cg, st.opts, st.now(), st.logger, st.metrics)
	if err != nil {
		return nil, err
	}
	st.sessions[id] = s

	st.metrics.SessionsCreatedTotal.Inc()
	st.metrics.SetActiveSessions(len(st.sessions))
	st.logger.Info("session created", logging.Session(id), logging.Int("nodes", cg.Len()))
	st.opts.Events.Publish(events.Event{Type: events.TypeCreated, Session: id, Nodes: cg.Len(), Time: st.now()})
	return s, nil
}

// Get returns the session with the given id and marks it as used
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(st.now())
	return s, nil
}

// Delete removes a session
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	st.metrics.SetActiveSessions(len(st.sessions))
	st.logger.Info("session deleted", logging.Session(id))
	st.opts.Events.Publish(events.Event{Type: events.TypeDeleted, Session: id, Time: st.now()})
	return nil
}

// List returns a summary of every session, oldest first
func (st *Store) List() []Summary {
	st.mu.RLock()
	out := make([]Summary, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s.summary())
	}
	st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many were removed
func (st *Store) Sweep(now time.Time) int {
	if st.opts.TTL <= 0 {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if now.Sub(s.idleSince()) > st.opts.TTL {
			delete(st.sessions, id)
			removed++
			st.logger.Info("session expired", logging.Session(id))
			st.opts.Events.Publish(events.Event{Type: events.TypeDeleted, Session: id, Time: now})
		}
	}
	if removed > 0 {
		st.metrics.SessionsExpiredTotal.Add(float64(removed))
		st.metrics.SetActiveSessions(len(st.sessions))
	}
	return removed
}

// RunSweeper sweeps on every interval until ctx is cancelled
func (st *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep(st.now())
		}
	}
}
