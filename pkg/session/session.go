// Package session holds interactive stepping sessions: one resumable
// Louvain run per session, with a rewind buffer and the levels completed so far.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/cluso-louvain/pkg/events"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/metrics"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrNotConverged    = errors.New("current level has not converged")
	ErrNothingToUndo   = errors.New("no earlier state to go back to")
)

// Session steps one graph through the Louvain levels
type Session struct {
	mu sync.Mutex

	id       string
	created  time.Time
	lastUsed time.Time

	root     *louvain.CommunityGraph
	history  *louvain.History
	levels   []louvain.Level
	maxTicks int

	levelStarted time.Time
	// levelTicks counts the ticks behind the current snapshot; each history
	// entry past the first is one tick, so Back takes one off
	levelTicks int
	// converged is set the first time the current level finishes
	converged bool

	logger  logging.Logger
	metrics *metrics.Registry
	events  events.Publisher
}

func newSession(id string, root *louvain.CommunityGraph, opts Options, now time.Time, logger logging.Logger, reg *metrics.Registry) (*Session, error) {
	initial, err := louvain.InitState(root, 0, false, false)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:           id,
		created:      now,
		lastUsed:     now,
		root:         root,
		history:      louvain.NewHistory(opts.HistorySize),
		maxTicks:     opts.MaxTicks,
		levelStarted: now,
		logger:       logger.With(logging.Component("session"), logging.Session(id)),
		metrics:      reg,
		events:       opts.Events,
	}
	s.history.Push(initial)
	return s, nil
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Current returns the latest state
func (s *Session) Current() *louvain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Current()
}

// Step advances the current level by one tick
func (s *Session) Step() (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.history.Current()
	next, err := louvain.Tick(prev)
	if err != nil {
		s.metrics.RecordSessionOperation("step", "error")
		return nil, err
	}
	s.record(prev, next)
	s.history.Push(next)
	s.metrics.RecordSessionOperation("step", "ok")
	return s.view(), nil
}

// Back rewinds to the previous snapshot
func (s *Session) Back() (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.history.Back(); !ok {
		s.metrics.RecordSessionOperation("back", "error")
		return nil, ErrNothingToUndo
	}
	if s.levelTicks > 0 {
		s.levelTicks--
	}
	s.metrics.RecordSessionOperation("back", "ok")
	return s.view(), nil
}

// RunLevel ticks the current level to convergence. Every intermediate state
// is kept in the history so the run can be stepped back through.
// A zero maxTicks uses the session's bound, and a larger one is cut to it.
func (s *Session) RunLevel(ctx context.Context, maxTicks int) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxTicks <= 0 || (s.maxTicks > 0 && maxTicks > s.maxTicks) {
		maxTicks = s.maxTicks
	}

	prev := s.history.Current()
	op := logging.StartTimer(s.logger, "level run", logging.LevelIndex(len(s.levels)))
	_, ticks, err := louvain.RunLevel(ctx, prev, maxTicks, func(next *louvain.State) {
		s.record(prev, next)
		s.history.Push(next)
		prev = next
	})
	if err != nil {
		op.EndError(err)
		s.metrics.RecordSessionOperation("run", "error")
		return nil, err
	}
	op.End(logging.Ticks(ticks))
	s.metrics.RecordSessionOperation("run", "ok")
	return s.view(), nil
}

// Aggregate collapses the converged communities into super-nodes and starts
// the next level on the aggregated graph
func (s *Session) Aggregate() (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.history.Current()
	if !current.Finished {
		s.metrics.RecordAggregation("not_converged")
		return nil, ErrNotConverged
	}

	q, err := louvain.Modularity(current.Graph)
	if err != nil {
		s.metrics.RecordAggregation("error")
		return nil, err
	}
	agg, err := louvain.Aggregate(current.Graph)
	if err != nil {
		s.metrics.RecordAggregation("error")
		return nil, err
	}
	initial, err := louvain.InitState(agg, 0, false, false)
	if err != nil {
		s.metrics.RecordAggregation("error")
		return nil, fmt.Errorf("aggregated graph: %w", err)
	}

	s.levels = append(s.levels, louvain.Level{
		Index:       len(s.levels),
		Graph:       current.Graph,
		Modularity:  q,
		Ticks:       s.levelTicks,
		Passes:      current.Pass,
		Nodes:       current.Graph.Len(),
		Communities: current.Graph.NonEmptyCommunities(),
	})
	s.history.Reset(initial)
	s.levelTicks = 0
	s.converged = false
	s.levelStarted = time.Now()

	s.metrics.RecordAggregation("ok")
	s.logger.Info("aggregated level",
		logging.LevelIndex(len(s.levels)),
		logging.Int("nodes", agg.Len()),
		logging.Modularity(q),
	)
	s.publish(events.Event{Type: events.TypeAggregated, Nodes: agg.Len(), Modularity: q})
	return s.view(), nil
}

// Reset discards all progress and returns to the original graph
func (s *Session) Reset() (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	initial, err := louvain.InitState(s.root, 0, false, false)
	if err != nil {
		return nil, err
	}
	s.history.Reset(initial)
	s.levels = nil
	s.levelTicks = 0
	s.converged = false
	s.levelStarted = time.Now()
	s.metrics.RecordSessionOperation("reset", "ok")
	s.publish(events.Event{Type: events.TypeReset, Nodes: s.root.Len()})
	return s.view(), nil
}

// Snapshot returns a view of the current state
func (s *Session) Snapshot() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Graph renders the current level as an edge list with community groupings
func (s *Session) Graph() *louvain.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return louvain.ToEdgeListGraph(s.history.Current().Graph)
}

// record updates metrics and logs for the tick prev -> next
func (s *Session) record(prev, next *louvain.State) {
	s.levelTicks++
	s.metrics.RecordTick(prev.Phase().String())

	if m := next.LastMove; m != nil {
		s.metrics.RecordMove(m.Gain)
		s.logger.Debug("node moved",
			logging.Node(next.Graph.Node(m.Node)),
			logging.Community(m.To),
			logging.Gain(m.Gain),
			logging.Pass(prev.Pass),
		)
		s.publish(events.Event{
			Type: events.TypeMoved,
			Move: &events.Move{Node: next.Graph.Node(m.Node), From: m.From, To: m.To, Gain: m.Gain},
			Pass: prev.Pass,
		})
	}
	if next.Pass > prev.Pass || (next.Finished && !prev.Finished) {
		s.metrics.RecordPass()
	}
	if next.Finished && !prev.Finished && !s.converged {
		s.converged = true
		q, _ := louvain.Modularity(next.Graph)
		s.metrics.RecordLevel(time.Since(s.levelStarted), s.levelTicks, q)
		s.logger.Info("level converged",
			logging.LevelIndex(len(s.levels)),
			logging.Ticks(s.levelTicks),
			logging.Pass(next.Pass),
			logging.Modularity(q),
		)
		s.publish(events.Event{
			Type:       events.TypeLevelConverged,
			Modularity: q,
			Ticks:      s.levelTicks,
			Pass:       next.Pass,
		})
	}
}

// publish stamps e with the session and current level
func (s *Session) publish(e events.Event) {
	e.Session = s.id
	e.Level = len(s.levels)
	e.Time = time.Now()
	s.events.Publish(e)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
