// Package events broadcasts session activity to NNG subscribers. Each
// message is the event type, a colon, and the JSON-encoded event, so
// subscribers can filter by type with a topic prefix.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/pub"
	"go.nanomsg.org/mangos/v3/protocol/sub"

	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/metrics"

	// Register all transports (tcp, ipc, inproc, ws)
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// Type names a kind of session event
type Type string

const (
	TypeCreated        Type = "created"
	TypeMoved          Type = "moved"
	TypeLevelConverged Type = "level_converged"
	TypeAggregated     Type = "aggregated"
	TypeReset          Type = "reset"
	TypeDeleted        Type = "deleted"
)

// DefaultQueueSize is the publish buffer used when none is configured
const DefaultQueueSize = 1024

// Move describes a node changing community
type Move struct {
	Node string  `json:"node"`
	From int     `json:"from"`
	To   int     `json:"to"`
	Gain float64 `json:"gain"`
}

// Event is one thing that happened to a session
type Event struct {
	Type       Type      `json:"type"`
	Session    string    `json:"session_id"`
	Level      int       `json:"level"`
	Move       *Move     `json:"move,omitempty"`
	Modularity float64   `json:"modularity,omitempty"`
	Ticks      int       `json:"ticks,omitempty"`
	Pass       int       `json:"pass,omitempty"`
	Nodes      int       `json:"nodes,omitempty"`
	Time       time.Time `json:"time"`
}

// Publisher accepts events. Publish must not block the caller.
type Publisher interface {
	Publish(e Event)
}

// NopPublisher discards every event
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

func topic(t Type) []byte {
	return []byte(string(t) + ":")
}

// Encode renders e as a topic-prefixed message
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append(topic(e.Type), data...), nil
}

// Decode parses a message produced by Encode
func Decode(msg []byte) (Event, error) {
	var e Event
	i := bytes.IndexByte(msg, ':')
	if i < 0 {
		return e, fmt.Errorf("malformed event message: no topic")
	}
	if err := json.Unmarshal(msg[i+1:], &e); err != nil {
		return e, fmt.Errorf("malformed event message: %w", err)
	}
	return e, nil
}

// NNGPublisher sends events on a PUB socket from a background goroutine.
// Events that arrive while the queue is full are dropped and counted.
type NNGPublisher struct {
	sock    mangos.Socket
	queue   chan Event
	stopCh  chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewNNGPublisher listens on addr (e.g. tcp://127.0.0.1:5557 or inproc://events)
func NewNNGPublisher(addr string, queueSize int, logger logging.Logger, reg *metrics.Registry) (*NNGPublisher, error) {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	sock, err := pub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	p := &NNGPublisher{
		sock:    sock,
		queue:   make(chan Event, queueSize),
		stopCh:  make(chan struct{}),
		logger:  logger.With(logging.Component("events"), logging.String("addr", addr)),
		metrics: reg,
	}
	p.wg.Add(1)
	go p.run()

	p.logger.Info("event publisher listening")
	return p, nil
}

// Publish queues e for sending
func (p *NNGPublisher) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	select {
	case p.queue <- e:
	default:
		p.metrics.RecordEvent(string(e.Type), "dropped")
	}
}

func (p *NNGPublisher) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			p.drain()
			return
		case e := <-p.queue:
			p.send(e)
		}
	}
}

func (p *NNGPublisher) drain() {
	for {
		select {
		case e := <-p.queue:
			p.send(e)
		default:
			return
		}
	}
}

func (p *NNGPublisher) send(e Event) {
	msg, err := Encode(e)
	if err != nil {
		p.logger.Warn("failed to encode event", logging.Error(err))
		p.metrics.RecordEvent(string(e.Type), "error")
		return
	}
	if err := p.sock.Send(msg); err != nil {
		p.logger.Warn("failed to publish event", logging.Error(err))
		p.metrics.RecordEvent(string(e.Type), "error")
		return
	}
	p.metrics.RecordEvent(string(e.Type), "sent")
}

// Close sends whatever is queued and closes the socket
func (p *NNGPublisher) Close() error {
	var err error
	p.once.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
		err = p.sock.Close()
	})
	return err
}

// Subscriber receives events from an NNGPublisher
type Subscriber struct {
	sock mangos.Socket
}

// Subscribe dials addr and receives the given event types, or all of them
// when none are given
func Subscribe(addr string, types ...Type) (*Subscriber, error) {
	sock, err := sub.NewSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	topics := [][]byte{{}}
	if len(types) > 0 {
		topics = topics[:0]
		for _, t := range types {
			topics = append(topics, topic(t))
		}
	}
	for _, tp := range topics {
		if err := sock.SetOption(mangos.OptionSubscribe, tp); err != nil {
			sock.Close()
			return nil, fmt.Errorf("failed to subscribe: %w", err)
		}
	}

	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Subscriber{sock: sock}, nil
}

// SetRecvDeadline bounds how long Recv waits
func (s *Subscriber) SetRecvDeadline(d time.Duration) error {
	return s.sock.SetOption(mangos.OptionRecvDeadline, d)
}

// Recv blocks for the next event
func (s *Subscriber) Recv() (Event, error) {
	msg, err := s.sock.Recv()
	if err != nil {
		return Event{}, err
	}
	return Decode(msg)
}

// Watch calls fn for every event until ctx is done. poll bounds how long
// each receive waits before ctx is checked again.
func (s *Subscriber) Watch(ctx context.Context, poll time.Duration, fn func(Event)) error {
	if err := s.SetRecvDeadline(poll); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := s.Recv()
		switch {
		case errors.Is(err, mangos.ErrRecvTimeout):
			continue
		case err != nil:
			return err
		}
		fn(e)
	}
}

// Close closes the socket
func (s *Subscriber) Close() error {
	return s.sock.Close()
}
