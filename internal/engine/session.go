package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyStarted is returned by Start on a running session.
var ErrAlreadyStarted = errors.New("session already started")

// Lifecycle is the coarse state of a Session. Transitions only move
// forward: Idle -> Running -> Closed, or Idle -> Closed.
type Lifecycle int

const (
	Idle Lifecycle = iota
	Running
	Closed
)

func (l Lifecycle) String() string {
	switch l {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("Lifecycle(%d)", int(l))
	}
}

// Config describes a session. Probes are copied at construction and never
// change afterwards.
type Config struct {
	Probes []probe.Descriptor
	Handle probe.Handle
	Logger logrus.FieldLogger
}

// Session is the lifecycle handle of the engine. It owns one Aggregator and
// one Stream for its whole life and the cancellation root of every lane.
type Session struct {
	mu     sync.Mutex
	state  Lifecycle
	probes []probe.Descriptor
	handle probe.Handle
	log    logrus.FieldLogger

	stream *Stream
	agg    *Aggregator
	sched  *Scheduler
	cancel context.CancelFunc
}

// NewSession validates cfg and returns an idle session. Invalid descriptors
// are rejected here, before any lane exists.
func NewSession(cfg Config) (*Session, error) {
	if err := probe.ValidateAll(cfg.Probes); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	stream := NewStream(types.NewReport())
	return &Session{
		state:  Idle,
		probes: append([]probe.Descriptor(nil), cfg.Probes...),
		handle: cfg.Handle,
		log:    log,
		stream: stream,
		agg:    NewAggregator(stream),
	}, nil
}

// Start launches every lane. It fails with ErrAlreadyStarted when running
// and ErrSessionClosed when closed; a session never restarts.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Idle:
	case Running:
		return ErrAlreadyStarted
	case Closed:
		return ErrSessionClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.sched = NewScheduler(s.probes, s.handle, s.apply, s.log)
	s.sched.Start(ctx)
	s.state = Running
	s.log.WithField("probes", len(s.probes)).Info("threat session started")
	return nil
}

func (s *Session) apply(kind types.ThreatKind, status types.ThreatStatus) error {
	_, err := s.agg.Apply(kind, status)
	return err
}

// Close cancels every lane, stops publication, and closes the stream.
// After Close returns no probe invocation starts and no snapshot is
// published. Repeated calls return nil.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Closed:
		return nil
	case Running:
		s.cancel()
		s.agg.Seal()
		s.sched.Wait()
	case Idle:
		s.agg.Seal()
	}
	s.stream.Close()
	s.state = Closed
	s.log.WithField("version", s.agg.Current().Version()).Info("threat session closed")
	return nil
}

// Subscribe attaches a subscriber that immediately receives the latest
// snapshot. It may be called in any state.
func (s *Session) Subscribe() *Subscription { return s.stream.Subscribe() }

// Report returns the latest snapshot.
func (s *Session) Report() types.Report { return s.stream.Latest() }

// State returns the current lifecycle state.
func (s *Session) State() Lifecycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Probes returns a copy of the registered descriptors.
func (s *Session) Probes() []probe.Descriptor {
	return append([]probe.Descriptor(nil), s.probes...)
}
