package engine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/devguard/devguard/internal/types"
)

var (
	// ErrUnknownKind is returned when a result names an undeclared kind.
	ErrUnknownKind = errors.New("unknown threat kind")
	// ErrSessionClosed is returned once a session (or its aggregator) no
	// longer accepts work.
	ErrSessionClosed = errors.New("session closed")
)

// Aggregator is the single writer of the current Report. Each applied
// result yields exactly one new snapshot, published to the stream inside
// the same critical section so subscribers observe versions in order.
type Aggregator struct {
	mu     sync.Mutex
	report types.Report
	stream *Stream
	sealed bool
}

// NewAggregator starts from the stream's latest snapshot.
func NewAggregator(stream *Stream) *Aggregator {
	return &Aggregator{report: stream.Latest(), stream: stream}
}

// Apply replaces the status of kind, bumps the version, and publishes.
func (a *Aggregator) Apply(kind types.ThreatKind, status types.ThreatStatus) (types.Report, error) {
	if !kind.Valid() {
		return types.Report{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sealed {
		return a.report, ErrSessionClosed
	}
	a.report = a.report.With(kind, status)
	a.stream.publish(a.report)
	return a.report, nil
}

// Current returns the last applied snapshot.
func (a *Aggregator) Current() types.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.report
}

// Seal rejects every later Apply.
func (a *Aggregator) Seal() {
	a.mu.Lock()
	a.sealed = true
	a.mu.Unlock()
}
