package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devguard/devguard/internal/types"
)

// Handle is the platform object threaded through every check. The engine
// never inspects it.
type Handle any

// Check inspects the platform for one threat. Implementations must be safe
// to call repeatedly, must not block past ctx, and should convert internal
// failures into types.StatusErrored.
type Check func(ctx context.Context, h Handle) types.ThreatStatus

// Defaults applied when a descriptor leaves a field unset.
const (
	DefaultCadence = 60 * time.Second
	DefaultTimeout = 5 * time.Second
)

var (
	// ErrInvalidDescriptor marks configuration faults found before a session starts.
	ErrInvalidDescriptor = errors.New("invalid probe descriptor")
	// ErrTimeout is the cause of an Errored status produced by an expired invocation.
	ErrTimeout = errors.New("probe timed out")
)

// Cadence is either periodic with a fixed delay between invocations or
// one-shot.
type Cadence struct {
	every   time.Duration
	oneShot bool
}

// Periodic schedules a probe again d after the previous invocation completed.
func Periodic(d time.Duration) Cadence { return Cadence{every: d} }

// OneShot schedules a single invocation.
func OneShot() Cadence { return Cadence{oneShot: true} }

// IsOneShot reports whether the probe runs once.
func (c Cadence) IsOneShot() bool { return c.oneShot }

// Every is the delay between a completed invocation and the next one.
func (c Cadence) Every() time.Duration { return c.every }

func (c Cadence) String() string {
	if c.oneShot {
		return "one-shot"
	}
	return "every " + c.every.String()
}

// Descriptor registers one probe with a session.
type Descriptor struct {
	Kind    types.ThreatKind
	Cadence Cadence
	Timeout time.Duration
	Check   Check
}

// Validate rejects descriptors that cannot be scheduled.
func (d Descriptor) Validate() error {
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidDescriptor, int(d.Kind))
	}
	if d.Check == nil {
		return fmt.Errorf("%w: %s has no check function", ErrInvalidDescriptor, d.Kind)
	}
	if !d.Cadence.oneShot && d.Cadence.every <= 0 {
		return fmt.Errorf("%w: %s cadence must be positive, got %s", ErrInvalidDescriptor, d.Kind, d.Cadence.every)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("%w: %s timeout must be positive, got %s", ErrInvalidDescriptor, d.Kind, d.Timeout)
	}
	return nil
}

// ValidateAll validates each descriptor and rejects duplicate kinds.
func ValidateAll(ds []Descriptor) error {
	seen := make(map[types.ThreatKind]bool, len(ds))
	for _, d := range ds {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Kind] {
			return fmt.Errorf("%w: %s registered twice", ErrInvalidDescriptor, d.Kind)
		}
		seen[d.Kind] = true
	}
	return nil
}

// Fixed returns a check that always reports status. Useful for hosts that
// already know an answer and for tests.
func Fixed(status types.ThreatStatus) Check {
	return func(context.Context, Handle) types.ThreatStatus { return status }
}

// PanicError is the cause recorded when a check panics.
type PanicError struct {
	Kind  types.ThreatKind
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s probe panicked: %v", e.Kind, e.Value)
}

// Invoke runs d.Check once under d.Timeout. A panic becomes Errored with a
// *PanicError cause; an expired deadline becomes Errored(ErrTimeout). The
// check's goroutine is abandoned on timeout and its context cancelled.
//
// If ctx itself is cancelled, the result is discarded and Invoke returns
// NotChecked and ctx.Err().
func Invoke(ctx context.Context, d Descriptor, h Handle) (types.ThreatStatus, error) {
	cctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	done := make(chan types.ThreatStatus, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- types.StatusErrored(&PanicError{Kind: d.Kind, Value: v})
			}
		}()
		done <- d.Check(cctx, h)
	}()

	select {
	case st := <-done:
		if err := ctx.Err(); err != nil {
			return types.StatusNotChecked(), err
		}
		return st, nil
	case <-cctx.Done():
		if err := ctx.Err(); err != nil {
			return types.StatusNotChecked(), err
		}
		// the check may have finished right at the deadline
		select {
		case st := <-done:
			return st, nil
		default:
		}
		return types.StatusErrored(fmt.Errorf("%w after %s", ErrTimeout, d.Timeout)), nil
	}
}
