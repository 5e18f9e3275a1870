package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// minRetryDelay bounds how quickly a one-shot lane retries after a
// scheduling fault.
const minRetryDelay = time.Second

// Sink receives every probe result. A non-nil error is a scheduling fault
// for the lane that produced the result.
type Sink func(types.ThreatKind, types.ThreatStatus) error

// Scheduler runs one lane per descriptor. Lanes share nothing but the sink
// and the cancellation signal.
type Scheduler struct {
	lanes []*lane
	group errgroup.Group
}

// NewScheduler builds lanes for descs. Descriptors are assumed valid.
func NewScheduler(descs []probe.Descriptor, h probe.Handle, sink Sink, log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Scheduler{lanes: make([]*lane, 0, len(descs))}
	for _, d := range descs {
		s.lanes = append(s.lanes, &lane{
			desc:   d,
			handle: h,
			sink:   sink,
			log:    log.WithField("kind", d.Kind.String()),
		})
	}
	return s
}

// Start launches every lane. Lanes stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, l := range s.lanes {
		s.group.Go(func() error {
			l.run(ctx)
			return nil
		})
	}
}

// Wait blocks until every lane has returned.
func (s *Scheduler) Wait() {
	_ = s.group.Wait()
}

type lane struct {
	desc   probe.Descriptor
	handle probe.Handle
	sink   Sink
	log    logrus.FieldLogger
}

// run drives the lane with fixed-delay semantics: the wait starts when an
// invocation completes, so one probe never overlaps with itself.
func (l *lane) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := l.tick(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.log.WithError(err).Warn("scheduling fault, retrying at next cadence boundary")
		}
		if l.desc.Cadence.IsOneShot() && err == nil {
			return
		}
		if !sleep(ctx, l.delay()) {
			return
		}
	}
}

func (l *lane) delay() time.Duration {
	if !l.desc.Cadence.IsOneShot() {
		return l.desc.Cadence.Every()
	}
	if l.desc.Timeout > minRetryDelay {
		return l.desc.Timeout
	}
	return minRetryDelay
}

// tick performs one invocation and hands the result to the sink. Probe
// faults arrive as Errored statuses; only failures of the lane itself are
// returned.
func (l *lane) tick(ctx context.Context) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("lane panicked: %v", v)
		}
	}()

	st, cerr := probe.Invoke(ctx, l.desc, l.handle)
	if cerr != nil {
		return nil
	}
	if st.State == types.Errored {
		l.log.WithField("cause", st.Cause).Debug("probe errored")
	}
	if err := l.sink(l.desc.Kind, st); err != nil {
		return fmt.Errorf("apply result: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
