package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/devguard/devguard/internal/types"
)

// ErrStreamClosed is returned by Subscription.Next once no further snapshots
// will arrive.
var ErrStreamClosed = errors.New("report stream closed")

// Stream broadcasts Report snapshots to any number of subscribers. Every
// subscriber owns a one-slot mailbox: a new subscriber finds the latest
// snapshot waiting, and a subscriber that has not consumed its slot when a
// newer snapshot arrives only ever sees the newer one. Publishing never blocks.
type Stream struct {
	mu     sync.Mutex
	latest types.Report
	subs   map[*Subscription]struct{}
	closed bool
}

// NewStream creates a stream whose latest snapshot is initial.
func NewStream(initial types.Report) *Stream {
	return &Stream{
		latest: initial,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Latest returns the most recently published snapshot.
func (s *Stream) Latest() types.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Subscribe registers a subscriber and primes it with the latest snapshot.
// Subscribing to a closed stream yields the final snapshot followed by
// channel closure.
func (s *Stream) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan types.Report, 1), stream: s}
	s.mu.Lock()
	defer s.mu.Unlock()
	sub.ch <- s.latest
	if s.closed {
		sub.closeLocked()
		return sub
	}
	s.subs[sub] = struct{}{}
	return sub
}

// publish offers r to every subscriber. Snapshots that do not advance the
// version are dropped. It reports false once the stream is closed.
func (s *Stream) publish(r types.Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if r.Version() <= s.latest.Version() {
		return true
	}
	s.latest = r
	for sub := range s.subs {
		sub.offer(r)
	}
	return true
}

// Close ends publication. Subscribers can still drain the snapshot already
// in their slot, after which their channel reports closed.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		sub.closeLocked()
	}
	s.subs = nil
}

// Subscribers returns the number of attached subscribers.
func (s *Stream) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Subscription is one consumer's view of a Stream.
type Subscription struct {
	ch     chan types.Report
	stream *Stream
	closed bool // guarded by stream.mu
}

// C delivers snapshots in strictly increasing version order. It is closed
// when the stream closes or the subscription is cancelled.
func (sub *Subscription) C() <-chan types.Report { return sub.ch }

// Next waits for the next snapshot.
func (sub *Subscription) Next(ctx context.Context) (types.Report, error) {
	select {
	case r, ok := <-sub.ch:
		if !ok {
			return types.Report{}, ErrStreamClosed
		}
		return r, nil
	case <-ctx.Done():
		return types.Report{}, ctx.Err()
	}
}

// Unsubscribe detaches the subscriber. Other subscribers are unaffected.
// Calling it more than once is harmless.
func (sub *Subscription) Unsubscribe() {
	s := sub.stream
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs != nil {
		delete(s.subs, sub)
	}
	sub.closeLocked()
}

// offer replaces any unread snapshot with r. Callers hold stream.mu, which
// makes the publisher the only sender, so the final send cannot block.
func (sub *Subscription) offer(r types.Report) {
	select {
	case sub.ch <- r:
		return
	default:
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- r
}

func (sub *Subscription) closeLocked() {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
}
