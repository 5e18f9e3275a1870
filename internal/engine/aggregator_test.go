package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/devguard/devguard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_ApplyOneSnapshotPerEvent(t *testing.T) {
	stream := NewStream(types.NewReport())
	agg := NewAggregator(stream)

	r, err := agg.Apply(types.Emulator, types.StatusPresent())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Version())
	assert.Equal(t, types.Present, r.Get(types.Emulator).State)

	// identical status still counts as an event
	r, err = agg.Apply(types.Emulator, types.StatusPresent())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.Version())
	assert.Equal(t, r, stream.Latest())
}

func TestAggregator_ConcurrentAppliesLoseNothing(t *testing.T) {
	stream := NewStream(types.NewReport())
	agg := NewAggregator(stream)
	sub := stream.Subscribe()

	var seen []uint64
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range sub.C() {
			seen = append(seen, r.Version())
		}
	}()

	const perKind = 200
	var wg sync.WaitGroup
	for _, k := range types.AllKinds() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perKind; i++ {
				_, err := agg.Apply(k, types.StatusFromBool(i%2 == 1))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	stream.Close()
	<-done

	final := agg.Current()
	assert.Equal(t, uint64(perKind*len(types.AllKinds())), final.Version())
	for _, k := range types.AllKinds() {
		// last write per kind was i = perKind-1, odd
		assert.Equal(t, types.Present, final.Get(k).State, "kind %s", k)
	}
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
	require.NotEmpty(t, seen)
	assert.Equal(t, final.Version(), seen[len(seen)-1])
}

func TestAggregator_RejectsUnknownKindAndSealed(t *testing.T) {
	agg := NewAggregator(NewStream(types.NewReport()))

	_, err := agg.Apply(types.ThreatKind(99), types.StatusPresent())
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, uint64(0), agg.Current().Version())

	agg.Seal()
	_, err = agg.Apply(types.Hooks, types.StatusPresent())
	assert.True(t, errors.Is(err, ErrSessionClosed))
	assert.Equal(t, uint64(0), agg.Current().Version())
}
