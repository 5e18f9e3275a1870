package engine

import (
	"context"

	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
	"golang.org/x/sync/errgroup"
)

// Check invokes one probe synchronously, independent of any session. The
// cadence is irrelevant here; a missing timeout falls back to
// probe.DefaultTimeout.
func Check(ctx context.Context, d probe.Descriptor, h probe.Handle) (types.ThreatStatus, error) {
	d = pullDescriptor(d)
	if err := d.Validate(); err != nil {
		return types.StatusNotChecked(), err
	}
	return probe.Invoke(ctx, d, h)
}

// CheckAll runs every probe once, concurrently, and folds the results into
// a report. Kinds without a descriptor stay NotChecked. If ctx is cancelled
// the partial report is returned along with ctx.Err().
func CheckAll(ctx context.Context, ds []probe.Descriptor, h probe.Handle) (types.Report, error) {
	pulled := make([]probe.Descriptor, len(ds))
	for i, d := range ds {
		pulled[i] = pullDescriptor(d)
	}
	if err := probe.ValidateAll(pulled); err != nil {
		return types.NewReport(), err
	}

	agg := NewAggregator(NewStream(types.NewReport()))
	var g errgroup.Group
	for _, d := range pulled {
		g.Go(func() error {
			st, err := probe.Invoke(ctx, d, h)
			if err != nil {
				return err
			}
			_, err = agg.Apply(d.Kind, st)
			return err
		})
	}
	err := g.Wait()
	return agg.Current(), err
}

func pullDescriptor(d probe.Descriptor) probe.Descriptor {
	d.Cadence = probe.OneShot()
	if d.Timeout <= 0 {
		d.Timeout = probe.DefaultTimeout
	}
	return d
}
