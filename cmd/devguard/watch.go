package devguard

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devguard/devguard/internal/engine"
	"github.com/devguard/devguard/internal/report"
	"github.com/devguard/devguard/internal/types"
	"github.com/spf13/cobra"
)

var (
	flagWatchFor    time.Duration
	flagChangesOnly bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run probes continuously and print every report change",
		Long:  "Starts a session that runs each probe at its cadence and prints each new report snapshot until interrupted or --for elapses.",
		RunE:  runWatch,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringSliceVar(&flagKinds, "kind", nil, "only run these kinds (repeatable or comma-separated)")
	cmd.Flags().DurationVar(&flagWatchFor, "for", 0, "stop after this long (0 = until interrupted)")
	cmd.Flags().BoolVar(&flagChangesOnly, "changes-only", false, "skip snapshots whose statuses did not change")

	_ = cmd.RegisterFlagCompletionFunc("kind", completeKinds)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}
	ds, err := filterKinds(st.probes, flagKinds)
	if err != nil {
		return err
	}

	sess, err := engine.NewSession(engine.Config{Probes: ds, Handle: st.host, Logger: newLogger(cmd)})
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	sub := sess.Subscribe()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if flagWatchFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flagWatchFor)
		defer cancel()
	}

	out := cmd.OutOrStdout()
	noColor := st.noColor || !report.ColorEnabled(out, false)
	var (
		printed bool
		last    uint64
	)
	emit := func(r types.Report) error {
		if flagChangesOnly && printed && r.Fingerprint() == last {
			return nil
		}
		printed, last = true, r.Fingerprint()
		if flagJSON {
			return report.WriteJSONLine(out, r)
		}
		return report.PrintLine(out, r, report.PrintOptions{NoColor: noColor})
	}

	// The initial snapshot is emitted before any lane can replace it.
	initial, err := sub.Next(ctx)
	if err != nil {
		return err
	}
	if err := emit(initial); err != nil {
		return err
	}
	if err := sess.Start(); err != nil {
		return err
	}

	for {
		r, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, engine.ErrStreamClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := emit(r); err != nil {
			return err
		}
	}
}
