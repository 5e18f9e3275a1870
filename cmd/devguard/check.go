package devguard

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/devguard/devguard/internal/audit"
	"github.com/devguard/devguard/internal/engine"
	"github.com/devguard/devguard/internal/report"
	"github.com/devguard/devguard/internal/types"
	"github.com/spf13/cobra"
)

var (
	flagKinds          []string
	flagAllow          []string
	flagBaseline       string
	flagUpdateBaseline bool
	flagAudit          bool
	flagAuditLog       string
)

func init() {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run every probe once and report",
		Long:  "Runs each enabled probe once, concurrently, and prints the resulting report. Exits 1 when a threat outside the allow list or baseline is present.",
		RunE:  runCheck,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringSliceVar(&flagKinds, "kind", nil, "only run these kinds (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&flagAllow, "allow", nil, "kinds that may be present without failing")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "baseline file of accepted threats")
	cmd.Flags().BoolVar(&flagUpdateBaseline, "update-baseline", false, "write the detected threats to --baseline and exit 0")
	cmd.Flags().BoolVar(&flagAudit, "audit", false, "append a record of this check to the audit log")
	cmd.Flags().StringVar(&flagAuditLog, "audit-log", audit.DefaultFile, "audit log path")

	_ = cmd.RegisterFlagCompletionFunc("kind", completeKinds)
	_ = cmd.RegisterFlagCompletionFunc("allow", completeKinds)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	st, err := loadSettings()
	if err != nil {
		return err
	}
	ds, err := filterKinds(st.probes, flagKinds)
	if err != nil {
		return err
	}
	allow, err := parseKinds(flagAllow)
	if err != nil {
		return err
	}
	if flagUpdateBaseline && flagBaseline == "" {
		return errors.New("--update-baseline requires --baseline")
	}

	started := time.Now()
	r, err := engine.CheckAll(cmd.Context(), ds, st.host)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if flagBaseline != "" {
		if flagUpdateBaseline {
			if err := report.SaveBaseline(flagBaseline, r); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Baseline updated.")
			return nil
		}
		base, err := report.LoadBaseline(flagBaseline)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		allow = append(allow, base.Accepted()...)
	}

	if flagJSON {
		if err := report.WriteJSON(out, r); err != nil {
			return err
		}
	} else {
		noColor := st.noColor || !report.ColorEnabled(out, false)
		if err := report.PrintTable(out, r, report.PrintOptions{NoColor: noColor}); err != nil {
			return err
		}
	}

	found := report.NewDetections(r, allow)
	if flagAudit {
		rec := audit.NewCheckRecord(st.host.Root, r, found, time.Since(started), flagBaseline)
		if err := audit.NewAuditLog(flagAuditLog).LogCheck(rec); err != nil {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "audit warning:", err)
		}
	}
	if report.ShouldFail(r, allow) {
		return &exitError{code: 1, msg: fmt.Sprintf("threats detected: %v", kindNames(found))}
	}
	return nil
}

func kindNames(ks []types.ThreatKind) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.String()
	}
	return out
}
