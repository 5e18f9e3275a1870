package devguard

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/devguard/devguard/internal/audit"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var flagHistoryLimit int

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded check runs from the audit log",
		RunE:  runHistory,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagAuditLog, "audit-log", audit.DefaultFile, "audit log path")
	cmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "show at most this many records (0 = all)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	recs, err := audit.NewAuditLog(flagAuditLog).LoadHistory()
	if err != nil {
		return err
	}
	if flagHistoryLimit > 0 && len(recs) > flagHistoryLimit {
		recs = recs[:flagHistoryLimit]
	}
	out := cmd.OutOrStdout()
	if flagJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	if len(recs) == 0 {
		_, err := fmt.Fprintln(out, "No checks recorded")
		return err
	}

	table := tablewriter.NewWriter(out)
	table.Header("TIME", "ROOT", "DETECTED", "NEW", "DURATION")
	for _, r := range recs {
		row := []string{
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Root,
			strings.Join(r.Detected, ", "),
			strings.Join(r.NewDetections, ", "),
			r.Duration,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
