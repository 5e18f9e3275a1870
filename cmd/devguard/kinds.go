package devguard

import (
	"fmt"

	"github.com/devguard/devguard/internal/detectors"
	"github.com/devguard/devguard/internal/types"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List threat kinds and their default cadence",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, k := range types.AllKinds() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %s\n", k, detectors.DefaultCadence(k))
			}
		},
	}
	rootCmd.AddCommand(cmd)
}
