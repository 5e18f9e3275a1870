package devguard

import (
	"fmt"
	"strings"

	"github.com/devguard/devguard/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgOutput  string
	cfgForce   bool
	cfgCadence string
	cfgTimeout string
	cfgDisable []string
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .devguard.yml with the default probe schedule",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", ".devguard.yml", "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&cfgCadence, "cadence", "", "default cadence for periodic probes (e.g. 30s)")
	initCmd.Flags().StringVar(&cfgTimeout, "timeout", "", "default per-invocation timeout (e.g. 2s)")
	initCmd.Flags().StringSliceVar(&cfgDisable, "disable", nil, "kinds to disable")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the global config file location",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.GlobalPath())
		},
	}
	cfgCmd.AddCommand(pathCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	fc := config.Default()
	if s := optStrPtr(cfgCadence); s != nil {
		fc.DefaultCadence = s
	}
	if s := optStrPtr(cfgTimeout); s != nil {
		fc.DefaultTimeout = s
	}
	if flagSignature != "" {
		fc.ExpectedSignature = strPtr(flagSignature)
	}
	if flagRoot != "" {
		fc.Root = strPtr(flagRoot)
	}
	disabled, err := parseKinds(cfgDisable)
	if err != nil {
		return err
	}
	for _, k := range disabled {
		pc := fc.Probes[k.String()]
		pc.Enabled = boolPtr(false)
		fc.Probes[k.String()] = pc
	}
	// refuse to write something that would not load back
	if _, err := config.Resolve(fc); err != nil {
		return err
	}

	if err := config.WriteFile(cfgOutput, fc, cfgForce); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}

func strPtr(s string) *string { return &s }
func optStrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
func boolPtr(v bool) *bool { return &v }
