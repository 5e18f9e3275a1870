package devguard

import (
	"fmt"

	"github.com/devguard/devguard/internal/types"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Long:      "Prints a completion script for the given shell. Threat kind names are completed for --kind and --allow.",
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
		Example: `
# Bash
devguard completion bash > /etc/bash_completion.d/devguard

# Zsh
devguard completion zsh > "${fpath[1]}/_devguard"

# Fish
devguard completion fish > ~/.config/fish/completions/devguard.fish

# PowerShell
devguard completion powershell > $PROFILE\devguard.ps1
`,
	}
	rootCmd.AddCommand(cmd)
}

// completeKinds offers threat kind names for flags taking kinds.
func completeKinds(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, 0, len(types.AllKinds()))
	for _, k := range types.AllKinds() {
		names = append(names, k.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
