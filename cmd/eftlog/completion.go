package main

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for eftlog.

Bash:
  $ source <(eftlog completion bash)

Zsh:
  $ eftlog completion zsh > "${fpath[1]}/_eftlog"

Fish:
  $ eftlog completion fish > ~/.config/fish/completions/eftlog.fish

PowerShell:
  PS> eftlog completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Usage()
		}

		root := cmd.Root()
		out := cmd.OutOrStdout()

		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(out, true)
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// registerFormatCompletion completes the --format flag of cmd.
func registerFormatCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{"jsonl", "pretty", "yaml"}, cobra.ShellCompDirectiveNoFileComp))
}

// completeEventTypes completes a comma-separated list of event types,
// skipping types already present in the list or on the flag. Candidates are
// returned with the already typed prefix so every shell inserts them whole.
func completeEventTypes(flagName string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		prefix, current := "", toComplete
		if i := strings.LastIndex(toComplete, ","); i >= 0 {
			prefix, current = toComplete[:i+1], toComplete[i+1:]
		}
		current = strings.ToLower(strings.TrimSpace(current))

		used := strings.Split(prefix, ",")
		if vals, err := cmd.Flags().GetStringSlice(flagName); err == nil {
			used = append(used, vals...)
		}
		for i, v := range used {
			used[i] = strings.ToLower(strings.TrimSpace(v))
		}

		var candidates []string
		for _, name := range ValidEventTypeNames() {
			if strings.HasPrefix(name, current) && !slices.Contains(used, name) {
				candidates = append(candidates, prefix+name)
			}
		}
		return candidates, cobra.ShellCompDirectiveNoSpace | cobra.ShellCompDirectiveNoFileComp
	}
}

// registerEventTypeCompletion registers completion for an event type flag.
func registerEventTypeCompletion(cmd *cobra.Command, flagName string) {
	_ = cmd.RegisterFlagCompletionFunc(flagName, completeEventTypes(flagName))
}
