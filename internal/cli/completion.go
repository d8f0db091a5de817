package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/assets"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for dialoguegraph.

To load completions:

Bash:
  $ source <(dialoguegraph completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ dialoguegraph completion bash > /etc/bash_completion.d/dialoguegraph
  # macOS:
  $ dialoguegraph completion bash > $(brew --prefix)/etc/bash_completion.d/dialoguegraph

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ dialoguegraph completion zsh > "${fpath[1]}/_dialoguegraph"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ dialoguegraph completion fish | source

  # To load completions for each session, execute once:
  $ dialoguegraph completion fish > ~/.config/fish/completions/dialoguegraph.fish

PowerShell:
  PS> dialoguegraph completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> dialoguegraph completion powershell > dialoguegraph.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completeGraphNames completes the first positional argument with asset
// names from the configured repository.
func (c *CLI) completeGraphNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	var names []string
	err := c.withRepo(ctx, func(repo assets.Repository) error {
		all, err := repo.List(ctx)
		for _, name := range all {
			if strings.HasPrefix(name, toComplete) {
				names = append(names, name)
			}
		}
		return err
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
