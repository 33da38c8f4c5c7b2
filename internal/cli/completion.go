package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for supergrid.

To load completions:

Bash:
  $ source <(supergrid completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ supergrid completion bash > /etc/bash_completion.d/supergrid
  # macOS:
  $ supergrid completion bash > $(brew --prefix)/etc/bash_completion.d/supergrid

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ supergrid completion zsh > "${fpath[1]}/_supergrid"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ supergrid completion fish | source

  # To load completions for each session, execute once:
  $ supergrid completion fish > ~/.config/fish/completions/supergrid.fish

PowerShell:
  PS> supergrid completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> supergrid completion powershell > supergrid.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
