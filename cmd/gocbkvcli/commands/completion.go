package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for gocbkvcli.

To load completions:

Bash:
  # Linux:
  $ gocbkvcli completion bash > /etc/bash_completion.d/gocbkvcli
  # macOS:
  $ gocbkvcli completion bash > $(brew --prefix)/etc/bash_completion.d/gocbkvcli

Zsh:
  $ gocbkvcli completion zsh > "${fpath[1]}/_gocbkvcli"

Fish:
  $ gocbkvcli completion fish > ~/.config/fish/completions/gocbkvcli.fish

PowerShell:
  PS> gocbkvcli completion powershell | Out-String | Invoke-Expression
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
