package completion

import (
	"github.com/spf13/cobra"
)

// NewCmdBash creates the bash completion command.
func NewCmdBash() *cobra.Command {
	return &cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		Long: `Generate bash completion script for wtx.

To load completions in your current shell session:

  source <(wtx completion bash)

To load completions for every new session:

  # Linux
  wtx completion bash > /etc/bash_completion.d/wtx

  # macOS (requires bash-completion)
  wtx completion bash > $(brew --prefix)/etc/bash_completion.d/wtx`,
		Example: `  # Load in current session
  source <(wtx completion bash)

  # Install permanently (Linux)
  wtx completion bash | sudo tee /etc/bash_completion.d/wtx > /dev/null

  # Install permanently (macOS with Homebrew)
  wtx completion bash > $(brew --prefix)/etc/bash_completion.d/wtx`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	}
}
