package completion

import (
	"github.com/spf13/cobra"
)

// NewCmdFish creates the fish completion command.
func NewCmdFish() *cobra.Command {
	return &cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		Long: `Generate fish completion script for wtx.

To load completions in your current shell session:

  wtx completion fish | source

To load completions for every new session:

  wtx completion fish > ~/.config/fish/completions/wtx.fish`,
		Example: `  # Load in current session
  wtx completion fish | source

  # Install permanently
  wtx completion fish > ~/.config/fish/completions/wtx.fish`,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	}
}
