package configcmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openwikitools/wtx/api"
	"github.com/openwikitools/wtx/internal/config"
	"github.com/openwikitools/wtx/pkg/wikitext"
)

// NewCmdTest creates the config test command.
func NewCmdTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the configured page directory and wiki server",
		Long:  `Check that the configured page directory loads and that the wiki server answers API requests.`,
		Example: `  # Test configuration
  wtx config test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runTest(noColor, nil)
		},
	}

	return cmd
}

func runTest(noColor bool, client *api.Client, cfgs ...*config.Config) error {
	if noColor {
		color.NoColor = true
	}

	var cfg *config.Config
	if len(cfgs) > 0 && cfgs[0] != nil {
		cfg = cfgs[0]
	} else {
		var err error
		cfg, err = config.LoadWithEnv(config.DefaultConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w (run 'wtx init' to configure)", err)
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w (run 'wtx init' to configure)", err)
		}
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	dim := color.New(color.Faint)

	green.Printf("✓ Configuration valid (%s.%s)\n", cfg.LangCode, cfg.Project)

	if cfg.PagesDir != "" {
		store := wikitext.NewMemoryStore()
		count, err := wikitext.LoadDir(store, cfg.PagesDir)
		if err != nil {
			red.Println("✗ Page directory failed to load:", err)
			return fmt.Errorf("page directory failed to load: %w", err)
		}
		green.Printf("✓ Page directory loaded (%d pages from %s)\n", count, cfg.PagesDir)
	} else {
		dim.Println("- No page directory configured")
	}

	if cfg.ServerURL != "" {
		fmt.Printf("Testing server %s...\n", cfg.ServerURL)

		if client == nil {
			client = api.NewClient(cfg.ServerURL)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := client.FetchPage(ctx, "Main Page"); err != nil {
			red.Println("✗ Server request failed:", err)
			fmt.Println("\nCheck your server URL with: wtx config show")
			fmt.Println("Reconfigure with: wtx init")
			return fmt.Errorf("server request failed: %w", err)
		}
		green.Println("✓ Server answered an API request")
	} else {
		dim.Println("- No wiki server configured")
	}

	return nil
}
