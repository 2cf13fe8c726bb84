// Package init provides the init command for wtx.
package init

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/openwikitools/wtx/api"
	"github.com/openwikitools/wtx/internal/config"
)

// NewCmdInit creates the init command.
func NewCmdInit() *cobra.Command {
	var (
		lang     string
		project  string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize wtx configuration",
		Long: `Initialize wtx with your wiki settings.

This command will guide you through setting up the language code,
project, wiki server, and page directory. The configuration will be
saved to ~/.config/wtx/config.yml.

The server URL is only needed for the fetch and search commands; the
other commands work entirely against the local page directory.`,
		Example: `  # Interactive setup
  wtx init

  # Pre-populate language and project
  wtx init --lang de --project wiktionary`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(lang, project, noVerify)
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Wiki language code (e.g. en, de, fr)")
	cmd.Flags().StringVar(&project, "project", "", "Wiki project (e.g. wikipedia, wiktionary)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip server verification")

	return cmd
}

func runInit(prefillLang, prefillProject string, noVerify bool) error {
	configPath := config.DefaultConfigPath()

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		err := huh.NewConfirm().
			Title("Configuration already exists").
			Description(fmt.Sprintf("Overwrite %s?", configPath)).
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Initialization cancelled.")
			return nil
		}
	}

	cfg := &config.Config{}

	// Use prefilled values or prompt
	if prefillLang != "" {
		cfg.LangCode = prefillLang
	}
	if prefillProject != "" {
		cfg.Project = prefillProject
	}

	// Build the form
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Language code").
				Description("The wiki language, e.g. en, de, fr").
				Placeholder("en").
				Value(&cfg.LangCode).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("language code is required")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Title("Project").
				Description("The wiki family").
				Options(
					huh.NewOption("Wikipedia", "wikipedia"),
					huh.NewOption("Wiktionary", "wiktionary"),
					huh.NewOption("Wikibooks", "wikibooks"),
					huh.NewOption("Wikisource", "wikisource"),
					huh.NewOption("Wikiquote", "wikiquote"),
				).
				Value(&cfg.Project),

			huh.NewInput().
				Title("Server URL (optional)").
				Description("Used by fetch and search, e.g. https://en.wikipedia.org").
				Placeholder("https://en.wikipedia.org").
				Value(&cfg.ServerURL),

			huh.NewInput().
				Title("Page directory (optional)").
				Description("Directory holding .wiki page files").
				Placeholder("./pages").
				Value(&cfg.PagesDir),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	// Normalize the server URL
	cfg.NormalizeServerURL()

	// Validate
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Verify the server unless skipped
	if !noVerify && cfg.ServerURL != "" {
		fmt.Print("Verifying server... ")
		if err := verifyServer(cfg.ServerURL); err != nil {
			fmt.Println("failed!")
			return fmt.Errorf("server verification failed: %w", err)
		}
		fmt.Println("success!")
	}

	// Save configuration
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	fmt.Println("\nYou're all set! Try running:")
	fmt.Println("  wtx fetch \"Main Page\"")
	fmt.Println("  echo '{{#expr: 2 + 2}}' | wtx expand")

	return nil
}

// verifyServer checks that the server answers Action API requests.
func verifyServer(serverURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := api.NewClient(serverURL)
	_, err := client.FetchPage(ctx, "Main Page")
	return err
}
