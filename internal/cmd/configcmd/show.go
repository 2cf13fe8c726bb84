package configcmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openwikitools/wtx/internal/config"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the current wtx configuration with value source indicators.`,
		Example: `  # Show current config
  wtx config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runShow(noColor)
		},
	}

	return cmd
}

func runShow(noColor bool) error {
	if noColor {
		color.NoColor = true
	}

	configPath := config.DefaultConfigPath()

	// Load file config (may not exist)
	fileCfg, fileErr := config.Load(configPath)
	if fileErr != nil {
		fileCfg = &config.Config{}
	}

	// Load full config with env overrides
	cfg, _ := config.LoadWithEnv(configPath)

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	printField := func(label, value, fileValue string, envVars ...string) {
		_, _ = bold.Printf("%-16s", label+":")
		if value == "" {
			_, _ = dim.Println("-")
			return
		}

		fmt.Print(value)

		// Determine source
		source := "config"
		if fileErr != nil {
			source = "default"
		}
		for _, envVar := range envVars {
			if v := os.Getenv(envVar); v != "" && v == value {
				source = envVar
				break
			}
		}
		if fileValue != value && source == "config" {
			source = "default"
		}

		_, _ = dim.Printf("  (source: %s)\n", source)
	}

	printField("Language", cfg.LangCode, fileCfg.LangCode, "WTX_LANG_CODE")
	printField("Project", cfg.Project, fileCfg.Project, "WTX_PROJECT")
	printField("Server URL", cfg.ServerURL, fileCfg.ServerURL, "WTX_SERVER_URL")
	printField("Pages dir", cfg.PagesDir, fileCfg.PagesDir, "WTX_PAGES_DIR")
	printField("Namespace file", cfg.NamespaceFile, fileCfg.NamespaceFile, "WTX_NAMESPACE_FILE")

	fmt.Println()
	_, _ = dim.Printf("Config file: %s\n", configPath)
	if fileErr != nil {
		_, _ = dim.Println("(file not found)")
	}

	return nil
}
