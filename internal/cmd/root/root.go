// Package root provides the root command for the wtx CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/openwikitools/wtx/internal/cmd/completion"
	"github.com/openwikitools/wtx/internal/cmd/configcmd"
	"github.com/openwikitools/wtx/internal/cmd/expandcmd"
	"github.com/openwikitools/wtx/internal/cmd/fetchcmd"
	initcmd "github.com/openwikitools/wtx/internal/cmd/init"
	"github.com/openwikitools/wtx/internal/cmd/parsecmd"
	"github.com/openwikitools/wtx/internal/cmd/rendercmd"
	"github.com/openwikitools/wtx/internal/cmd/searchcmd"
	"github.com/openwikitools/wtx/internal/version"
)

// NewCmdRoot creates the root command for wtx.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wtx",
		Short: "A command-line wikitext processor",
		Long: `wtx expands and parses MediaWiki wikitext.

It provides commands for expanding templates and parser functions,
parsing pages into a syntax tree, and rendering pages as wikitext,
HTML, plain text, or markdown. Template pages are read from a local
page directory or fetched from a live wiki.

Get started by running: wtx init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/wtx/config.yml)")
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table, json, plain")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	// Set version template
	cmd.SetVersionTemplate("wtx version {{.Version}} (commit: " + version.Commit + ", built: " + version.Date + ")\n")

	// Subcommands
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(expandcmd.NewCmdExpand())
	cmd.AddCommand(parsecmd.NewCmdParse())
	cmd.AddCommand(rendercmd.NewCmdRender())
	cmd.AddCommand(fetchcmd.NewCmdFetch())
	cmd.AddCommand(searchcmd.NewCmdSearch())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}
