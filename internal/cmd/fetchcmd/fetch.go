// Package fetchcmd provides the fetch command.
package fetchcmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openwikitools/wtx/api"
	"github.com/openwikitools/wtx/internal/config"
	"github.com/openwikitools/wtx/internal/view"
	"github.com/openwikitools/wtx/pkg/wikitext"
)

type fetchOptions struct {
	server   string
	pagesDir string
	stdout   bool
	output   string
	noColor  bool
}

// NewCmdFetch creates the fetch command.
func NewCmdFetch() *cobra.Command {
	opts := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch <title>...",
		Short: "Fetch page source from a wiki",
		Long: `Fetch the raw wikitext of pages from a live wiki and store them in
the page directory, one ".wiki" file per page. Namespace prefixes
become subdirectories, so "Template:Infobox" is written to
Template/Infobox.wiki and found by the other commands.`,
		Example: `  # Fetch an article and a template into the configured page directory
  wtx fetch "Go (programming language)" "Template:Infobox"

  # Fetch from a specific wiki
  wtx fetch "Griko" --server https://en.wiktionary.org --pages ./pages

  # Print the source instead of writing files
  wtx fetch "Main Page" --stdout`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			return runFetch(args, opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.server, "server", "s", "", "Wiki server URL (e.g. https://en.wikipedia.org)")
	cmd.Flags().StringVarP(&opts.pagesDir, "pages", "p", "", "Page directory to write into")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "Print page source instead of writing files")

	return cmd
}

func runFetch(titles []string, opts *fetchOptions, client *api.Client) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}

	// Create an API client if not provided (allows injection for testing)
	if client == nil {
		cfg, err := config.LoadWithEnv(config.DefaultConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w (run 'wtx init' to configure)", err)
		}
		if opts.server == "" {
			opts.server = cfg.ServerURL
		}
		if opts.pagesDir == "" {
			opts.pagesDir = cfg.PagesDir
		}
		if opts.server == "" {
			return fmt.Errorf("no wiki server configured: pass --server or set server_url in the config")
		}
		client = api.NewClient(opts.server)
	}
	if !opts.stdout && opts.pagesDir == "" {
		return fmt.Errorf("no page directory configured: pass --pages or set pages_dir in the config")
	}

	pages, err := client.FetchPages(context.Background(), titles)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)

	if opts.output == "json" {
		return renderer.RenderJSON(pages)
	}

	for _, page := range pages {
		if page.Missing {
			renderer.Error(fmt.Sprintf("%s: not found", page.Title))
			continue
		}

		if opts.stdout {
			renderer.RenderText(page.Content)
			continue
		}

		path := fileForTitle(opts.pagesDir, page.Title)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create page directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(page.Content), 0644); err != nil {
			return fmt.Errorf("failed to write page file: %w", err)
		}

		msg := fmt.Sprintf("%s -> %s", page.Title, path)
		if page.Redirect != "" {
			msg += fmt.Sprintf(" (redirect to %s)", page.Redirect)
		}
		renderer.Success(msg)
	}

	return nil
}

// fileForTitle maps a page title to its file in the page directory:
// a known namespace prefix becomes a subdirectory and spaces become
// underscores, the inverse of the directory loader's mapping.
func fileForTitle(dir, title string) string {
	rel := title
	if prefix, rest, ok := strings.Cut(title, ":"); ok {
		if ns, found := wikitext.NamespaceByName(prefix); found && ns.Name != "" {
			rel = ns.Name + "/" + rest
		}
	}
	rel = strings.ReplaceAll(rel, " ", "_")
	return filepath.Join(dir, filepath.FromSlash(rel)+".wiki")
}
