// Package searchcmd provides the search command for finding wiki pages.
package searchcmd

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/openwikitools/wtx/api"
	"github.com/openwikitools/wtx/internal/config"
	"github.com/openwikitools/wtx/internal/view"
	"github.com/openwikitools/wtx/pkg/wikitext"
)

type searchOptions struct {
	query     string
	server    string
	namespace string

	// Pagination
	limit  int
	offset int

	// Output
	output  string
	noColor bool
}

// NewCmdSearch creates the search command.
func NewCmdSearch() *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search pages on a wiki",
		Long: `Full-text search on a live wiki.

Searches the main namespace by default; use --namespace to search
templates or other namespaces.`,
		Example: `  # Search articles
  wtx search "static typing"

  # Search templates
  wtx search "infobox" --namespace Template

  # Search a specific wiki
  wtx search "garde" --server https://fr.wiktionary.org

  # Output as JSON for scripting
  wtx search "config" -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.query = args[0]
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			return runSearch(opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.server, "server", "s", "", "Wiki server URL (e.g. https://en.wikipedia.org)")
	cmd.Flags().StringVarP(&opts.namespace, "namespace", "n", "", "Namespace to search (name, e.g. Template)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 10, "Maximum number of results")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Result offset for pagination")

	return cmd
}

// snippetTagRe strips the highlight markup the API puts in snippets.
var snippetTagRe = regexp.MustCompile(`</?span[^>]*>`)

func runSearch(opts *searchOptions, client *api.Client) error {
	// Validate output format
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}

	// Validate limit
	if opts.limit < 0 {
		return fmt.Errorf("invalid limit: %d (must be >= 0)", opts.limit)
	}

	// Resolve the namespace name to its ID
	nsID := 0
	if opts.namespace != "" {
		ns, ok := wikitext.NamespaceByName(opts.namespace)
		if !ok {
			return fmt.Errorf("unknown namespace %q", opts.namespace)
		}
		nsID = ns.ID
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)

	// Handle limit 0 - return empty
	if opts.limit == 0 {
		if opts.output == "json" {
			return renderer.RenderJSON([]interface{}{})
		}
		renderer.RenderText("No results.")
		return nil
	}

	// Create an API client if not provided
	if client == nil {
		cfg, err := config.LoadWithEnv(config.DefaultConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w (run 'wtx init' to configure)", err)
		}
		if opts.server == "" {
			opts.server = cfg.ServerURL
		}
		if opts.server == "" {
			return fmt.Errorf("no wiki server configured: pass --server or set server_url in the config")
		}
		client = api.NewClient(opts.server)
	}

	result, err := client.Search(context.Background(), &api.SearchOptions{
		Query:     opts.query,
		Namespace: nsID,
		Limit:     opts.limit,
		Offset:    opts.offset,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(result.Results) == 0 {
		renderer.RenderText("No results found.")
		return nil
	}

	if opts.output == "json" {
		return renderer.RenderJSON(result)
	}

	// Render results
	headers := []string{"TITLE", "WORDS", "SNIPPET"}
	var rows [][]string

	for _, r := range result.Results {
		snippet := snippetTagRe.ReplaceAllString(r.Snippet, "")
		rows = append(rows, []string{
			view.Truncate(r.Title, 40),
			fmt.Sprintf("%d", r.WordCount),
			view.Truncate(snippet, 60),
		})
	}

	renderer.RenderTable(headers, rows)

	if result.HasMore() {
		fmt.Fprintf(os.Stderr, "\n(showing %d of %d results, use --limit and --offset to see more)\n",
			len(result.Results), result.TotalHits)
	}

	return nil
}
