// Package expandcmd provides the expand command.
package expandcmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/openwikitools/wtx/internal/config"
	"github.com/openwikitools/wtx/internal/view"
	"github.com/openwikitools/wtx/pkg/wikitext"
)

type expandOptions struct {
	pagesDir string
	title    string
	page     string
	preOnly  bool
	quiet    bool
	output   string
	noColor  bool
}

// NewCmdExpand creates the expand command.
func NewCmdExpand() *cobra.Command {
	opts := &expandOptions{}

	cmd := &cobra.Command{
		Use:   "expand [file]",
		Short: "Expand templates and parser functions",
		Long: `Expand the templates and parser functions in a wikitext page.

The input is a file, standard input, or a page selected with --page
from the page directory. Template bodies are looked up in the page
directory configured with --pages or pages_dir in the config.`,
		Example: `  # Expand a file against a page directory
  wtx expand article.wiki --pages ./pages

  # Expand standard input
  echo '{{#expr: 2 + 2}}' | wtx expand

  # Expand a page stored in the page directory
  wtx expand --page "Main Page" --pages ./pages

  # Expand only structure-producing templates
  wtx expand article.wiki --pages ./pages --pre-expand-only`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			return runExpand(file, opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.pagesDir, "pages", "p", "", "Page directory with template sources")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Title to process the input under")
	cmd.Flags().StringVar(&opts.page, "page", "", "Expand a page from the page directory instead of a file")
	cmd.Flags().BoolVar(&opts.preOnly, "pre-expand-only", false, "Expand only templates that produce page structure")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress diagnostics")

	return cmd
}

func runExpand(file string, opts *expandOptions, p *wikitext.Processor) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}

	// Create a processor if not provided (allows injection for testing)
	if p == nil {
		var err error
		p, err = newProcessor(opts.pagesDir)
		if err != nil {
			return err
		}
	}

	title, text, err := readInput(p, file, opts.page, opts.title)
	if err != nil {
		return err
	}

	p.StartPage(title)
	expanded := p.ExpandWith(text, wikitext.ExpandOptions{PreExpand: opts.preOnly})

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	if opts.output == "json" {
		return renderer.RenderJSON(map[string]any{
			"title":    title,
			"expanded": expanded,
			"errors":   len(p.Errors),
			"warnings": len(p.Warnings),
		})
	}

	renderer.RenderText(expanded)

	if !opts.quiet && (len(p.Errors) > 0 || len(p.Warnings) > 0) {
		diag := view.NewRenderer(view.Format(opts.output), opts.noColor)
		diag.SetWriter(os.Stderr)
		diag.RenderDiagnostics(p)
	}

	return nil
}

// newProcessor builds a processor from the configuration and loads the
// page directory. The directory flag overrides the configured one.
func newProcessor(pagesDir string) (*wikitext.Processor, error) {
	cfg, err := config.LoadWithEnv(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w (run 'wtx init' to configure)", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w (run 'wtx init' to configure)", err)
	}

	p := wikitext.NewProcessor(wikitext.Options{
		LangCode: cfg.LangCode,
		Project:  cfg.Project,
	})

	if pagesDir == "" {
		pagesDir = cfg.PagesDir
	}
	if pagesDir != "" {
		if _, err := p.LoadDir(pagesDir); err != nil {
			return nil, err
		}
		p.AnalyzeTemplates()
	}
	return p, nil
}

// readInput resolves the text to process: a stored page, a file, or
// standard input. The returned title falls back to the file name or
// "Stdin".
func readInput(p *wikitext.Processor, file, pageTitle, title string) (string, string, error) {
	if pageTitle != "" {
		page, ok := p.GetPage(pageTitle, 0)
		if !ok {
			return "", "", fmt.Errorf("page %q not found in the page directory", pageTitle)
		}
		if title == "" {
			title = page.Title
		}
		return title, page.Body, nil
	}

	if file == "" || file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("failed to read standard input: %w", err)
		}
		if title == "" {
			title = "Stdin"
		}
		return title, string(data), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return "", "", fmt.Errorf("failed to read input file: %w", err)
	}
	if title == "" {
		title = file
	}
	return title, string(data), nil
}
