// Package rendercmd provides the render command.
package rendercmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/spf13/cobra"

	"github.com/openwikitools/wtx/internal/config"
	"github.com/openwikitools/wtx/internal/view"
	"github.com/openwikitools/wtx/pkg/wikitext"
)

type renderOptions struct {
	pagesDir string
	title    string
	format   string
	output   string
	noColor  bool
}

// validFormats are the render targets.
var validFormats = map[string]bool{
	"wikitext": true,
	"html":     true,
	"text":     true,
	"markdown": true,
}

// NewCmdRender creates the render command.
func NewCmdRender() *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a page as wikitext, HTML, text, or markdown",
		Long: `Parse a wikitext page and render it in another form.

"wikitext" round-trips the parse tree back to wikitext. "html" expands
all templates and keeps the markup the expansion produces. "text"
additionally strips references, tags, and links down to plain text.
"markdown" converts the html rendition to markdown.`,
		Example: `  # Plain text rendition of a page
  wtx render article.wiki --pages ./pages --format text

  # Markdown
  wtx render article.wiki --pages ./pages --format markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			return runRender(file, opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.pagesDir, "pages", "p", "", "Page directory with template sources")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Title to process the input under")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Render format: wikitext, html, text, markdown")

	return cmd
}

func runRender(file string, opts *renderOptions, p *wikitext.Processor) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}
	if !validFormats[opts.format] {
		return fmt.Errorf("invalid format %q: must be one of wikitext, html, text, markdown", opts.format)
	}

	// Create a processor if not provided (allows injection for testing)
	if p == nil {
		cfg, err := config.LoadWithEnv(config.DefaultConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w (run 'wtx init' to configure)", err)
		}
		p = wikitext.NewProcessor(wikitext.Options{
			LangCode: cfg.LangCode,
			Project:  cfg.Project,
		})
		pagesDir := opts.pagesDir
		if pagesDir == "" {
			pagesDir = cfg.PagesDir
		}
		if pagesDir != "" {
			if _, err := p.LoadDir(pagesDir); err != nil {
				return err
			}
			p.AnalyzeTemplates()
		}
	}

	title := opts.title
	var text string
	if file == "" || file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read standard input: %w", err)
		}
		text = string(data)
		if title == "" {
			title = "Stdin"
		}
	} else {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		text = string(data)
		if title == "" {
			title = file
		}
	}

	p.StartPage(title)
	root := p.Parse(text)

	rendered, err := renderNode(p, root, opts.format)
	if err != nil {
		return err
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	if opts.output == "json" {
		return renderer.RenderJSON(map[string]string{
			"title":  title,
			"format": opts.format,
			"result": rendered,
		})
	}
	renderer.RenderText(rendered)
	return nil
}

func renderNode(p *wikitext.Processor, root *wikitext.WikiNode, format string) (string, error) {
	switch format {
	case "wikitext":
		return p.NodeToWikitext(root), nil
	case "html":
		return p.NodeToHTML(root, nil), nil
	case "text":
		return p.NodeToText(root, nil), nil
	case "markdown":
		markdown, err := htmltomarkdown.ConvertString(p.NodeToHTML(root, nil))
		if err != nil {
			return "", fmt.Errorf("markdown conversion failed: %w", err)
		}
		return strings.TrimSpace(markdown), nil
	}
	return "", fmt.Errorf("invalid format %q", format)
}
