// Package parsecmd provides the parse command.
package parsecmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/openwikitools/wtx/internal/config"
	"github.com/openwikitools/wtx/internal/view"
	"github.com/openwikitools/wtx/pkg/wikitext"
)

type parseOptions struct {
	pagesDir  string
	title     string
	expandAll bool
	preExpand bool
	output    string
	noColor   bool
}

// NewCmdParse creates the parse command.
func NewCmdParse() *cobra.Command {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse wikitext into a syntax tree",
		Long: `Parse a wikitext page into a syntax tree and print it as JSON.

By default templates are left unexpanded and appear as TEMPLATE nodes.
With --pre-expand, templates that produce page structure (lists,
tables, unbalanced HTML) are expanded first so the tree is complete;
--expand expands everything.`,
		Example: `  # Parse a file
  wtx parse article.wiki

  # Parse with structural templates expanded
  wtx parse article.wiki --pages ./pages --pre-expand

  # Parse fully expanded wikitext
  wtx parse article.wiki --pages ./pages --expand`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			file := ""
			if len(args) > 0 {
				file = args[0]
			}
			return runParse(file, opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.pagesDir, "pages", "p", "", "Page directory with template sources")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Title to process the input under")
	cmd.Flags().BoolVar(&opts.expandAll, "expand", false, "Expand all templates before parsing")
	cmd.Flags().BoolVar(&opts.preExpand, "pre-expand", false, "Expand structure-producing templates before parsing")

	return cmd
}

func runParse(file string, opts *parseOptions, p *wikitext.Processor) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
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
	root := p.ParseWith(text, wikitext.ParseOptions{
		ExpandAll: opts.expandAll,
		PreExpand: opts.preExpand,
	})

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	return renderer.RenderJSON(nodeJSON(root))
}

// nodeJSON converts a parse tree to plain maps and strings for JSON
// output.
func nodeJSON(ch wikitext.Child) any {
	switch v := ch.(type) {
	case wikitext.Text:
		return string(v)
	case *wikitext.WikiNode:
		m := map[string]any{"kind": v.Kind.String()}
		if v.Sarg != "" {
			m["sarg"] = v.Sarg
		}
		if len(v.Attrs) > 0 {
			m["attrs"] = v.Attrs
		}
		if len(v.Largs) > 0 {
			largs := make([][]any, len(v.Largs))
			for i, arg := range v.Largs {
				largs[i] = childrenJSON(arg)
			}
			m["largs"] = largs
		}
		if len(v.Children) > 0 {
			m["children"] = childrenJSON(v.Children)
		}
		if len(v.Definition) > 0 {
			m["definition"] = childrenJSON(v.Definition)
		}
		return m
	}
	return nil
}

func childrenJSON(children []wikitext.Child) []any {
	out := make([]any, len(children))
	for i, ch := range children {
		out[i] = nodeJSON(ch)
	}
	return out
}
