package wikitext

import (
	"net/url"
	"regexp"
	"strings"
)

// Rendering parse trees back to wikitext, and onward to HTML or plain
// text.

// NodeHandlerFn lets a caller replace nodes while rendering. It is
// called for each WikiNode; returning ok=true renders the returned
// children instead of the node.
type NodeHandlerFn func(node *WikiNode) ([]Child, bool)

var renderLevelMarkers = map[NodeKind]string{
	Level1: "=", Level2: "==", Level3: "===",
	Level4: "====", Level5: "=====", Level6: "======",
}

func renderAttrs(node *WikiNode) string {
	var parts []string
	for k, v := range node.Attrs {
		if v == "" {
			parts = append(parts, k)
			continue
		}
		parts = append(parts, k+`="`+url.QueryEscape(v)+`"`)
	}
	return strings.Join(parts, " ")
}

var (
	protectOpenRe  = regexp.MustCompile(`\[\[`)
	protectCloseRe = regexp.MustCompile(`\]\]`)
)

// ToWikitext converts a parse tree back to wikitext. handler may be
// nil.
func ToWikitext(node Child, handler NodeHandlerFn) string {
	return renderChild(node, handler)
}

// NodeToWikitext converts a parse tree back to wikitext.
func (p *Processor) NodeToWikitext(node Child) string {
	return renderChild(node, nil)
}

func (p *Processor) nodeToWikitext(node Child) string {
	return renderChild(node, nil)
}

func renderChildren(children []Child, handler NodeHandlerFn) string {
	var sb strings.Builder
	for _, ch := range children {
		sb.WriteString(renderChild(ch, handler))
	}
	return sb.String()
}

func renderLargs(largs [][]Child, sep string, handler NodeHandlerFn) string {
	parts := make([]string, len(largs))
	for i, arg := range largs {
		parts[i] = renderChildren(arg, handler)
	}
	return strings.Join(parts, sep)
}

func renderChild(ch Child, handler NodeHandlerFn) string {
	if s, ok := ch.(Text); ok {
		// protect link brackets in plain text so the output parses back
		// to the same tree
		out := protectOpenRe.ReplaceAllString(string(s), "[<noinclude/>[")
		return protectCloseRe.ReplaceAllString(out, "]<noinclude/>]")
	}
	node := ch.(*WikiNode)

	if handler != nil {
		if repl, ok := handler(node); ok {
			return renderChildren(repl, handler)
		}
	}

	var sb strings.Builder
	switch node.Kind {
	case Root:
		sb.WriteString(renderChildren(node.Children, handler))
	case Level1, Level2, Level3, Level4, Level5, Level6:
		tag := renderLevelMarkers[node.Kind]
		sb.WriteString("\n" + tag + " " + renderLargs(node.Largs, "", handler) + " " + tag + "\n")
		sb.WriteString(renderChildren(node.Children, handler))
	case HLine:
		sb.WriteString("\n----\n")
	case List:
		sb.WriteString(renderChildren(node.Children, handler))
	case ListItem:
		sb.WriteString(node.Sarg)
		prevList := false
		for _, x := range node.Children {
			if prevList {
				sb.WriteString(node.Sarg + ":")
			}
			sb.WriteString(renderChild(x, handler))
			sub, ok := x.(*WikiNode)
			prevList = ok && sub.Kind == List
		}
	case Pre:
		sb.WriteString("<pre>")
		sb.WriteString(renderChildren(node.Children, handler))
		sb.WriteString("</pre>")
	case Preformatted:
		sb.WriteString(renderChildren(node.Children, handler))
	case Link:
		sb.WriteString("[[")
		sb.WriteString(renderLargs(node.Largs, "|", handler))
		sb.WriteString("]]")
		sb.WriteString(renderChildren(node.Children, handler))
	case Template:
		sb.WriteString("{{")
		sb.WriteString(renderLargs(node.Largs, "|", handler))
		sb.WriteString("}}")
	case TemplateArg:
		sb.WriteString("{{{")
		sb.WriteString(renderLargs(node.Largs, "|", handler))
		sb.WriteString("}}}")
	case ParserFn:
		sb.WriteString("{{")
		sb.WriteString(renderChildren(node.Largs[0], handler))
		if len(node.Largs) > 1 {
			// only add ":" when the call has arguments; an extra empty
			// argument changes the expansion
			sb.WriteString(":")
		}
		sb.WriteString(renderLargs(node.Largs[1:], "|", handler))
		sb.WriteString("}}")
	case URL:
		sb.WriteString("[")
		sb.WriteString(renderLargs(node.Largs, " ", handler))
		sb.WriteString("]")
	case Table:
		sb.WriteString("\n{| " + renderAttrs(node) + "\n")
		sb.WriteString(renderChildren(node.Children, handler))
		sb.WriteString("\n|}\n")
	case TableCaption:
		sb.WriteString("\n|+ " + renderAttrs(node) + "\n")
		sb.WriteString(renderChildren(node.Children, handler))
	case TableRow:
		sb.WriteString("\n|- " + renderAttrs(node) + "\n")
		sb.WriteString(renderChildren(node.Children, handler))
	case TableHeaderCell:
		if len(node.Attrs) > 0 {
			sb.WriteString("\n! " + renderAttrs(node) + " |" +
				renderChildren(node.Children, handler) + "\n")
		} else {
			sb.WriteString("\n!" + renderChildren(node.Children, handler) + "\n")
		}
	case TableCell:
		if len(node.Attrs) > 0 {
			sb.WriteString("\n| " + renderAttrs(node) + " |" +
				renderChildren(node.Children, handler) + "\n")
		} else {
			sb.WriteString("\n|" + renderChildren(node.Children, handler) + "\n")
		}
	case MagicWord:
		sb.WriteString("\n" + node.Sarg + "\n")
	case HTML:
		if len(node.Children) > 0 {
			sb.WriteString("<" + node.Sarg)
			if len(node.Attrs) > 0 {
				sb.WriteString(" " + renderAttrs(node))
			}
			sb.WriteString(">")
			sb.WriteString(renderChildren(node.Children, handler))
			sb.WriteString("</" + node.Sarg + ">")
		} else {
			sb.WriteString("<" + node.Sarg)
			if len(node.Attrs) > 0 {
				sb.WriteString(" " + renderAttrs(node))
			}
			if data, ok := allowedHTMLTags[node.Sarg]; !ok || data.noEndTag {
				sb.WriteString(">")
			} else {
				sb.WriteString(" />")
			}
		}
	case Bold:
		sb.WriteString("'''")
		sb.WriteString(renderChildren(node.Children, handler))
		sb.WriteString("'''")
	case Italic:
		sb.WriteString("''")
		sb.WriteString(renderChildren(node.Children, handler))
		sb.WriteString("''")
	}
	return sb.String()
}

// NodeToHTML converts a parse subtree to HTML, expanding the templates
// in it.
func (p *Processor) NodeToHTML(node Child, handler NodeHandlerFn) string {
	text := ToWikitext(node, handler)
	return p.Expand(text)
}

var (
	refElementRe    = regexp.MustCompile(`(?is)<\s*ref\s*[^>]*?>\s*.*?<\s*/\s*ref\s*>\n*`)
	headingTagRe    = regexp.MustCompile(`(?is)<\s*/?\s*h[123456]\b[^>]*>\n*`)
	brTagRe         = regexp.MustCompile(`(?s)<\s*br\s*/?>\n*`)
	hrTagRe         = regexp.MustCompile(`(?s)<\s*hr\s*/?>\n*`)
	startTagStripRe = regexp.MustCompile(`(?s)<\s*[^/][^>]*>\s*`)
	endTagStripRe   = regexp.MustCompile(`(?s)<\s*/\s*[^>]+>\n*`)
	categoryStripRe = regexp.MustCompile(`(?s)\[\[\s*Category:[^]<>]*\]\]`)
	pipedLinkRe     = regexp.MustCompile(`(?s)\[\[(?:[^]|<>]*?\|([^]]*?))\]\]`)
	extLinkTextRe   = regexp.MustCompile(`(?s)\[(?:https?:|mailto:)?//[^]\s<>]+\s+([^]]+)\]`)
	blankLinesRe    = regexp.MustCompile(`\n\n\n+`)
)

// NodeToText converts a parse subtree to plain text, expanding the
// templates in it and stripping HTML tags and references.
func (p *Processor) NodeToText(node Child, handler NodeHandlerFn) string {
	s := p.NodeToHTML(node, handler)
	s = refElementRe.ReplaceAllString(s, "")
	s = headingTagRe.ReplaceAllString(s, "\n\n")
	s = brTagRe.ReplaceAllString(s, "\n\n")
	s = hrTagRe.ReplaceAllString(s, "\n\n----\n\n")
	s = startTagStripRe.ReplaceAllString(s, "")
	s = endTagStripRe.ReplaceAllString(s, "")
	s = categoryStripRe.ReplaceAllString(s, "")
	s = pipedLinkRe.ReplaceAllString(s, "$1")
	s = extLinkTextRe.ReplaceAllString(s, "$1")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
