package wikitext

import (
	"strconv"
	"strings"
)

// NodeKind identifies the type of a parse tree node.
type NodeKind int

const (
	// Root is the root node of a parsed page. Its first argument holds
	// the page title.
	Root NodeKind = iota
	// Level1 through Level6 are section headings (= ... = to ====== ... ======).
	Level1
	Level2
	Level3
	Level4
	Level5
	Level6
	// Italic is text between '' markers.
	Italic
	// Bold is text between ''' markers.
	Bold
	// HLine is a horizontal line (----).
	HLine
	// List is a sequence of list items with the same item prefix.
	List
	// ListItem is a single list item. Sarg holds the item prefix
	// (e.g. "*", "##", ";").
	ListItem
	// Preformatted is space-indented preformatted text.
	Preformatted
	// Pre is <pre>...</pre> content.
	Pre
	// Link is an internal link [[...]].
	Link
	// Template is a template call {{...}}.
	Template
	// TemplateArg is a template argument reference {{{...}}}.
	TemplateArg
	// ParserFn is a parser function call {{name:...}}.
	ParserFn
	// URL is an external link, bracketed or bare.
	URL
	// Table is a wikitext table {| ... |}.
	Table
	// TableCaption is a |+ row inside a table.
	TableCaption
	// TableRow is a |- row inside a table.
	TableRow
	// TableHeaderCell is a ! or !! cell.
	TableHeaderCell
	// TableCell is a | or || cell.
	TableCell
	// MagicWord is a behavior switch such as __NOTOC__.
	MagicWord
	// HTML is an HTML tag allowed in wikitext. Sarg holds the tag name.
	HTML
)

var nodeKindNames = map[NodeKind]string{
	Root: "ROOT", Level1: "LEVEL1", Level2: "LEVEL2", Level3: "LEVEL3",
	Level4: "LEVEL4", Level5: "LEVEL5", Level6: "LEVEL6",
	Italic: "ITALIC", Bold: "BOLD", HLine: "HLINE", List: "LIST",
	ListItem: "LIST_ITEM", Preformatted: "PREFORMATTED", Pre: "PRE",
	Link: "LINK", Template: "TEMPLATE", TemplateArg: "TEMPLATE_ARG",
	ParserFn: "PARSER_FN", URL: "URL", Table: "TABLE",
	TableCaption: "TABLE_CAPTION", TableRow: "TABLE_ROW",
	TableHeaderCell: "TABLE_HEADER_CELL", TableCell: "TABLE_CELL",
	MagicWord: "MAGIC_WORD", HTML: "HTML",
}

func (k NodeKind) String() string {
	if s, ok := nodeKindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// subtitleToKind maps a run of equals signs to the heading kind.
var subtitleToKind = map[string]NodeKind{
	"=": Level1, "==": Level2, "===": Level3,
	"====": Level4, "=====": Level5, "======": Level6,
}

// kindToLevel gives the nesting level of heading kinds; the root is
// level 0 so everything nests under it.
var kindToLevel = map[NodeKind]int{
	Root: 0, Level1: 1, Level2: 2, Level3: 3,
	Level4: 4, Level5: 5, Level6: 6,
}

// haveArgsKinds are nodes whose children are collected into Largs.
var haveArgsKinds = map[NodeKind]bool{
	Link: true, Template: true, TemplateArg: true, ParserFn: true, URL: true,
}

// mustCloseKinds are nodes that require explicit closing; leaving one
// open at the end of a page is reported.
var mustCloseKinds = map[NodeKind]bool{
	Italic: true, Bold: true, Pre: true, HTML: true, Link: true,
	Template: true, TemplateArg: true, ParserFn: true, URL: true,
	Table: true,
}

// Child is one child of a parse tree node: either Text or *WikiNode.
type Child interface{ child() }

// Text is a plain text child.
type Text string

func (Text) child()     {}
func (*WikiNode) child() {}

// WikiNode is a node in the parse tree of a wikitext page.
type WikiNode struct {
	Kind NodeKind
	// Sarg holds the list item prefix, HTML tag name, or magic word.
	Sarg string
	// Largs holds arguments of links, templates, argument references,
	// parser functions, and URLs, and the heading title for levels.
	Largs [][]Child
	// Attrs holds HTML and table attributes.
	Attrs map[string]string
	// Children holds the node's content.
	Children []Child
	// Loc is the line number where the node started.
	Loc int
	// Definition holds definition-list values for ";" list items.
	Definition []Child

	// tempHead buffers the term of a ";" item until the ":" is seen.
	tempHead []Child
}

func newWikiNode(kind NodeKind, loc int) *WikiNode {
	return &WikiNode{Kind: kind, Attrs: map[string]string{}, Loc: loc}
}

// GetAttr returns the named attribute or "".
func (n *WikiNode) GetAttr(name string) string {
	return n.Attrs[name]
}

// FindChild returns the node's direct children of the wanted kinds.
func (n *WikiNode) FindChild(kinds ...NodeKind) []*WikiNode {
	var found []*WikiNode
	for _, ch := range n.Children {
		node, ok := ch.(*WikiNode)
		if !ok {
			continue
		}
		for _, k := range kinds {
			if node.Kind == k {
				found = append(found, node)
				break
			}
		}
	}
	return found
}

// FindChildRecursively searches the whole subtree for nodes of the
// wanted kinds, depth first.
func (n *WikiNode) FindChildRecursively(kinds ...NodeKind) []*WikiNode {
	var found []*WikiNode
	var walk func(node *WikiNode)
	walk = func(node *WikiNode) {
		for _, ch := range node.Children {
			sub, ok := ch.(*WikiNode)
			if !ok {
				continue
			}
			for _, k := range kinds {
				if sub.Kind == k {
					found = append(found, sub)
					break
				}
			}
			walk(sub)
		}
	}
	walk(n)
	return found
}

// ContainNode reports whether the subtree contains a node of the kind.
func (n *WikiNode) ContainNode(kind NodeKind) bool {
	var walk func(node *WikiNode) bool
	walk = func(node *WikiNode) bool {
		for _, ch := range node.Children {
			sub, ok := ch.(*WikiNode)
			if !ok {
				continue
			}
			if sub.Kind == kind || walk(sub) {
				return true
			}
		}
		return false
	}
	return walk(n)
}

// NonEmptyChildren returns children with whitespace-only text removed.
func (n *WikiNode) NonEmptyChildren() []Child {
	var out []Child
	for _, ch := range n.Children {
		if s, ok := ch.(Text); ok && strings.TrimSpace(string(s)) == "" {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// FindHTML returns direct HTML children with the given tag name.
func (n *WikiNode) FindHTML(tag string) []*WikiNode {
	var found []*WikiNode
	for _, node := range n.FindChild(HTML) {
		if node.Sarg == tag {
			found = append(found, node)
		}
	}
	return found
}

// TemplateName returns the name of a Template or ParserFn node as a
// plain string, or "" when the name contains markup.
func (n *WikiNode) TemplateName() string {
	if len(n.Largs) == 0 {
		return ""
	}
	name := ""
	for _, ch := range n.Largs[0] {
		s, ok := ch.(Text)
		if !ok {
			return ""
		}
		name += string(s)
	}
	return strings.TrimSpace(name)
}

// TemplateParameters returns the parameters of a Template node keyed
// the way the expander binds them: "name" for named parameters, "1",
// "2", ... for positional ones. Parameters with non-text content are
// returned with their children joined by ToWikitext.
func (n *WikiNode) TemplateParameters() map[string][]Child {
	params := map[string][]Child{}
	num := 1
	for _, arg := range n.Largs[1:] {
		name, value, named := splitParameter(arg)
		if named {
			params[name] = value
		} else {
			params[strconv.Itoa(num)] = arg
			num++
		}
	}
	return params
}

func splitParameter(arg []Child) (string, []Child, bool) {
	for i, ch := range arg {
		s, ok := ch.(Text)
		if !ok {
			// markup before "=" means positional
			return "", nil, false
		}
		eq := strings.Index(string(s), "=")
		if eq < 0 {
			continue
		}
		name := ""
		for _, pre := range arg[:i] {
			name += string(pre.(Text))
		}
		name += string(s[:eq])
		value := []Child{}
		if rest := s[eq+1:]; rest != "" {
			value = append(value, rest)
		}
		value = append(value, arg[i+1:]...)
		return strings.TrimSpace(name), value, true
	}
	return "", nil, false
}

// FindContent returns the first content argument of a heading node
// joined as plain text.
func (n *WikiNode) FindContent() string {
	if len(n.Largs) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, ch := range n.Largs[0] {
		if s, ok := ch.(Text); ok {
			sb.WriteString(string(s))
		}
	}
	return strings.TrimSpace(sb.String())
}

// magicWords are the recognized behavior switches.
var magicWords = map[string]bool{
	"__NOTOC__": true, "__FORCETOC__": true, "__TOC__": true,
	"__NOEDITSECTION__": true, "__NOEDITSECTIONS__": true,
	"__NEWSECTIONLINK__": true, "__NONEWSECTIONLINK__": true,
	"__NOGALLERY__": true, "__HIDDENCAT__": true, "__EXPECTUNUSEDCATEGORY__": true,
	"__NOCONTENTCONVERT__": true, "__NOCC__": true,
	"__NOTITLECONVERT__": true, "__NOTC__": true,
	"__INDEX__": true, "__NOINDEX__": true,
	"__STATICREDIRECT__": true, "__NOGLOBAL__": true,
	"__DISAMBIG__": true,
}
