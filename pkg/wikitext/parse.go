package wikitext

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// The wikitext syntax is not context free, and tokenizing it properly
// requires knowing the overall structure. Parsing therefore runs on
// text that encode() has already reduced inside out: each template,
// template argument, link, and parser function call is a single cookie
// codepoint, and the tree builder recurses into the captured parts.

// ParseOptions controls parsing.
type ParseOptions struct {
	// PreExpand expands the templates that produce page structure
	// before parsing, as decided by AnalyzeTemplates.
	PreExpand bool
	// ExpandAll expands every template before parsing.
	ExpandAll bool
	// AdditionalExpand lists extra template titles to expand, and
	// DoNotPreExpand lists templates to keep unexpanded.
	AdditionalExpand map[string]bool
	DoNotPreExpand   map[string]bool
	// TemplateFn and PostTemplateFn override the processor-level hooks
	// during pre-expansion.
	TemplateFn     TemplateFn
	PostTemplateFn PostTemplateFn
}

// Parse parses wikitext into a tree without expanding templates.
// StartPage must have been called.
func (p *Processor) Parse(text string) *WikiNode {
	return p.ParseWith(text, ParseOptions{})
}

// ParseWith parses wikitext into a tree, optionally expanding some or
// all templates first. Parser functions and #invoke calls are expanded
// only inside expanded templates.
func (p *Processor) ParseWith(text string, opts ParseOptions) *WikiNode {
	text = p.preprocessText(text)
	if opts.ExpandAll {
		text = p.ExpandWith(text, ExpandOptions{
			TemplateFn:     opts.TemplateFn,
			PostTemplateFn: opts.PostTemplateFn,
		})
		text = p.preprocessText(text)
	} else if opts.PreExpand || len(opts.AdditionalExpand) > 0 {
		text = p.ExpandWith(text, ExpandOptions{
			PreExpand:            opts.PreExpand,
			TemplatesToExpand:    opts.AdditionalExpand,
			TemplatesToNotExpand: opts.DoNotPreExpand,
			TemplateFn:           opts.TemplateFn,
			PostTemplateFn:       opts.PostTemplateFn,
		})
		text = p.preprocessText(text)
	}
	return p.parseEncoded(p.encode(text))
}

// parseEncoded parses text that encode() has already reduced to cookie
// form.
func (p *Processor) parseEncoded(text string) *WikiNode {
	root := newWikiNode(Root, 0)
	root.Largs = [][]Child{{Text(p.Title)}}
	p.beginningOfLine = true
	p.wspBeginningOfLine = false
	p.linenum = 1
	p.preParse = false
	p.suppressSpecial = false
	p.parserStack = []*WikiNode{root}
	if p.beglineDisableCount < 1 {
		p.beglineEnabled = true
	}

	p.processText(text)
	for {
		node := p.parserTop()
		if node.Kind == Root {
			break
		}
		p.parserPop(true)
	}
	p.parserMergeStrChildren()
	p.parserStack = nil
	return root
}

func (p *Processor) parserTop() *WikiNode {
	return p.parserStack[len(p.parserStack)-1]
}

// parserPush starts a new node of the given kind as a child of the
// current top of the stack.
func (p *Processor) parserPush(kind NodeKind) *WikiNode {
	p.parserMergeStrChildren()
	node := newWikiNode(kind, p.linenum)
	prev := p.parserTop()
	prev.Children = append(prev.Children, node)
	p.parserStack = append(p.parserStack, node)
	p.suppressSpecial = false
	return node
}

// parserMergeStrChildren merges consecutive text children of the stack
// top into one. Merging as a separate step keeps worst-case time
// linear, and it finalizes the strings so remaining cookies and hidden
// characters become literal text.
func (p *Processor) parserMergeStrChildren() {
	node := p.parserTop()
	var merged []Child
	var run []string
	flush := func() {
		if len(run) == 0 {
			return
		}
		if s := p.finalizeExpand(strings.Join(run, "")); s != "" {
			merged = append(merged, Text(s))
		}
		run = nil
	}
	for _, ch := range node.Children {
		if s, ok := ch.(Text); ok {
			run = append(run, string(s))
			continue
		}
		flush()
		merged = append(merged, ch)
	}
	flush()
	node.Children = merged
}

// parserPop closes the topmost node. Remaining children of nodes with
// arguments become the last argument, unnamed parser functions are
// recognized, and definition list items get their head and definition
// swapped into place.
func (p *Processor) parserPop(warnUnclosed bool) {
	p.parserMergeStrChildren()
	node := p.parserTop()

	if warnUnclosed && mustCloseKinds[node.Kind] {
		switch {
		case node.Kind == HTML:
			p.Debug(fmt.Sprintf("HTML tag <%s> not properly closed, started on line %d",
				node.Sarg, node.Loc), "parse/unclosed-html")
		case node.Kind == ParserFn:
			p.Debug(fmt.Sprintf("parser function invocation %v not properly closed, started on line %d",
				node.Largs[0], node.Loc), "parse/unclosed-parserfn")
		case node.Kind == URL && len(node.Children) == 0:
			// a lone [ inside a template argument
			p.parserStack = p.parserStack[:len(p.parserStack)-1]
			parent := p.parserTop()
			parent.Children = parent.Children[:len(parent.Children)-1]
			p.textFn("[")
			return
		case node.Kind == Italic || node.Kind == Bold:
			// unbalanced italic/bold is too common to be worth reporting
		default:
			p.Debug(fmt.Sprintf("%s not properly closed, started on line %d",
				node.Kind, node.Loc), "parse/unclosed")
		}
	}

	// closing bold/italic out of order creates empty nodes; drop them
	if (node.Kind == Bold || node.Kind == Italic) && len(node.Children) == 0 {
		p.parserStack = p.parserStack[:len(p.parserStack)-1]
		parent := p.parserTop()
		parent.Children = parent.Children[:len(parent.Children)-1]
		return
	}

	if haveArgsKinds[node.Kind] {
		node.Largs = append(node.Largs, node.Children)
		node.Children = nil
	}

	// {{NAME}} with a constant parser function or variable name is a
	// parser function call, not a template
	if node.Kind == Template && len(node.Largs) > 0 && len(node.Largs[0]) == 1 {
		if s, ok := node.Largs[0][0].(Text); ok {
			if _, known := parserFunctions[string(s)]; known {
				node.Kind = ParserFn
			}
		}
	}

	if node.Kind == ListItem && strings.HasSuffix(node.Sarg, ";") && node.tempHead != nil {
		head := node.tempHead
		node.tempHead = nil
		node.Definition = node.Children
		node.Children = head
	}

	p.parserStack = p.parserStack[:len(p.parserStack)-1]
}

func (p *Processor) parserHave(kind NodeKind) bool {
	for _, node := range p.parserStack {
		if node.Kind == kind {
			return true
		}
	}
	return false
}

// closeBeglineLists closes any open lists when a non-list construct
// starts a new line.
func (p *Processor) closeBeglineLists() {
	if !(p.beginningOfLine && p.beglineEnabled) {
		return
	}
	for p.parserHave(List) {
		p.parserPop(true)
	}
}

// popUntilNthList pops the stack until the list the item prefix refers
// to is at the top.
func (p *Processor) popUntilNthList(listToken string) {
	if !(p.beginningOfLine && p.beglineEnabled) {
		return
	}
	listCount := len(listToken)
	passed := 0
	for _, node := range p.parserStack {
		passed++
		if node.Kind == List {
			listCount--
		}
		if listCount == 0 {
			break
		}
	}
	if strings.HasPrefix(listToken, ":") || strings.HasPrefix(listToken, ";") {
		// keep the target list's item on the stack so the new nested
		// list goes inside it
		passed++
	}
	for n := len(p.parserStack) - passed; n > 0; n-- {
		p.parserPop(true)
	}
}

func (p *Processor) withBeglineDisabled(fn func()) {
	p.beglineDisableCount++
	p.beglineEnabled = false
	fn()
	p.beglineDisableCount--
	if p.beglineDisableCount < 1 {
		p.beglineEnabled = true
	}
}

var (
	urlSchemeRe  = regexp.MustCompile(`^(https?:|mailto:|//)`)
	linkTrailRe  = regexp.MustCompile(`(?s)^([\p{L}\p{N}_]+)(.*)`)
	preEndTagRe  = regexp.MustCompile(`(?i)^</pre\s*>`)
	endTagNameRe = regexp.MustCompile(`^</([-a-zA-Z0-9]+)\s*>`)
	startTagRe   = regexp.MustCompile(`^<([-a-zA-Z0-9]+)\s*((\b[-a-zA-Z0-9:]+(\s*=\s*("[^"]*"|` +
		`'[^']*'|[^ \t\n"'` + "`" + `=<>/]*))?\s*)*)(/?)\s*>`)
)

// textFn inserts the token as text into the tree, handling external
// link argument splits, preformatted lines, and link trails.
func (p *Processor) textFn(token string) {
	p.closeBeglineLists()

	node := p.parserTop()

	// a bracketed segment is only an external link if its content looks
	// like a URL
	if node.Kind == URL {
		if len(node.Largs) == 0 && len(node.Children) == 0 {
			if !urlSchemeRe.MatchString(token) {
				p.parserStack = p.parserStack[:len(p.parserStack)-1]
				parent := p.parserTop()
				parent.Children = parent.Children[:len(parent.Children)-1]
				p.textFn("[" + token)
				return
			}
		}
		// whitespace divides the URL from the display text
		if isSpace(token) && len(node.Largs) == 0 {
			p.parserMergeStrChildren()
			node.Largs = append(node.Largs, node.Children)
			node.Children = nil
			return
		}
	}

	if p.beginningOfLine && p.beglineEnabled {
		// close constructs that do not continue across lines
		for {
			node = p.parserTop()
			if node.Kind == ListItem {
				if strings.HasPrefix(token, " ") || strings.HasPrefix(token, "\t") {
					node.Children = append(node.Children, Text(token))
					return
				}
				p.parserMergeStrChildren()
				if len(node.Children) > 0 {
					if s, ok := node.Children[len(node.Children)-1].(Text); ok &&
						(len(node.Children) > 1 || !isSpace(string(s))) &&
						strings.HasSuffix(string(s), "\n") {
						p.parserPop(false)
						continue
					}
				}
			} else if node.Kind == List {
				p.parserPop(false)
				continue
			} else if node.Kind == Preformatted {
				p.parserMergeStrChildren()
				if len(node.Children) > 0 {
					if s, ok := node.Children[len(node.Children)-1].(Text); ok &&
						strings.HasSuffix(string(s), "\n") &&
						!strings.HasPrefix(token, " ") && !isSpace(token) {
						p.parserPop(false)
						continue
					}
				}
			} else if node.Kind == Bold || node.Kind == Italic {
				p.parserMergeStrChildren()
				p.Debug(fmt.Sprintf("%s not properly closed on the same line", node.Kind),
					"parse/unclosed-line")
				p.parserPop(false)
			}
			break
		}

		// spaces at the beginning of a line indicate preformatted text
		if strings.HasPrefix(token, " ") || strings.HasPrefix(token, "\t") {
			top := p.parserTop()
			if top.Kind == Table || top.Kind == TableRow {
				return
			}
			if node.Kind != Preformatted && !p.preParse {
				node = p.parserPush(Preformatted)
			}
		}
	}

	// word characters right after a link are its trail and display as
	// part of the link
	if len(node.Children) > 0 && !p.suppressSpecial {
		if link, ok := node.Children[len(node.Children)-1].(*WikiNode); ok &&
			link.Kind == Link && len(link.Children) == 0 {
			if m := linkTrailRe.FindStringSubmatch(token); m != nil {
				link.Children = append(link.Children, Text(m[1]))
				token = m[2]
				if token == "" {
					return
				}
			}
		}
	}

	node.Children = append(node.Children, Text(token))
}

// hlineFn handles a horizontal line token (----).
func (p *Processor) hlineFn(token string) {
	p.closeBeglineLists()
	for {
		node := p.parserTop()
		switch node.Kind {
		case Root, Level2, Table, TableCaption, TableRow, TableHeaderCell,
			TableCell, HTML:
		default:
			p.parserPop(true)
			continue
		}
		break
	}
	p.parserPush(HLine)
	p.parserPop(true)
}

// subtitleStartFn handles a heading start token; the tokenizer prefixes
// it with "<".
func (p *Processor) subtitleStartFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	kind := subtitleToKind[token[1:]]
	level := kindToLevel[kind]

	// pop up to the enclosing higher-level heading, but only while one
	// remains: headings inside <noinclude> and similar should not force
	// those tags closed
	for p.stackHasLevelNode() {
		node := p.parserTop()
		if lvl, ok := kindToLevel[node.Kind]; ok && lvl < level {
			break
		}
		if node.Kind == HTML && node.Sarg != "span" {
			break
		}
		p.parserPop(true)
	}
	p.parserPush(kind)
	if kind == Level2 {
		p.section = ""
	}
}

func (p *Processor) stackHasLevelNode() bool {
	for _, node := range p.parserStack {
		if _, ok := kindToLevel[node.Kind]; ok && node.Kind != Root {
			return true
		}
	}
	return false
}

// subtitleEndFn handles a heading end token; the tokenizer prefixes it
// with ">".
func (p *Processor) subtitleEndFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	kind := subtitleToKind[token[1:]]
	for {
		node := p.parserTop()
		if _, ok := kindToLevel[node.Kind]; ok {
			break
		}
		p.parserPop(true)
	}
	node := p.parserTop()
	if node.Kind != kind {
		p.Debug("subtitle start and end markers level mismatch", "parse/subtitle-level")
	}
	p.parserMergeStrChildren()
	node.Largs = append(node.Largs, node.Children)
	node.Children = nil
	if node.Kind == Level2 {
		p.section = node.FindContent()
	}
}

func (p *Processor) italicFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	node := p.parserTop()
	if node.Kind == Template || node.Kind == TemplateArg {
		p.textFn(token)
		return
	}
	if !p.parserHave(Italic) || node.Kind == Link {
		p.parserPush(Italic)
		return
	}
	// pop the italic; push back an intervening bold so the two can
	// close in either order
	pushBold := false
	for {
		node = p.parserTop()
		if node.Kind == Italic {
			p.parserPop(false)
			break
		}
		if node.Kind == Bold {
			pushBold = true
		}
		p.parserPop(false)
	}
	if pushBold {
		p.parserPush(Bold)
	}
}

func (p *Processor) boldFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	node := p.parserTop()
	if node.Kind == Template || node.Kind == TemplateArg {
		p.textFn(token)
		return
	}
	if !p.parserHave(Bold) || node.Kind == Link {
		p.parserPush(Bold)
		return
	}
	pushItalic := false
	for {
		node = p.parserTop()
		if node.Kind == Bold {
			p.parserPop(false)
			break
		}
		if node.Kind == Italic {
			pushItalic = true
		}
		p.parserPop(false)
	}
	if pushItalic {
		p.parserPush(Italic)
	}
}

func (p *Processor) elinkStartFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	p.parserPush(URL)
}

func (p *Processor) elinkEndFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	if !p.parserHave(URL) {
		p.textFn(token)
		return
	}
	for {
		node := p.parserTop()
		if node.Kind == URL {
			p.parserPop(false)
			return
		}
		switch node.Kind {
		case Template, TemplateArg, Link, Italic, Bold:
			p.textFn(token)
			return
		}
		p.parserPop(true)
	}
}

// urlFn handles a bare URL written directly in the text.
func (p *Processor) urlFn(token string) {
	p.closeBeglineLists()
	if p.preParse {
		p.textFn(token)
		return
	}
	// trailing punctuation is not part of the URL
	suffix := ""
	if n := len(token); n > 0 && strings.ContainsRune(".!?,", rune(token[n-1])) {
		suffix = token[n-1:]
		token = token[:n-1]
	}
	node := p.parserTop()
	if node.Kind == URL {
		p.textFn(token)
		return
	}
	p.parserPush(URL)
	p.textFn(token)
	p.parserPop(false)
	if suffix != "" {
		p.textFn(suffix)
	}
}

// magicFn expands a cookie codepoint into the corresponding tree
// structure, recursing into the captured arguments.
func (p *Processor) magicFn(token string) {
	p.closeBeglineLists()
	r, _ := utf8.DecodeRuneInString(token)
	v, ok := p.cookieAt(r)
	if !ok {
		p.textFn(token)
		return
	}
	p.beginningOfLine = false

	switch v.kind {
	case kindTemplate:
		if v.nowiki {
			p.processText("&lbrace;&lbrace;" + strings.Join(v.args, "&vert;") + "&rbrace;&rbrace;")
			return
		}
		p.parserPush(Template)
		p.processArgParts(v.args)
		for {
			node := p.parserTop()
			if node.Kind == Root {
				break
			}
			if node.Kind == Template || node.Kind == ParserFn {
				p.parserPop(false)
				break
			}
			p.parserPop(true)
		}

	case kindArgument:
		if v.nowiki {
			p.processText("&lbrace;&lbrace;&lbrace;" + strings.Join(v.args, "&vert;") +
				"&rbrace;&rbrace;&rbrace;")
			return
		}
		p.parserPush(TemplateArg)
		p.processArgParts(v.args)
		for {
			node := p.parserTop()
			if node.Kind == Root {
				break
			}
			if node.Kind == TemplateArg {
				p.parserPop(false)
				break
			}
			p.parserPop(true)
		}

	case kindLink:
		if v.nowiki {
			p.processText("&lsqb;&lsqb;" + strings.Join(v.args, "&vert;") + "&rsqb;&rsqb;")
			return
		}
		p.parserPush(Link)
		p.processArgParts(v.args)
		for {
			node := p.parserTop()
			if node.Kind == Root {
				break
			}
			if node.Kind == Link {
				p.parserPop(false)
				break
			}
			p.parserPop(true)
		}

	case kindExtLink:
		if !v.nowiki && len(v.args) > 0 &&
			(strings.Contains(v.args[0], ":") || strings.HasPrefix(v.args[0], "//")) {
			p.parserPush(URL)
			p.processArgParts(v.args)
			if !p.parserHave(URL) {
				// the content did not look like a URL and the node was
				// already popped
				p.textFn("]")
				return
			}
			for {
				node := p.parserTop()
				if node.Kind == Root {
					break
				}
				if node.Kind == URL {
					p.parserPop(false)
					break
				}
				p.parserPop(true)
			}
		} else {
			p.processText("[" + strings.Join(v.args, "&vert;") + "]")
		}

	case kindNowiki:
		p.textFn(nowikiQuote(v.args[0]))

	default:
		p.Error(fmt.Sprintf("parse: unsupported cookie kind %q", v.kind), "parse/cookie")
	}
}

// processArgParts feeds cookie arguments back through the tokenizer,
// separated by vertical bars, with newline handling disabled so line
// breaks inside arguments do not pop the stack.
func (p *Processor) processArgParts(args []string) {
	p.withBeglineDisabled(func() {
		for i, arg := range args {
			if i > 0 {
				p.vbarFn("|")
			}
			p.processText(arg)
		}
	})
}

// colonFn turns {{name: into a parser function call when name is a
// known parser function.
func (p *Processor) colonFn(token string) {
	node := p.parserTop()
	if node.Kind != Template || len(node.Largs) > 0 {
		p.textFn(token)
		return
	}
	p.parserMergeStrChildren()
	if len(node.Children) != 1 {
		p.textFn(token)
		return
	}
	s, ok := node.Children[0].(Text)
	if !ok {
		p.textFn(token)
		return
	}
	if _, known := parserFunctions[string(s)]; !known {
		p.textFn(token)
		return
	}
	node.Kind = ParserFn
	node.Largs = append(node.Largs, node.Children)
	node.Children = nil
}

func (p *Processor) tableStartFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	p.parserPush(Table)
}

var (
	attrPair = `\s*[^"'>/=` + "\x00-\x1f" + `\s]+\s*=\s*("[^"]*"|'[^']*'|[^"'<>` + "`" + `\s]+)`
	// a whole string of table attribute assignments
	attrAssignmentsRe = regexp.MustCompile(`^` + attrPair + `(` + attrPair + `)*\s*$`)
	// one attribute, possibly without a value
	attrItemRe = regexp.MustCompile(`(?i)\b([^"'>/=` + "\x00-\x1f" + `\s]+)` +
		`(?:\s*=\s*("[^"]*"|'[^']*'|[^"'<>` + "`" + `\s]*))?\s*`)
)

// parseAttrs extracts HTML-style attributes from attrs into node.Attrs.
func parseAttrs(node *WikiNode, attrs string) {
	for _, m := range attrItemRe.FindAllStringSubmatch(attrs, -1) {
		name, value := m[1], m[2]
		if strings.HasPrefix(value, `"`) || strings.HasPrefix(value, "'") {
			value = value[1 : len(value)-1]
		}
		node.Attrs[name] = value
	}
}

// checkForAttributes reports whether the node's children look like a
// table attribute string and returns the string.
func (p *Processor) checkForAttributes(node *WikiNode) (bool, string) {
	p.parserMergeStrChildren()
	if len(node.Children) == 1 {
		if s, ok := node.Children[0].(Text); ok {
			node.Children = node.Children[:0]
			return true, string(s)
		}
	}
	candidate := ""
	for _, ch := range node.Children {
		if s, ok := ch.(Text); ok {
			candidate += string(s)
		} else {
			candidate += html.EscapeString(p.nodeToWikitext(ch))
		}
	}
	if strings.TrimSpace(candidate) == "" {
		// an empty line before the first row is discarded like an
		// attribute string
		return true, ""
	}
	if attrAssignmentsRe.MatchString(candidate) {
		return true, candidate
	}
	return false, ""
}

func (p *Processor) tableCheckAttrs() {
	node := p.parserTop()
	if node.Kind != Table || len(node.Children) < 1 {
		return
	}
	ok, attrs := p.checkForAttributes(node)
	if !ok {
		return
	}
	node.Children = nil
	parseAttrs(node, attrs)
}

func (p *Processor) tableRowCheckAttrs() {
	p.closeBeglineLists()
	node := p.parserTop()
	if node.Kind != TableRow || len(node.Children) < 1 {
		return
	}
	ok, attrs := p.checkForAttributes(node)
	if !ok {
		return
	}
	node.Children = nil
	parseAttrs(node, attrs)
}

func (p *Processor) tableCaptionFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	p.tableCheckAttrs()
	if !p.parserHave(Table) {
		p.textFn(token)
		return
	}
	for p.parserTop().Kind != Table {
		p.parserPop(true)
	}
	p.parserPush(TableCaption)
}

func (p *Processor) tableHdrCellFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	p.tableRowCheckAttrs()
	p.tableCheckAttrs()

	if !p.parserHave(Table) {
		p.textFn(token)
		return
	}
	for {
		node := p.parserTop()
		switch node.Kind {
		case TableRow:
			p.parserPush(TableHeaderCell)
			return
		case Table:
			p.parserPush(TableRow)
			p.parserPush(TableHeaderCell)
			return
		case TableCaption:
			if p.beginningOfLine && p.beglineEnabled {
				p.parserPop(false)
				p.parserPush(TableRow)
				p.parserPush(TableHeaderCell)
			} else {
				p.textFn(token)
			}
			return
		case HTML, Template, Link, URL:
			// inside nested structure, ! and !! are plain text
			p.textFn(token)
			return
		case TableCell:
			if !(p.beginningOfLine && p.beglineEnabled) && !p.wspBeginningOfLine {
				p.textFn(token)
				return
			}
		}
		p.parserPop(true)
	}
}

func (p *Processor) tableRowFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	p.tableCheckAttrs()
	if !p.parserHave(Table) {
		p.textFn(token)
		return
	}
	for p.parserTop().Kind != Table {
		p.parserPop(true)
	}
	p.parserPush(TableRow)
}

func (p *Processor) tableCellFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	p.tableRowCheckAttrs()
	p.tableCheckAttrs()

	if !p.parserHave(Table) {
		p.textFn(token)
		return
	}

	if token == "|" && !p.wspBeginningOfLine && !(p.beginningOfLine && p.beglineEnabled) {
		// mid-line | separates attributes from cell or caption content
		p.parserMergeStrChildren()
		node := p.parserTop()
		if len(node.Attrs) == 0 && len(node.Children) == 1 {
			if s, ok := node.Children[0].(Text); ok {
				switch node.Kind {
				case TableCaption, TableHeaderCell, TableCell:
					node.Children = node.Children[:0]
					parseAttrs(node, string(s))
					return
				}
			}
		}
		p.textFn(token)
		return
	}

	for {
		node := p.parserTop()
		if node.Kind == TableRow {
			break
		}
		if node.Kind == Table {
			p.parserPush(TableRow)
			break
		}
		if node.Kind == TableCaption || node.Kind == HTML {
			p.textFn(token)
			return
		}
		p.parserPop(true)
	}
	p.parserPush(TableCell)
}

// vbarFn handles a vertical bar, which separates arguments inside
// links and templates and cells inside tables.
func (p *Processor) vbarFn(token string) {
	node := p.parserTop()
	if haveArgsKinds[node.Kind] && node.Kind != URL {
		// bracketed external links separate their arguments with a
		// space, not a bar
		p.parserMergeStrChildren()
		node.Largs = append(node.Largs, node.Children)
		node.Children = nil
		return
	}
	p.tableCellFn(token)
}

// doubleVbarFn handles ||: a cell separator in tables, two argument
// separators inside templates, and plain text elsewhere.
func (p *Processor) doubleVbarFn(token string) {
	node := p.parserTop()
	if haveArgsKinds[node.Kind] {
		p.vbarFn("|")
		p.vbarFn("|")
		return
	}
	if p.beginningOfLine && p.beglineEnabled {
		p.vbarFn("|")
		p.vbarFn("|")
		return
	}

	for {
		node = p.parserTop()
		if node.Kind == TableRow {
			break
		}
		if node.Kind == Table {
			p.parserPush(TableRow)
			break
		}
		if node.Kind == TableCaption || node.Kind == HTML {
			p.textFn(token)
			return
		}
		if node.Kind == TableCell || node.Kind == TableHeaderCell {
			p.parserPop(true)
			continue
		}
		break
	}

	// on header rows || continues with header cells
	node = p.parserTop()
	if node.Kind == TableRow && len(node.Children) > 0 {
		if last, ok := node.Children[len(node.Children)-1].(*WikiNode); ok &&
			last.Kind == TableHeaderCell {
			p.tableHdrCellFn(token)
			return
		}
	}
	p.tableCellFn(token)
}

func (p *Processor) tableEndFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}
	p.closeBeglineLists()
	p.tableRowCheckAttrs()
	p.tableCheckAttrs()
	if !p.parserHave(Table) {
		p.textFn(token)
		return
	}
	for {
		node := p.parserTop()
		if node.Kind == Table {
			p.parserPop(false)
			break
		}
		p.parserPop(true)
	}
}

// listFn handles list item prefixes (*, #, ;, :) and the colon, which
// is special in several contexts.
func (p *Processor) listFn(token string) {
	if p.preParse {
		p.textFn(token)
		return
	}

	node := p.parserTop()

	// a colon in the first argument of a template makes it a parser
	// function call
	if token == ":" && node.Kind == Template {
		p.colonFn(token)
		return
	}
	// colons inside links do not start list items
	if node.Kind == Link || node.Kind == URL {
		p.textFn(token)
		return
	}

	if !(p.beginningOfLine && p.beglineEnabled) {
		// "; term : definition" on one line
		node = p.parserTop()
		if token == ":" && node.Kind == ListItem &&
			strings.HasSuffix(node.Sarg, ";") && node.tempHead == nil {
			p.parserMergeStrChildren()
			node.tempHead = node.Children
			node.Children = nil
			return
		}
		// other mid-line colons are plain text
		p.textFn(token)
		return
	}

	for {
		node = p.parserTop()

		// definition for a definition list item on its own line
		if node.Kind == ListItem && strings.HasSuffix(node.Sarg, ";") &&
			strings.HasSuffix(token, ":") && token[:len(token)-1] == node.Sarg[:len(node.Sarg)-1] &&
			node.tempHead == nil {
			p.parserMergeStrChildren()
			node.tempHead = node.Children
			node.Children = nil
			return
		}

		// a list item prefix plus ":" continues the same item after an
		// intervening sublist; a new list is created for it
		if node.Kind == ListItem && strings.HasSuffix(token, ":") &&
			node.Sarg == token[:len(token)-1] && len(node.Children) > 0 {
			if _, ok := node.Children[len(node.Children)-1].(*WikiNode); ok {
				break
			}
		}

		// another item on the same level
		if node.Kind == ListItem && node.Sarg == token {
			p.parserPop(false)
			break
		}

		// a longer prefix that matches the current one starts a sublist
		if node.Kind == ListItem && len(node.Sarg) < len(token) {
			matched := true
			for i := 0; i < len(node.Sarg); i++ {
				if token[i] != ':' && token[i] != node.Sarg[i] {
					matched = false
					break
				}
			}
			if matched {
				break
			}
		}

		// headings cannot contain list items; start a new list
		if _, ok := kindToLevel[node.Kind]; ok {
			break
		}

		// nodes that can contain lists stay open
		switch node.Kind {
		case HTML, Template, TemplateArg, ParserFn, Table, TableHeaderCell,
			TableRow, TableCell:
		default:
			p.parserPop(true)
			continue
		}
		break
	}

	p.popUntilNthList(token)
	node = p.parserTop()
	if node.Kind != List {
		node = p.parserPush(List)
		node.Sarg = token
	}
	item := p.parserPush(ListItem)
	item.Sarg = token
}

// silentHTMLLike are tag-like names that occur as plain text often
// enough that they are not worth reporting.
var silentHTMLLike = map[string]bool{"gu": true, "qu": true, "e": true}

// tagFn handles tokens that look like HTML start or end tags,
// including the wikitext extension tags that are described as HTML
// nodes even though they are not HTML.
func (p *Processor) tagFn(token string) {
	// template arguments contain markers like <<country>> and <1>;
	// tags inside template calls stay literal so the call can be
	// reconstructed
	if strings.HasPrefix(token, "<<") || p.parserHave(Template) ||
		p.parserHave(TemplateArg) || p.parserHave(ParserFn) {
		p.textFn(token)
		return
	}

	// When closing a tag whose start tag is inside the newest list
	// item, the item continues across the newline before the end tag.
	endTagName := ""
	if strings.HasPrefix(token, "</") {
		m := endTagNameRe.FindStringSubmatch(token)
		if m == nil {
			p.closeBeglineLists()
		} else {
			endTagName = strings.ToLower(m[1])
			for i := len(p.parserStack) - 1; i >= 0; i-- {
				node := p.parserStack[i]
				if node.Kind == HTML && node.Sarg == endTagName {
					break
				}
				if node.Kind == ListItem {
					p.closeBeglineLists()
					break
				}
			}
		}
	} else {
		p.closeBeglineLists()
	}

	if m := startTagRe.FindStringSubmatch(token); m != nil {
		name := strings.ToLower(m[1])
		attrs := m[2]
		alsoEnd := m[6] == "/"

		if _, allowed := allowedHTMLTags[name]; !allowed && p.parserHave(Template) {
			p.textFn(token)
			return
		}
		if p.preParse {
			p.textFn(token)
			return
		}
		// <section> markers only matter for #lst transclusion
		if name == "section" {
			return
		}
		// unmatched <nowiki> remnants; pairs were handled in
		// preprocessing
		if name == "nowiki" {
			if alsoEnd {
				p.textFn(string(magicNowikiChar))
				return
			}
			p.Debug("unmatched <nowiki>", "parse/nowiki")
			p.textFn(token)
			return
		}
		// <noinclude/> has done its job during template inclusion
		if name == "noinclude" && alsoEnd {
			return
		}
		if name == "pre" {
			node := p.parserPush(Pre)
			parseAttrs(node, attrs)
			if alsoEnd {
				p.parserPop(false)
			} else {
				p.preParse = true
			}
			return
		}
		if _, allowed := allowedHTMLTags[name]; !allowed {
			if !isAllDigits(name) && !silentHTMLLike[name] {
				p.Debug(fmt.Sprintf("html tag <%s> not allowed in wikitext", name),
					"parse/bad-tag")
			}
			p.textFn(token)
			return
		}

		// implicitly close open HTML tags that cannot contain this one
		permitted := htmlPermittedParents[name]
		for {
			node := p.parserTop()
			if node.Kind == URL && len(node.Children) == 0 {
				p.parserStack = p.parserStack[:len(p.parserStack)-1]
				parent := p.parserTop()
				parent.Children = parent.Children[:len(parent.Children)-1]
				p.textFn("[")
				continue
			}
			if node.Kind != HTML {
				break
			}
			if permitted[node.Sarg] {
				break
			}
			closeNext := allowedHTMLTags[node.Sarg].closeNext
			warn := true
			for _, t := range closeNext {
				if t == name {
					warn = false
					break
				}
			}
			p.parserPop(warn)
		}

		node := p.parserPush(HTML)
		node.Sarg = name
		parseAttrs(node, attrs)
		if allowedHTMLTags[name].noEndTag || alsoEnd {
			p.parserPop(false)
		}
		return
	}

	// not a start tag, so it must be an end tag
	name := endTagName
	if name == "" {
		m := endTagNameRe.FindStringSubmatch(token)
		if m == nil {
			p.textFn(token)
			return
		}
		name = strings.ToLower(m[1])
	}

	if name == "section" {
		p.Debug("unexpected </section>", "parse/section-end")
		return
	}
	if name == "pre" {
		p.preParse = false
		node := p.parserTop()
		if node.Kind != Pre {
			p.Debug("unexpected </pre>", "parse/pre-end")
			p.textFn(token)
			return
		}
		p.parserPop(false)
		return
	}
	if p.preParse {
		p.textFn(token)
		return
	}
	if _, allowed := allowedHTMLTags[name]; !allowed && name != "nowiki" {
		p.Debug(fmt.Sprintf("html tag </%s> not allowed in wikitext", name),
			"parse/bad-end-tag")
	}

	found := false
	for i := len(p.parserStack) - 1; i >= 0; i-- {
		node := p.parserStack[i]
		if node.Kind == HTML && node.Sarg == name {
			found = true
			break
		}
	}
	if !found {
		if name == "br" || name == "hl" || name == "wbr" {
			// a stray end tag for a void element; synthesize it
			node := p.parserPush(HTML)
			node.Sarg = name
			p.parserPop(false)
			return
		}
		p.Debug(fmt.Sprintf("no corresponding start tag found for %s", token),
			"parse/no-start-tag")
		p.textFn(token)
		return
	}

	for {
		node := p.parserTop()
		if node.Kind == URL && len(node.Children) == 0 {
			p.parserStack = p.parserStack[:len(p.parserStack)-1]
			parent := p.parserTop()
			parent.Children = parent.Children[:len(parent.Children)-1]
			p.textFn("[")
			continue
		}
		if node.Kind == HTML && node.Sarg == name {
			p.parserPop(false)
			break
		}
		if node.Kind == HTML && len(allowedHTMLTags[node.Sarg].closeNext) > 0 {
			// the end tag is optional, closing the parent closes it
			p.parserPop(false)
			continue
		}
		p.parserPop(true)
	}
}

func (p *Processor) magicwordFn(token string) {
	p.closeBeglineLists()
	node := p.parserPush(MagicWord)
	node.Sarg = token
	p.parserPop(false)
}

// tokenOps dispatches fixed-form tokens.
var tokenOps = map[string]func(*Processor, string){
	"'''": (*Processor).boldFn,
	"''":  (*Processor).italicFn,
	"[":   (*Processor).elinkStartFn,
	"]":   (*Processor).elinkEndFn,
	"{|":  (*Processor).tableStartFn,
	"|}":  (*Processor).tableEndFn,
	"|+":  (*Processor).tableCaptionFn,
	"!":   (*Processor).tableHdrCellFn,
	"!!":  (*Processor).tableHdrCellFn,
	"|-":  (*Processor).tableRowFn,
	"||":  (*Processor).doubleVbarFn,
	"|":   (*Processor).vbarFn,
}

// processText tokenizes text and processes each token in sequence.
// Called recursively for the contents of templates and other captured
// constructs.
func (p *Processor) processText(text string) {
	p.tokenIter(text, func(isToken bool, token string) {
		p.processToken(isToken, token)
		p.linenum += strings.Count(token, "\n")
		p.wspBeginningOfLine = p.beginningOfLine && isSpace(token)
		p.beginningOfLine = strings.HasSuffix(token, "\n")
	})
}

func (p *Processor) processToken(isToken bool, token string) {
	node := p.parserTop()
	if !isToken {
		p.textFn(token)
		return
	}
	if node.Kind == Pre && !preEndTagRe.MatchString(token) {
		// inside <pre> nothing is interpreted; strip the marker the
		// tokenizer added to heading tokens
		if strings.HasPrefix(token, "<==") || strings.HasPrefix(token, ">==") {
			token = token[1:]
		}
		p.textFn(token)
		return
	}
	if fn, ok := tokenOps[token]; ok {
		fn(p, token)
		return
	}
	if magicWords[token] {
		p.magicwordFn(token)
		return
	}
	switch {
	case strings.HasPrefix(token, "<="):
		p.subtitleStartFn(token)
	case strings.HasPrefix(token, ">="):
		p.subtitleEndFn(token)
	case strings.HasPrefix(token, "<"):
		p.tagFn(token)
	case strings.HasPrefix(token, "----"):
		p.hlineFn(token)
	case listPrefixRe.MatchString(token):
		p.listFn(token)
	case strings.HasPrefix(token, "https://") || strings.HasPrefix(token, "http://"):
		p.urlFn(token)
	default:
		if r, size := utf8.DecodeRuneInString(token); size == len(token) && isCookie(r) {
			p.magicFn(token)
			return
		}
		t2 := strings.TrimSpace(token)
		if fn, ok := tokenOps[t2]; ok {
			fn(p, t2)
			return
		}
		p.textFn(token)
	}
}
