package wikitext

import (
	"regexp"
	"strings"
)

// The encoder captures templates, template arguments, links, and
// external links behind magic cookies, innermost construct first, so
// the expander and the tree builder can treat each construct as a
// single character. Comments are stripped before anything else.

var (
	commentRe       = regexp.MustCompile(`(?s)<!--.*?-->`)
	nowikiPairRe    = regexp.MustCompile(`(?is)<nowiki\s*>(.*?)</nowiki\s*>`)
	nowikiSelfRe    = regexp.MustCompile(`(?i)<nowiki\s*/>`)
	extLinkRe       = regexp.MustCompile(`\[([^][{}<>|\n]+)\]`)
	extLinkNowikiRe = regexp.MustCompile(`^\[\s*` + string(magicNowikiChar))

	// templateArgRe matches an innermost {{{...}}} argument reference,
	// allowing an outermost {| ... |} table and <nowiki /> cookies
	// between the braces.
	templateArgRe = regexp.MustCompile(
		`\{` + nw + `?\{` + nw + `?\{((?:[^{}]|\{\|[^{}]*\|\})*?)\}` + nw + `?\}` + nw + `?\}`)
)

// nw is the magic nowiki character quoted for use inside patterns.
var nw = regexp.QuoteMeta(string(magicNowikiChar))

// preprocessText captures <nowiki>...</nowiki> content behind "N"
// cookies and replaces self-closing <nowiki /> tags with the magic
// nowiki character. Comments are removed.
func (p *Processor) preprocessText(text string) string {
	text = commentRe.ReplaceAllString(text, "")
	text = nowikiPairRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := nowikiPairRe.FindStringSubmatch(m)
		return p.saveValue(kindNowiki, []string{sub[1]}, true)
	})
	text = nowikiSelfRe.ReplaceAllString(text, string(magicNowikiChar))
	return text
}

// encode captures all bracketed constructs in the text behind cookies,
// repeating from the innermost out until nothing changes.
func (p *Processor) encode(text string) string {
	text = commentRe.ReplaceAllString(text, "")
	for {
		prev := text
		for {
			prev2 := text
			for {
				text = p.replaceLinks(text)
				if text == prev2 {
					break
				}
				prev2 = text
			}
			text = p.replaceExtLinks(text)
			text = p.replaceTemplateArgs(text)
			if text == prev2 {
				break
			}
		}
		text = p.replaceTemplates(text)
		if text == prev {
			break
		}
	}
	// bracket pairs that turned out not to be external links
	text = strings.ReplaceAll(text, string(magicLBracketChar), "[")
	text = strings.ReplaceAll(text, string(magicRBracketChar), "]")
	return text
}

// skipMagicNowiki returns the position after an optional magic nowiki
// character at i.
func skipMagicNowiki(text string, i int) int {
	if strings.HasPrefix(text[i:], string(magicNowikiChar)) {
		return i + len(string(magicNowikiChar))
	}
	return i
}

// replaceLinks captures internal links [[...]] whose content holds no
// unencoded construct. A link start immediately preceded by another
// "[" is not a link, newlines are not allowed before the pipe, and a
// nested "[[" or "]]" breaks the match.
func (p *Processor) replaceLinks(text string) string {
	var sb strings.Builder
	i := 0
	for i < len(text) {
		if text[i] != '[' || (i > 0 && text[i-1] == '[') {
			sb.WriteByte(text[i])
			i++
			continue
		}
		j := skipMagicNowiki(text, i+1)
		if j >= len(text) || text[j] != '[' {
			sb.WriteByte(text[i])
			i++
			continue
		}
		content, end, ok := scanLinkBody(text, j+1)
		if !ok {
			sb.WriteByte(text[i])
			i++
			continue
		}
		sb.WriteString(p.replLink(text[i:end], content))
		i = end
	}
	return sb.String()
}

// scanLinkBody scans link content starting just after "[[". It returns
// the raw content, the index just past the closing "]]", and whether a
// well-formed link was found.
func scanLinkBody(text string, start int) (string, int, bool) {
	i := start
	sawPipe := false
	for i < len(text) {
		c := text[i]
		switch c {
		case '\n':
			if !sawPipe {
				return "", 0, false
			}
			i++
		case '|':
			sawPipe = true
			i++
		case '[':
			if i+1 < len(text) && text[i+1] == '[' {
				return "", 0, false
			}
			i++
		case ']':
			j := skipMagicNowiki(text, i+1)
			if j < len(text) && text[j] == ']' {
				if i == start {
					return "", 0, false
				}
				return text[start:i], j + 1, true
			}
			i++
		default:
			i++
		}
	}
	return "", 0, false
}

// linkInnerConstructRe detects unencoded constructs inside link text
// that must be captured before the link itself.
var linkInnerConstructRe = regexp.MustCompile(`\{\{|\[[^][{}<>|\n]+\]`)

func (p *Processor) replLink(whole, content string) string {
	if linkInnerConstructRe.MatchString(content) {
		// inner constructs first; retried on the next pass
		return whole
	}
	nowiki := strings.ContainsRune(whole, magicNowikiChar)
	if strings.ContainsRune(content, magicNowikiChar) {
		// only a <nowiki /> that is a direct child of the link text
		// disables the link
		nowiki = false
		root := p.parseEncoded(content)
		for _, ch := range root.Children {
			if s, ok := ch.(Text); ok && strings.Contains(string(s), "<nowiki />") {
				nowiki = true
				break
			}
		}
	}
	args := vbarSplit(content)
	empty := true
	for _, a := range args {
		if strings.TrimSpace(a) != "" {
			empty = false
			break
		}
	}
	if empty || (len(args) == 2 && strings.Contains(args[0], "#") && args[1] == "") {
		// [[ ]] and [[#section|]] render as literal brackets
		return "&#91;&#91;" + content + "&#93;&#93;"
	}
	return p.saveValue(kindLink, args, nowiki)
}

// replaceExtLinks captures bracketed external links [url ...]. A
// bracketed segment without a URL scheme is hidden behind bracket
// cookies instead so it cannot match again.
func (p *Processor) replaceExtLinks(text string) string {
	var sb strings.Builder
	pos := 0
	for pos < len(text) {
		loc := extLinkRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			sb.WriteString(text[pos:])
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		// "[x]]" breaks the match
		if end < len(text) && text[end] == ']' {
			sb.WriteString(text[pos : start+1])
			pos = start + 1
			continue
		}
		sb.WriteString(text[pos:start])
		whole := text[start:end]
		orig := text[pos+loc[2] : pos+loc[3]]
		if !hasURLPrefix(orig) {
			sb.WriteString(string(magicLBracketChar) + orig + string(magicRBracketChar))
		} else {
			nowiki := extLinkNowikiRe.MatchString(whole)
			sb.WriteString(p.saveValue(kindExtLink, []string{orig}, nowiki))
		}
		pos = end
	}
	return sb.String()
}

// replaceTemplateArgs captures innermost {{{...}}} references.
func (p *Processor) replaceTemplateArgs(text string) string {
	return templateArgRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := templateArgRe.FindStringSubmatch(m)
		nowiki := strings.ContainsRune(m, magicNowikiChar)
		return p.saveValue(kindArgument, vbarSplit(sub[1]), nowiki)
	})
}

// replaceTemplates captures innermost {{...}} calls. Lone braces, the
// "-{}-" sequence, and "}{" are allowed inside the call.
func (p *Processor) replaceTemplates(text string) string {
	for {
		start, contentStart, contentEnd, end, found := findInnermostTemplate(text)
		if !found {
			return text
		}
		repl := p.replTempl(text[start:end], text[contentStart:contentEnd])
		text = text[:start] + repl + text[end:]
	}
}

// findInnermostTemplate locates the leftmost-closing innermost
// {{...}} span. Openers take the last two braces of a longer brace
// run so that "{{{x" leaves the first brace outside the call.
func findInnermostTemplate(text string) (start, contentStart, contentEnd, end int, found bool) {
	type opener struct{ start, contentStart int }
	var stack []opener
	i := 0
	for i < len(text) {
		c := text[i]
		if c == '{' {
			j := skipMagicNowiki(text, i+1)
			if j < len(text) && text[j] == '{' {
				k := skipMagicNowiki(text, j+1)
				if k < len(text) && text[k] == '{' {
					// leading brace of a longer run stays outside
					i++
					continue
				}
				stack = append(stack, opener{start: i, contentStart: j + 1})
				i = j + 1
				continue
			}
		}
		if c == '}' {
			j := skipMagicNowiki(text, i+1)
			if j < len(text) && text[j] == '}' && len(stack) > 0 {
				op := stack[len(stack)-1]
				return op.start, op.contentStart, i, j + 1, true
			}
		}
		i++
	}
	return 0, 0, 0, 0, false
}

func (p *Processor) replTempl(whole, inner string) string {
	nowiki := strings.HasPrefix(whole, "{"+string(magicNowikiChar)) ||
		strings.HasSuffix(whole, string(magicNowikiChar)+"}")
	args := vbarSplit(inner)
	if len(args) == 0 || args[0] == "" {
		// a call without a name renders as text
		return "&lbrace;&lbrace;" + strings.Join(args, "&vert;") + "&rbrace;&rbrace;"
	}
	firstArg := strings.TrimSpace(args[0])
	if !strings.HasPrefix(firstArg, "#") && strings.ContainsRune(args[0], magicNowikiChar) {
		nowiki = true // <nowiki /> before the first pipe
	}
	if strings.HasPrefix(firstArg, "#") {
		if colon := strings.Index(firstArg, ":"); colon >= 0 &&
			strings.ContainsRune(firstArg[:colon], magicNowikiChar) {
			nowiki = true // <nowiki /> inside the parser function name
		}
	}
	return p.saveValue(kindTemplate, args, nowiki)
}

// vbarSplit splits template call content on vertical bars, treating a
// complete HTML element with bracket-free content as opaque so bars
// inside it do not separate arguments.
func vbarSplit(v string) []string {
	var args []string
	var cur strings.Builder
	i := 0
	for i < len(v) {
		c := v[i]
		if c == '|' {
			args = append(args, cur.String())
			cur.Reset()
			i++
			continue
		}
		if c == '<' {
			if end, ok := scanOpaqueElement(v, i); ok {
				cur.WriteString(v[i:end])
				i = end
				continue
			}
		}
		cur.WriteByte(c)
		i++
	}
	args = append(args, cur.String())
	return args
}

var opaqueStartTagRe = regexp.MustCompile(`^<([-a-zA-Z0-9]+)\b[^>]*>`)

// scanOpaqueElement matches an HTML element starting at i whose
// content holds no brackets or braces, returning the index just past
// its end tag.
func scanOpaqueElement(v string, i int) (int, bool) {
	m := opaqueStartTagRe.FindStringSubmatch(v[i:])
	if m == nil || strings.HasSuffix(strings.TrimSuffix(m[0], ">"), "/") {
		return 0, false
	}
	tag := m[1]
	bodyStart := i + len(m[0])
	endTagRe := regexp.MustCompile(`(?i)</` + regexp.QuoteMeta(tag) + `\s*>`)
	loc := endTagRe.FindStringIndex(v[bodyStart:])
	if loc == nil {
		return 0, false
	}
	if strings.ContainsAny(v[bodyStart:bodyStart+loc[0]], "[]{}") {
		return 0, false
	}
	return bodyStart + loc[1], true
}

var (
	noincludePairRe   = regexp.MustCompile(`(?is)<noinclude\s*>.*?</noinclude\s*>`)
	noincludeOpenRe   = regexp.MustCompile(`(?is)<noinclude\s*>.*`)
	commentOpenRe     = regexp.MustCompile(`(?s)<!--.*`)
	onlyincludeRe     = regexp.MustCompile(`(?is)<onlyinclude\s*>(.*?)</onlyinclude\s*>|<onlyinclude\s*/>`)
	includeonlyRe     = regexp.MustCompile(`(?is)<includeonly\s*>(.*?)(\n?)</includeonly\s*>`)
	categoryLinkSplit = regexp.MustCompile(`(?i)(\[\[ *Category *:.*?\]\])`)
)

// templateVisibleBody extracts the portion of a template body that is
// transcluded: comments and <noinclude> content are dropped, an
// unclosed <noinclude> or <!-- hides the rest of the body, and
// <onlyinclude> sections, when present, replace everything else.
func templateVisibleBody(text string) string {
	text = commentRe.ReplaceAllString(text, "")
	text = noincludePairRe.ReplaceAllString(text, "")
	text = noincludeOpenRe.ReplaceAllString(text, "")
	text = commentOpenRe.ReplaceAllString(text, "")
	if onlys := onlyincludeRe.FindAllStringSubmatch(text, -1); len(onlys) > 0 {
		var sb strings.Builder
		for _, m := range onlys {
			sb.WriteString(m[1])
		}
		text = sb.String()
	}
	text = includeonlyRe.ReplaceAllStringFunc(text, includeonlyRepl)
	return text
}

// includeonlyRepl unwraps one <includeonly> element. A newline just
// before the end tag is kept (plus a space, matching how the wiki
// renders it); otherwise trailing whitespace is trimmed back to the
// last visible text, skipping trailing category links.
func includeonlyRepl(m string) string {
	sub := includeonlyRe.FindStringSubmatch(m)
	content, newline := sub[1], sub[2]
	if content == "" {
		return ""
	}
	if newline != "" {
		return content + "\n "
	}
	parts := categoryLinkSplit.Split(content, -1)
	cats := categoryLinkSplit.FindAllString(content, -1)
	// walk backwards over trailing category links to the last text
	var tail []string
	i := len(parts) - 1
	for ; i >= 0; i-- {
		if t := strings.TrimRight(parts[i], " \t\n"); t != "" {
			tail = append([]string{t}, tail...)
			break
		}
		if i > 0 {
			tail = append([]string{cats[i-1]}, tail...)
		}
	}
	var sb strings.Builder
	for j := 0; j < i; j++ {
		sb.WriteString(parts[j])
		sb.WriteString(cats[j])
	}
	for _, s := range tail {
		sb.WriteString(s)
	}
	return sb.String()
}
