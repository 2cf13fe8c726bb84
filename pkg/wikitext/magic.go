package wikitext

import (
	"fmt"
	"strings"
)

// Magic cookies are codepoints from the Unicode private use area
// U+100000..U+10FFFF. Input pages are assumed not to contain them.
const (
	// magicNowikiChar replaces a <nowiki /> tag during encoding so that
	// the construct it splits is not recognized by the expander.
	magicNowikiChar = '\U0010203D'
	// magicSQuoteChar temporarily replaces single quotes inside
	// double-quoted HTML attribute values during tokenization.
	magicSQuoteChar = '\U0010203E'
	// magicLBracketChar and magicRBracketChar hide bracket pairs that
	// look like external links but have no URL scheme.
	magicLBracketChar = '\U0010203F'
	magicRBracketChar = '\U00102040'

	// Cookie codepoints allocated for captured constructs.
	magicFirst = 0x00102041
	magicLast  = 0x0010FFF0
	maxCookies = magicLast - magicFirst + 1
)

// cookie kinds
const (
	kindTemplate = 'T' // template or parser function call
	kindArgument = 'A' // template argument reference {{{...}}}
	kindLink     = 'L' // internal link [[...]]
	kindExtLink  = 'E' // external link [url ...]
	kindNowiki   = 'N' // <nowiki>...</nowiki> content
)

// cookieValue is the construct captured behind a single cookie codepoint.
type cookieValue struct {
	kind   byte
	args   []string
	nowiki bool
}

func (v cookieValue) key() string {
	return fmt.Sprintf("%c%v%s", v.kind, v.nowiki, strings.Join(v.args, "\x00"))
}

// saveValue allocates a cookie for the given construct, reusing an
// existing cookie when an identical construct was already captured.
// On overflow it records an error and returns an empty string.
func (p *Processor) saveValue(kind byte, args []string, nowiki bool) string {
	v := cookieValue{kind: kind, args: args, nowiki: nowiki}
	if idx, ok := p.cookieIndex[v.key()]; ok {
		return string(rune(magicFirst + idx))
	}
	idx := len(p.cookies)
	if idx >= maxCookies {
		p.Error("too many templates, arguments, or links in page", "magic/overflow")
		return ""
	}
	p.cookies = append(p.cookies, v)
	p.cookieIndex[v.key()] = idx
	return string(rune(magicFirst + idx))
}

// cookieAt returns the captured value for a cookie codepoint, or false
// when the rune is not an allocated cookie.
func (p *Processor) cookieAt(r rune) (cookieValue, bool) {
	if r < magicFirst || r > magicLast {
		return cookieValue{}, false
	}
	idx := int(r - magicFirst)
	if idx >= len(p.cookies) {
		return cookieValue{}, false
	}
	return p.cookies[idx], true
}

func isCookie(r rune) bool {
	return r >= magicFirst && r <= magicLast
}

// nowikiMap lists the characters that carry wikitext meaning and must
// be escaped when <nowiki>-quoted text is emitted.
var nowikiMap = map[rune]string{
	'=':  "&equals;",
	'<':  "&lt;",
	'>':  "&gt;",
	'*':  "&ast;",
	'#':  "&num;",
	':':  "&colon;",
	'!':  "&excl;",
	'|':  "&vert;",
	'[':  "&lsqb;",
	']':  "&rsqb;",
	'{':  "&lbrace;",
	'}':  "&rbrace;",
	'"':  "&quot;",
	'\'': "&apos;",
	'_':  "&#95;",
}

// nowikiQuote escapes characters with wikitext meaning so the result
// parses as plain text.
func nowikiQuote(text string) string {
	var sb strings.Builder
	for _, r := range text {
		if repl, ok := nowikiMap[r]; ok {
			sb.WriteString(repl)
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// addNewlineToExpansion prepends a newline when the expansion starts
// with a character that only has its block meaning at the beginning of
// a line.
// https://meta.wikimedia.org/wiki/Help:Newlines_and_spaces#Automatic_newline
func addNewlineToExpansion(text string) string {
	if strings.HasPrefix(text, "*") || strings.HasPrefix(text, ";") ||
		strings.HasPrefix(text, ":") || strings.HasPrefix(text, "#") ||
		strings.HasPrefix(text, "{|") {
		return "\n" + text
	}
	return text
}

// urlStarts are the URL prefixes recognized in external link brackets.
// A bracketed segment without one of these is not an external link.
var urlStarts = []string{"http://", "https://", "mailto:", "//"}

func hasURLPrefix(s string) bool {
	for _, pfx := range urlStarts {
		if strings.HasPrefix(s, pfx) {
			return true
		}
	}
	return false
}
