package wikitext

import (
	"regexp"
	"strings"
)

// Tokenization of encoded wikitext. Bold and italic apostrophes are
// interpreted within a single line; it does not seem possible to
// disambiguate them without looking at what follows on the same line.

// insideHTMLTagsRe finds HTML start tags so single quotes inside them
// can be hidden from the apostrophe scanner.
var insideHTMLTagsRe *regexp.Regexp

func init() {
	names := make([]string, 0, len(allowedHTMLTags))
	for tag := range allowedHTMLTags {
		names = append(names, tag)
	}
	insideHTMLTagsRe = regexp.MustCompile(`(?i)<(?:` + strings.Join(names, "|") + `)[^><]*>`)
}

// headerRe matches a section heading occupying a whole line.
var headerRe = regexp.MustCompile(`^(={1,6})\s*(([^=]|=[^=])+?)\s*(={1,6})\s*$`)

// tokenRe matches one wikitext token. Alternatives are ordered so that
// longer markers win; "^" anchors only apply at the beginning of the
// part being scanned, which the tokenizer arranges to be a line start.
var tokenRe = regexp.MustCompile(`'''''|` +
	`'''|` +
	`''|` +
	"\n|" +
	`\[|` +
	`\]|` +
	`\|\}|` +
	`\{\||` +
	`^\s*\|\+|` +
	`^\s*\|-|` +
	`!!|` +
	`\s*https?://[a-zA-Z0-9.]+(/[^][{}<>|\s]*)?|` +
	"^[ \t]*!|" +
	`\|\||` +
	`\||` +
	`^----+|` +
	`^[*:;#]+|` +
	"[ \t]+\n*|" +
	`:|` +
	`<<[-a-zA-Z0-9/]*>>|` +
	`<[-a-zA-Z0-9]+\s*(\b[-a-zA-Z0-9:]+(\s*=\s*("[^<>"]*"|` +
	`'[^<>']*'|[^ \t\n"'` + "`" + `=<>]*))?\s*)*/?>|` +
	`</[-a-zA-Z0-9]+\s*>|` +
	`\b__[A-Z]+__\b|` +
	`[\x{102041}-\x{10FFF0}]`)

var listPrefixRe = regexp.MustCompile(`^[*:;#]+`)

var lineSplitRe = regexp.MustCompile(`\n+`)
var quoteRunRe = regexp.MustCompile(`'{2,}`)

func isSpace(s string) bool {
	return s != "" && strings.TrimSpace(s) == ""
}

// boldFollows reports whether a bold run (''') appears in parts after
// index i, allowing intervening italics ('').
func boldFollows(parts []string, i int) bool {
	for _, p := range parts[i+1:] {
		if !strings.HasPrefix(p, "''") {
			continue
		}
		if strings.HasPrefix(p, "'''") {
			return true
		}
	}
	return false
}

// tokenIter tokenizes encoded page content, calling emit with
// (isToken, text) for each piece. isToken is false for plain text.
func (p *Processor) tokenIter(text string, emit func(isToken bool, token string)) {
	// hide single quotes and newlines inside HTML tags from the
	// apostrophe scanner
	if locs := insideHTMLTagsRe.FindAllStringIndex(text, -1); len(locs) > 0 {
		var sb strings.Builder
		last := 0
		for _, loc := range locs {
			sb.WriteString(text[last:loc[0]])
			tag := text[loc[0]:loc[1]]
			tag = strings.ReplaceAll(tag, "'", string(magicSQuoteChar))
			tag = strings.ReplaceAll(tag, "\n", "")
			sb.WriteString(tag)
			last = loc[1]
		}
		sb.WriteString(text[last:])
		text = sb.String()
	}

	for _, line := range splitWithSeparators(lineSplitRe, text) {
		if hm := headerRe.FindStringSubmatch(line); hm != nil {
			// mark header tokens with < and > so they are not confused
			// with "=" text
			emit(true, "<"+hm[1])
			p.tokenIter(hm[2], emit)
			emit(true, ">"+hm[4])
			continue
		}
		// partition on apostrophe runs so bold/italic can be resolved
		// with line-level context
		parts := splitWithSeparators(quoteRunRe, line)
		state := 0 // 1=in italic 2=in bold 3=in both
		for i, part := range parts {
			if strings.HasPrefix(part, "''") {
				switch {
				case strings.HasPrefix(part, "'''''"):
					switch state {
					case 1:
						emit(true, "''")
						emit(true, "'''")
						state = 2
					case 2:
						emit(true, "'''")
						emit(true, "''")
						state = 1
					case 3:
						emit(true, "'''")
						emit(true, "''")
						state = 0
					default:
						if boldFollows(parts, i) {
							emit(true, "''")
							emit(true, "'''")
						} else {
							emit(true, "'''")
							emit(true, "''")
						}
						state = 3
					}
					part = part[5:]
				case strings.HasPrefix(part, "'''"):
					switch state {
					case 1:
						if boldFollows(parts, i) {
							emit(true, "'''")
							part = part[3:]
							state = 3
						} else {
							emit(true, "''")
							part = part[2:]
							state = 0
						}
					case 2:
						emit(true, "'''")
						part = part[3:]
						state = 0
					case 3:
						emit(true, "'''")
						part = part[3:]
						state = 1
					default:
						emit(true, "'''")
						part = part[3:]
						state = 2
					}
				default:
					emit(true, "''")
					part = part[2:]
					switch state {
					case 1:
						state = 0
					case 2:
						state = 3
					case 3:
						state = 2
					default:
						state = 1
					}
				}
				if part != "" {
					emit(false, part)
				}
				continue
			}
			part = strings.ReplaceAll(part, string(magicSQuoteChar), "'")
			pos := 0
			for _, loc := range tokenRe.FindAllStringIndex(part, -1) {
				start, end := loc[0], loc[1]
				if pos != start {
					emit(false, part[pos:start])
				}
				pos = end
				token := part[start:end]
				trimmed := strings.TrimSpace(token)
				if strings.HasPrefix(trimmed, "https://") || strings.HasPrefix(trimmed, "http://") {
					switch {
					case start > 0 && part[start-1] == '=':
						// a URL in a template argument stays plain text;
						// otherwise it would become an external link
						emit(false, trimmed)
					case strings.HasPrefix(token, " "):
						emit(true, token[:strings.Index(token, "http")])
						emit(true, trimmed)
					default:
						emit(true, token)
					}
				} else {
					emit(true, token)
				}
			}
			if pos != len(part) {
				emit(false, part[pos:])
			}
		}
	}
}
