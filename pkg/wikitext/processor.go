// Package wikitext expands and parses MediaWiki wikitext. A Processor
// holds the state for one page at a time: template expansion works
// against a PageStore of template pages, and parsing produces a tree
// of WikiNode values.
package wikitext

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// maxExpandDepth bounds the template expansion stack.
const maxExpandDepth = 100

// TemplateFn lets a caller replace a template expansion. It receives
// the template name and its bound arguments; returning ok=false falls
// through to normal expansion.
type TemplateFn func(name string, args map[string]string) (string, bool)

// PostTemplateFn lets a caller rewrite the result of a template
// expansion. Returning ok=false keeps the original expansion.
type PostTemplateFn func(name string, args map[string]string, expanded string) (string, bool)

// Options configures a Processor.
type Options struct {
	// LangCode is the wiki language code, e.g. "en".
	LangCode string
	// Project is the wiki project, e.g. "wikipedia" or "wiktionary".
	Project string
	// Store provides template and page lookups. Defaults to an empty
	// MemoryStore.
	Store PageStore
	// Sandbox executes #invoke calls. When nil, #invoke is reported
	// as unimplemented.
	Sandbox Sandbox
}

// Processor expands and parses wikitext pages one at a time. It is not
// safe for concurrent use; create one Processor per goroutine.
type Processor struct {
	// Title is the page set by StartPage.
	Title string

	// Diagnostics collected for the current page.
	Errors   []Diagnostic
	Warnings []Diagnostic
	Debugs   []Diagnostic

	langCode string
	project  string
	store    PageStore
	sandbox  Sandbox

	// pageLookups caches normalized title resolutions.
	pageLookups *lru.Cache[pageCacheKey, *Page]

	section    string
	subsection string

	// cookie allocator state
	cookies     []cookieValue
	cookieIndex map[string]int

	// expandStack holds the titles of pages and frames currently being
	// expanded, for diagnostics and loop detection.
	expandStack []string

	// selective pre-expansion sets, built by AnalyzeTemplates or given
	// to Parse.
	needPreExpand    map[string]bool
	additionalExpand map[string]bool
	doNotPreExpand   map[string]bool

	// template behavior hooks
	templateFn        TemplateFn
	postTemplateFn    PostTemplateFn
	templateOverrides map[string]func(args []string) string

	// strip marker state
	stripMarkers     map[string]string
	nowikiMarkerSeq  int
	generalMarkerSeq int

	// tree builder state
	parserStack         []*WikiNode
	linenum             int
	beginningOfLine     bool
	wspBeginningOfLine  bool
	beglineEnabled      bool
	beglineDisableCount int
	suppressSpecial     bool
	preParse            bool
}

// NewProcessor creates a Processor with the given options.
func NewProcessor(opts Options) *Processor {
	if opts.LangCode == "" {
		opts.LangCode = "en"
	}
	if opts.Project == "" {
		opts.Project = "wikipedia"
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	p := &Processor{
		langCode: opts.LangCode,
		project:  opts.Project,
		store:    opts.Store,
		sandbox:  opts.Sandbox,
	}
	p.resetPageState("")
	return p
}

// LangCode returns the configured wiki language code.
func (p *Processor) LangCode() string { return p.langCode }

// Project returns the configured wiki project name.
func (p *Processor) Project() string { return p.project }

// Store returns the page store backing template lookups.
func (p *Processor) Store() PageStore { return p.store }

// SetTemplateFn installs a hook consulted before each template
// expansion.
func (p *Processor) SetTemplateFn(fn TemplateFn) { p.templateFn = fn }

// SetPostTemplateFn installs a hook consulted after each template
// expansion.
func (p *Processor) SetPostTemplateFn(fn PostTemplateFn) { p.postTemplateFn = fn }

// OverrideTemplate replaces the body of the named template with the
// result of fn for the rest of the session.
func (p *Processor) OverrideTemplate(name string, fn func(args []string) string) {
	if p.templateOverrides == nil {
		p.templateOverrides = map[string]func(args []string) string{}
	}
	p.templateOverrides[name] = fn
}

// StartPage begins processing a new page, clearing all per-page state
// including collected diagnostics and allocated cookies.
func (p *Processor) StartPage(title string) {
	p.resetPageState(title)
}

func (p *Processor) resetPageState(title string) {
	p.Title = title
	p.Errors = nil
	p.Warnings = nil
	p.Debugs = nil
	p.section = ""
	p.subsection = ""
	p.cookies = nil
	p.cookieIndex = map[string]int{}
	p.expandStack = nil
	if title != "" {
		p.expandStack = []string{title}
	}
	p.stripMarkers = map[string]string{}
	p.nowikiMarkerSeq = 0
	p.generalMarkerSeq = 0
}

// CurrentSection returns the most recent level-2 heading seen by the
// tree builder, for diagnostics.
func (p *Processor) CurrentSection() string { return p.section }

func (p *Processor) pushFrame(name string) {
	p.expandStack = append(p.expandStack, name)
}

func (p *Processor) popFrame() {
	p.expandStack = p.expandStack[:len(p.expandStack)-1]
}

// hasRepeatingSuffix reports whether the expansion stack ends with two
// identical consecutive blocks for some period, which indicates a
// template expansion loop.
func hasRepeatingSuffix(stack []string) bool {
	n := len(stack)
	for period := 1; 2*period <= n; period++ {
		match := true
		for i := 0; i < period; i++ {
			if stack[n-period+i] != stack[n-2*period+i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// createStripMarker allocates a MediaWiki-style UNIQ strip marker for
// the given element. Markers for the same non-nowiki content are
// reused.
func (p *Processor) createStripMarker(element, content string) string {
	if element == "nowiki" {
		marker := fmt.Sprintf("\x7f'\"`UNIQ--nowiki-%08X-QINU`\"'\x7f", p.nowikiMarkerSeq)
		p.nowikiMarkerSeq++
		return marker
	}
	key := element + "\x00" + content
	if marker, ok := p.stripMarkers[key]; ok {
		return marker
	}
	marker := fmt.Sprintf("\x7f'\"`UNIQ--%s-%08X-QINU`\"'\x7f", element, p.generalMarkerSeq)
	p.generalMarkerSeq++
	p.stripMarkers[key] = marker
	return marker
}
