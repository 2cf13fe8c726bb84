package wikitext

import (
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Page is a stored wiki page.
type Page struct {
	// Title is the full title including any namespace prefix.
	Title string
	// NamespaceID is the page's namespace.
	NamespaceID int
	// Body is the raw wikitext source.
	Body string
	// Redirect is the redirect target when the page is a redirect.
	Redirect string
}

// PageStore provides page lookups for template expansion.
// Implementations must be safe for concurrent readers. A Processor
// caches lookups on top of its store; mutating the store directly
// requires a Processor.InvalidatePageCache call.
type PageStore interface {
	// Get returns the page with the exact title, if present.
	Get(title string) (*Page, bool)
	// Add stores a page, replacing any page with the same title.
	Add(page *Page)
	// Len returns the number of stored pages.
	Len() int
	// ForEach calls fn for every page until fn returns false.
	ForEach(fn func(*Page) bool)
}

// MemoryStore is an in-memory PageStore.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[string]*Page
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: map[string]*Page{}}
}

// Get returns the page with the exact title, if present.
func (s *MemoryStore) Get(title string) (*Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[title]
	return page, ok
}

// Add stores a page, replacing any page with the same title.
func (s *MemoryStore) Add(page *Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page.Title] = page
}

// Len returns the number of stored pages.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages)
}

// ForEach calls fn for every page until fn returns false.
func (s *MemoryStore) ForEach(fn func(*Page) bool) {
	s.mu.RLock()
	pages := make([]*Page, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, p)
	}
	s.mu.RUnlock()
	for _, p := range pages {
		if !fn(p) {
			return
		}
	}
}

// AddTemplate stores a page in the Template namespace.
func (p *Processor) AddTemplate(name, body string) {
	title := name
	tmplName := namespaceName(10)
	if !strings.HasPrefix(title, tmplName+":") {
		title = tmplName + ":" + title
	}
	p.store.Add(&Page{Title: title, NamespaceID: 10, Body: body})
	p.InvalidatePageCache()
}

// AddPage stores a main-namespace page.
func (p *Processor) AddPage(title, body string) {
	p.store.Add(&Page{Title: title, NamespaceID: 0, Body: body})
	p.InvalidatePageCache()
}

// InvalidatePageCache drops the cached page lookups, including cached
// misses. AddPage, AddTemplate, and LoadDir call it themselves; code
// that mutates the PageStore directly through Store().Add must call it
// so later lookups see the new pages.
func (p *Processor) InvalidatePageCache() {
	if p.pageLookups != nil {
		p.pageLookups.Purge()
	}
}

const pageCacheSize = 1000

type pageCacheKey struct {
	title      string
	nsID       int
	noRedirect bool
}

func (p *Processor) pageCache() *lru.Cache[pageCacheKey, *Page] {
	if p.pageLookups == nil {
		cache, err := lru.New[pageCacheKey, *Page](pageCacheSize)
		if err != nil {
			panic(err)
		}
		p.pageLookups = cache
	}
	return p.pageLookups
}

// GetPage looks up a page by title, normalizing underscores, namespace
// aliases, and first-letter case. nsID, when nonzero, supplies the
// namespace for unprefixed titles.
func (p *Processor) GetPage(title string, nsID int) (*Page, bool) {
	return p.getPage(title, nsID, false)
}

func (p *Processor) getPage(title string, nsID int, noRedirect bool) (*Page, bool) {
	key := pageCacheKey{title: title, nsID: nsID, noRedirect: noRedirect}
	cache := p.pageCache()
	if page, ok := cache.Get(key); ok {
		return page, page != nil
	}
	page := p.lookupPage(title, nsID, noRedirect)
	cache.Add(key, page)
	return page, page != nil
}

func (p *Processor) lookupPage(title string, nsID int, noRedirect bool) *Page {
	title = strings.ReplaceAll(title, "_", " ")
	title = strings.TrimPrefix(title, "Main:")

	if nsID != 0 {
		local := namespaceName(nsID)
		if local != "" && !hasNamespacePrefix(title, nsID) {
			title = local + ":" + title
		}
	}

	// normalize a namespace alias prefix to the canonical name
	if ns, rest, ok := splitNamespace(title); ok && ns.Name != "" {
		title = ns.Name + ":" + rest
	}

	if page, ok := p.store.Get(title); ok {
		return p.maybeRedirect(page, noRedirect)
	}

	// retry with the first letter of the page name capitalized
	if upper := upperFirstInPageName(title); upper != title {
		if page, ok := p.store.Get(upper); ok {
			return p.maybeRedirect(page, noRedirect)
		}
	}
	return nil
}

func (p *Processor) maybeRedirect(page *Page, noRedirect bool) *Page {
	if noRedirect || page.Redirect == "" {
		return page
	}
	// follow a single redirect hop
	if target := p.lookupPage(page.Redirect, page.NamespaceID, true); target != nil {
		return target
	}
	return page
}

func hasNamespacePrefix(title string, nsID int) bool {
	ns, _, ok := splitNamespace(title)
	return ok && ns.ID == nsID
}

func upperFirstInPageName(title string) string {
	prefix := ""
	name := title
	if ns, rest, ok := splitNamespace(title); ok && ns.Name != "" {
		prefix = ns.Name + ":"
		name = rest
	}
	if name == "" {
		return title
	}
	runes := []rune(name)
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return prefix + string(runes)
}

// PageCount returns the number of stored pages, optionally restricted
// to the given namespaces.
func (p *Processor) PageCount(nsIDs ...int) int {
	if len(nsIDs) == 0 {
		return p.store.Len()
	}
	want := map[int]bool{}
	for _, id := range nsIDs {
		want[id] = true
	}
	count := 0
	p.store.ForEach(func(page *Page) bool {
		if want[page.NamespaceID] {
			count++
		}
		return true
	})
	return count
}

var (
	listStartRe     = regexp.MustCompile(`^[#*;:]`)
	tableElementRe  = regexp.MustCompile(`(^|\n)(\|\+|\|-|!)`)
	hiddenCellSepRe = regexp.MustCompile(`(?s)^\s*(<includeonly>|<!--.*?-->)(\|\||!!)`)
	bracesArgRe     = regexp.MustCompile(`\{\{\{[^{}]*\}\}\}`)
	bracesTmplRe    = regexp.MustCompile(`\{\{[^{}]*\}\}`)
)

// pairedHTMLTags are tags whose start/end balance matters for deciding
// whether a template must be expanded before parsing.
var pairedHTMLTags = []string{"span", "div", "table", "ul", "ol", "dl", "td", "tr", "th", "li"}

// templateNeedsPreExpand decides whether a template body produces
// structure that cannot be parsed in isolation: it starts a list,
// opens or closes a table it does not balance, emits bare table rows
// or cells, or leaves paired HTML tags unbalanced.
func templateNeedsPreExpand(body string) bool {
	if listStartRe.MatchString(body) {
		return true
	}
	starts, ends := tableDelimiterCounts(body)
	if starts != ends {
		return true
	}
	stripped := body
	for {
		next := bracesArgRe.ReplaceAllString(stripped, "")
		next = bracesTmplRe.ReplaceAllString(next, "")
		if next == stripped {
			break
		}
		stripped = next
	}
	if tableElementRe.MatchString(stripped) || hiddenCellSepRe.MatchString(stripped) {
		return true
	}
	for _, tag := range pairedHTMLTags {
		opened := countTagOccurrences(stripped, tag, false)
		closed := countTagOccurrences(stripped, tag, true)
		if opened != closed {
			return true
		}
	}
	return false
}

// tableDelimiterCounts counts "{|" table openers not preceded by "{"
// and "|}" table closers not followed by "}".
func tableDelimiterCounts(body string) (starts, ends int) {
	for i := 0; i+1 < len(body); i++ {
		if body[i] == '{' && body[i+1] == '|' {
			if i == 0 || body[i-1] != '{' {
				starts++
			}
		}
		if body[i] == '|' && body[i+1] == '}' {
			j := i + 2
			for j < len(body) && (body[j] == ' ' || body[j] == '\t' || body[j] == '\n') {
				j++
			}
			if j >= len(body) || body[j] != '}' {
				ends++
			}
		}
	}
	return starts, ends
}

func countTagOccurrences(body, tag string, end bool) int {
	pattern := "<" + tag
	if end {
		pattern = "</" + tag
	}
	count := 0
	lower := strings.ToLower(body)
	for i := 0; ; {
		j := strings.Index(lower[i:], pattern)
		if j < 0 {
			return count
		}
		i += j + len(pattern)
		// must be followed by a delimiter so "<s" does not match "<span"
		if i < len(lower) {
			c := lower[i]
			if c != '>' && c != ' ' && c != '\t' && c != '\n' && c != '/' {
				continue
			}
		}
		count++
	}
}

// includedTemplateRe matches template calls for inclusion analysis.
var includedTemplateRe = regexp.MustCompile(`\{\{([^{}|]+)[|}]`)

// AnalyzeTemplates scans all Template-namespace pages and decides
// which templates must be expanded before parsing. A template needs
// pre-expansion when its own body demands it, or when it includes a
// template that does. Redirect chains share the decision in both
// directions.
func (p *Processor) AnalyzeTemplates() {
	need := map[string]bool{}
	includedBy := map[string][]string{}
	redirects := map[string]string{}

	p.store.ForEach(func(page *Page) bool {
		if page.NamespaceID != 10 {
			return true
		}
		if page.Redirect != "" {
			redirects[page.Title] = page.Redirect
			return true
		}
		body := templateVisibleBody(page.Body)
		if templateNeedsPreExpand(body) {
			need[page.Title] = true
		}
		for _, m := range includedTemplateRe.FindAllStringSubmatch(body, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" || strings.HasPrefix(name, "#") {
				continue
			}
			target := namespaceName(10) + ":" + upperFirstInPageName(name)
			includedBy[target] = append(includedBy[target], page.Title)
		}
		return true
	})

	// a template that includes a pre-expand template needs pre-expansion
	queue := make([]string, 0, len(need))
	for title := range need {
		queue = append(queue, title)
	}
	for len(queue) > 0 {
		title := queue[0]
		queue = queue[1:]
		for _, includer := range includedBy[title] {
			if !need[includer] {
				need[includer] = true
				queue = append(queue, includer)
			}
		}
	}

	// redirects inherit the decision from their target and vice versa
	for from, to := range redirects {
		target := namespaceName(10) + ":" + strings.TrimSpace(to)
		if page, ok := p.store.Get(target); ok {
			target = page.Title
		}
		if need[target] {
			need[from] = true
		} else if need[from] {
			need[target] = true
		}
	}

	p.needPreExpand = need
}

// NeedsPreExpand reports whether AnalyzeTemplates marked the template
// (given by full title) for pre-expansion.
func (p *Processor) NeedsPreExpand(title string) bool {
	return p.needPreExpand[title]
}
