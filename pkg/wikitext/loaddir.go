package wikitext

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// pageFileExt is the extension of page source files in a page directory.
const pageFileExt = ".wiki"

var redirectRe = regexp.MustCompile(`(?i)^\s*#redirect\s*:?\s*\[\[([^\]|#]+)`)

// LoadDir loads every ".wiki" file under dir into the store. The path
// relative to dir, without the extension and with underscores replaced
// by spaces, becomes the page title. A top-level directory whose name
// matches a namespace (e.g. "Template") becomes the title prefix and
// sets the namespace. Returns the number of pages loaded.
func LoadDir(store PageStore, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), pageFileExt) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read page file %s: %w", path, err)
		}
		store.Add(pageFromFile(rel, string(body)))
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to load page directory: %w", err)
	}
	return count, nil
}

// pageFromFile builds a Page from a relative file path and its body.
func pageFromFile(rel, body string) *Page {
	name := strings.TrimSuffix(filepath.ToSlash(rel), pageFileExt)
	name = strings.ReplaceAll(name, "_", " ")

	title := name
	nsID := 0
	if head, rest, ok := strings.Cut(name, "/"); ok {
		if ns, found := NamespaceByName(head); found && ns.Name != "" {
			title = ns.Name + ":" + rest
			nsID = ns.ID
		}
	}

	page := &Page{Title: title, NamespaceID: nsID, Body: body}
	if m := redirectRe.FindStringSubmatch(body); m != nil {
		page.Redirect = strings.TrimSpace(m[1])
	}
	return page
}

// LoadDir loads a page directory into the processor's store and drops
// cached page lookups.
func (p *Processor) LoadDir(dir string) (int, error) {
	count, err := LoadDir(p.store, dir)
	p.InvalidatePageCache()
	return count, err
}
