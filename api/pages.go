package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// maxTitlesPerRequest is the API limit on titles per query.
const maxTitlesPerRequest = 50

// FetchPage fetches the raw wikitext of one page, following redirects.
func (c *Client) FetchPage(ctx context.Context, title string) (*RemotePage, error) {
	pages, err := c.FetchPages(ctx, []string{title})
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no result for page %q", title)
	}
	return &pages[0], nil
}

// FetchPages fetches the raw wikitext of several pages in batches,
// following redirects. Missing pages are returned with Missing set.
func (c *Client) FetchPages(ctx context.Context, titles []string) ([]RemotePage, error) {
	var out []RemotePage
	for start := 0; start < len(titles); start += maxTitlesPerRequest {
		end := min(start+maxTitlesPerRequest, len(titles))
		pages, err := c.fetchBatch(ctx, titles[start:end])
		if err != nil {
			return out, err
		}
		out = append(out, pages...)
	}
	return out, nil
}

func (c *Client) fetchBatch(ctx context.Context, titles []string) ([]RemotePage, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "revisions")
	params.Set("rvprop", "content")
	params.Set("rvslots", "main")
	params.Set("redirects", "1")
	params.Set("titles", strings.Join(titles, "|"))

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}

	// map resolved titles back to the redirect that produced them
	redirectedFrom := map[string]string{}
	for _, r := range resp.Query.Redirects {
		redirectedFrom[r.To] = r.From
	}

	pages := make([]RemotePage, 0, len(resp.Query.Pages))
	for _, entry := range resp.Query.Pages {
		page := RemotePage{
			PageID:      entry.PageID,
			NamespaceID: entry.Ns,
			Title:       entry.Title,
			Missing:     entry.Missing,
		}
		if from, ok := redirectedFrom[entry.Title]; ok && from != "" {
			page.Redirect = entry.Title
			page.Title = from
		}
		if len(entry.Revisions) > 0 {
			if main, ok := entry.Revisions[0].Slots["main"]; ok {
				page.Content = main.Content
			}
		}
		pages = append(pages, page)
	}
	return pages, nil
}
