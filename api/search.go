package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// SearchOptions contains options for full-text search.
type SearchOptions struct {
	Query     string // Search terms (required)
	Namespace int    // Namespace to search (default 0, the main namespace)
	Limit     int    // Max results (default 10, max 500)
	Offset    int    // Result offset for pagination
}

// SearchResult is a single full-text search hit.
type SearchResult struct {
	PageID    int    `json:"pageid"`
	Namespace int    `json:"ns"`
	Title     string `json:"title"`
	Size      int    `json:"size"`
	WordCount int    `json:"wordcount"`
	Snippet   string `json:"snippet"`
	Timestamp string `json:"timestamp"`
}

// SearchResponse holds full-text search results.
type SearchResponse struct {
	TotalHits int            `json:"totalhits"`
	Results   []SearchResult `json:"results"`
	Offset    int            `json:"offset"`
	Limit     int            `json:"limit"`
}

type searchInfo struct {
	TotalHits int `json:"totalhits"`
}

// HasMore returns true if there are more results available.
func (r *SearchResponse) HasMore() bool {
	return r.Offset+len(r.Results) < r.TotalHits
}

// Search performs a full-text search using action=query&list=search.
func (c *Client) Search(ctx context.Context, opts *SearchOptions) (*SearchResponse, error) {
	if opts == nil || opts.Query == "" {
		return nil, fmt.Errorf("search requires a query")
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", opts.Query)
	params.Set("srnamespace", strconv.Itoa(opts.Namespace))

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	params.Set("srlimit", strconv.Itoa(limit))
	if opts.Offset > 0 {
		params.Set("sroffset", strconv.Itoa(opts.Offset))
	}

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	return &SearchResponse{
		TotalHits: resp.Query.SearchInfo.TotalHits,
		Results:   resp.Query.Search,
		Offset:    opts.Offset,
		Limit:     limit,
	}, nil
}
