// Package api provides a MediaWiki Action API client for fetching
// page source and searching a wiki.
package api

// APIError is an error reported in an API response body.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	if e.Info != "" {
		return e.Info
	}
	return e.Code
}

// RemotePage is a page fetched from a wiki.
type RemotePage struct {
	PageID      int    `json:"pageid"`
	NamespaceID int    `json:"ns"`
	Title       string `json:"title"`
	// Missing is true when the wiki has no page with this title.
	Missing bool `json:"missing"`
	// Redirect is the redirect target when the requested title was a
	// redirect and redirects were resolved.
	Redirect string `json:"-"`
	// Content is the raw wikitext of the latest revision.
	Content string `json:"-"`
}

// queryResponse is the envelope of action=query responses.
type queryResponse struct {
	Continue map[string]string `json:"continue"`
	Query    queryResult       `json:"query"`
}

type queryResult struct {
	Redirects  []redirectEntry `json:"redirects"`
	Normalized []redirectEntry `json:"normalized"`
	Pages      []pageEntry     `json:"pages"`
	SearchInfo searchInfo      `json:"searchinfo"`
	Search     []SearchResult  `json:"search"`
}

type redirectEntry struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type pageEntry struct {
	PageID    int        `json:"pageid"`
	Ns        int        `json:"ns"`
	Title     string     `json:"title"`
	Missing   bool       `json:"missing"`
	Revisions []revision `json:"revisions"`
}

type revision struct {
	Slots map[string]slot `json:"slots"`
}

type slot struct {
	ContentModel string `json:"contentmodel"`
	Content      string `json:"content"`
}
