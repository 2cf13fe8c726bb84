package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "query", r.URL.Query().Get("action"))
		assert.Equal(t, "revisions", r.URL.Query().Get("prop"))
		assert.Equal(t, "Go (programming language)", r.URL.Query().Get("titles"))
		w.Write([]byte(`{
			"query": {
				"pages": [{
					"pageid": 123,
					"ns": 0,
					"title": "Go (programming language)",
					"revisions": [{"slots": {"main": {"contentmodel": "wikitext", "content": "'''Go''' is a language."}}}]
				}]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/api.php")
	page, err := client.FetchPage(context.Background(), "Go (programming language)")
	require.NoError(t, err)

	assert.Equal(t, 123, page.PageID)
	assert.Equal(t, "Go (programming language)", page.Title)
	assert.Equal(t, "'''Go''' is a language.", page.Content)
	assert.False(t, page.Missing)
}

func TestFetchPage_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query": {"pages": [{"ns": 0, "title": "No such page", "missing": true}]}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/api.php")
	page, err := client.FetchPage(context.Background(), "No such page")
	require.NoError(t, err)
	assert.True(t, page.Missing)
	assert.Empty(t, page.Content)
}

func TestFetchPage_Redirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("redirects"))
		w.Write([]byte(`{
			"query": {
				"redirects": [{"from": "Golang", "to": "Go (programming language)"}],
				"pages": [{
					"pageid": 123,
					"ns": 0,
					"title": "Go (programming language)",
					"revisions": [{"slots": {"main": {"content": "body"}}}]
				}]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/api.php")
	page, err := client.FetchPage(context.Background(), "Golang")
	require.NoError(t, err)

	// the result keeps the requested title and records the target
	assert.Equal(t, "Golang", page.Title)
	assert.Equal(t, "Go (programming language)", page.Redirect)
	assert.Equal(t, "body", page.Content)
}

func TestFetchPages_Batching(t *testing.T) {
	var batchSizes []int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles := strings.Split(r.URL.Query().Get("titles"), "|")
		batchSizes = append(batchSizes, len(titles))
		var pages []string
		for _, title := range titles {
			pages = append(pages, fmt.Sprintf(`{"pageid": 1, "ns": 0, "title": %q}`, title))
		}
		fmt.Fprintf(w, `{"query": {"pages": [%s]}}`, strings.Join(pages, ","))
	}))
	defer server.Close()

	titles := make([]string, 70)
	for i := range titles {
		titles[i] = fmt.Sprintf("Page %d", i)
	}

	client := NewClient(server.URL + "/api.php")
	pages, err := client.FetchPages(context.Background(), titles)
	require.NoError(t, err)

	assert.Len(t, pages, 70)
	assert.Equal(t, []int{50, 20}, batchSizes)
}

func TestFetchPages_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": "toomanyvalues", "info": "Too many values supplied"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/api.php")
	_, err := client.FetchPages(context.Background(), []string{"A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too many values")
}
