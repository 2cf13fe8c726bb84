package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "search", r.URL.Query().Get("list"))
		assert.Equal(t, "template expansion", r.URL.Query().Get("srsearch"))
		assert.Equal(t, "10", r.URL.Query().Get("srlimit"))
		w.Write([]byte(`{
			"query": {
				"searchinfo": {"totalhits": 2},
				"search": [
					{"pageid": 1, "ns": 0, "title": "Template processor", "size": 1000, "wordcount": 150, "snippet": "about <span>templates</span>", "timestamp": "2024-01-01T00:00:00Z"},
					{"pageid": 2, "ns": 0, "title": "Macro expansion", "size": 500, "wordcount": 80, "snippet": "", "timestamp": "2024-02-01T00:00:00Z"}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/api.php")
	resp, err := client.Search(context.Background(), &SearchOptions{Query: "template expansion"})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalHits)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Template processor", resp.Results[0].Title)
	assert.Equal(t, 150, resp.Results[0].WordCount)
	assert.False(t, resp.HasMore())
}

func TestClient_Search_Pagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("srlimit"))
		assert.Equal(t, "5", r.URL.Query().Get("sroffset"))
		w.Write([]byte(`{
			"query": {
				"searchinfo": {"totalhits": 100},
				"search": [{"pageid": 6, "ns": 0, "title": "Sixth"}]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/api.php")
	resp, err := client.Search(context.Background(), &SearchOptions{Query: "x", Limit: 5, Offset: 5})
	require.NoError(t, err)

	assert.True(t, resp.HasMore())
}

func TestClient_Search_Namespace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("srnamespace"))
		w.Write([]byte(`{"query": {"searchinfo": {"totalhits": 0}, "search": []}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/api.php")
	resp, err := client.Search(context.Background(), &SearchOptions{Query: "infobox", Namespace: 10})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestClient_Search_RequiresQuery(t *testing.T) {
	client := NewClient("https://example.org")

	_, err := client.Search(context.Background(), nil)
	require.Error(t, err)

	_, err = client.Search(context.Background(), &SearchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a query")
}
