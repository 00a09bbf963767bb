package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <item>
      <title>First article</title>
      <link>https://example.com/1</link>
      <description>First description</description>
      <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second article</title>
      <link>https://example.com/2</link>
      <description>Second description</description>
    </item>
  </channel>
</rss>`

func rssServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcherFetch(t *testing.T) {
	srv := rssServer(t, testRSS)
	f := NewFetcher(5 * time.Second)

	items, err := f.Fetch(context.Background(), Source{Name: "test", URL: srv.URL})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "First article", items[0].Title)
	assert.Equal(t, "https://example.com/1", items[0].Link)
	assert.Equal(t, "First description", items[0].Snippet)
	require.NotNil(t, items[0].PublishedAt)
	assert.Equal(t, 2026, items[0].PublishedAt.Year())

	// Feed omits the second item's date; the normalizer supplies a fallback.
	assert.Nil(t, items[1].PublishedAt)
}

func TestFetcherFetchErrors(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		t.Cleanup(srv.Close)

		f := NewFetcher(5 * time.Second)
		_, err := f.Fetch(context.Background(), Source{Name: "broken", URL: srv.URL})
		require.Error(t, err)
		assert.ErrorContains(t, err, "status 404")
	})

	t.Run("unparseable body", func(t *testing.T) {
		srv := rssServer(t, "this is not a feed")
		f := NewFetcher(5 * time.Second)
		_, err := f.Fetch(context.Background(), Source{Name: "bad", URL: srv.URL})
		require.Error(t, err)
	})

	t.Run("unreachable host", func(t *testing.T) {
		f := NewFetcher(time.Second)
		_, err := f.Fetch(context.Background(), Source{Name: "down", URL: "http://127.0.0.1:1"})
		require.Error(t, err)
	})
}
