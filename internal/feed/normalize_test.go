package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSkipsEmptyItems(t *testing.T) {
	_, ok := Normalize(RawItem{}, Source{Name: "src"}, time.Now())
	assert.False(t, ok)

	_, ok = Normalize(RawItem{Title: "  ", Link: "\t"}, Source{Name: "src"}, time.Now())
	assert.False(t, ok)
}

func TestNormalizeFallbacks(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	src := Source{
		Name:       "Example Feed",
		URL:        "https://example.com/rss",
		CategoryID: uuid.New(),
	}

	t.Run("title placeholder when link present", func(t *testing.T) {
		a, ok := Normalize(RawItem{Link: "https://example.com/1"}, src, now)
		require.True(t, ok)
		assert.Equal(t, "no title", a.Title)
	})

	t.Run("content falls back to snippet", func(t *testing.T) {
		a, ok := Normalize(RawItem{Title: "t", Snippet: "short snippet"}, src, now)
		require.True(t, ok)
		assert.Equal(t, "short snippet", a.Content)
	})

	t.Run("content placeholder when both empty", func(t *testing.T) {
		a, ok := Normalize(RawItem{Title: "t"}, src, now)
		require.True(t, ok)
		assert.Equal(t, "content unavailable", a.Content)
	})

	t.Run("missing date falls back to now", func(t *testing.T) {
		a, ok := Normalize(RawItem{Title: "t"}, src, now)
		require.True(t, ok)
		assert.Equal(t, now, a.PublishedAt)
	})

	t.Run("parsed date is kept", func(t *testing.T) {
		published := now.Add(-48 * time.Hour)
		a, ok := Normalize(RawItem{Title: "t", PublishedAt: &published}, src, now)
		require.True(t, ok)
		assert.Equal(t, published, a.PublishedAt)
	})

	t.Run("image prefers media over thumbnail", func(t *testing.T) {
		a, ok := Normalize(RawItem{
			Title:        "t",
			MediaURL:     "https://img/media.jpg",
			ThumbnailURL: "https://img/thumb.jpg",
		}, src, now)
		require.True(t, ok)
		assert.Equal(t, "https://img/media.jpg", a.ImageURL)

		a, ok = Normalize(RawItem{Title: "t", ThumbnailURL: "https://img/thumb.jpg"}, src, now)
		require.True(t, ok)
		assert.Equal(t, "https://img/thumb.jpg", a.ImageURL)

		a, ok = Normalize(RawItem{Title: "t"}, src, now)
		require.True(t, ok)
		assert.Empty(t, a.ImageURL)
	})

	t.Run("source fields carried over", func(t *testing.T) {
		a, ok := Normalize(RawItem{Title: "t"}, src, now)
		require.True(t, ok)
		assert.Equal(t, src.Name, a.SourceName)
		assert.Equal(t, src.URL, a.SourceURL)
		assert.Equal(t, src.CategoryID, a.CategoryID)
	})
}

func TestSummarize(t *testing.T) {
	t.Run("strips markup and collapses whitespace", func(t *testing.T) {
		got := Summarize("<p>Hello   <b>world</b></p>\n\n<div>again</div>")
		assert.Equal(t, "Hello world again", got)
	})

	t.Run("truncates long content by runes", func(t *testing.T) {
		// Cyrillic characters are two bytes each; a byte-based cut would
		// split one in half.
		long := strings.Repeat("д", 600)
		got := Summarize(long)
		assert.Equal(t, 500, len([]rune(got)))
		assert.Equal(t, strings.Repeat("д", 500), got)
	})

	t.Run("short content untouched", func(t *testing.T) {
		assert.Equal(t, "short", Summarize("short"))
	})
}

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 1, ReadingTime("x"))
	assert.Equal(t, 1, ReadingTime(strings.Repeat("a", 200)))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("a", 201)))
	assert.Equal(t, 3, ReadingTime(strings.Repeat("a", 450)))
}
