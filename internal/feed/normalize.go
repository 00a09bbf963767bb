package feed

import (
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/prwee/prwee/internal/models"
)

const (
	// summaryMaxRunes bounds the stored summary. The truncation is a display
	// aid, not semantic compression.
	summaryMaxRunes = 500

	// readingChars is the character count treated as one minute of reading.
	readingChars = 200

	placeholderTitle   = "no title"
	placeholderContent = "content unavailable"
)

// stripPolicy removes all markup. bluemonday policies are safe for
// concurrent use.
var stripPolicy = bluemonday.StrictPolicy()

var reWhitespace = regexp.MustCompile(`\s+`)

// Normalize maps one raw feed item and its owning source into an unsaved
// article candidate. It is a total function over optional fields: missing
// content, author, image, or date fall back per documented policy instead of
// failing. The second return is false when the item has neither title nor
// link and must be skipped entirely: such records cannot be deduplicated or
// usefully displayed.
//
// now supplies the fallback publish time so the transform stays deterministic
// under test.
func Normalize(item RawItem, src Source, now time.Time) (*models.Article, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" && link == "" {
		return nil, false
	}
	if title == "" {
		title = placeholderTitle
	}

	content := item.Content
	if content == "" {
		content = item.Snippet
	}
	if content == "" {
		content = placeholderContent
	}

	publishedAt := now
	if item.PublishedAt != nil {
		publishedAt = *item.PublishedAt
	}

	image := item.MediaURL
	if image == "" {
		image = item.ThumbnailURL
	}

	return &models.Article{
		Title:       title,
		Content:     content,
		Summary:     Summarize(content),
		URL:         link,
		SourceName:  src.Name,
		SourceURL:   src.URL,
		CategoryID:  src.CategoryID,
		PublishedAt: publishedAt,
		ImageURL:    image,
		Author:      strings.TrimSpace(item.Author),
		ReadingTime: ReadingTime(content),
	}, true
}

// Summarize strips markup from content, collapses whitespace, and truncates
// to the summary length cap.
func Summarize(content string) string {
	text := stripPolicy.Sanitize(content)
	text = strings.TrimSpace(reWhitespace.ReplaceAllString(text, " "))
	// Truncate by runes so multibyte text is never cut mid-character.
	if runes := []rune(text); len(runes) > summaryMaxRunes {
		text = string(runes[:summaryMaxRunes])
	}
	return text
}

// ReadingTime estimates minutes to read as ceil(len(content)/readingChars).
func ReadingTime(content string) int {
	return (len(content) + readingChars - 1) / readingChars
}
