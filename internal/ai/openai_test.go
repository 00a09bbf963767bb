package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prwee/prwee/internal/models"
)

func TestParseStructured(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		got := ParseStructured(`{"summary": "s", "importance": 8, "sentiment": "negative", "keyFacts": ["f1", "f2"]}`)
		assert.Equal(t, "s", got.Summary)
		assert.Equal(t, 8, got.Importance)
		assert.Equal(t, models.SentimentNegative, got.Sentiment)
		assert.Equal(t, []string{"f1", "f2"}, got.KeyFacts)
	})

	t.Run("json wrapped in code fence", func(t *testing.T) {
		got := ParseStructured("```json\n{\"summary\": \"fenced\", \"importance\": 6}\n```")
		assert.Equal(t, "fenced", got.Summary)
		assert.Equal(t, 6, got.Importance)
	})

	t.Run("bare fence without language", func(t *testing.T) {
		got := ParseStructured("```\n{\"summary\": \"bare\"}\n```")
		assert.Equal(t, "bare", got.Summary)
	})

	t.Run("unparseable content yields placeholder", func(t *testing.T) {
		got := ParseStructured("Извините, не могу вернуть JSON.")
		assert.Equal(t, PlaceholderAnalysis(), got)
		assert.Equal(t, 7, got.Importance)
		assert.Equal(t, models.SentimentNeutral, got.Sentiment)
	})

	t.Run("empty content yields placeholder", func(t *testing.T) {
		assert.Equal(t, PlaceholderAnalysis(), ParseStructured(""))
	})
}

func TestPlaceholderAnalysisIsStable(t *testing.T) {
	a := PlaceholderAnalysis()
	b := PlaceholderAnalysis()
	require.Equal(t, a, b)
	assert.NotNil(t, a.KeyFacts)
	assert.Empty(t, a.KeyFacts)
}
