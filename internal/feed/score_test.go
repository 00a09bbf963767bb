package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prwee/prwee/internal/models"
)

func TestScoreTextBreakingNews(t *testing.T) {
	tables := DefaultTables()

	score := ScoreText(tables,
		"Breaking: urgent update on markets",
		"The rynok crisis deepens as stocks fall across exchanges.",
	)

	// base 5, +3 "breaking", +3 "urgent", +1 "update", clamped to 10.
	assert.GreaterOrEqual(t, score.Importance, 8)
	assert.LessOrEqual(t, score.Importance, 10)
	assert.Equal(t, models.SentimentNegative, score.Sentiment)
	assert.Contains(t, score.Tags, "economy")
}

func TestScoreTextDeterminism(t *testing.T) {
	tables := DefaultTables()
	title := "Научное открытие: прогресс в разработке software"
	content := "Ученые сообщают об успехе исследования. Рынок отреагировал ростом."

	first := ScoreText(tables, title, content)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, ScoreText(tables, title, content))
	}
}

func TestScoreTextImportance(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		name  string
		title string
		want  int
	}{
		{"no keywords", "plain text about nothing", 5},
		{"one important", "breaking story", 8},
		{"repeated keyword counts once", "breaking breaking breaking", 8},
		{"one medium", "small update", 6},
		{"stacked keywords clamp at ten", "важно срочно breaking urgent critical", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ScoreText(tables, tt.title, "")
			assert.Equal(t, tt.want, score.Importance)
			assert.GreaterOrEqual(t, score.Importance, 1)
			assert.LessOrEqual(t, score.Importance, 10)
		})
	}
}

func TestScoreTextSentiment(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"positive wins", "большой успех и победа", models.SentimentPositive},
		{"negative wins", "конфликт и потеря", models.SentimentNegative},
		{"tie is neutral", "success problem", models.SentimentNeutral},
		{"no hits is neutral", "ничего интересного", models.SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := ScoreText(tables, tt.text, "")
			assert.Equal(t, tt.want, score.Sentiment)
		})
	}
}

func TestScoreTextTags(t *testing.T) {
	tables := DefaultTables()

	score := ScoreText(tables, "Scientist startup", "research into new software")
	// Tags come out in fixed vocabulary order regardless of hit order in text.
	require.Equal(t, []string{"technology", "science"}, score.Tags)

	score = ScoreText(tables, "ничего по теме", "")
	assert.Empty(t, score.Tags)
}

func TestScoreTextCustomTables(t *testing.T) {
	tables := Tables{
		Important: []string{"alpha"},
		Tags:      map[string][]string{"custom": {"beta"}},
	}

	score := ScoreText(tables, "alpha beta", "")
	assert.Equal(t, 8, score.Importance)
	assert.Equal(t, models.SentimentNeutral, score.Sentiment)
	assert.Equal(t, []string{"custom"}, score.Tags)
}
