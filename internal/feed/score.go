package feed

import (
	"slices"
	"sort"
	"strings"

	"github.com/prwee/prwee/internal/models"
)

// Tables holds the keyword lists driving the heuristic scorer. They are plain
// data, external to the scoring logic, so tests can substitute smaller tables.
type Tables struct {
	// Important keywords add 3 importance points each; Medium add 1.
	Important []string
	Medium    []string

	Positive []string
	Negative []string

	// Tags maps a closed tag vocabulary to the keywords that trigger it.
	Tags map[string][]string
}

// Score is the heuristic classification of one article's text.
type Score struct {
	Importance int
	Sentiment  string
	Tags       []string
}

const baseImportance = 5

// DefaultTables returns the production keyword tables. The lists are
// bilingual because the configured sources mix Russian and English items.
func DefaultTables() Tables {
	return Tables{
		Important: []string{
			"важно", "срочно", "эксклюзив", "breaking", "urgent", "critical",
			"кризис", "критический", "аварийный", "чрезвычайный",
		},
		Medium: []string{
			"новость", "обновление", "изменение", "развитие", "прогресс",
			"news", "update", "change", "development",
		},
		Positive: []string{
			"успех", "рост", "развитие", "прогресс", "достижение", "победа",
			"success", "growth", "development", "achievement", "win",
		},
		Negative: []string{
			"проблема", "кризис", "падение", "потеря", "неудача", "конфликт",
			"problem", "crisis", "fall", "loss", "failure", "conflict",
		},
		Tags: map[string][]string{
			"technology": {"технолог", "программирование", "разработка", "technology", "software", "startup"},
			"politics":   {"политика", "правительство", "президент", "парламент", "politics", "government", "president", "parliament", "election"},
			"economy":    {"экономика", "финансы", "бизнес", "рынок", "акции", "economy", "finance", "business", "market", "stocks"},
			"sports":     {"спорт", "футбол", "баскетбол", "олимпиада", "sport", "football", "basketball", "olympic"},
			"science":    {"наука", "исследование", "открытие", "ученые", "science", "research", "discovery", "scientist"},
		},
	}
}

// tagOrder fixes the iteration order over the tag table so repeated scoring
// of the same text yields tags in the same order.
var tagOrder = []string{"technology", "politics", "economy", "sports", "science"}

// ScoreText derives importance, sentiment, and tags from title+content using
// case-insensitive substring presence checks against the tables. Each keyword
// contributes at most once regardless of how often it occurs in the text. The
// function is pure: identical inputs always produce identical output.
func ScoreText(t Tables, title, content string) Score {
	text := strings.ToLower(title + " " + content)

	importance := baseImportance
	for _, kw := range t.Important {
		if strings.Contains(text, kw) {
			importance += 3
		}
	}
	for _, kw := range t.Medium {
		if strings.Contains(text, kw) {
			importance += 1
		}
	}
	importance = clamp(importance, 1, 10)

	positive := 0
	for _, kw := range t.Positive {
		if strings.Contains(text, kw) {
			positive++
		}
	}
	negative := 0
	for _, kw := range t.Negative {
		if strings.Contains(text, kw) {
			negative++
		}
	}

	sentiment := models.SentimentNeutral
	switch {
	case positive > negative:
		sentiment = models.SentimentPositive
	case negative > positive:
		sentiment = models.SentimentNegative
	}

	var tags []string
	for _, tag := range orderedTags(t.Tags) {
		for _, kw := range t.Tags[tag] {
			if strings.Contains(text, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}

	return Score{Importance: importance, Sentiment: sentiment, Tags: tags}
}

// orderedTags returns the table's tag names in a stable order: the default
// vocabulary first, then any extra tags sorted. Map iteration alone would
// make tag output order vary between runs.
func orderedTags(table map[string][]string) []string {
	out := make([]string, 0, len(table))
	for _, tag := range tagOrder {
		if _, ok := table[tag]; ok {
			out = append(out, tag)
		}
	}
	var extra []string
	for tag := range table {
		if !slices.Contains(tagOrder, tag) {
			extra = append(extra, tag)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
