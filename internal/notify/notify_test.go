package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prwee/prwee/internal/ai"
	"github.com/prwee/prwee/internal/digest"
	"github.com/prwee/prwee/internal/models"
)

type staticSubscribers struct {
	users []models.User
}

func (s *staticSubscribers) ListDigestSubscribers(ctx context.Context, frequency string) ([]models.User, error) {
	return s.users, nil
}

type recordingEmail struct {
	sent   []string
	failOn string
}

func (r *recordingEmail) Send(to, subject, htmlBody string) error {
	if to == r.failOn {
		return errors.New("smtp rejected")
	}
	r.sent = append(r.sent, to)
	return nil
}

type recordingChat struct {
	sent []string
}

func (r *recordingChat) Send(chatID, html string) error {
	r.sent = append(r.sent, chatID)
	return nil
}

func testDigest() *digest.Digest {
	return &digest.Digest{
		Category: digest.CategoryInfo{ID: uuid.New(), Name: "Технологии", Slug: "tech"},
		Period:   digest.Period{StartDate: "2026-08-29", EndDate: "2026-08-30", Days: 1},
		Summary:  "За последние 1 день было опубликовано 2 статей.",
		Stats:    digest.Stats{TotalArticles: 2, ImportantArticles: 1, AverageImportance: 7.5, Sources: []string{"Alpha"}},
		Important: []models.Article{
			{Title: "Big <news>", URL: "https://example.com/1", SourceName: "Alpha", Importance: 9, Summary: "важная статья"},
		},
		Regular: []models.Article{
			{Title: "Small", URL: "https://example.com/2", SourceName: "Alpha", Importance: 5},
		},
	}
}

func TestSendDigestPerRecipientIsolation(t *testing.T) {
	users := &staticSubscribers{users: []models.User{
		{ID: uuid.New(), Email: "ok@example.com", EmailNotifications: true},
		{ID: uuid.New(), Email: "broken@example.com", EmailNotifications: true},
		{ID: uuid.New(), Email: "also-ok@example.com", EmailNotifications: true},
	}}
	email := &recordingEmail{failOn: "broken@example.com"}

	n := NewNotifier(users, email, nil)
	report, err := n.SendDigest(context.Background(), testDigest(), models.DigestDaily)
	require.NoError(t, err)

	// The failing recipient never blocks the rest.
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, []string{"ok@example.com", "also-ok@example.com"}, email.sent)
}

func TestSendDigestRespectsChannelPrefs(t *testing.T) {
	users := &staticSubscribers{users: []models.User{
		{ID: uuid.New(), Email: "mail@example.com", EmailNotifications: true},
		{ID: uuid.New(), Email: "tg@example.com", TelegramNotifications: true, TelegramChatID: "42"},
		{ID: uuid.New(), Email: "both@example.com", EmailNotifications: true, TelegramNotifications: true, TelegramChatID: "43"},
		{ID: uuid.New(), Email: "none@example.com"},
	}}
	email := &recordingEmail{}
	chat := &recordingChat{}

	n := NewNotifier(users, email, chat)
	report, err := n.SendDigest(context.Background(), testDigest(), models.DigestDaily)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Sent)
	assert.Equal(t, []string{"mail@example.com", "both@example.com"}, email.sent)
	assert.Equal(t, []string{"42", "43"}, chat.sent)
}

func TestSendDigestFiltersByCategory(t *testing.T) {
	d := testDigest()
	other := uuid.New()

	users := &staticSubscribers{users: []models.User{
		{ID: uuid.New(), Email: "all@example.com", EmailNotifications: true},
		{ID: uuid.New(), Email: "match@example.com", EmailNotifications: true, CategoryIDs: []uuid.UUID{d.Category.ID}},
		{ID: uuid.New(), Email: "other@example.com", EmailNotifications: true, CategoryIDs: []uuid.UUID{other}},
	}}
	email := &recordingEmail{}

	n := NewNotifier(users, email, nil)
	report, err := n.SendDigest(context.Background(), d, models.DigestDaily)
	require.NoError(t, err)

	// Empty category list means all categories; a non-matching list skips.
	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, []string{"all@example.com", "match@example.com"}, email.sent)
}

func TestRenderEmailHTML(t *testing.T) {
	d := testDigest()
	d.AI = &ai.DigestAnalysis{Narrative: "Главное за день", KeyPoints: []string{"пункт <1>"}}

	html := RenderEmailHTML(d)
	assert.Contains(t, html, "Технологии")
	assert.Contains(t, html, "Главное за день")
	assert.Contains(t, html, "https://example.com/1")
	// Markup in titles and key points is escaped, not rendered.
	assert.Contains(t, html, "Big &lt;news&gt;")
	assert.Contains(t, html, "пункт &lt;1&gt;")
	assert.NotContains(t, html, "Big <news>")
}

func TestRenderTelegram(t *testing.T) {
	d := testDigest()

	msg := RenderTelegram(d)
	assert.Contains(t, msg, "<b>Дайджест: Технологии</b>")
	assert.Contains(t, msg, "Всего статей: 2")
	assert.Contains(t, msg, "https://example.com/1")
	// Without an AI narrative the statistical summary is used.
	assert.Contains(t, msg, "2 статей")
}

func TestRenderTelegramAlert(t *testing.T) {
	a := models.Article{
		Title:      "Срочно",
		URL:        "https://example.com/alert",
		SourceName: "Alpha",
		Importance: 9,
		Sentiment:  models.SentimentNegative,
		Summary:    "краткое описание",
	}

	msg := RenderTelegramAlert(a)
	assert.Contains(t, msg, "ВАЖНАЯ НОВОСТЬ")
	assert.Contains(t, msg, "Срочно")
	assert.Contains(t, msg, "9/10")
	assert.Contains(t, msg, "😔")
	assert.Contains(t, msg, "https://example.com/alert")
}
