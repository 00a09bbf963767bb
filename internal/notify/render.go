package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/prwee/prwee/internal/digest"
	"github.com/prwee/prwee/internal/models"
)

// RenderEmailHTML renders a digest as a self-contained HTML email body.
func RenderEmailHTML(d *digest.Digest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "<h2>📰 Дайджест: %s</h2>\n", html.EscapeString(d.Category.Name))
	fmt.Fprintf(&sb, "<p>%s</p>\n", html.EscapeString(d.Summary))

	if d.AI != nil && d.AI.Narrative != "" {
		fmt.Fprintf(&sb, "<p>%s</p>\n", html.EscapeString(d.AI.Narrative))
		if len(d.AI.KeyPoints) > 0 {
			sb.WriteString("<h3>Ключевые моменты</h3>\n<ul>\n")
			for _, p := range d.AI.KeyPoints {
				fmt.Fprintf(&sb, "<li>%s</li>\n", html.EscapeString(p))
			}
			sb.WriteString("</ul>\n")
		}
	}

	fmt.Fprintf(&sb, "<p><strong>Статей:</strong> %d, важных: %d, средняя важность: %.1f/10</p>\n",
		d.Stats.TotalArticles, d.Stats.ImportantArticles, d.Stats.AverageImportance)

	if len(d.Important) > 0 {
		sb.WriteString("<h3>🔥 Важные новости</h3>\n<ul>\n")
		for _, a := range d.Important {
			renderEmailItem(&sb, a)
		}
		sb.WriteString("</ul>\n")
	}
	if len(d.Regular) > 0 {
		sb.WriteString("<h3>Остальные новости</h3>\n<ul>\n")
		for _, a := range d.Regular {
			renderEmailItem(&sb, a)
		}
		sb.WriteString("</ul>\n")
	}

	fmt.Fprintf(&sb, "<p><em>Период: %s — %s</em></p>\n", d.Period.StartDate, d.Period.EndDate)
	return sb.String()
}

func renderEmailItem(sb *strings.Builder, a models.Article) {
	fmt.Fprintf(sb, `<li><a href="%s">%s</a> (%s, ⭐%d/10)`,
		html.EscapeString(a.URL), html.EscapeString(a.Title), html.EscapeString(a.SourceName), a.Importance)
	if a.Summary != "" {
		fmt.Fprintf(sb, "<br/>%s", html.EscapeString(a.Summary))
	}
	sb.WriteString("</li>\n")
}

// RenderTelegram renders a digest for Telegram's HTML parse mode, which
// accepts only a small tag subset (b, i, a).
func RenderTelegram(d *digest.Digest) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "📰 <b>Дайджест: %s</b>\n\n", html.EscapeString(d.Category.Name))

	sb.WriteString("📊 <b>Статистика:</b>\n")
	fmt.Fprintf(&sb, "• Всего статей: %d\n", d.Stats.TotalArticles)
	fmt.Fprintf(&sb, "• Важных: %d\n", d.Stats.ImportantArticles)
	fmt.Fprintf(&sb, "• Средняя важность: %.1f/10\n\n", d.Stats.AverageImportance)

	if d.AI != nil && d.AI.Narrative != "" {
		fmt.Fprintf(&sb, "%s\n\n", html.EscapeString(d.AI.Narrative))
	} else {
		fmt.Fprintf(&sb, "%s\n\n", html.EscapeString(d.Summary))
	}

	if len(d.Important) > 0 {
		sb.WriteString("🔥 <b>Важные новости:</b>\n")
		for i, a := range d.Important {
			if i == 3 {
				break
			}
			fmt.Fprintf(&sb, "%d. <a href=\"%s\">%s</a>\n", i+1,
				html.EscapeString(a.URL), html.EscapeString(a.Title))
		}
	}

	return sb.String()
}

// sentimentEmoji maps article sentiment to the marker used in alert messages.
func sentimentEmoji(s string) string {
	switch s {
	case models.SentimentPositive:
		return "😊"
	case models.SentimentNegative:
		return "😔"
	default:
		return "😐"
	}
}

// RenderTelegramAlert renders a single important article as a standalone
// Telegram notification.
func RenderTelegramAlert(a models.Article) string {
	var sb strings.Builder
	sb.WriteString("🚨 <b>ВАЖНАЯ НОВОСТЬ</b>\n\n")
	fmt.Fprintf(&sb, "📱 <b>%s</b>\n\n", html.EscapeString(a.Title))
	if a.Summary != "" {
		fmt.Fprintf(&sb, "💡 %s\n\n", html.EscapeString(a.Summary))
	}
	fmt.Fprintf(&sb, "⭐ <b>Важность:</b> %d/10\n", a.Importance)
	fmt.Fprintf(&sb, "%s <b>Настроение:</b> %s\n", sentimentEmoji(a.Sentiment), a.Sentiment)
	fmt.Fprintf(&sb, "📰 <b>Источник:</b> %s\n\n", html.EscapeString(a.SourceName))
	fmt.Fprintf(&sb, "🔗 <a href=\"%s\">Читать полную статью</a>", html.EscapeString(a.URL))
	return sb.String()
}
