// Package ai wraps the chat-completion API used for article analysis and
// digest narratives. The base URL is configurable so the same client works
// against OpenAI or a DeepSeek-compatible endpoint.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/prwee/prwee/internal/config"
	"github.com/prwee/prwee/internal/models"
)

// Client issues chat completions with the configured model and limits.
type Client struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewClient(cfg config.OpenAIConfig) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}
}

// StructuredAnalysis is the machine-readable half of an article analysis,
// extracted from the narrative in a second completion pass.
type StructuredAnalysis struct {
	Summary     string   `json:"summary"`
	Importance  int      `json:"importance"`
	Sentiment   string   `json:"sentiment"`
	KeyFacts    []string `json:"keyFacts"`
	Impact      string   `json:"impact"`
	Context     string   `json:"context"`
	KeyPlayers  []string `json:"keyPlayers"`
	Trends      []string `json:"trends"`
	Conclusions string   `json:"conclusions"`
	NextSteps   string   `json:"nextSteps"`
}

// ArticleAnalysis bundles the full narrative analysis with its structured
// extraction and completion metadata.
type ArticleAnalysis struct {
	Full       string             `json:"full"`
	Structured StructuredAnalysis `json:"structured"`
	Model      string             `json:"model"`
	Tokens     int64              `json:"tokens"`
	AnalyzedAt time.Time          `json:"analyzed_at"`
}

// DigestAnalysis is the AI-generated layer of a category digest.
type DigestAnalysis struct {
	Narrative       string   `json:"narrative"`
	KeyPoints       []string `json:"key_points"`
	Trends          []string `json:"trends"`
	Recommendations []string `json:"recommendations"`
}

// PlaceholderAnalysis is the fixed structure returned when the extraction
// pass produces unparseable JSON. The narrative half still carries the real
// analysis in that case.
func PlaceholderAnalysis() StructuredAnalysis {
	return StructuredAnalysis{
		Summary:     "Анализ выполнен",
		Importance:  7,
		Sentiment:   models.SentimentNeutral,
		KeyFacts:    []string{},
		Impact:      "Требует дополнительного анализа",
		Context:     "Контекст предоставлен в полном анализе",
		KeyPlayers:  []string{},
		Trends:      []string{},
		Conclusions: "См. полный анализ выше",
		NextSteps:   "Мониторинг развития событий",
	}
}

// ParseStructured decodes the JSON an extraction pass returned, tolerating
// markdown code fences around it. Unparseable content yields the placeholder
// structure, never an error.
func ParseStructured(content string) StructuredAnalysis {
	var out StructuredAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &out); err != nil {
		return PlaceholderAnalysis()
	}
	return out
}

// AnalyzeArticle runs the two-pass analysis: a full narrative completion,
// then a low-temperature extraction pass that distills it into JSON.
func (c *Client) AnalyzeArticle(ctx context.Context, article *models.Article, categoryName string, includeContext bool) (*ArticleAnalysis, error) {
	prompt := buildAnalysisPrompt(article, categoryName, includeContext)

	full, tokens, err := c.complete(ctx,
		"Ты эксперт-аналитик новостей. Твоя задача - предоставить глубокий анализ новостных статей с контекстом и предысторией. Будь объективным, информативным и доступным в изложении.",
		prompt, c.maxTokens, c.temperature)
	if err != nil {
		return nil, fmt.Errorf("ai: analyze article: %w", err)
	}

	structured := PlaceholderAnalysis()
	raw, _, err := c.complete(ctx,
		"Ты помощник для извлечения структурированных данных. Возвращай только валидный JSON.",
		buildExtractionPrompt(full), 500, 0.3)
	if err == nil {
		structured = ParseStructured(raw)
	}

	return &ArticleAnalysis{
		Full:       full,
		Structured: structured,
		Model:      c.model,
		Tokens:     tokens,
		AnalyzedAt: time.Now(),
	}, nil
}

// AnalyzeDigest generates the narrative layer for a digest over the given
// articles. Callers fall back to a statistical synopsis when it errors.
func (c *Client) AnalyzeDigest(ctx context.Context, categoryName string, articles []models.Article) (*DigestAnalysis, error) {
	if len(articles) == 0 {
		return nil, fmt.Errorf("ai: analyze digest: no articles")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Составь дайджест новостей категории %q по этим статьям:\n\n", categoryName)
	for i, a := range articles {
		fmt.Fprintf(&sb, "%d. %s (%s, важность %d)\n%s\n\n", i+1, a.Title, a.SourceName, a.Importance, a.Summary)
	}
	sb.WriteString("Верни только JSON с полями:\n")
	sb.WriteString(`{"narrative": "связный обзор на 3-5 предложений", "key_points": ["пункт"], "trends": ["тренд"], "recommendations": ["рекомендация"]}`)

	raw, _, err := c.complete(ctx,
		"Ты редактор новостных дайджестов. Возвращай только валидный JSON.",
		sb.String(), c.maxTokens, 0.5)
	if err != nil {
		return nil, fmt.Errorf("ai: analyze digest: %w", err)
	}

	var out DigestAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return nil, fmt.Errorf("ai: analyze digest: parse response: %w", err)
	}
	if out.Narrative == "" {
		return nil, fmt.Errorf("ai: analyze digest: empty narrative")
	}
	return &out, nil
}

// Summarize produces a two-to-three sentence summary of one article, used by
// the backfill job to populate ai_summary.
func (c *Client) Summarize(ctx context.Context, article *models.Article) (string, error) {
	prompt := fmt.Sprintf("Кратко перескажи новость в 2-3 предложениях, без вступлений.\n\nЗАГОЛОВОК: %s\nСОДЕРЖАНИЕ: %s", article.Title, article.Content)
	summary, _, err := c.complete(ctx,
		"Ты редактор новостей. Пиши сжато и по делу.",
		prompt, 300, 0.3)
	if err != nil {
		return "", fmt.Errorf("ai: summarize: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

func (c *Client) complete(ctx context.Context, system, user string, maxTokens int64, temperature float64) (string, int64, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", 0, err
	}
	if len(resp.Choices) == 0 {
		return "", 0, fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, resp.Usage.TotalTokens, nil
}

func buildAnalysisPrompt(article *models.Article, categoryName string, includeContext bool) string {
	if categoryName == "" {
		categoryName = "Общее"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Проанализируй следующую новостную статью и предоставь детальный анализ:\n\n")
	fmt.Fprintf(&sb, "ЗАГОЛОВОК: %s\n", article.Title)
	fmt.Fprintf(&sb, "СОДЕРЖАНИЕ: %s\n", article.Content)
	fmt.Fprintf(&sb, "ИСТОЧНИК: %s\n", article.SourceName)
	fmt.Fprintf(&sb, "КАТЕГОРИЯ: %s\n", categoryName)
	fmt.Fprintf(&sb, "ДАТА: %s\n\n", article.PublishedAt.Format("02.01.2006"))

	sb.WriteString("Структура анализа:\n")
	sb.WriteString("## АНАЛИЗ СТАТЬИ\n")
	sb.WriteString("### Основная суть\n### Важность события (1-10)\n### Настроение и тон\n### Ключевые факты\n### Влияние и последствия\n### Интересные детали\n")
	if includeContext {
		sb.WriteString("## ПРЕДЫСТОРИЯ И КОНТЕКСТ\n")
		sb.WriteString("### Исторический контекст\n### Ключевые участники\n### Тренды и паттерны\n### Связи с другими темами\n")
	}
	sb.WriteString("## ВЫВОДЫ И ПЕРСПЕКТИВЫ\n")
	sb.WriteString("### Что это значит\n### Что дальше\n### Вопросы для размышления\n")

	return sb.String()
}

func buildExtractionPrompt(analysis string) string {
	var sb strings.Builder
	sb.WriteString("Извлеки из следующего анализа структурированные данные в формате JSON:\n\n")
	sb.WriteString(analysis)
	sb.WriteString("\n\nВерни только JSON с полями:\n")
	sb.WriteString(`{"summary": "краткое описание", "importance": 1, "sentiment": "positive/negative/neutral", "keyFacts": [], "impact": "", "context": "", "keyPlayers": [], "trends": [], "conclusions": "", "nextSteps": ""}`)
	return sb.String()
}

// stripCodeFence removes a surrounding markdown code fence, which chat models
// routinely wrap JSON in despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
