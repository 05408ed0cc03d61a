package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/rcliao/retain/internal/model"
)

const systemPrompt = `You extract review questions from study notes.
Given a section of notes, return a JSON array of objects with fields:
"topic" (short topic name), "question" (a question testing the material),
"answer" (the expected answer), "difficulty" (integer 1-5), "tags"
(array of short lowercase tags). Return only the JSON array, no prose.`

// Config holds the OpenAI extractor configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
		Timeout: 60 * time.Second,
	}
}

// OpenAIExtractor implements Extractor against an OpenAI-compatible chat API.
type OpenAIExtractor struct {
	client *openai.Client
	config Config
}

// NewOpenAI creates an extractor. Zero-value config fields fall back to
// defaults.
func NewOpenAI(cfg Config) *OpenAIExtractor {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = cfg.BaseURL

	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
}

// Extract splits long notes into sections and extracts drafts per section.
// A section that yields nothing parseable is skipped with a warning rather
// than failing the whole ingestion.
func (e *OpenAIExtractor) Extract(ctx context.Context, text string) ([]model.ItemDraft, error) {
	var drafts []model.ItemDraft
	for _, section := range SplitSections(text, DefaultSectionSize) {
		sectionDrafts, err := e.extractSection(ctx, section)
		if err != nil {
			slog.Warn("extract section failed, skipping", "err", err)
			continue
		}
		drafts = append(drafts, sectionDrafts...)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("no items extracted from %d characters of notes", len(text))
	}
	return drafts, nil
}

func (e *OpenAIExtractor) extractSection(ctx context.Context, section string) ([]model.ItemDraft, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: section},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return ParseDrafts(resp.Choices[0].Message.Content)
}
