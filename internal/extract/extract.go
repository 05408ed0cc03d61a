// Package extract turns free-form study notes into item drafts. The core
// scheduler never sees raw text; it only stores what an Extractor returns.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/retain/internal/model"
)

// Extractor produces item drafts from free-form study text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]model.ItemDraft, error)
}

// draftPayload mirrors the JSON shape the extraction prompt asks for.
type draftPayload struct {
	Topic      string   `json:"topic"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Difficulty int      `json:"difficulty"`
	Tags       []string `json:"tags"`
}

// ParseDrafts decodes an extraction response into drafts. Code fences are
// stripped, difficulty is clamped to 1-5, and entries without a question
// are dropped.
func ParseDrafts(raw string) ([]model.ItemDraft, error) {
	raw = stripFences(raw)

	var payloads []draftPayload
	if err := json.Unmarshal([]byte(raw), &payloads); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	var drafts []model.ItemDraft
	for _, p := range payloads {
		if strings.TrimSpace(p.Question) == "" {
			continue
		}
		topic := strings.TrimSpace(p.Topic)
		if topic == "" {
			topic = "general"
		}
		drafts = append(drafts, model.ItemDraft{
			Topic:      topic,
			Prompt:     strings.TrimSpace(p.Question),
			Answer:     strings.TrimSpace(p.Answer),
			Difficulty: model.ClampDifficulty(p.Difficulty),
			Tags:       p.Tags,
		})
	}
	return drafts, nil
}

// stripFences removes a surrounding markdown code fence, if any. Models wrap
// JSON in ```json fences often enough that this is worth doing up front.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
