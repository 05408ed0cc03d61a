// Package model defines the core learning-item data types.
package model

import "time"

// Item represents a single studied concept under review. Immutable once
// created, except for tag edits.
type Item struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Prompt     string    `json:"prompt"`
	Answer     string    `json:"answer"`
	Difficulty int       `json:"difficulty"` // 1-5
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ItemDraft is an item before the repository assigns identity.
type ItemDraft struct {
	Topic      string   `json:"topic"`
	Prompt     string   `json:"prompt"`
	Answer     string   `json:"answer"`
	Difficulty int      `json:"difficulty"`
	Tags       []string `json:"tags,omitempty"`
}

// Result is the outcome of a single review.
type Result string

const (
	ResultPass Result = "pass"
	ResultFail Result = "fail"
	ResultSkip Result = "skip"
)

// ValidResults are the allowed review outcomes.
var ValidResults = map[Result]bool{
	ResultPass: true,
	ResultFail: true,
	ResultSkip: true,
}

// ReviewRecord is one review of one item. Append-only.
type ReviewRecord struct {
	ItemID     string    `json:"itemId"`
	ReviewedAt time.Time `json:"reviewedAt"`
	Answer     string    `json:"answer,omitempty"`
	Result     Result    `json:"result"`
	Feedback   string    `json:"feedback,omitempty"`
}

// ReviewDraft is a review before the repository stamps its timestamp.
type ReviewDraft struct {
	ItemID   string `json:"itemId"`
	Answer   string `json:"answer,omitempty"`
	Result   Result `json:"result"`
	Feedback string `json:"feedback,omitempty"`
}

// SchedulingState tracks where an item sits on the interval ladder.
// Exactly one exists per item once created.
type SchedulingState struct {
	ItemID             string     `json:"itemId"`
	Stage              int        `json:"stage"`
	NextDue            time.Time  `json:"nextDue"`
	ConsecutiveCorrect int        `json:"consecutiveCorrect"`
	TotalAttempts      int        `json:"totalAttempts"`
	TotalCorrect       int        `json:"totalCorrect"`
	LastReviewed       *time.Time `json:"lastReviewed,omitempty"`
}

// Method tags how a session was produced.
type Method string

const (
	MethodIngest Method = "ingest"
	MethodSpar   Method = "spar"
	MethodReview Method = "review"
	MethodReport Method = "report"
)

// ValidMethods are the allowed session methods.
var ValidMethods = map[Method]bool{
	MethodIngest: true,
	MethodSpar:   true,
	MethodReview: true,
	MethodReport: true,
}

// Session is a write-once record of one interaction batch.
type Session struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Topic     string     `json:"topic,omitempty"`
	Summary   string     `json:"summary,omitempty"`
	ItemIDs   []string   `json:"itemIds,omitempty"`
	Method    Method     `json:"method"`
}

// SessionDraft is a session before the repository assigns identity.
type SessionDraft struct {
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Topic     string     `json:"topic,omitempty"`
	Summary   string     `json:"summary,omitempty"`
	ItemIDs   []string   `json:"itemIds,omitempty"`
	Method    Method     `json:"method"`
}

// WeaknessItem ranks an item by recent failures. Derived, never persisted
// as primary data.
type WeaknessItem struct {
	ItemID     string `json:"itemId"`
	Topic      string `json:"topic"`
	FailCount  int    `json:"failCount"`
	Suggestion string `json:"suggestion"`
}

// ClampDifficulty forces a difficulty into the 1-5 range.
func ClampDifficulty(d int) int {
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}
