// Package report builds the weekly review summary: window statistics, ranked
// weaknesses, and rule-based recommendations.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/retain/internal/model"
	"github.com/rcliao/retain/internal/store"
)

// DefaultWindowDays is the trailing window the report covers.
const DefaultWindowDays = 7

// topWeaknessCount caps the failure ranking.
const topWeaknessCount = 5

// Report summarizes a trailing window of review activity.
type Report struct {
	GeneratedAt     time.Time            `json:"generatedAt"`
	WindowDays      int                  `json:"windowDays"`
	TotalReviews    int                  `json:"totalReviews"`
	CorrectRate     float64              `json:"correctRate"`
	TopicsStudied   int                  `json:"topicsStudied"`
	TopWeaknesses   []model.WeaknessItem `json:"topWeaknesses"`
	Recommendations []string             `json:"recommendations"`
}

// Input is everything Build needs. It is gathered by FromRepository in
// normal operation; tests construct it directly.
type Input struct {
	Reviews    []model.ReviewRecord
	Sessions   []model.Session
	LookupItem func(id string) (*model.Item, bool)
	Now        time.Time
	WindowDays int
}

// FromRepository gathers a window of activity and builds the report.
func FromRepository(ctx context.Context, repo store.Repository, windowDays int, now time.Time) (*Report, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	reviews, err := repo.RecentReviews(ctx, windowDays)
	if err != nil {
		return nil, fmt.Errorf("recent reviews: %w", err)
	}
	sessions, err := repo.RecentSessions(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("recent sessions: %w", err)
	}

	lookup := func(id string) (*model.Item, bool) {
		item, err := repo.GetItem(ctx, id)
		if err != nil {
			return nil, false
		}
		return item, true
	}

	return Build(Input{
		Reviews:    reviews,
		Sessions:   sessions,
		LookupItem: lookup,
		Now:        now,
		WindowDays: windowDays,
	}), nil
}

// Build computes the report. Pure: no I/O, no clock reads.
func Build(in Input) *Report {
	if in.WindowDays <= 0 {
		in.WindowDays = DefaultWindowDays
	}

	r := &Report{
		GeneratedAt:     in.Now,
		WindowDays:      in.WindowDays,
		TotalReviews:    len(in.Reviews),
		TopWeaknesses:   []model.WeaknessItem{},
		Recommendations: []string{},
	}

	pass := 0
	for _, rec := range in.Reviews {
		if rec.Result == model.ResultPass {
			pass++
		}
	}
	if r.TotalReviews > 0 {
		r.CorrectRate = 100 * float64(pass) / float64(r.TotalReviews)
	}

	r.TopicsStudied = countTopics(in.Sessions, in.Now.AddDate(0, 0, -in.WindowDays))
	r.TopWeaknesses = rankWeaknesses(in.Reviews, in.LookupItem)
	r.Recommendations = recommend(r)
	return r
}

// countTopics counts distinct topics among sessions started in the window.
func countTopics(sessions []model.Session, cutoff time.Time) int {
	seen := map[string]bool{}
	for _, s := range sessions {
		if s.StartedAt.Before(cutoff) || s.Topic == "" {
			continue
		}
		seen[s.Topic] = true
	}
	return len(seen)
}

// rankWeaknesses tallies fails per item and keeps the worst five. Ties keep
// first-encountered order, so the sort must be stable over encounter order.
func rankWeaknesses(reviews []model.ReviewRecord, lookup func(id string) (*model.Item, bool)) []model.WeaknessItem {
	counts := map[string]int{}
	var order []string
	for _, rec := range reviews {
		if rec.Result != model.ResultFail {
			continue
		}
		if _, ok := counts[rec.ItemID]; !ok {
			order = append(order, rec.ItemID)
		}
		counts[rec.ItemID]++
	}

	// Insertion sort by count descending; encounter order already breaks ties.
	ranked := append([]string(nil), order...)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && counts[ranked[j]] > counts[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	out := []model.WeaknessItem{}
	for _, id := range ranked {
		if len(out) >= topWeaknessCount {
			break
		}
		topic := "unknown"
		if item, ok := lookup(id); ok {
			topic = item.Topic
		}
		out = append(out, model.WeaknessItem{
			ItemID:     id,
			Topic:      topic,
			FailCount:  counts[id],
			Suggestion: fmt.Sprintf("Schedule a focused session on %q: it failed %d time(s) this week.", topic, counts[id]),
		})
	}
	return out
}

// recommend applies the rule set in order; every applicable rule fires.
func recommend(r *Report) []string {
	var recs []string

	switch {
	case r.CorrectRate < 50:
		recs = append(recs, "Correct rate is below 50%. Lower the difficulty and revisit fundamentals before adding new material.")
	case r.CorrectRate < 75:
		recs = append(recs, "Correct rate is between 50% and 75%. Schedule targeted sparring practice on the topics you miss.")
	default:
		recs = append(recs, "Correct rate is above 75%. Raise the difficulty or bring in new material.")
	}

	if len(r.TopWeaknesses) > 0 {
		recs = append(recs, fmt.Sprintf("Weakest topic this week: %s. Prioritize it in your next session.", r.TopWeaknesses[0].Topic))
	}

	if r.TopicsStudied < 3 {
		recs = append(recs, fmt.Sprintf("Only %d topic(s) touched this week. Aim for at least 3 to keep coverage broad.", r.TopicsStudied))
	}

	return recs
}
