// Package scheduler implements the spaced-repetition interval state machine.
//
// An item's stage indexes into the configured interval list. Correct answers
// climb the ladder (a 3-streak climbs two tiers at once), a failure drops
// exactly one tier, and both directions clamp at the ends.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/retain/internal/model"
	"github.com/rcliao/retain/internal/store"
)

// DefaultIntervals is the review spacing per stage, in days.
var DefaultIntervals = []int{1, 3, 7, 14, 30}

// streakThreshold is the consecutive-correct count at which a correct answer
// advances two stages instead of one.
const streakThreshold = 3

// Scheduler decides when items are due and how their state moves on review
// outcomes. It holds no mutable state of its own; everything lives in the
// repository.
type Scheduler struct {
	repo      store.Repository
	intervals []int
	now       func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithIntervals replaces the default interval list.
func WithIntervals(days []int) Option {
	return func(s *Scheduler) { s.intervals = days }
}

// WithNow overrides the scheduler clock. Tests use this to fix time.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a Scheduler. The interval list is validated here and nowhere
// else: it must be non-empty, positive, and ascending.
func New(repo store.Repository, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		repo:      repo,
		intervals: DefaultIntervals,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(s.intervals) == 0 {
		return nil, errors.New("scheduler: interval list must not be empty")
	}
	for i, d := range s.intervals {
		if d <= 0 {
			return nil, fmt.Errorf("scheduler: interval %d must be positive, got %d", i, d)
		}
		if i > 0 && d <= s.intervals[i-1] {
			return nil, fmt.Errorf("scheduler: intervals must ascend, got %d after %d", d, s.intervals[i-1])
		}
	}
	return s, nil
}

// Intervals returns the configured interval list.
func (s *Scheduler) Intervals() []int {
	return append([]int(nil), s.intervals...)
}

// maxStage is the last valid stage index.
func (s *Scheduler) maxStage() int {
	return len(s.intervals) - 1
}

// clampStage guards against states written under a longer interval config.
func (s *Scheduler) clampStage(stage int) int {
	if stage < 0 {
		return 0
	}
	if stage > s.maxStage() {
		return s.maxStage()
	}
	return stage
}

// dueAfter computes the next due date for a stage, from a given moment.
func (s *Scheduler) dueAfter(stage int, from time.Time) time.Time {
	return from.AddDate(0, 0, s.intervals[s.clampStage(stage)])
}

// Initialize creates scheduling state for an item at stage 0, due after the
// first interval. Idempotent: an existing state is returned unchanged.
func (s *Scheduler) Initialize(ctx context.Context, itemID string) (*model.SchedulingState, error) {
	return s.repo.GetOrCreateState(ctx, itemID, s.dueAfter(0, s.now()))
}

// Due returns all items due as of now.
func (s *Scheduler) Due(ctx context.Context) ([]model.Item, error) {
	return s.DueAt(ctx, s.now())
}

// DueAt returns all items whose next-due timestamp has elapsed at asOf, in
// repository order. Ids whose item record is gone are skipped rather than
// failing the whole query.
func (s *Scheduler) DueAt(ctx context.Context, asOf time.Time) ([]model.Item, error) {
	ids, err := s.repo.DueItemIDs(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("due item ids: %w", err)
	}

	var items []model.Item
	for _, id := range ids {
		item, err := s.repo.GetItem(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// RecordOutcome applies one review outcome to an item's scheduling state and
// returns the updated state. State is lazily created if missing.
func (s *Scheduler) RecordOutcome(ctx context.Context, itemID string, correct bool) (*model.SchedulingState, error) {
	now := s.now()

	st, err := s.repo.GetOrCreateState(ctx, itemID, s.dueAfter(0, now))
	if err != nil {
		return nil, fmt.Errorf("get or create state: %w", err)
	}

	stage := s.clampStage(st.Stage)
	attempts := st.TotalAttempts + 1
	totalCorrect := st.TotalCorrect
	streak := st.ConsecutiveCorrect

	if correct {
		totalCorrect++
		streak++
		// A sustained streak skips a tier. The counter is intentionally
		// not reset after the jump, so the fast lane persists until the
		// next failure.
		advance := 1
		if streak >= streakThreshold {
			advance = 2
		}
		stage = min(stage+advance, s.maxStage())
	} else {
		streak = 0
		stage = max(stage-1, 0)
	}

	nextDue := s.dueAfter(stage, now)
	return s.repo.UpdateState(ctx, itemID, store.StatePatch{
		Stage:              &stage,
		NextDue:            &nextDue,
		ConsecutiveCorrect: &streak,
		TotalAttempts:      &attempts,
		TotalCorrect:       &totalCorrect,
		LastReviewed:       &now,
	})
}

// Summary is a snapshot of overall learning progress.
type Summary struct {
	TotalItems         int     `json:"totalItems"`
	DueToday           int     `json:"dueToday"`
	Mastered           int     `json:"mastered"`
	Struggling         int     `json:"struggling"`
	AverageCorrectRate float64 `json:"averageCorrectRate"`
}

// Summary aggregates all scheduling states. Mastered means at or past the
// last stage; struggling means at least 3 attempts with under half correct.
func (s *Scheduler) Summary(ctx context.Context) (*Summary, error) {
	states, err := s.repo.AllStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("all states: %w", err)
	}

	now := s.now()
	out := &Summary{TotalItems: len(states)}
	attempts, correct := 0, 0
	for _, st := range states {
		if !st.NextDue.After(now) {
			out.DueToday++
		}
		if st.Stage >= s.maxStage() {
			out.Mastered++
		}
		if st.TotalAttempts >= 3 && float64(st.TotalCorrect)/float64(st.TotalAttempts) < 0.5 {
			out.Struggling++
		}
		attempts += st.TotalAttempts
		correct += st.TotalCorrect
	}
	if attempts > 0 {
		out.AverageCorrectRate = 100 * float64(correct) / float64(attempts)
	}
	return out, nil
}
