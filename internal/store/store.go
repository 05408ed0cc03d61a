// Package store provides the repository interface and its storage drivers.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/retain/internal/model"
)

// ErrNotFound is returned when a referenced item or session does not exist.
var ErrNotFound = errors.New("not found")

// ListParams holds parameters for listing items.
type ListParams struct {
	Tag   string // case-insensitive exact tag match
	Topic string // case-insensitive substring match
	Limit int
}

// StatePatch is a partial update to a scheduling state. Nil fields are
// left untouched.
type StatePatch struct {
	Stage              *int
	NextDue            *time.Time
	ConsecutiveCorrect *int
	TotalAttempts      *int
	TotalCorrect       *int
	LastReviewed       *time.Time
}

// Stats holds repository-wide counts.
type Stats struct {
	TotalItems         int     `json:"totalItems"`
	TotalReviews       int     `json:"totalReviews"`
	TotalSessions      int     `json:"totalSessions"`
	OverallCorrectRate float64 `json:"overallCorrectRate"`
}

// Repository is the single source of truth for items, reviews, scheduling
// states, and sessions. Every mutating call persists the dataset before
// returning; implementations must serialize mutations.
type Repository interface {
	// AddItems assigns ids and creation timestamps to the drafts and stores
	// the resulting items. The input is never mutated.
	AddItems(ctx context.Context, drafts []model.ItemDraft) ([]model.Item, error)

	// GetItem retrieves one item. Returns ErrNotFound if absent.
	GetItem(ctx context.Context, id string) (*model.Item, error)

	// ListItems returns items matching the given filters.
	ListItems(ctx context.Context, p ListParams) ([]model.Item, error)

	// UpdateItemTags replaces an item's tag set. Tags are the only mutable
	// part of an item.
	UpdateItemTags(ctx context.Context, id string, tags []string) (*model.Item, error)

	// AddReview stamps and appends a review record.
	AddReview(ctx context.Context, draft model.ReviewDraft) (*model.ReviewRecord, error)

	// RecentReviews returns all reviews with timestamp >= now-windowDays.
	RecentReviews(ctx context.Context, windowDays int) ([]model.ReviewRecord, error)

	// GetOrCreateState returns the existing scheduling state for the item,
	// or creates one at stage 0 due at firstDue. Idempotent.
	GetOrCreateState(ctx context.Context, itemID string, firstDue time.Time) (*model.SchedulingState, error)

	// UpdateState merges the patch into the item's scheduling state.
	// Returns ErrNotFound if no state exists.
	UpdateState(ctx context.Context, itemID string, patch StatePatch) (*model.SchedulingState, error)

	// DueItemIDs returns ids of all states with nextDue <= asOf, in
	// repository-native order.
	DueItemIDs(ctx context.Context, asOf time.Time) ([]string, error)

	// AllStates returns every scheduling state.
	AllStates(ctx context.Context) ([]model.SchedulingState, error)

	// CreateSession stores a write-once session record.
	CreateSession(ctx context.Context, draft model.SessionDraft) (*model.Session, error)

	// RecentSessions returns the most recent sessions, newest first.
	RecentSessions(ctx context.Context, limit int) ([]model.Session, error)

	// Stats returns repository-wide counts.
	Stats(ctx context.Context) (*Stats, error)

	// ExportDataset returns a copy of the full dataset, passthrough arrays
	// included.
	ExportDataset(ctx context.Context) (*model.Dataset, error)

	// ImportDataset replaces the stored dataset with the given one and
	// returns the number of items imported.
	ImportDataset(ctx context.Context, ds *model.Dataset) (int, error)

	// Close releases the underlying storage.
	Close() error
}
