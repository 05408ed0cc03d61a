package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/retain/internal/model"
)

// FileRepository implements Repository over a single JSON document.
// The in-memory dataset is authoritative; every mutation rewrites the whole
// document atomically (temp file + rename). A failed write is logged and the
// in-memory state keeps serving, so a later successful write catches up.
type FileRepository struct {
	mu      sync.Mutex
	path    string
	ds      *model.Dataset
	now     func() time.Time
	entropy *rand.Rand
	log     *slog.Logger
}

// FileOption configures a FileRepository.
type FileOption func(*FileRepository)

// WithNow overrides the repository clock. Tests use this to fix time.
func WithNow(now func() time.Time) FileOption {
	return func(r *FileRepository) { r.now = now }
}

// WithLogger overrides the repository logger.
func WithLogger(l *slog.Logger) FileOption {
	return func(r *FileRepository) { r.log = l }
}

// NewFileRepository opens or creates the JSON document at path. A missing,
// corrupted, or partially-written document degrades to an empty dataset with
// a warning; construction only fails when the directory cannot be created.
func NewFileRepository(path string, opts ...FileOption) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	r := &FileRepository{
		path:    path,
		now:     time.Now,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.ds = r.load()
	return r, nil
}

// load reads and normalizes the document once, at construction. After this
// the in-memory structure is invariant-safe everywhere else.
func (r *FileRepository) load() *model.Dataset {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn("read dataset failed, starting empty", "path", r.path, "err", err)
		}
		return model.NewDataset()
	}

	ds, err := model.DecodeDataset(data)
	if err != nil {
		r.log.Warn("dataset is not valid JSON, starting empty", "path", r.path, "err", err)
		return model.NewDataset()
	}
	return ds
}

// persist writes the full dataset. Callers must hold r.mu. Write failures
// are logged, never returned: the in-memory dataset stays authoritative.
func (r *FileRepository) persist() {
	r.ds.LastUpdated = r.now()

	data, err := json.MarshalIndent(r.ds, "", "  ")
	if err != nil {
		r.log.Error("marshal dataset", "err", err)
		return
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		r.log.Error("write dataset", "path", tmp, "err", err)
		return
	}
	if err := os.Rename(tmp, r.path); err != nil {
		r.log.Error("rename dataset", "path", r.path, "err", err)
	}
}

func (r *FileRepository) newID() string {
	return ulid.MustNew(ulid.Timestamp(r.now()), r.entropy).String()
}

func (r *FileRepository) AddItems(ctx context.Context, drafts []model.ItemDraft) ([]model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	created := make([]model.Item, 0, len(drafts))
	for _, d := range drafts {
		item := model.Item{
			ID:         r.newID(),
			Topic:      d.Topic,
			Prompt:     d.Prompt,
			Answer:     d.Answer,
			Difficulty: model.ClampDifficulty(d.Difficulty),
			Tags:       append([]string(nil), d.Tags...),
			CreatedAt:  now,
		}
		r.ds.Items = append(r.ds.Items, item)
		created = append(created, item)
	}

	r.persist()
	return created, nil
}

func (r *FileRepository) GetItem(ctx context.Context, id string) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.ds.Items {
		if r.ds.Items[i].ID == id {
			item := r.ds.Items[i]
			return &item, nil
		}
	}
	return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
}

func (r *FileRepository) ListItems(ctx context.Context, p ListParams) ([]model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []model.Item
	for _, item := range r.ds.Items {
		if !matchItem(item, p) {
			continue
		}
		out = append(out, item)
		if p.Limit > 0 && len(out) >= p.Limit {
			break
		}
	}
	return out, nil
}

func matchItem(item model.Item, p ListParams) bool {
	if p.Topic != "" && !strings.Contains(strings.ToLower(item.Topic), strings.ToLower(p.Topic)) {
		return false
	}
	if p.Tag != "" {
		found := false
		for _, t := range item.Tags {
			if strings.EqualFold(t, p.Tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *FileRepository) UpdateItemTags(ctx context.Context, id string, tags []string) (*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.ds.Items {
		if r.ds.Items[i].ID == id {
			r.ds.Items[i].Tags = append([]string(nil), tags...)
			item := r.ds.Items[i]
			r.persist()
			return &item, nil
		}
	}
	return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
}

func (r *FileRepository) AddReview(ctx context.Context, draft model.ReviewDraft) (*model.ReviewRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := model.ReviewRecord{
		ItemID:     draft.ItemID,
		ReviewedAt: r.now(),
		Answer:     draft.Answer,
		Result:     draft.Result,
		Feedback:   draft.Feedback,
	}
	r.ds.Reviews = append(r.ds.Reviews, rec)
	r.persist()
	return &rec, nil
}

func (r *FileRepository) RecentReviews(ctx context.Context, windowDays int) ([]model.ReviewRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().AddDate(0, 0, -windowDays)
	var out []model.ReviewRecord
	for _, rec := range r.ds.Reviews {
		if !rec.ReviewedAt.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *FileRepository) GetOrCreateState(ctx context.Context, itemID string, firstDue time.Time) (*model.SchedulingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st := r.findState(itemID); st != nil {
		out := *st
		return &out, nil
	}

	st := model.SchedulingState{
		ItemID:  itemID,
		Stage:   0,
		NextDue: firstDue,
	}
	r.ds.SchedulingStates = append(r.ds.SchedulingStates, st)
	r.persist()
	return &st, nil
}

// findState returns a pointer into the dataset. Callers must hold r.mu.
func (r *FileRepository) findState(itemID string) *model.SchedulingState {
	for i := range r.ds.SchedulingStates {
		if r.ds.SchedulingStates[i].ItemID == itemID {
			return &r.ds.SchedulingStates[i]
		}
	}
	return nil
}

func (r *FileRepository) UpdateState(ctx context.Context, itemID string, patch StatePatch) (*model.SchedulingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.findState(itemID)
	if st == nil {
		return nil, fmt.Errorf("scheduling state for item %s: %w", itemID, ErrNotFound)
	}

	if patch.Stage != nil {
		st.Stage = *patch.Stage
	}
	if patch.NextDue != nil {
		st.NextDue = *patch.NextDue
	}
	if patch.ConsecutiveCorrect != nil {
		st.ConsecutiveCorrect = *patch.ConsecutiveCorrect
	}
	if patch.TotalAttempts != nil {
		st.TotalAttempts = *patch.TotalAttempts
	}
	if patch.TotalCorrect != nil {
		st.TotalCorrect = *patch.TotalCorrect
	}
	if patch.LastReviewed != nil {
		t := *patch.LastReviewed
		st.LastReviewed = &t
	}

	out := *st
	r.persist()
	return &out, nil
}

func (r *FileRepository) DueItemIDs(ctx context.Context, asOf time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for _, st := range r.ds.SchedulingStates {
		if !st.NextDue.After(asOf) {
			ids = append(ids, st.ItemID)
		}
	}
	return ids, nil
}

func (r *FileRepository) AllStates(ctx context.Context) ([]model.SchedulingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]model.SchedulingState(nil), r.ds.SchedulingStates...), nil
}

func (r *FileRepository) CreateSession(ctx context.Context, draft model.SessionDraft) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := draft.StartedAt
	if started.IsZero() {
		started = r.now()
	}
	s := model.Session{
		ID:        r.newID(),
		StartedAt: started,
		EndedAt:   draft.EndedAt,
		Topic:     draft.Topic,
		Summary:   draft.Summary,
		ItemIDs:   append([]string(nil), draft.ItemIDs...),
		Method:    draft.Method,
	}
	r.ds.Sessions = append(r.ds.Sessions, s)
	r.persist()
	return &s, nil
}

func (r *FileRepository) RecentSessions(ctx context.Context, limit int) ([]model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := append([]model.Session(nil), r.ds.Sessions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *FileRepository) Stats(ctx context.Context) (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := &Stats{
		TotalItems:    len(r.ds.Items),
		TotalReviews:  len(r.ds.Reviews),
		TotalSessions: len(r.ds.Sessions),
	}
	if st.TotalReviews > 0 {
		pass := 0
		for _, rec := range r.ds.Reviews {
			if rec.Result == model.ResultPass {
				pass++
			}
		}
		st.OverallCorrectRate = 100 * float64(pass) / float64(st.TotalReviews)
	}
	return st, nil
}

func (r *FileRepository) ExportDataset(ctx context.Context) (*model.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := &model.Dataset{
		Items:            append([]model.Item(nil), r.ds.Items...),
		Reviews:          append([]model.ReviewRecord(nil), r.ds.Reviews...),
		SchedulingStates: append([]model.SchedulingState(nil), r.ds.SchedulingStates...),
		Sessions:         append([]model.Session(nil), r.ds.Sessions...),
		SparringSessions: append([]json.RawMessage(nil), r.ds.SparringSessions...),
		WeeklyReports:    append([]json.RawMessage(nil), r.ds.WeeklyReports...),
		LastUpdated:      r.ds.LastUpdated,
	}
	out.Normalize()
	return out, nil
}

func (r *FileRepository) ImportDataset(ctx context.Context, ds *model.Dataset) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	in := *ds
	in.Normalize()
	r.ds = &in
	r.persist()
	return len(in.Items), nil
}

func (r *FileRepository) Close() error {
	return nil
}
