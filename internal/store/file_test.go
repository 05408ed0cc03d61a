package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rcliao/retain/internal/model"
)

var testClock = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *FileRepository {
	t.Helper()
	dir := t.TempDir()
	r, err := NewFileRepository(filepath.Join(dir, "retain.json"), WithNow(func() time.Time { return testClock }))
	if err != nil {
		t.Fatalf("create repo: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func addOne(t *testing.T, r Repository, topic string) model.Item {
	t.Helper()
	items, err := r.AddItems(context.Background(), []model.ItemDraft{{
		Topic: topic, Prompt: "explain " + topic, Answer: "because", Difficulty: 3,
	}})
	if err != nil {
		t.Fatalf("add items: %v", err)
	}
	return items[0]
}

func TestAddAndGetItems(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	drafts := []model.ItemDraft{
		{Topic: "Raft", Prompt: "what is a term?", Answer: "an election epoch", Difficulty: 2, Tags: []string{"consensus"}},
		{Topic: "Paxos", Prompt: "what is a ballot?", Answer: "a proposal round", Difficulty: 9},
	}
	items, err := r.AddItems(ctx, drafts)
	if err != nil {
		t.Fatalf("add items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID == "" || items[1].ID == "" {
		t.Error("expected non-empty ids")
	}
	if !items[0].CreatedAt.Equal(testClock) {
		t.Errorf("expected createdAt %v, got %v", testClock, items[0].CreatedAt)
	}
	// difficulty outside 1-5 is clamped
	if items[1].Difficulty != 5 {
		t.Errorf("expected difficulty clamped to 5, got %d", items[1].Difficulty)
	}

	got, err := r.GetItem(ctx, items[0].ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.Topic != "Raft" {
		t.Errorf("expected Raft, got %q", got.Topic)
	}

	_, err = r.GetItem(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListItemsFilters(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	r.AddItems(ctx, []model.ItemDraft{
		{Topic: "Quantum Computing", Prompt: "q1", Difficulty: 3, Tags: []string{"Physics"}},
		{Topic: "Linear Algebra", Prompt: "q2", Difficulty: 3, Tags: []string{"math"}},
		{Topic: "quantum field theory", Prompt: "q3", Difficulty: 3, Tags: []string{"physics"}},
	})

	byTopic, err := r.ListItems(ctx, ListParams{Topic: "QUANTUM"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byTopic) != 2 {
		t.Errorf("expected 2 topic matches, got %d", len(byTopic))
	}

	byTag, err := r.ListItems(ctx, ListParams{Tag: "physics"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byTag) != 2 {
		t.Errorf("expected 2 tag matches, got %d", len(byTag))
	}

	limited, _ := r.ListItems(ctx, ListParams{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected 1 with limit, got %d", len(limited))
	}
}

func TestUpdateItemTags(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	item := addOne(t, r, "Raft")

	updated, err := r.UpdateItemTags(ctx, item.ID, []string{"consensus", "distributed"})
	if err != nil {
		t.Fatalf("update tags: %v", err)
	}
	if len(updated.Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", updated.Tags)
	}

	_, err = r.UpdateItemTags(ctx, "missing", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAddReviewAndWindow(t *testing.T) {
	ctx := context.Background()
	clock := testClock
	dir := t.TempDir()
	r, err := NewFileRepository(filepath.Join(dir, "retain.json"), WithNow(func() time.Time { return clock }))
	if err != nil {
		t.Fatalf("create repo: %v", err)
	}
	defer r.Close()

	item := addOne(t, r, "Raft")

	rec, err := r.AddReview(ctx, model.ReviewDraft{ItemID: item.ID, Result: model.ResultFail})
	if err != nil {
		t.Fatalf("add review: %v", err)
	}
	if !rec.ReviewedAt.Equal(testClock) {
		t.Errorf("expected stamped time %v, got %v", testClock, rec.ReviewedAt)
	}

	// A review 10 days later should push the first one out of a 7-day window.
	clock = testClock.AddDate(0, 0, 10)
	r.AddReview(ctx, model.ReviewDraft{ItemID: item.ID, Result: model.ResultPass})

	recent, err := r.RecentReviews(ctx, 7)
	if err != nil {
		t.Fatalf("recent reviews: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 review in window, got %d", len(recent))
	}
	if recent[0].Result != model.ResultPass {
		t.Errorf("expected the recent pass, got %s", recent[0].Result)
	}
}

func TestGetOrCreateStateIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	item := addOne(t, r, "Raft")

	due := testClock.AddDate(0, 0, 1)
	st, err := r.GetOrCreateState(ctx, item.ID, due)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if st.Stage != 0 || !st.NextDue.Equal(due) {
		t.Errorf("expected fresh state at stage 0 due %v, got %+v", due, st)
	}

	// Second call with a different due date must return the existing state.
	again, err := r.GetOrCreateState(ctx, item.ID, due.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if !again.NextDue.Equal(due) {
		t.Errorf("expected original due date %v, got %v", due, again.NextDue)
	}

	states, _ := r.AllStates(ctx)
	if len(states) != 1 {
		t.Errorf("expected exactly one state, got %d", len(states))
	}
}

func TestUpdateStatePatch(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	item := addOne(t, r, "Raft")
	r.GetOrCreateState(ctx, item.ID, testClock.AddDate(0, 0, 1))

	stage := 2
	attempts := 4
	st, err := r.UpdateState(ctx, item.ID, StatePatch{Stage: &stage, TotalAttempts: &attempts})
	if err != nil {
		t.Fatalf("update state: %v", err)
	}
	if st.Stage != 2 || st.TotalAttempts != 4 {
		t.Errorf("patch not applied: %+v", st)
	}
	// Unpatched fields stay put.
	if st.ConsecutiveCorrect != 0 {
		t.Errorf("expected untouched streak 0, got %d", st.ConsecutiveCorrect)
	}

	_, err = r.UpdateState(ctx, "missing", StatePatch{Stage: &stage})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDueItemIDs(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	a := addOne(t, r, "Raft")
	b := addOne(t, r, "Paxos")
	c := addOne(t, r, "EPaxos")

	r.GetOrCreateState(ctx, a.ID, testClock.AddDate(0, 0, -1)) // overdue
	r.GetOrCreateState(ctx, b.ID, testClock)                   // due exactly now
	r.GetOrCreateState(ctx, c.ID, testClock.AddDate(0, 0, 3))  // future

	ids, err := r.DueItemIDs(ctx, testClock)
	if err != nil {
		t.Fatalf("due ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 due, got %d", len(ids))
	}
	// Repository-native (creation) order, not due order.
	if ids[0] != a.ID || ids[1] != b.ID {
		t.Errorf("expected [%s %s], got %v", a.ID, b.ID, ids)
	}
}

func TestSessionsAndStats(t *testing.T) {
	ctx := context.Background()
	clock := testClock
	dir := t.TempDir()
	r, _ := NewFileRepository(filepath.Join(dir, "retain.json"), WithNow(func() time.Time { return clock }))
	defer r.Close()

	item := addOne(t, r, "Raft")
	r.AddReview(ctx, model.ReviewDraft{ItemID: item.ID, Result: model.ResultPass})
	r.AddReview(ctx, model.ReviewDraft{ItemID: item.ID, Result: model.ResultFail})
	r.AddReview(ctx, model.ReviewDraft{ItemID: item.ID, Result: model.ResultSkip})
	r.AddReview(ctx, model.ReviewDraft{ItemID: item.ID, Result: model.ResultPass})

	r.CreateSession(ctx, model.SessionDraft{Topic: "Raft", Method: model.MethodIngest})
	clock = clock.Add(time.Hour)
	r.CreateSession(ctx, model.SessionDraft{Topic: "Raft", Method: model.MethodReview})

	sessions, err := r.RecentSessions(ctx, 1)
	if err != nil {
		t.Fatalf("recent sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Method != model.MethodReview {
		t.Errorf("expected newest session first, got %+v", sessions)
	}

	stats, err := r.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalItems != 1 || stats.TotalReviews != 4 || stats.TotalSessions != 2 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.OverallCorrectRate != 50 {
		t.Errorf("expected 50%% correct rate, got %v", stats.OverallCorrectRate)
	}
}

func TestLoadCorruptedFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "retain.json")
	os.WriteFile(path, []byte("{{{ not json"), 0o644)

	r, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("expected corrupted file to degrade, got error: %v", err)
	}
	defer r.Close()

	stats, _ := r.Stats(context.Background())
	if stats.TotalItems != 0 {
		t.Errorf("expected empty dataset, got %+v", stats)
	}
}

func TestLoadMissingArraysNormalized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "retain.json")
	os.WriteFile(path, []byte(`{"items": "oops"}`), 0o644)

	r, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("create repo: %v", err)
	}
	defer r.Close()

	items, err := r.ListItems(context.Background(), ListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "retain.json")

	r1, _ := NewFileRepository(path, WithNow(func() time.Time { return testClock }))
	item := addOne(t, r1, "Raft")
	r1.GetOrCreateState(ctx, item.ID, testClock.AddDate(0, 0, 1))
	r1.Close()

	r2, _ := NewFileRepository(path)
	defer r2.Close()

	got, err := r2.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Topic != "Raft" {
		t.Errorf("expected Raft, got %q", got.Topic)
	}
	states, _ := r2.AllStates(ctx)
	if len(states) != 1 {
		t.Errorf("expected state to survive reopen, got %d", len(states))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	item := addOne(t, r, "Raft")
	r.AddReview(ctx, model.ReviewDraft{ItemID: item.ID, Result: model.ResultPass})
	r.GetOrCreateState(ctx, item.ID, testClock.AddDate(0, 0, 1))

	ds, err := r.ExportDataset(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	// Opaque arrays ride along untouched.
	ds.SparringSessions = []json.RawMessage{json.RawMessage(`{"rounds":2}`)}

	other := newTestRepo(t)
	n, err := other.ImportDataset(ctx, ds)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 item imported, got %d", n)
	}

	back, err := other.ExportDataset(ctx)
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if len(back.Items) != 1 || len(back.Reviews) != 1 || len(back.SchedulingStates) != 1 {
		t.Errorf("unexpected re-export: %+v", back)
	}
	if string(back.SparringSessions[0]) != `{"rounds":2}` {
		t.Errorf("passthrough lost: %s", back.SparringSessions[0])
	}
}

func TestAddItemsDoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	drafts := []model.ItemDraft{{Topic: "Raft", Prompt: "q", Difficulty: 3, Tags: []string{"a"}}}
	items, _ := r.AddItems(ctx, drafts)

	items[0].Tags[0] = "changed"
	if drafts[0].Tags[0] != "a" {
		t.Error("input drafts were mutated")
	}
}
