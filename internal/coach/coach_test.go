package coach

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/retain/internal/deliver"
	"github.com/rcliao/retain/internal/model"
	"github.com/rcliao/retain/internal/scheduler"
	"github.com/rcliao/retain/internal/store"
)

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

// capture records delivered messages instead of printing them.
type capture struct {
	mu       sync.Mutex
	messages []deliver.Message
}

func (c *capture) Deliver(_ context.Context, m deliver.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
	return nil
}

type harness struct {
	repo  *store.FileRepository
	sched *scheduler.Scheduler
	coach *Coach
	sink  *capture
	clock time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{clock: t0, sink: &capture{}}
	now := func() time.Time { return h.clock }

	repo, err := store.NewFileRepository(filepath.Join(t.TempDir(), "retain.json"), store.WithNow(now))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	sched, err := scheduler.New(repo, scheduler.WithNow(now))
	require.NoError(t, err)

	h.repo = repo
	h.sched = sched
	h.coach = New(repo, sched, h.sink, "console", WithNow(now))
	return h
}

func (h *harness) addDueItem(t *testing.T, topic string) model.Item {
	t.Helper()
	ctx := context.Background()
	items, err := h.repo.AddItems(ctx, []model.ItemDraft{{Topic: topic, Prompt: "explain " + topic, Difficulty: 3}})
	require.NoError(t, err)
	_, err = h.sched.Initialize(ctx, items[0].ID)
	require.NoError(t, err)
	return items[0]
}

func TestHandleDueEmpty(t *testing.T) {
	h := newHarness(t)

	text, err := h.coach.HandleDue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text, "nothing due means no message")

	sessions, err := h.repo.RecentSessions(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, sessions, "no session recorded for an empty batch")
}

func TestHandleDue(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	item := h.addDueItem(t, "Raft")

	// Everything initialized at t0 comes due the next day.
	h.clock = t0.AddDate(0, 0, 1)
	text, err := h.coach.HandleDue(ctx)
	require.NoError(t, err)

	assert.Contains(t, text, "1 item(s) due")
	assert.Contains(t, text, item.ID)
	assert.Contains(t, text, "[Raft]")
	assert.Contains(t, text, "recall", "stage 0 asks the recall archetype")
	assert.Contains(t, text, "Explain Raft from memory")

	sessions, err := h.repo.RecentSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, model.MethodReview, sessions[0].Method)
	assert.Equal(t, []string{item.ID}, sessions[0].ItemIDs)
}

func TestHandleDueArchetypeFollowsStage(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	item := h.addDueItem(t, "Raft")

	stage := 3
	due := t0
	_, err := h.repo.UpdateState(ctx, item.ID, store.StatePatch{Stage: &stage, NextDue: &due})
	require.NoError(t, err)

	text, err := h.coach.HandleDue(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "critique")
	assert.NotContains(t, text, "from memory")
}

func TestHandleEveningSummary(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addDueItem(t, "Raft")
	h.addDueItem(t, "Paxos")

	h.clock = t0.AddDate(0, 0, 2)
	text, err := h.coach.HandleEveningSummary(ctx)
	require.NoError(t, err)

	assert.Contains(t, text, "Evening summary")
	assert.Contains(t, text, "Items tracked:   2")
	assert.Contains(t, text, "Due today:       2")
}

func TestHandleWeeklyReport(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	item := h.addDueItem(t, "Raft")

	for _, res := range []model.Result{model.ResultPass, model.ResultFail, model.ResultFail} {
		_, err := h.repo.AddReview(ctx, model.ReviewDraft{ItemID: item.ID, Result: res})
		require.NoError(t, err)
	}

	text, err := h.coach.HandleWeeklyReport(ctx)
	require.NoError(t, err)

	assert.Contains(t, text, "Weekly report (last 7 days)")
	assert.Contains(t, text, "Reviews:        3")
	assert.Contains(t, text, "Correct rate:   33.3%")
	assert.Contains(t, text, "Weak spots:")
	assert.Contains(t, text, "Raft: 2 fail(s)")

	sessions, err := h.repo.RecentSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, model.MethodReport, sessions[0].Method)
}

func TestStartRejectsBadCron(t *testing.T) {
	h := newHarness(t)
	bad := New(h.repo, h.sched, h.sink, "console", WithSchedule(Schedule{
		Due: "not a cron spec", Evening: "0 21 * * *", Weekly: "0 18 * * 0",
	}))
	assert.Error(t, bad.Start())
}

func TestStartStop(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.coach.Start())
	h.coach.Stop()
}
