// Package coach wires the scheduler, aggregator, and delivery together into
// a long-running service. Handlers return plain text; the cron callbacks own
// delivery. The Coach is constructed explicitly and has a Start/Stop
// lifecycle, with no package-level state.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rcliao/retain/internal/deliver"
	"github.com/rcliao/retain/internal/model"
	"github.com/rcliao/retain/internal/report"
	"github.com/rcliao/retain/internal/scheduler"
	"github.com/rcliao/retain/internal/store"
)

// Schedule holds the cron expressions for the three trigger entry points.
type Schedule struct {
	Due     string
	Evening string
	Weekly  string
}

// DefaultSchedule reviews at 09:00, summarizes at 21:00, reports Sunday 18:00.
func DefaultSchedule() Schedule {
	return Schedule{
		Due:     "0 9 * * *",
		Evening: "0 21 * * *",
		Weekly:  "0 18 * * 0",
	}
}

// Coach owns the periodic trigger loop.
type Coach struct {
	repo       store.Repository
	sched      *scheduler.Scheduler
	deliverer  deliver.Deliverer
	channel    string
	windowDays int
	schedule   Schedule
	now        func() time.Time
	cron       *cron.Cron
	log        *slog.Logger
}

// Option configures a Coach.
type Option func(*Coach)

// WithSchedule overrides the default cron schedule.
func WithSchedule(s Schedule) Option {
	return func(c *Coach) { c.schedule = s }
}

// WithWindowDays overrides the weekly report window.
func WithWindowDays(days int) Option {
	return func(c *Coach) { c.windowDays = days }
}

// WithNow overrides the coach clock.
func WithNow(now func() time.Time) Option {
	return func(c *Coach) { c.now = now }
}

// WithLogger overrides the coach logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coach) { c.log = l }
}

// New creates a Coach delivering to channel via d.
func New(repo store.Repository, sched *scheduler.Scheduler, d deliver.Deliverer, channel string, opts ...Option) *Coach {
	c := &Coach{
		repo:       repo,
		sched:      sched,
		deliverer:  d,
		channel:    channel,
		windowDays: report.DefaultWindowDays,
		schedule:   DefaultSchedule(),
		now:        time.Now,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start registers the trigger jobs and starts the cron loop.
func (c *Coach) Start() error {
	c.cron = cron.New()

	jobs := []struct {
		spec string
		name string
		run  func(context.Context) (string, error)
	}{
		{c.schedule.Due, "due", c.HandleDue},
		{c.schedule.Evening, "evening summary", c.HandleEveningSummary},
		{c.schedule.Weekly, "weekly report", c.HandleWeeklyReport},
	}

	for _, job := range jobs {
		job := job
		_, err := c.cron.AddFunc(job.spec, func() {
			ctx := context.Background()
			text, err := job.run(ctx)
			if err != nil {
				c.log.Error("trigger failed", "job", job.name, "err", err)
				return
			}
			if err := c.deliverer.Deliver(ctx, deliver.Message{Channel: c.channel, Text: text}); err != nil {
				c.log.Error("delivery failed", "job", job.name, "err", err)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.name, job.spec, err)
		}
	}

	c.cron.Start()
	c.log.Info("coach started",
		"due", c.schedule.Due, "evening", c.schedule.Evening, "weekly", c.schedule.Weekly)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (c *Coach) Stop() {
	if c.cron != nil {
		<-c.cron.Stop().Done()
	}
}

// HandleDue formats the due-item review prompt and records a review session
// for the batch. Returns an empty string when nothing is due.
func (c *Coach) HandleDue(ctx context.Context) (string, error) {
	items, err := c.sched.Due(ctx)
	if err != nil {
		return "", fmt.Errorf("get due items: %w", err)
	}
	if len(items) == 0 {
		return "", nil
	}

	states, err := c.repo.AllStates(ctx)
	if err != nil {
		return "", fmt.Errorf("all states: %w", err)
	}
	stageOf := make(map[string]int, len(states))
	for _, st := range states {
		stageOf[st.ItemID] = st.Stage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have %d item(s) due for review.\n", len(items))

	ids := make([]string, 0, len(items))
	for i, item := range items {
		a := scheduler.ArchetypeForStage(stageOf[item.ID])
		fmt.Fprintf(&b, "\n%d. [%s] %s\n   %s\n   (id: %s)\n",
			i+1, item.Topic, a.Kind, a.Question(item.Topic), item.ID)
		ids = append(ids, item.ID)
	}
	b.WriteString("\nAnswer with: retain review <id> --pass | --fail\n")

	_, err = c.repo.CreateSession(ctx, model.SessionDraft{
		StartedAt: c.now(),
		Summary:   fmt.Sprintf("due review prompt: %d item(s)", len(items)),
		ItemIDs:   ids,
		Method:    model.MethodReview,
	})
	if err != nil {
		return "", fmt.Errorf("record review session: %w", err)
	}

	return b.String(), nil
}

// HandleEveningSummary formats the end-of-day progress snapshot.
func (c *Coach) HandleEveningSummary(ctx context.Context) (string, error) {
	sum, err := c.sched.Summary(ctx)
	if err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}

	var b strings.Builder
	b.WriteString("Evening summary\n")
	fmt.Fprintf(&b, "Items tracked:   %d\n", sum.TotalItems)
	fmt.Fprintf(&b, "Due today:       %d\n", sum.DueToday)
	fmt.Fprintf(&b, "Mastered:        %d\n", sum.Mastered)
	fmt.Fprintf(&b, "Struggling:      %d\n", sum.Struggling)
	fmt.Fprintf(&b, "Correct rate:    %.1f%%\n", sum.AverageCorrectRate)
	return b.String(), nil
}

// HandleWeeklyReport formats the trailing-window report and records a report
// session.
func (c *Coach) HandleWeeklyReport(ctx context.Context) (string, error) {
	r, err := report.FromRepository(ctx, c.repo, c.windowDays, c.now())
	if err != nil {
		return "", fmt.Errorf("build report: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weekly report (last %d days)\n", r.WindowDays)
	fmt.Fprintf(&b, "Reviews:        %d\n", r.TotalReviews)
	fmt.Fprintf(&b, "Correct rate:   %.1f%%\n", r.CorrectRate)
	fmt.Fprintf(&b, "Topics studied: %d\n", r.TopicsStudied)

	if len(r.TopWeaknesses) > 0 {
		b.WriteString("\nWeak spots:\n")
		for _, w := range r.TopWeaknesses {
			fmt.Fprintf(&b, "- %s: %d fail(s). %s\n", w.Topic, w.FailCount, w.Suggestion)
		}
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
	}

	_, err = c.repo.CreateSession(ctx, model.SessionDraft{
		StartedAt: c.now(),
		Summary:   fmt.Sprintf("weekly report: %d review(s), %.1f%% correct", r.TotalReviews, r.CorrectRate),
		Method:    model.MethodReport,
	})
	if err != nil {
		return "", fmt.Errorf("record report session: %w", err)
	}

	return b.String(), nil
}
