package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/retain/internal/coach"
	"github.com/rcliao/retain/internal/deliver"
)

func init() {
	cmd := &cobra.Command{
		Use:   "coach",
		Short: "Run the periodic review coach",
		Long: "Run the coach loop: due questions in the morning, a progress summary in\n" +
			"the evening, and a weekly report. Runs until interrupted.",
		Run: runCoach,
	}

	RootCmd.AddCommand(cmd)
}

func runCoach(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	repo := openRepo(cfg)
	defer repo.Close()
	sched := newScheduler(repo, cfg)

	c := coach.New(repo, sched, deliver.NewConsole(os.Stdout), cfg.Channel,
		coach.WithSchedule(coach.Schedule{
			Due:     cfg.DueCron,
			Evening: cfg.EveningCron,
			Weekly:  cfg.WeeklyCron,
		}),
		coach.WithWindowDays(cfg.ReportWindowDays),
	)

	if err := c.Start(); err != nil {
		exitErr("start coach", err)
	}
	defer c.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
