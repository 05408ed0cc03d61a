package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/retain/internal/scheduler"
	"github.com/rcliao/retain/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show repository statistics and learning progress",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

type statsOutput struct {
	Repository *store.Stats       `json:"repository"`
	Progress   *scheduler.Summary `json:"progress"`
}

func runStats(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	repo := openRepo(cfg)
	defer repo.Close()
	sched := newScheduler(repo, cfg)
	ctx := cmd.Context()

	repoStats, err := repo.Stats(ctx)
	if err != nil {
		exitErr("stats", err)
	}
	summary, err := sched.Summary(ctx)
	if err != nil {
		exitErr("summary", err)
	}

	printJSON(statsOutput{Repository: repoStats, Progress: summary})
}
