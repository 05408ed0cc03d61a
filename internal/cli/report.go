package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/retain/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the trailing-window review report",
		Run:   runReport,
	}

	cmd.Flags().IntP("window", "w", report.DefaultWindowDays, "Window size in days")

	RootCmd.AddCommand(cmd)
}

func runReport(cmd *cobra.Command, args []string) {
	window, _ := cmd.Flags().GetInt("window")

	cfg := loadConfig()
	repo := openRepo(cfg)
	defer repo.Close()

	r, err := report.FromRepository(cmd.Context(), repo, window, time.Now())
	if err != nil {
		exitErr("report", err)
	}

	if formatFlag == "text" {
		fmt.Printf("Last %d days: %d review(s), %.1f%% correct, %d topic(s) studied\n",
			r.WindowDays, r.TotalReviews, r.CorrectRate, r.TopicsStudied)
		for _, w := range r.TopWeaknesses {
			fmt.Printf("- weak: %s (%d fails)\n", w.Topic, w.FailCount)
		}
		for _, rec := range r.Recommendations {
			fmt.Printf("- %s\n", rec)
		}
		return
	}

	printJSON(r)
}
