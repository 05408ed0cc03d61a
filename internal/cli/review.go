package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/retain/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "review <item-id>",
		Short: "Record a review outcome",
		Long: "Record the outcome of reviewing an item. Pass and fail move the item on\n" +
			"the interval ladder; skip only records the review.",
		Args: cobra.ExactArgs(1),
		Run:  runReview,
	}

	cmd.Flags().Bool("pass", false, "The answer was correct")
	cmd.Flags().Bool("fail", false, "The answer was incorrect")
	cmd.Flags().Bool("skip", false, "The review was skipped")
	cmd.Flags().StringP("answer", "a", "", "The answer given")
	cmd.Flags().String("feedback", "", "Feedback on the answer")

	RootCmd.AddCommand(cmd)
}

func runReview(cmd *cobra.Command, args []string) {
	itemID := args[0]
	pass, _ := cmd.Flags().GetBool("pass")
	fail, _ := cmd.Flags().GetBool("fail")
	skip, _ := cmd.Flags().GetBool("skip")
	answer, _ := cmd.Flags().GetString("answer")
	feedback, _ := cmd.Flags().GetString("feedback")

	var result model.Result
	switch {
	case pass && !fail && !skip:
		result = model.ResultPass
	case fail && !pass && !skip:
		result = model.ResultFail
	case skip && !pass && !fail:
		result = model.ResultSkip
	default:
		exitErr("review", fmt.Errorf("exactly one of --pass, --fail, --skip is required"))
	}

	cfg := loadConfig()
	repo := openRepo(cfg)
	defer repo.Close()
	sched := newScheduler(repo, cfg)
	ctx := cmd.Context()

	// Confirm the item exists before recording anything against it.
	if _, err := repo.GetItem(ctx, itemID); err != nil {
		exitErr("review", err)
	}

	if _, err := repo.AddReview(ctx, model.ReviewDraft{
		ItemID:   itemID,
		Answer:   answer,
		Result:   result,
		Feedback: feedback,
	}); err != nil {
		exitErr("record review", err)
	}

	// A skip leaves the schedule untouched.
	if result == model.ResultSkip {
		fmt.Println(`{"ok":true,"result":"skip"}`)
		return
	}

	state, err := sched.RecordOutcome(ctx, itemID, result == model.ResultPass)
	if err != nil {
		exitErr("update schedule", err)
	}

	printJSON(state)
}
