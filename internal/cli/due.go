package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/retain/internal/scheduler"
)

func init() {
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Show items due for review",
		Run:   runDue,
	}

	RootCmd.AddCommand(cmd)
}

// dueEntry pairs a due item with its stage-selected question.
type dueEntry struct {
	ID       string `json:"id"`
	Topic    string `json:"topic"`
	Stage    int    `json:"stage"`
	Kind     string `json:"kind"`
	Question string `json:"question"`
}

func runDue(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	repo := openRepo(cfg)
	defer repo.Close()
	sched := newScheduler(repo, cfg)
	ctx := cmd.Context()

	items, err := sched.Due(ctx)
	if err != nil {
		exitErr("due", err)
	}

	states, err := repo.AllStates(ctx)
	if err != nil {
		exitErr("due", err)
	}
	stageOf := make(map[string]int, len(states))
	for _, st := range states {
		stageOf[st.ItemID] = st.Stage
	}

	entries := []dueEntry{}
	for _, item := range items {
		a := scheduler.ArchetypeForStage(stageOf[item.ID])
		entries = append(entries, dueEntry{
			ID:       item.ID,
			Topic:    item.Topic,
			Stage:    stageOf[item.ID],
			Kind:     a.Kind,
			Question: a.Question(item.Topic),
		})
	}

	if formatFlag == "text" {
		if len(entries) == 0 {
			fmt.Println("Nothing due for review.")
			return
		}
		for i, e := range entries {
			fmt.Printf("%d. [%s] (%s) %s\n   id: %s\n", i+1, e.Topic, e.Kind, e.Question, e.ID)
		}
		return
	}

	printJSON(entries)
}
