package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent sessions",
		Run:   runSessions,
	}

	cmd.Flags().IntP("limit", "l", 10, "Max sessions")

	RootCmd.AddCommand(cmd)
}

func runSessions(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	repo := openRepo(cfg)
	defer repo.Close()

	sessions, err := repo.RecentSessions(cmd.Context(), limit)
	if err != nil {
		exitErr("sessions", err)
	}

	printJSON(sessions)
}
