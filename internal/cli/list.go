package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/retain/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Run:   runList,
	}

	cmd.Flags().StringP("tag", "t", "", "Filter by tag (case-insensitive)")
	cmd.Flags().String("topic", "", "Filter by topic substring (case-insensitive)")
	cmd.Flags().IntP("limit", "l", 0, "Max results (0 = all)")
	cmd.Flags().Bool("ids-only", false, "Only output item ids")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	tag, _ := cmd.Flags().GetString("tag")
	topic, _ := cmd.Flags().GetString("topic")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	cfg := loadConfig()
	repo := openRepo(cfg)
	defer repo.Close()

	items, err := repo.ListItems(cmd.Context(), store.ListParams{
		Tag:   tag,
		Topic: topic,
		Limit: limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, item := range items {
			fmt.Println(item.ID)
		}
		return
	}

	printJSON(items)
}
