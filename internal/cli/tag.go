package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tag <item-id> [tags...]",
		Short: "Replace an item's tags",
		Long:  "Replace an item's tag set. Tags are the only editable part of an item.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runTag,
	}

	RootCmd.AddCommand(cmd)
}

func runTag(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	repo := openRepo(cfg)
	defer repo.Close()

	item, err := repo.UpdateItemTags(cmd.Context(), args[0], args[1:])
	if err != nil {
		exitErr("tag", err)
	}

	printJSON(item)
}
