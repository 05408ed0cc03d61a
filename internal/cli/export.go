package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full dataset as JSON",
		Long:  "Export the full dataset as JSON. The output round-trips losslessly through import, including opaque passthrough arrays.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	repo := openRepo(cfg)
	defer repo.Close()

	ds, err := repo.ExportDataset(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	printJSON(ds)
}
