package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/retain/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a dataset from JSON on stdin",
		Long: "Import a dataset from JSON on stdin, replacing the stored one. Expects the\n" +
			"format produced by export; this is also the migration path between drivers.",
		Run: runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		exitErr("read stdin", err)
	}

	ds, err := model.DecodeDataset(data)
	if err != nil {
		exitErr("parse dataset", err)
	}

	cfg := loadConfig()
	repo := openRepo(cfg)
	defer repo.Close()

	imported, err := repo.ImportDataset(cmd.Context(), ds)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Printf(`{"ok":true,"items":%d}`+"\n", imported)
}
