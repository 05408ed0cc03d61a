// Package cli implements the retain CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rcliao/retain/internal/config"
	"github.com/rcliao/retain/internal/scheduler"
	"github.com/rcliao/retain/internal/store"
)

var (
	cfgFile    string
	dataDir    string
	driverFlag string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "retain",
	Short: "Spaced-repetition review coach",
	Long:  "A single-learner review scheduler. Items in, questions out on a forgetting-curve schedule.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: none; RETAIN_* env vars apply)")
	RootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "Data directory (default: $RETAIN_DATA_DIR or ~/.retain)")
	RootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Storage driver: json or sqlite (default: json)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		exitErr("load config", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if driverFlag != "" {
		cfg.Driver = driverFlag
	}
	return cfg
}

func openRepo(cfg *config.Config) store.Repository {
	switch cfg.Driver {
	case "", "json":
		r, err := store.NewFileRepository(filepath.Join(cfg.DataDir, "retain.json"))
		if err != nil {
			exitErr("open repository", err)
		}
		return r
	case "sqlite":
		r, err := store.NewSQLiteRepository(filepath.Join(cfg.DataDir, "retain.db"))
		if err != nil {
			exitErr("open repository", err)
		}
		return r
	default:
		exitErr("open repository", fmt.Errorf("unknown driver %q (use json or sqlite)", cfg.Driver))
		return nil
	}
}

// newScheduler builds the scheduler; an invalid interval config is fatal at
// startup, not at review time.
func newScheduler(repo store.Repository, cfg *config.Config) *scheduler.Scheduler {
	s, err := scheduler.New(repo, scheduler.WithIntervals(cfg.Intervals))
	if err != nil {
		exitErr("configure scheduler", err)
	}
	return s
}

func printJSON(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
