// Package config loads retain's configuration from defaults, an optional
// YAML file, and RETAIN_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	// DataDir holds the dataset (JSON document or SQLite database).
	DataDir string `mapstructure:"data_dir"`
	// Driver selects the storage driver: "json" or "sqlite".
	Driver string `mapstructure:"driver"`
	// Intervals is the review spacing per stage, in days.
	Intervals []int `mapstructure:"intervals"`
	// Channel is the delivery destination identifier.
	Channel string `mapstructure:"channel"`
	// ReportWindowDays is the weekly report's trailing window.
	ReportWindowDays int `mapstructure:"report_window_days"`

	// Cron expressions for the three trigger entry points.
	DueCron     string `mapstructure:"due_cron"`
	EveningCron string `mapstructure:"evening_cron"`
	WeeklyCron  string `mapstructure:"weekly_cron"`

	// OpenAI-compatible extraction collaborator.
	OpenAIAPIKey  string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL string        `mapstructure:"openai_base_url"`
	OpenAIModel   string        `mapstructure:"openai_model"`
	OpenAITimeout time.Duration `mapstructure:"openai_timeout"`
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".retain")
}

// Load reads configuration. cfgFile may be empty, in which case only
// defaults and environment variables apply; a named file that is missing is
// an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("driver", "json")
	v.SetDefault("intervals", []int{1, 3, 7, 14, 30})
	v.SetDefault("channel", "console")
	v.SetDefault("report_window_days", 7)
	v.SetDefault("due_cron", "0 9 * * *")
	v.SetDefault("evening_cron", "0 21 * * *")
	v.SetDefault("weekly_cron", "0 18 * * 0")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("openai_timeout", time.Minute)

	v.SetEnvPrefix("RETAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
