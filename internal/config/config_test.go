package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Driver)
	assert.Equal(t, []int{1, 3, 7, 14, 30}, cfg.Intervals)
	assert.Equal(t, "console", cfg.Channel)
	assert.Equal(t, 7, cfg.ReportWindowDays)
	assert.Equal(t, "0 9 * * *", cfg.DueCron)
	assert.Equal(t, "0 21 * * *", cfg.EveningCron)
	assert.Equal(t, "0 18 * * 0", cfg.WeeklyCron)
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, time.Minute, cfg.OpenAITimeout)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RETAIN_DRIVER", "sqlite")
	t.Setenv("RETAIN_CHANNEL", "slack")
	t.Setenv("RETAIN_OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "slack", cfg.Channel)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retain.yaml")
	doc := `driver: sqlite
report_window_days: 14
intervals: [2, 5, 9]
openai_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, 14, cfg.ReportWindowDays)
	assert.Equal(t, []int{2, 5, 9}, cfg.Intervals)
	assert.Equal(t, 30*time.Second, cfg.OpenAITimeout)
	// Untouched keys keep their defaults.
	assert.Equal(t, "console", cfg.Channel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
