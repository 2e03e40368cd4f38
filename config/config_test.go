package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "")
	t.Setenv("SLACK_APP_TOKEN", "")

	cfg, err := Load(writeConfig(t, "server:\n  enabled: true\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.CacheTTL)
	assert.Equal(t, "main", cfg.Attendance.Channel)
	assert.Equal(t, "Asia/Karachi", cfg.Attendance.Timezone)
	assert.Equal(t, 80, cfg.Attendance.MatchThreshold)
	assert.Equal(t, 64, cfg.Attendance.QueueSize)
	assert.True(t, cfg.Attendance.ShouldConfirm())
	assert.Equal(t, "csv", cfg.Ledger.Backend)
	assert.Equal(t, "attendance_data.csv", cfg.Ledger.Path)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Slack.DirectoryTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-env")
	t.Setenv("SLACK_APP_TOKEN", "")

	cfg, err := Load(writeConfig(t, `
slack:
  bot_token: xoxb-file
  app_token: xapp-file
attendance:
  channel: office
  confirm_success: false
ledger:
  backend: xlsx
`))
	require.NoError(t, err)

	assert.Equal(t, "xoxb-env", cfg.Slack.BotToken)
	assert.Equal(t, "xapp-file", cfg.Slack.AppToken)
	assert.Equal(t, "office", cfg.Attendance.Channel)
	assert.False(t, cfg.Attendance.ShouldConfirm())
	assert.Equal(t, "attendance_data.xlsx", cfg.Ledger.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
