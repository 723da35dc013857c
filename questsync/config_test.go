package questsync

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovequest/questsync/internal/domain/partnersync"
	"github.com/lovequest/questsync/internal/domain/quests"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, partnersync.DefaultInterval, cfg.Sync.PollInterval.Duration)
	assert.Equal(t, partnersync.DefaultTickTimeout, cfg.Sync.TickTimeout.Duration)
	assert.Equal(t, quests.DefaultAwardAmount, cfg.Quests.AwardAmount)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, DefaultRolloverSchedule, cfg.Rollover.Schedule)
	assert.True(t, cfg.Log.ColorEnabled())
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
format = "json"
color = false

[db]
driver = "sqlite"
path = "/tmp/questsync.db"

[backend]
url = "https://api.example.com"
timeout = "3s"

[sync]
poll_interval = "30s"

[quests]
award_amount = 50
timezone = "Europe/Berlin"

[ledger]
provisional_ttl = "2h"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.False(t, cfg.Log.ColorEnabled())
	assert.Equal(t, "https://api.example.com", cfg.Backend.URL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout.Duration)
	assert.Equal(t, 30*time.Second, cfg.Sync.PollInterval.Duration)
	assert.Equal(t, partnersync.DefaultTickTimeout, cfg.Sync.TickTimeout.Duration)
	assert.Equal(t, int64(50), cfg.Quests.AwardAmount)
	assert.Equal(t, 2*time.Hour, cfg.Ledger.ProvisionalTTL.Duration)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("QUESTSYNC_BACKEND_URL", "http://localhost:9000")
	t.Setenv("QUESTSYNC_POLL_INTERVAL", "2s")
	t.Setenv("QUESTSYNC_AWARD_AMOUNT", "40")
	t.Setenv("QUESTSYNC_LOG_LEVEL", "warn")

	path := writeConfig(t, `
[backend]
url = "https://api.example.com"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.Backend.URL)
	assert.Equal(t, 2*time.Second, cfg.Sync.PollInterval.Duration)
	assert.Equal(t, 2*time.Second, cfg.Sync.TickTimeout.Duration)
	assert.Equal(t, int64(40), cfg.Quests.AwardAmount)
	assert.Equal(t, slog.LevelWarn, cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"poll too fast", "[sync]\npoll_interval = \"100ms\""},
		{"poll too slow", "[sync]\npoll_interval = \"1h\""},
		{"negative award", "[quests]\naward_amount = -1"},
		{"bad timezone", "[quests]\ntimezone = \"Mars/Olympus\""},
		{"bad schedule", "[rollover]\nschedule = \"every day\""},
		{"bad duration", "[sync]\npoll_interval = \"soon\""},
		{"bad format", "[log]\nformat = \"xml\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
