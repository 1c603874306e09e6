package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/undercut/internal/common"
	"github.com/Veraticus/undercut/internal/engine"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadEngineConfig_Defaults(t *testing.T) {
	cfg, err := LoadEngineConfig(newViper())
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultConfig(), cfg)
}

func TestLoadEngineConfig_Overrides(t *testing.T) {
	v := newViper()
	v.Set(KeyCloseThresholdPct, 2.5)
	v.Set(KeyStaleAfter, "2h")
	v.Set(KeyOldAfter, "12h")

	cfg, err := LoadEngineConfig(v)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, cfg.CloseThresholdPct, 0.0001)
	assert.Equal(t, 2*time.Hour, cfg.StaleAfter)
	assert.Equal(t, 12*time.Hour, cfg.OldAfter)
}

func TestLoadEngineConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "negative close threshold", key: KeyCloseThresholdPct, value: -1},
		{name: "high below medium", key: KeyHighPct, value: 1},
		{name: "critical below high", key: KeyCriticalPct, value: 4},
		{name: "old before stale", key: KeyOldAfter, value: "1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			_, err := LoadEngineConfig(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoadQueueOptions(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	opts, err := LoadQueueOptions(newViper(), now)
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultQueueOptions(now), opts)

	v := newViper()
	v.Set(KeyIncludeSameTotal, true)
	v.Set(KeySortMode, "stale")
	v.Set(KeyMinSeverity, "high")
	v.Set(KeyLimit, 25)
	opts, err = LoadQueueOptions(v, now)
	require.NoError(t, err)
	assert.True(t, opts.IncludeSameTotal)
	assert.Equal(t, model.SortByStale, opts.SortMode)
	assert.Equal(t, model.SeverityHigh, opts.MinSeverity)
	assert.Equal(t, 25, opts.Limit)

	v.Set(KeySortMode, "alphabetical")
	_, err = LoadQueueOptions(v, now)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	v.Set(KeySortMode, "gap")
	v.Set(KeyLimit, -1)
	_, err = LoadQueueOptions(v, now)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestDatabasePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	v := newViper()
	assert.Equal(t, filepath.Join(home, ".local", "share", "undercut", "undercut.db"), DatabasePath(v))

	v.Set(KeyDatabasePath, "~/data/prices.db")
	assert.Equal(t, filepath.Join(home, "data", "prices.db"), DatabasePath(v))

	t.Setenv("UNDERCUT_TEST_DIR", "/srv/undercut")
	v.Set(KeyDatabasePath, "$UNDERCUT_TEST_DIR/prices.db")
	assert.Equal(t, "/srv/undercut/prices.db", DatabasePath(v))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/undercut", Dir())

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "undercut"), Dir())
}
