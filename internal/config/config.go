package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/undercut/internal/common"
	"github.com/Veraticus/undercut/internal/engine"
	"github.com/Veraticus/undercut/internal/model"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyDatabasePath      = "database.path"
	KeyCloseThresholdPct = "engine.close_threshold_pct"
	KeyCriticalPct       = "engine.severity.critical_pct"
	KeyHighPct           = "engine.severity.high_pct"
	KeyMediumPct         = "engine.severity.medium_pct"
	KeyStaleAfter        = "engine.freshness.stale_after"
	KeyOldAfter          = "engine.freshness.old_after"
	KeyIncludeSameTotal  = "queue.include_same_total"
	KeySortMode          = "queue.sort_mode"
	KeyMinSeverity       = "queue.min_severity"
	KeyLimit             = "queue.limit"
	KeyWatchInterval     = "watch.interval"
	KeyMetricsAddr       = "metrics.addr"
	KeyImportTimeout     = "import.timeout"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
)

// DefaultDatabasePath is where the database lives unless configured otherwise.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "undercut.db")
	}
	return filepath.Join(home, ".local", "share", "undercut", "undercut.db")
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	defaults := engine.DefaultConfig()

	v.SetDefault(KeyDatabasePath, DefaultDatabasePath())
	v.SetDefault(KeyCloseThresholdPct, defaults.CloseThresholdPct)
	v.SetDefault(KeyCriticalPct, defaults.CriticalGapPct)
	v.SetDefault(KeyHighPct, defaults.HighGapPct)
	v.SetDefault(KeyMediumPct, defaults.MediumGapPct)
	v.SetDefault(KeyStaleAfter, defaults.StaleAfter)
	v.SetDefault(KeyOldAfter, defaults.OldAfter)
	v.SetDefault(KeyIncludeSameTotal, false)
	v.SetDefault(KeySortMode, string(model.SortByGap))
	v.SetDefault(KeyMinSeverity, string(model.SeverityWatch))
	v.SetDefault(KeyLimit, 0)
	v.SetDefault(KeyWatchInterval, 15*time.Minute)
	v.SetDefault(KeyMetricsAddr, ":9464")
	v.SetDefault(KeyImportTimeout, 30*time.Second)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// DatabasePath returns the configured database path with ~ and $VARS expanded.
func DatabasePath(v *viper.Viper) string {
	return ExpandPath(v.GetString(KeyDatabasePath))
}

// LoadEngineConfig reads the engine thresholds from v and validates them.
func LoadEngineConfig(v *viper.Viper) (engine.Config, error) {
	cfg := engine.Config{
		CloseThresholdPct: v.GetFloat64(KeyCloseThresholdPct),
		CriticalGapPct:    v.GetFloat64(KeyCriticalPct),
		HighGapPct:        v.GetFloat64(KeyHighPct),
		MediumGapPct:      v.GetFloat64(KeyMediumPct),
		StaleAfter:        v.GetDuration(KeyStaleAfter),
		OldAfter:          v.GetDuration(KeyOldAfter),
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadQueueOptions reads the queue defaults from v, evaluated at now.
func LoadQueueOptions(v *viper.Viper, now time.Time) (engine.QueueOptions, error) {
	opts := engine.DefaultQueueOptions(now)
	opts.IncludeSameTotal = v.GetBool(KeyIncludeSameTotal)

	sortMode, err := model.ParseSortMode(v.GetString(KeySortMode))
	if err != nil {
		return opts, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	opts.SortMode = sortMode

	severity, err := model.ParseSeverity(v.GetString(KeyMinSeverity))
	if err != nil {
		return opts, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	opts.MinSeverity = severity

	opts.Limit = v.GetInt(KeyLimit)
	if opts.Limit < 0 {
		return opts, fmt.Errorf("%w: queue limit cannot be negative", common.ErrInvalidConfig)
	}

	return opts, nil
}
