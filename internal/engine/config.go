package engine

import (
	"fmt"
	"time"
)

// Config holds the thresholds used by the status classifier and the
// action queue builder.
type Config struct {
	CloseThresholdPct float64
	CriticalGapPct    float64
	HighGapPct        float64
	MediumGapPct      float64
	StaleAfter        time.Duration
	OldAfter          time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CloseThresholdPct: 5.0,
		CriticalGapPct:    10.0,
		HighGapPct:        5.0,
		MediumGapPct:      2.0,
		StaleAfter:        6 * time.Hour,
		OldAfter:          24 * time.Hour,
	}
}

// Validate ensures the thresholds are ordered and non-negative.
func (c Config) Validate() error {
	if c.CloseThresholdPct < 0 {
		return fmt.Errorf("close threshold cannot be negative")
	}
	if c.MediumGapPct < 0 {
		return fmt.Errorf("medium gap threshold cannot be negative")
	}
	if c.HighGapPct < c.MediumGapPct {
		return fmt.Errorf("high gap threshold (%.2f) must be at least medium (%.2f)", c.HighGapPct, c.MediumGapPct)
	}
	if c.CriticalGapPct < c.HighGapPct {
		return fmt.Errorf("critical gap threshold (%.2f) must be at least high (%.2f)", c.CriticalGapPct, c.HighGapPct)
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("stale after must be positive")
	}
	if c.OldAfter < c.StaleAfter {
		return fmt.Errorf("old after (%s) must be at least stale after (%s)", c.OldAfter, c.StaleAfter)
	}
	return nil
}
