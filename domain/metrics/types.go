package metrics

import (
	"fmt"

	"sleepsense/domain/core"
)

// Config holds the tunable analysis settings. Zero values are never
// used directly; obtain a populated Config via DefaultConfig and
// override fields explicitly.
type Config struct {
	// ThresholdDB is the noise cutoff: samples at or above it are
	// flagged as noise.
	ThresholdDB float64 `json:"threshold_db"`
	// SmoothingWindow is the centered moving-average width in samples.
	SmoothingWindow int `json:"smoothing_window"`
	// SignificanceThreshold is the percentage-point difference between
	// conditions A and B at which the usage hypothesis counts as
	// supported. This is a fixed two-group threshold, not a formal
	// significance level.
	SignificanceThreshold float64 `json:"significance_threshold_pct_points"`
}

// Defaults recognized by the engine.
const (
	DefaultThresholdDB           = 40.0
	DefaultSmoothingWindow       = 5
	DefaultSignificanceThreshold = 5.0
)

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		ThresholdDB:           DefaultThresholdDB,
		SmoothingWindow:       DefaultSmoothingWindow,
		SignificanceThreshold: DefaultSignificanceThreshold,
	}
}

// Validate checks config invariants.
func (c Config) Validate() error {
	if c.ThresholdDB <= 0 {
		return fmt.Errorf("noise threshold must be > 0 dB, got %f", c.ThresholdDB)
	}
	if c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing window must be >= 1, got %d", c.SmoothingWindow)
	}
	if c.SignificanceThreshold < 0 {
		return fmt.Errorf("significance threshold must be >= 0, got %f", c.SignificanceThreshold)
	}
	return nil
}

// HourBucket aggregates one whole elapsed hour of the recording. Hours
// without samples are absent from the output, not zero-filled.
type HourBucket struct {
	HourIndex    int     `json:"hour_index"`
	AvgDB        float64 `json:"avg_db"`
	DeepSleepPct float64 `json:"deep_sleep_pct"`
	RestlessPct  float64 `json:"restless_pct"`
}

// Record is the immutable result of one analysis pass. It is produced
// only by analysis.Analyze and replaced wholesale on recomputation -
// there is no way to mutate noise-derived fields out from under the
// threshold that produced them.
//
// The JSON keys form the stable output contract consumed by report and
// plot collaborators.
type Record struct {
	ID          core.RecordID  `json:"id"`
	ThresholdDB float64        `json:"threshold_db"`
	ComputedAt  core.Timestamp `json:"computed_at"`

	TotalSamples         int     `json:"total_samples"`
	TotalDurationMinutes float64 `json:"total_duration_minutes"`

	NoiseSampleCount int     `json:"noise_sample_count"`
	NoiseRatioPct    float64 `json:"noise_ratio_pct"`

	MeanDB float64 `json:"mean_db"`
	MaxDB  float64 `json:"max_db"`
	MinDB  float64 `json:"min_db"`
	// StddevDB is the sample standard deviation (n-1 denominator).
	StddevDB float64 `json:"stddev_db"`

	AvgNoiseStreakSeconds float64 `json:"avg_noise_streak_seconds"`
	MaxNoiseStreakSeconds float64 `json:"max_noise_streak_seconds"`

	FirstHourNoiseRatioPct float64 `json:"first_hour_noise_ratio_pct"`

	DeepSleepPct  float64 `json:"deep_sleep_pct"`
	LightSleepPct float64 `json:"light_sleep_pct"`
	RestlessPct   float64 `json:"restless_pct"`
	DisturbedPct  float64 `json:"disturbed_pct"`
	REMSleepPct   float64 `json:"rem_sleep_pct"`

	HourlyQuality []HourBucket `json:"hourly_quality"`
}

// ComparisonRow is the fixed metric subset extracted per condition for
// cross-condition display and hypothesis input.
type ComparisonRow struct {
	NoiseRatioPct          float64  `json:"noise_ratio_pct"`
	MeanDB                 float64  `json:"mean_db"`
	MaxDB                  float64  `json:"max_db"`
	AvgNoiseStreakSeconds  float64  `json:"avg_noise_streak_seconds"`
	FirstHourNoiseRatioPct float64  `json:"first_hour_noise_ratio_pct"`
	PhoneUsageMinutes      *float64 `json:"phone_usage_minutes,omitempty"`
}

// ComparisonTable maps condition names to their comparison rows.
// Meaningful only with two or more conditions.
type ComparisonTable map[core.ConditionName]ComparisonRow
