package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepsense/domain/core"
	"sleepsense/domain/metrics"
	"sleepsense/domain/series"
	"sleepsense/internal/testkit"
)

func TestAnalyze_EmptySeriesFails(t *testing.T) {
	_, _, err := Analyze(series.New(nil), metrics.DefaultConfig())
	require.ErrorIs(t, err, core.ErrEmptySeries)
}

func TestAnalyze_InvalidConfigFails(t *testing.T) {
	cfg := metrics.DefaultConfig()
	cfg.SmoothingWindow = 0
	_, _, err := Analyze(seriesFromLevels([]float64{30}, 1), cfg)
	require.Error(t, err)
}

func TestAnalyze_BandPercentagesSumToHundred(t *testing.T) {
	gen := testkit.NewGenerator(7)
	s := gen.Night(testkit.ProfileHeavyUse)

	_, rec, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	sum := rec.DeepSleepPct + rec.LightSleepPct + rec.RestlessPct + rec.DisturbedPct
	assert.InDelta(t, 100.0, sum, 1e-6)
}

func TestAnalyze_BandBoundaryExactness(t *testing.T) {
	// One sample per band boundary: 29.9 deep, 30.0 light, 35.0
	// restless, 40.0 disturbed.
	s := seriesFromLevels([]float64{29.9, 30.0, 35.0, 40.0}, 1)

	_, rec, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 25.0, rec.DeepSleepPct)
	assert.Equal(t, 25.0, rec.LightSleepPct)
	assert.Equal(t, 25.0, rec.RestlessPct)
	assert.Equal(t, 25.0, rec.DisturbedPct)
}

func TestAnalyze_NoiseRatioFormula(t *testing.T) {
	// 3 of 8 samples at or above the 40 dB cutoff.
	s := seriesFromLevels([]float64{30, 41, 30, 40, 30, 30, 50, 30}, 1)

	_, rec, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, rec.NoiseSampleCount)
	assert.Equal(t, 100*3.0/8.0, rec.NoiseRatioPct)
}

func TestAnalyze_StreakSeconds(t *testing.T) {
	// is_noise = [F,T,T,F,T,F,F,T,T,T] at 5s cadence: runs of 2, 1, 3
	// samples, max streak 15s, average 10s.
	levels := []float64{30, 45, 45, 30, 45, 30, 30, 45, 45, 45}
	s := seriesFromLevels(levels, 5)

	_, rec, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 15.0, rec.MaxNoiseStreakSeconds)
	assert.Equal(t, 10.0, rec.AvgNoiseStreakSeconds)
}

func TestAnalyze_NoNoiseMeansZeroStreaks(t *testing.T) {
	s := seriesFromLevels([]float64{30, 31, 29, 32}, 5)

	_, rec, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	assert.Zero(t, rec.AvgNoiseStreakSeconds)
	assert.Zero(t, rec.MaxNoiseStreakSeconds)
	assert.Zero(t, rec.NoiseSampleCount)
}

func TestAnalyze_ScalarStats(t *testing.T) {
	s := seriesFromLevels([]float64{30, 40, 50}, 60)

	_, rec, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, rec.TotalSamples)
	assert.Equal(t, 3.0, rec.TotalDurationMinutes)
	assert.Equal(t, 40.0, rec.MeanDB)
	assert.Equal(t, 50.0, rec.MaxDB)
	assert.Equal(t, 30.0, rec.MinDB)
	// Sample standard deviation: deviations -10, 0, 10 give
	// sqrt((100+0+100)/2) = 10.
	assert.InDelta(t, 10.0, rec.StddevDB, 1e-9)
}

func TestAnalyze_FirstHourNoiseRatio(t *testing.T) {
	// 1s cadence: the first hour covers the first 3600 samples. Put all
	// noise in the first hour and silence after it.
	levels := make([]float64, 7200)
	for i := range levels {
		if i < 360 {
			levels[i] = 45 // 10% of the first hour
		} else {
			levels[i] = 30
		}
	}
	s := seriesFromLevels(levels, 1)

	_, rec, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	assert.InDelta(t, 10.0, rec.FirstHourNoiseRatioPct, 1e-9)
	// Whole-series ratio is diluted to 5%.
	assert.InDelta(t, 5.0, rec.NoiseRatioPct, 1e-9)
}

func TestAnalyze_FirstHourClampsToSeriesLength(t *testing.T) {
	// Shorter than an hour: the window clamps to all samples.
	s := seriesFromLevels([]float64{45, 30, 30, 30}, 1)

	_, rec, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 25.0, rec.FirstHourNoiseRatioPct)
}

func TestAnalyze_HourlyQuality(t *testing.T) {
	// 30s cadence: 120 samples per hour, 2.5 hours total.
	levels := make([]float64, 300)
	for i := range levels {
		switch {
		case i < 120:
			levels[i] = 28 // deep hour
		case i < 240:
			levels[i] = 37 // restless hour
		default:
			levels[i] = 32 // light half-hour
		}
	}
	s := seriesFromLevels(levels, 30)

	_, rec, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	require.Len(t, rec.HourlyQuality, 3)

	h0 := rec.HourlyQuality[0]
	assert.Equal(t, 0, h0.HourIndex)
	assert.Equal(t, 28.0, h0.AvgDB)
	assert.Equal(t, 100.0, h0.DeepSleepPct)
	assert.Zero(t, h0.RestlessPct)

	h1 := rec.HourlyQuality[1]
	assert.Equal(t, 1, h1.HourIndex)
	assert.Equal(t, 100.0, h1.RestlessPct)

	h2 := rec.HourlyQuality[2]
	assert.Equal(t, 2, h2.HourIndex)
	assert.Equal(t, 32.0, h2.AvgDB)
	assert.Zero(t, h2.DeepSleepPct)
}

func TestAnalyze_RecordCarriesThreshold(t *testing.T) {
	cfg := metrics.DefaultConfig()
	cfg.ThresholdDB = 35

	s := seriesFromLevels([]float64{30, 36, 41}, 1)
	_, rec, err := Analyze(s, cfg)
	require.NoError(t, err)

	assert.Equal(t, 35.0, rec.ThresholdDB)
	assert.Equal(t, 2, rec.NoiseSampleCount)
	assert.False(t, core.ID(rec.ID).IsEmpty())
}

func TestAnalyze_RecomputeReflectsNewThreshold(t *testing.T) {
	// There is no settable threshold on a record: a new threshold means
	// a new Analyze call, and the noise-derived fields must move while
	// dB-only fields stay put.
	s := seriesFromLevels([]float64{30, 36, 36, 41, 30, 30}, 1)

	_, before, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	cfg := metrics.DefaultConfig()
	cfg.ThresholdDB = 35
	_, after, err := Analyze(s, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, before.NoiseSampleCount)
	assert.Equal(t, 3, after.NoiseSampleCount)
	assert.NotEqual(t, before.NoiseRatioPct, after.NoiseRatioPct)
	assert.NotEqual(t, before.MaxNoiseStreakSeconds, after.MaxNoiseStreakSeconds)

	assert.Equal(t, before.MeanDB, after.MeanDB)
	assert.Equal(t, before.StddevDB, after.StddevDB)
	assert.Equal(t, before.DeepSleepPct, after.DeepSleepPct)
}

func TestAnalyze_ToleratesGarbageLevels(t *testing.T) {
	// Corrupted exports can carry negative or absurd values; the engine
	// classifies them by the band thresholds and moves on.
	s := seriesFromLevels([]float64{-12.5, 30, 250.0, 35}, 1)

	_, rec, err := Analyze(s, metrics.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 25.0, rec.DeepSleepPct)      // -12.5
	assert.Equal(t, 25.0, rec.DisturbedPct)      // 250.0
	assert.Equal(t, -12.5, rec.MinDB)
	assert.Equal(t, 250.0, rec.MaxDB)
	assert.False(t, math.IsNaN(rec.StddevDB))
}
