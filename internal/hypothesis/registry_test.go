package hypothesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sleepsense/domain/core"
	"sleepsense/domain/metrics"
	"sleepsense/domain/series"
)

// seriesWithNoise builds a series of n samples at 1s cadence where the
// first noisy samples sit at 45 dB and the rest at 30 dB.
func seriesWithNoise(n, noisy int) series.Series {
	samples := make([]series.Sample, n)
	for i := range samples {
		level := 30.0
		if i < noisy {
			level = 45.0
		}
		samples[i] = series.Sample{Offset: float64(i), LevelDB: level}
	}
	return series.New(samples)
}

func usage(min float64) *float64 { return &min }

func TestRegistryAdd(t *testing.T) {
	reg := NewRegistry(metrics.DefaultConfig())

	cond, err := reg.Add("A", seriesWithNoise(50, 1), usage(2))
	require.NoError(t, err)

	assert.Equal(t, core.ConditionName("A"), cond.Name)
	assert.Equal(t, 2.0, cond.Metrics.NoiseRatioPct)
	assert.Len(t, cond.Annotated, 50)
	assert.Equal(t, 2.0, *cond.PhoneUsageMinutes)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryAdd_EmptySeriesRejected(t *testing.T) {
	reg := NewRegistry(metrics.DefaultConfig())

	_, err := reg.Add("A", series.New(nil), nil)
	require.ErrorIs(t, err, core.ErrEmptySeries)
	assert.Zero(t, reg.Len())
}

func TestRegistryAdd_OverwriteKeepsOrder(t *testing.T) {
	reg := NewRegistry(metrics.DefaultConfig())

	_, err := reg.Add("A", seriesWithNoise(50, 1), nil)
	require.NoError(t, err)
	_, err = reg.Add("B", seriesWithNoise(50, 5), nil)
	require.NoError(t, err)

	// Re-registering A replaces its data without moving it to the back.
	_, err = reg.Add("A", seriesWithNoise(100, 50), usage(120))
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []core.ConditionName{"A", "B"}, reg.Names())

	a, err := reg.Get("A")
	require.NoError(t, err)
	assert.Equal(t, 50.0, a.Metrics.NoiseRatioPct)
	assert.Equal(t, 120.0, *a.PhoneUsageMinutes)
}

func TestRegistryGet_Unknown(t *testing.T) {
	reg := NewRegistry(metrics.DefaultConfig())

	_, err := reg.Get("Z")
	require.ErrorIs(t, err, core.ErrConditionNotFound)
}

func TestRegistryCompare_RequiresTwoConditions(t *testing.T) {
	reg := NewRegistry(metrics.DefaultConfig())
	_, err := reg.Add("A", seriesWithNoise(50, 1), nil)
	require.NoError(t, err)

	_, err = reg.Compare()
	require.ErrorIs(t, err, core.ErrInsufficientConditions)
}

func TestRegistryCompare(t *testing.T) {
	reg := NewRegistry(metrics.DefaultConfig())
	_, err := reg.Add("A", seriesWithNoise(50, 1), usage(2))
	require.NoError(t, err)
	_, err = reg.Add("B", seriesWithNoise(200, 17), usage(135))
	require.NoError(t, err)

	table, err := reg.Compare()
	require.NoError(t, err)
	require.Len(t, table, 2)

	a := table["A"]
	assert.Equal(t, 2.0, a.NoiseRatioPct)
	assert.Equal(t, 45.0, a.MaxDB)
	assert.Equal(t, 2.0, *a.PhoneUsageMinutes)

	b := table["B"]
	assert.Equal(t, 8.5, b.NoiseRatioPct)
	assert.Equal(t, 135.0, *b.PhoneUsageMinutes)
}
