package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNightDeterminism(t *testing.T) {
	a := NewGenerator(42).Night(ProfileBaseline)
	b := NewGenerator(42).Night(ProfileBaseline)

	require.Equal(t, len(a.Samples), len(b.Samples))
	assert.Equal(t, a.Samples, b.Samples)
}

func TestNightShape(t *testing.T) {
	s := NewGenerator(1).Night(ProfileHeavyUse)

	assert.Len(t, s.Samples, int(7.5*3600/sampleInterval))
	assert.Equal(t, sampleInterval, s.Interval)

	for _, smp := range s.Samples {
		require.GreaterOrEqual(t, smp.LevelDB, 25.0)
		require.Less(t, smp.LevelDB, 90.0)
	}
	assert.Equal(t, 0.0, s.Samples[0].Offset)
}

func TestNightProfilesDiffer(t *testing.T) {
	gen := NewGenerator(7)
	heavy := gen.Night(ProfileHeavyUse)
	low := gen.Night(ProfileLowUse)

	assert.InDelta(t, 7.5*3600, heavy.DurationSeconds(), sampleInterval)
	assert.InDelta(t, 7.75*3600, low.DurationSeconds(), sampleInterval)

	// The heavy-use profile spikes more often, so its mean level sits
	// above the low-use night.
	assert.Greater(t, mean(heavy.Levels()), mean(low.Levels()))
}

func TestFlat(t *testing.T) {
	s := NewGenerator(0).Flat(4, 31.5, 5)

	require.Len(t, s.Samples, 4)
	assert.Equal(t, 5.0, s.Interval)
	for _, smp := range s.Samples {
		assert.Equal(t, 31.5, smp.LevelDB)
	}
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
