package testkit

import (
	"math"
	"math/rand"

	"sleepsense/domain/series"
)

// NightProfile shapes a synthetic night for one experimental condition.
type NightProfile struct {
	Condition     string
	DurationHours float64
	// TossProbability is the per-sample chance of a toss/turn spike.
	TossProbability float64
}

// Profiles matching the original experiment arms: A is a baseline
// night, B follows two hours of pre-sleep phone use, C keeps usage
// minimal.
var (
	ProfileBaseline = NightProfile{Condition: "A", DurationHours: 7.5, TossProbability: 0.008}
	ProfileHeavyUse = NightProfile{Condition: "B", DurationHours: 7.5, TossProbability: 0.015}
	ProfileLowUse   = NightProfile{Condition: "C", DurationHours: 7.75, TossProbability: 0.005}
)

// Generator produces deterministic synthetic sleep-night series for
// tests and demos.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with the given seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Cadence of the simulated sound meter in seconds.
const sampleInterval = 5.0

// baseNoise is the ambient background level in dB.
const baseNoise = 32.0

// Night generates a full synthetic night for the profile: background
// noise around 32 dB with condition-shaped phases and random toss
// spikes, floored at 25 dB the way a real meter bottoms out.
func (g *Generator) Night(profile NightProfile) series.Series {
	numSamples := int(profile.DurationHours * 3600 / sampleInterval)
	samples := make([]series.Sample, numSamples)

	for i := 0; i < numSamples; i++ {
		progress := float64(i) / float64(numSamples)
		db := baseNoise + g.normal(0, 2)
		db += g.phaseAdjustment(profile.Condition, progress)

		if g.rng.Float64() < profile.TossProbability {
			db += g.uniform(10, 20)
		}
		// Occasional snoring/breathing, very faint
		if g.rng.Float64() < 0.02 {
			db += g.uniform(2, 5)
		}
		// External noise, very rare
		if g.rng.Float64() < 0.002 {
			db += g.uniform(5, 12)
		}

		if db < 25 {
			db = 25
		}

		samples[i] = series.Sample{
			Offset:  float64(i) * sampleInterval,
			LevelDB: math.Round(db*10) / 10,
		}
	}
	return series.New(samples)
}

// Flat generates a constant-level series, useful for boundary tests.
func (g *Generator) Flat(n int, levelDB, interval float64) series.Series {
	samples := make([]series.Sample, n)
	for i := range samples {
		samples[i] = series.Sample{Offset: float64(i) * interval, LevelDB: levelDB}
	}
	return series.New(samples)
}

// phaseAdjustment shapes the night by condition: B-nights settle slowly
// and wake restlessly, C-nights settle fast and stay in deep sleep
// longer.
func (g *Generator) phaseAdjustment(condition string, progress float64) float64 {
	switch condition {
	case "B":
		switch {
		case progress < 0.2:
			return g.normal(3, 1.5)
		case progress > 0.3 && progress < 0.7:
			return g.normal(0.5, 0.8)
		case progress > 0.8:
			return g.normal(2, 1.5)
		}
	case "C":
		switch {
		case progress < 0.1:
			return g.normal(1, 0.8)
		case progress > 0.2 && progress < 0.75:
			return -g.normal(2, 0.5)
		case progress > 0.9:
			return g.normal(1, 0.8)
		}
	default: // baseline
		switch {
		case progress < 0.15:
			return g.normal(2, 1)
		case progress > 0.3 && progress < 0.7:
			return -g.normal(1, 0.5)
		case progress > 0.85:
			return g.normal(1.5, 1)
		}
	}
	return 0
}

func (g *Generator) normal(mean, stddev float64) float64 {
	return mean + g.rng.NormFloat64()*stddev
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}
