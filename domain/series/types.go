package series

import (
	"sort"
)

// DefaultInterval is the fallback sampling interval in seconds when the
// true interval cannot be inferred from the data.
const DefaultInterval = 1.0

// Sample is a single sound-level reading. Offset is seconds since the
// start of the recording. LevelDB carries whatever the sensor reported;
// corrupt exports can produce negative or absurdly large values and the
// engine tolerates them.
type Sample struct {
	Offset  float64 `json:"offset_seconds"`
	LevelDB float64 `json:"level_db"`
}

// Series is an ordered sequence of samples plus the inferred sampling
// interval in seconds. Samples are always ascending by offset.
type Series struct {
	Samples  []Sample `json:"samples"`
	Interval float64  `json:"sampling_interval_seconds"`
}

// New builds a Series from raw samples. Input order is not trusted:
// samples are sorted by offset before the interval is inferred from the
// elapsed time between the first two samples. A non-positive or
// indeterminate gap falls back to DefaultInterval.
func New(samples []Sample) Series {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	interval := DefaultInterval
	if len(sorted) > 1 {
		if gap := sorted[1].Offset - sorted[0].Offset; gap > 0 {
			interval = gap
		}
	}

	return Series{Samples: sorted, Interval: interval}
}

// Len returns the number of samples.
func (s Series) Len() int {
	return len(s.Samples)
}

// IsEmpty reports whether the series has no samples.
func (s Series) IsEmpty() bool {
	return len(s.Samples) == 0
}

// Levels returns the raw dB values in order.
func (s Series) Levels() []float64 {
	out := make([]float64, len(s.Samples))
	for i, smp := range s.Samples {
		out[i] = smp.LevelDB
	}
	return out
}

// DurationSeconds is the total covered time assuming a uniform interval.
func (s Series) DurationSeconds() float64 {
	return float64(len(s.Samples)) * s.Interval
}

// AnnotatedSample is a Sample plus the flags derived by preprocessing.
// Annotation is one-to-one: an annotated series has the same length and
// order as its source Series.
type AnnotatedSample struct {
	Sample
	SmoothedDB float64 `json:"smoothed_db"`
	IsNoise    bool    `json:"is_noise"`
	IsREM      bool    `json:"is_rem"`
}

// NoiseSegment is a maximal run of consecutive noise-flagged samples.
// Segments are derived on demand and never stored.
type NoiseSegment struct {
	Length  int     `json:"length_samples"`
	Seconds float64 `json:"length_seconds"`
}

// NoiseSegments run-length-encodes the noise flags of an annotated
// series into maximal consecutive runs.
func NoiseSegments(annotated []AnnotatedSample, interval float64) []NoiseSegment {
	var segments []NoiseSegment
	run := 0
	for _, a := range annotated {
		if a.IsNoise {
			run++
			continue
		}
		if run > 0 {
			segments = append(segments, NoiseSegment{Length: run, Seconds: float64(run) * interval})
			run = 0
		}
	}
	if run > 0 {
		segments = append(segments, NoiseSegment{Length: run, Seconds: float64(run) * interval})
	}
	return segments
}
