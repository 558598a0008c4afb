package analysis

import (
	"github.com/montanaflynn/stats"

	"sleepsense/domain/core"
	"sleepsense/domain/metrics"
	"sleepsense/domain/series"
)

// Sleep-stage band boundaries in dB. Fixed, literature-derived
// (Sleep Foundation / NIH sleep research), non-overlapping, covering
// all reals:
//
//	deep      < 30
//	light     [30, 35)
//	restless  [35, 40)
//	disturbed >= 40
const (
	bandDeepUpper     = 30.0
	bandLightUpper    = 35.0
	bandRestlessUpper = 40.0
)

// computeRecord reduces an annotated series to a metrics record. The
// caller guarantees the series is non-empty.
func computeRecord(s series.Series, annotated []series.AnnotatedSample, cfg metrics.Config) metrics.Record {
	levels := s.Levels()
	total := len(levels)

	mean, _ := stats.Mean(levels)
	max, _ := stats.Max(levels)
	min, _ := stats.Min(levels)
	stddev, _ := stats.StandardDeviationSample(levels)

	noiseCount := 0
	remCount := 0
	for _, a := range annotated {
		if a.IsNoise {
			noiseCount++
		}
		if a.IsREM {
			remCount++
		}
	}

	rec := metrics.Record{
		ID:          core.RecordID(core.NewID()),
		ThresholdDB: cfg.ThresholdDB,
		ComputedAt:  core.Now(),

		TotalSamples:         total,
		TotalDurationMinutes: float64(total) * s.Interval / 60,

		NoiseSampleCount: noiseCount,
		NoiseRatioPct:    float64(noiseCount) / float64(total) * 100,

		MeanDB:   mean,
		MaxDB:    max,
		MinDB:    min,
		StddevDB: stddev,

		REMSleepPct: float64(remCount) / float64(total) * 100,
	}

	rec.AvgNoiseStreakSeconds, rec.MaxNoiseStreakSeconds = streakStats(annotated, s.Interval)
	rec.FirstHourNoiseRatioPct = firstHourNoiseRatio(annotated, s.Interval)
	rec.DeepSleepPct, rec.LightSleepPct, rec.RestlessPct, rec.DisturbedPct = bandPercentages(levels)
	rec.HourlyQuality = hourlyQuality(s)

	return rec
}

// streakStats run-length-encodes the noise flags and converts run
// lengths to seconds. A series with no noise yields 0 for both values -
// no division by zero.
func streakStats(annotated []series.AnnotatedSample, interval float64) (avgSeconds, maxSeconds float64) {
	segments := series.NoiseSegments(annotated, interval)
	if len(segments) == 0 {
		return 0, 0
	}
	sum := 0
	longest := 0
	for _, seg := range segments {
		sum += seg.Length
		if seg.Length > longest {
			longest = seg.Length
		}
	}
	avgSeconds = float64(sum) / float64(len(segments)) * interval
	maxSeconds = float64(longest) * interval
	return avgSeconds, maxSeconds
}

// firstHourNoiseRatio looks at the first floor(3600/interval) samples
// by position, clamped to the series length. The series starts at sleep
// onset, so position is the right clock here.
func firstHourNoiseRatio(annotated []series.AnnotatedSample, interval float64) float64 {
	n := int(3600 / interval)
	if n < 1 {
		n = 1
	}
	if n > len(annotated) {
		n = len(annotated)
	}
	noise := 0
	for _, a := range annotated[:n] {
		if a.IsNoise {
			noise++
		}
	}
	return float64(noise) / float64(n) * 100
}

// bandPercentages classifies every sample into exactly one of the four
// sleep-stage bands. The four percentages sum to 100 up to float
// rounding.
func bandPercentages(levels []float64) (deep, light, restless, disturbed float64) {
	var nDeep, nLight, nRestless, nDisturbed int
	for _, db := range levels {
		switch {
		case db < bandDeepUpper:
			nDeep++
		case db < bandLightUpper:
			nLight++
		case db < bandRestlessUpper:
			nRestless++
		default:
			nDisturbed++
		}
	}
	total := float64(len(levels))
	return float64(nDeep) / total * 100,
		float64(nLight) / total * 100,
		float64(nRestless) / total * 100,
		float64(nDisturbed) / total * 100
}

// hourlyQuality buckets samples by floor(elapsed hours) and computes
// per-bucket mean level plus the deep and restless band shares local to
// the bucket. Hours without samples are absent, not zero-filled.
func hourlyQuality(s series.Series) []metrics.HourBucket {
	type acc struct {
		sum      float64
		count    int
		deep     int
		restless int
	}

	accs := make(map[int]*acc)
	maxHour := 0
	for i, smp := range s.Samples {
		hour := int(float64(i) * s.Interval / 3600)
		a, ok := accs[hour]
		if !ok {
			a = &acc{}
			accs[hour] = a
		}
		a.sum += smp.LevelDB
		a.count++
		if smp.LevelDB < bandDeepUpper {
			a.deep++
		}
		if smp.LevelDB >= bandLightUpper && smp.LevelDB < bandRestlessUpper {
			a.restless++
		}
		if hour > maxHour {
			maxHour = hour
		}
	}

	buckets := make([]metrics.HourBucket, 0, len(accs))
	for hour := 0; hour <= maxHour; hour++ {
		a, ok := accs[hour]
		if !ok {
			continue
		}
		buckets = append(buckets, metrics.HourBucket{
			HourIndex:    hour,
			AvgDB:        a.sum / float64(a.count),
			DeepSleepPct: float64(a.deep) / float64(a.count) * 100,
			RestlessPct:  float64(a.restless) / float64(a.count) * 100,
		})
	}
	return buckets
}
