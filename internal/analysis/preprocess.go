package analysis

import (
	"math"

	"sleepsense/domain/metrics"
	"sleepsense/domain/series"
)

// remWindow is the rolling-variability window in samples used by the
// REM heuristic. Fixed; the literature-derived variability bounds below
// were tuned against it.
const remWindow = 60

// REM variability bounds in dB, both strict. Quieter-than-average
// periods with moderate variability are treated as likely REM, as
// opposed to uniformly silent deep sleep or highly variable disturbed
// periods. A heuristic proxy, not a physiological measurement.
const (
	remStdLower = 1.5
	remStdUpper = 4.0
)

// Preprocess annotates every sample of the series with its smoothed
// level, noise flag and REM flag. The result is one-to-one with the
// input: same length, same order.
func Preprocess(s series.Series, cfg metrics.Config) []series.AnnotatedSample {
	levels := s.Levels()
	n := len(levels)

	smoothed := rollingMean(levels, cfg.SmoothingWindow)
	rollStd := rollingStd(levels, remWindow)
	mean := seriesMean(levels)

	annotated := make([]series.AnnotatedSample, n)
	for i, smp := range s.Samples {
		annotated[i] = series.AnnotatedSample{
			Sample:     smp,
			SmoothedDB: smoothed[i],
			IsNoise:    smp.LevelDB >= cfg.ThresholdDB,
			IsREM:      smp.LevelDB < mean && rollStd[i] > remStdLower && rollStd[i] < remStdUpper,
		}
	}
	return annotated
}

// rollingMean computes a centered moving average over [i-w/2, i+w/2]
// (integer division), clipped to the series bounds. Edges average
// whatever is available, so the output always matches the input length
// and window 1 is the identity.
func rollingMean(data []float64, window int) []float64 {
	n := len(data)
	out := make([]float64, n)
	if window < 1 {
		window = 1
	}
	half := window / 2
	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > n-1 {
			hi = n - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += data[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// rollingStd computes a centered rolling sample standard deviation with
// the same edge-clipping rule as rollingMean. A window holding a single
// sample has undefined variance and yields 0, which the strict REM
// lower bound then excludes.
func rollingStd(data []float64, window int) []float64 {
	n := len(data)
	out := make([]float64, n)
	half := window / 2
	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > n-1 {
			hi = n - 1
		}
		count := hi - lo + 1
		if count < 2 {
			out[i] = 0
			continue
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += data[j]
		}
		mean := sum / float64(count)
		ss := 0.0
		for j := lo; j <= hi; j++ {
			d := data[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(count-1))
	}
	return out
}

func seriesMean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}
