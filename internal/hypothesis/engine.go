package hypothesis

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"sleepsense/domain/core"
)

// Decision is the outcome of the fixed two-group threshold test.
type Decision string

const (
	DecisionSupported Decision = "supported"
	DecisionRejected  Decision = "rejected"
)

// Conditions A and B are the baseline and pre-sleep-usage nights of the
// original experiment design; the two-group decision only applies when
// both are present.
const (
	ConditionA core.ConditionName = "A"
	ConditionB core.ConditionName = "B"
)

// NoiseResult reports the descriptive noise hypothesis: high-dB spans
// during sleep indicate tossing or arousal. Not a statistical test.
type NoiseResult struct {
	Hypothesis        string                         `json:"hypothesis"`
	ThresholdDB       float64                        `json:"threshold_db"`
	NoiseRatioByCond  map[core.ConditionName]float64 `json:"noise_ratio_by_condition"`
	MeanNoiseRatioPct float64                        `json:"mean_noise_ratio_pct"`
}

// UsageResult reports the comparative usage hypothesis: longer
// pre-sleep phone/game time raises the noise ratio. The Pearson block
// is populated only when at least two conditions carry usage data; the
// A/B decision only when both labels exist. The decision is a fixed
// percentage-point threshold test, deliberately separate from the
// Pearson p-value - with two or three nights per arm it carries no
// claim of statistical validity.
type UsageResult struct {
	Hypothesis          string    `json:"hypothesis"`
	PhoneUsageMinutes   []float64 `json:"phone_usage_minutes"`
	NoiseRatiosPct      []float64 `json:"noise_ratios_pct"`
	PearsonR            *float64  `json:"pearson_r,omitempty"`
	PValue              *float64  `json:"p_value,omitempty"`
	NoiseRatioA         *float64  `json:"noise_ratio_a,omitempty"`
	NoiseRatioB         *float64  `json:"noise_ratio_b,omitempty"`
	DifferencePctPoints *float64  `json:"difference_pct_points,omitempty"`
	Decision            Decision  `json:"decision,omitempty"`
}

// Engine runs the two fixed analyses over a condition registry.
type Engine struct {
	registry *Registry
}

// NewEngine creates a hypothesis engine over the given registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// TestNoiseHypothesis reports the mean noise ratio across all
// registered conditions. Requires at least one condition.
func (e *Engine) TestNoiseHypothesis() (NoiseResult, error) {
	names := e.registry.Names()
	if len(names) == 0 {
		return NoiseResult{}, core.ErrInsufficientConditions
	}

	result := NoiseResult{
		Hypothesis:       "High-dB spans during sleep indicate tossing or arousal",
		ThresholdDB:      e.registry.Config().ThresholdDB,
		NoiseRatioByCond: make(map[core.ConditionName]float64, len(names)),
	}

	sum := 0.0
	for _, name := range names {
		cond, err := e.registry.Get(name)
		if err != nil {
			return NoiseResult{}, err
		}
		result.NoiseRatioByCond[name] = cond.Metrics.NoiseRatioPct
		sum += cond.Metrics.NoiseRatioPct
	}
	result.MeanNoiseRatioPct = sum / float64(len(names))
	return result, nil
}

// TestUsageHypothesis correlates pre-sleep usage minutes with noise
// ratios and, when conditions A and B both exist, applies the two-group
// threshold decision. Returns ErrInsufficientUsageData when neither
// analysis has enough data.
func (e *Engine) TestUsageHypothesis(significanceThreshold float64) (UsageResult, error) {
	result := UsageResult{
		Hypothesis: "Longer pre-sleep phone/game usage raises the noise-span ratio",
	}

	for _, name := range e.registry.Names() {
		cond, err := e.registry.Get(name)
		if err != nil {
			return UsageResult{}, err
		}
		if cond.PhoneUsageMinutes == nil {
			continue
		}
		result.PhoneUsageMinutes = append(result.PhoneUsageMinutes, *cond.PhoneUsageMinutes)
		result.NoiseRatiosPct = append(result.NoiseRatiosPct, cond.Metrics.NoiseRatioPct)
	}

	if len(result.PhoneUsageMinutes) >= 2 {
		r, p := pearsonWithPValue(result.PhoneUsageMinutes, result.NoiseRatiosPct)
		result.PearsonR = &r
		result.PValue = &p
	}

	condA, errA := e.registry.Get(ConditionA)
	condB, errB := e.registry.Get(ConditionB)
	if errA == nil && errB == nil {
		a := condA.Metrics.NoiseRatioPct
		b := condB.Metrics.NoiseRatioPct
		diff := b - a
		result.NoiseRatioA = &a
		result.NoiseRatioB = &b
		result.DifferencePctPoints = &diff
		if math.Abs(diff) >= significanceThreshold {
			result.Decision = DecisionSupported
		} else {
			result.Decision = DecisionRejected
		}
	}

	if result.PearsonR == nil && result.DifferencePctPoints == nil {
		return UsageResult{}, core.ErrInsufficientUsageData
	}
	return result, nil
}

// pearsonWithPValue computes Pearson's r and a two-tailed p-value via
// the t transform t = r*sqrt((n-2)/(1-r^2)) against Student's t with
// n-2 degrees of freedom.
func pearsonWithPValue(x, y []float64) (float64, float64) {
	r, err := stats.Pearson(x, y)
	if err != nil || math.IsNaN(r) {
		return 0, 1.0
	}

	// Clamp against floating-point drift before the t transform.
	if r > 1.0 {
		r = 1.0
	} else if r < -1.0 {
		r = -1.0
	}

	n := len(x)
	if n <= 2 {
		// Two points always correlate perfectly; df = 0 gives no test.
		return r, 1.0
	}
	if 1-r*r <= 0 {
		return r, 0.0
	}

	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - tDist.CDF(math.Abs(t)))
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return r, p
}
