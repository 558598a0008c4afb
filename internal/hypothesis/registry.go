package hypothesis

import (
	"sleepsense/domain/core"
	"sleepsense/domain/metrics"
	"sleepsense/domain/series"
	"sleepsense/internal/analysis"
)

// Condition is one named, independently analyzed dataset representing
// an experimental scenario (usage pattern A/B/C or arbitrary). It
// exclusively owns its series, annotations and metrics record.
type Condition struct {
	Name      core.ConditionName       `json:"name"`
	Series    series.Series            `json:"-"`
	Annotated []series.AnnotatedSample `json:"-"`
	Metrics   metrics.Record           `json:"metrics"`
	// PhoneUsageMinutes is pre-sleep device usage, when the experiment
	// log recorded it for this condition.
	PhoneUsageMinutes *float64 `json:"phone_usage_minutes,omitempty"`
}

// Registry holds the analyzed conditions of one experiment. Not safe
// for concurrent use; callers serialize access themselves.
type Registry struct {
	cfg        metrics.Config
	conditions map[core.ConditionName]*Condition
	order      []core.ConditionName
}

// NewRegistry creates a registry using the given analysis config for
// every condition it admits.
func NewRegistry(cfg metrics.Config) *Registry {
	return &Registry{
		cfg:        cfg,
		conditions: make(map[core.ConditionName]*Condition),
	}
}

// Config returns the analysis configuration applied to every condition.
func (r *Registry) Config() metrics.Config {
	return r.cfg
}

// Add analyzes the series and stores the result under the given name,
// overwriting any prior condition with the same name. Preprocessing and
// statistics always run together here, so a stored condition can never
// carry metrics computed under a different threshold than its flags.
func (r *Registry) Add(name core.ConditionName, s series.Series, phoneUsageMinutes *float64) (*Condition, error) {
	annotated, record, err := analysis.Analyze(s, r.cfg)
	if err != nil {
		return nil, err
	}

	cond := &Condition{
		Name:              name,
		Series:            s,
		Annotated:         annotated,
		Metrics:           record,
		PhoneUsageMinutes: phoneUsageMinutes,
	}

	if _, exists := r.conditions[name]; !exists {
		r.order = append(r.order, name)
	}
	r.conditions[name] = cond
	return cond, nil
}

// Get returns the condition stored under name.
func (r *Registry) Get(name core.ConditionName) (*Condition, error) {
	cond, ok := r.conditions[name]
	if !ok {
		return nil, core.NewConditionNotFoundError(name.String())
	}
	return cond, nil
}

// Names returns the condition names in insertion order.
func (r *Registry) Names() []core.ConditionName {
	out := make([]core.ConditionName, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered conditions.
func (r *Registry) Len() int {
	return len(r.conditions)
}

// Compare extracts the fixed metric subset for every condition into a
// table keyed by condition name. Requires at least two conditions.
func (r *Registry) Compare() (metrics.ComparisonTable, error) {
	if len(r.conditions) < 2 {
		return nil, core.ErrInsufficientConditions
	}

	table := make(metrics.ComparisonTable, len(r.conditions))
	for name, cond := range r.conditions {
		table[name] = metrics.ComparisonRow{
			NoiseRatioPct:          cond.Metrics.NoiseRatioPct,
			MeanDB:                 cond.Metrics.MeanDB,
			MaxDB:                  cond.Metrics.MaxDB,
			AvgNoiseStreakSeconds:  cond.Metrics.AvgNoiseStreakSeconds,
			FirstHourNoiseRatioPct: cond.Metrics.FirstHourNoiseRatioPct,
			PhoneUsageMinutes:      cond.PhoneUsageMinutes,
		}
	}
	return table, nil
}
