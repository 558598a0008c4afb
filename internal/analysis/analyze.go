package analysis

import (
	"sleepsense/domain/core"
	"sleepsense/domain/metrics"
	"sleepsense/domain/series"
)

// Analyze is the single entry point of the analysis core: it annotates
// the series and reduces it to an immutable metrics record in one pass.
// There is deliberately no way to obtain a Record except through this
// function - changing the threshold means calling Analyze again and
// replacing the record wholesale, so noise-derived fields can never go
// stale against the threshold that produced them.
func Analyze(s series.Series, cfg metrics.Config) ([]series.AnnotatedSample, metrics.Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, metrics.Record{}, err
	}
	if s.IsEmpty() {
		return nil, metrics.Record{}, core.ErrEmptySeries
	}

	annotated := Preprocess(s, cfg)
	record := computeRecord(s, annotated, cfg)
	return annotated, record, nil
}
