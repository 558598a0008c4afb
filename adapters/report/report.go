// Package report formats metrics records and hypothesis results as
// markdown. It is a pure presentation layer: everything it prints comes
// out of the analysis core unchanged.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"sleepsense/domain/core"
	"sleepsense/domain/metrics"
	"sleepsense/internal/hypothesis"
)

// Condition renders a single condition's metrics record.
func Condition(name string, rec metrics.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Sleep Pattern Report - Condition %s\n\n", name)
	fmt.Fprintf(&b, "Analyzed: %s  \n", rec.ComputedAt.Time().Format(time.RFC3339))
	fmt.Fprintf(&b, "Noise threshold: %.1f dB\n\n", rec.ThresholdDB)

	b.WriteString("## Measurement\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Samples | %d |\n", rec.TotalSamples)
	fmt.Fprintf(&b, "| Duration | %.1f min |\n", rec.TotalDurationMinutes)
	fmt.Fprintf(&b, "| Mean level | %.2f dB |\n", rec.MeanDB)
	fmt.Fprintf(&b, "| Max level | %.2f dB |\n", rec.MaxDB)
	fmt.Fprintf(&b, "| Min level | %.2f dB |\n", rec.MinDB)
	fmt.Fprintf(&b, "| Std deviation | %.2f dB |\n\n", rec.StddevDB)

	b.WriteString("## Noise\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Noise samples | %d |\n", rec.NoiseSampleCount)
	fmt.Fprintf(&b, "| Noise ratio | %.2f%% |\n", rec.NoiseRatioPct)
	fmt.Fprintf(&b, "| Avg noise streak | %.1f s |\n", rec.AvgNoiseStreakSeconds)
	fmt.Fprintf(&b, "| Longest noise streak | %.1f s |\n", rec.MaxNoiseStreakSeconds)
	fmt.Fprintf(&b, "| First-hour noise ratio | %.2f%% |\n\n", rec.FirstHourNoiseRatioPct)

	b.WriteString("## Sleep stages\n\n")
	fmt.Fprintf(&b, "| Stage | Share |\n|---|---|\n")
	fmt.Fprintf(&b, "| Deep (<30 dB) | %.2f%% |\n", rec.DeepSleepPct)
	fmt.Fprintf(&b, "| Light (30-35 dB) | %.2f%% |\n", rec.LightSleepPct)
	fmt.Fprintf(&b, "| Restless (35-40 dB) | %.2f%% |\n", rec.RestlessPct)
	fmt.Fprintf(&b, "| Disturbed (>=40 dB) | %.2f%% |\n", rec.DisturbedPct)
	fmt.Fprintf(&b, "| REM (estimated) | %.2f%% |\n\n", rec.REMSleepPct)

	if len(rec.HourlyQuality) > 0 {
		b.WriteString("## Hourly quality\n\n")
		fmt.Fprintf(&b, "| Hour | Avg dB | Deep %% | Restless %% |\n|---|---|---|---|\n")
		for _, h := range rec.HourlyQuality {
			fmt.Fprintf(&b, "| %d | %.2f | %.2f | %.2f |\n", h.HourIndex, h.AvgDB, h.DeepSleepPct, h.RestlessPct)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Comparison renders the cross-condition table.
func Comparison(table metrics.ComparisonTable) string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name.String())
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("# Condition Comparison\n\n")
	b.WriteString("| Condition | Noise % | Mean dB | Max dB | Avg streak (s) | First-hour noise % | Phone use (min) |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, name := range names {
		row := table[core.ConditionName(name)]
		usage := "-"
		if row.PhoneUsageMinutes != nil {
			usage = fmt.Sprintf("%.0f", *row.PhoneUsageMinutes)
		}
		fmt.Fprintf(&b, "| %s | %.2f | %.2f | %.2f | %.1f | %.2f | %s |\n",
			name, row.NoiseRatioPct, row.MeanDB, row.MaxDB,
			row.AvgNoiseStreakSeconds, row.FirstHourNoiseRatioPct, usage)
	}
	b.WriteString("\n")
	return b.String()
}

// Hypotheses renders the final hypothesis report, mirroring the
// comparison table followed by both test outcomes.
func Hypotheses(table metrics.ComparisonTable, noise hypothesis.NoiseResult, usage *hypothesis.UsageResult) string {
	var b strings.Builder
	b.WriteString("# Hypothesis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format(time.RFC3339))

	if table != nil {
		b.WriteString(Comparison(table))
	}

	b.WriteString("## Hypothesis 1 (descriptive)\n\n")
	fmt.Fprintf(&b, "%s.\n\n", noise.Hypothesis)
	fmt.Fprintf(&b, "Mean noise ratio across %d condition(s): **%.2f%%** at threshold %.1f dB.\n\n",
		len(noise.NoiseRatioByCond), noise.MeanNoiseRatioPct, noise.ThresholdDB)

	b.WriteString("## Hypothesis 2 (comparative)\n\n")
	if usage == nil {
		b.WriteString("Not enough conditions carry phone-usage data for the comparative test.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%s.\n\n", usage.Hypothesis)
	if usage.PearsonR != nil {
		fmt.Fprintf(&b, "Pearson r between usage minutes and noise ratio: **%.3f** (p = %.3f, n = %d).\n\n",
			*usage.PearsonR, *usage.PValue, len(usage.PhoneUsageMinutes))
	}
	if usage.DifferencePctPoints != nil {
		fmt.Fprintf(&b, "Condition A noise ratio %.2f%%, condition B %.2f%%: difference **%+.2f** percentage points.\n\n",
			*usage.NoiseRatioA, *usage.NoiseRatioB, *usage.DifferencePctPoints)
		fmt.Fprintf(&b, "Decision: **%s** (fixed threshold test, not a formal significance test).\n", usage.Decision)
	}
	return b.String()
}
