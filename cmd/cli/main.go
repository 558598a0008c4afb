package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sleepsense/adapters/ingest"
	"sleepsense/adapters/report"
	"sleepsense/domain/core"
	"sleepsense/domain/metrics"
	"sleepsense/domain/series"
	"sleepsense/internal/hypothesis"
	"sleepsense/internal/testkit"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "sleepsense",
		Short: "Sleep sound-level analysis and hypothesis testing",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newCompareCmd(),
		newHypothesesCmd(),
		newConvertCmd(),
		newGenerateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// analysisFlags are the config knobs shared by the analyzing commands.
type analysisFlags struct {
	thresholdDB           float64
	smoothingWindow       int
	significanceThreshold float64
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.thresholdDB, "threshold", metrics.DefaultThresholdDB, "Noise cutoff in dB")
	cmd.Flags().IntVar(&f.smoothingWindow, "window", metrics.DefaultSmoothingWindow, "Smoothing window in samples")
	cmd.Flags().Float64Var(&f.significanceThreshold, "significance", metrics.DefaultSignificanceThreshold, "A/B decision threshold in percentage points")
}

func (f *analysisFlags) config() metrics.Config {
	return metrics.Config{
		ThresholdDB:           f.thresholdDB,
		SmoothingWindow:       f.smoothingWindow,
		SignificanceThreshold: f.significanceThreshold,
	}
}

func newAnalyzeCmd() *cobra.Command {
	var flags analysisFlags
	var name string
	var out string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a single night of sound-level data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ingest.NewReader(args[0]).Read()
			if err != nil {
				return err
			}

			registry := hypothesis.NewRegistry(flags.config())
			cond, err := registry.Add(core.ConditionName(name), result.Series, nil)
			if err != nil {
				return err
			}

			md := report.Condition(name, cond.Metrics)
			if out != "" {
				if err := os.WriteFile(out, []byte(md), 0o644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				fmt.Printf("report written to %s\n", out)
				return nil
			}
			fmt.Print(md)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&name, "name", "A", "Condition label")
	cmd.Flags().StringVar(&out, "out", "", "Write the markdown report to this file instead of stdout")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var flags analysisFlags

	cmd := &cobra.Command{
		Use:   "compare [file:label[:usage-minutes]]...",
		Short: "Compare two or more analyzed conditions",
		Long: `Compare analyzed conditions side by side.

Each argument is a data file with a condition label and optional
pre-sleep phone-usage minutes, e.g.:

  sleepsense compare data/a.csv:A:10 data/b.csv:B:120`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadConditions(args, flags.config())
			if err != nil {
				return err
			}
			table, err := registry.Compare()
			if err != nil {
				return err
			}
			fmt.Print(report.Comparison(table))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newHypothesesCmd() *cobra.Command {
	var flags analysisFlags
	var out string

	cmd := &cobra.Command{
		Use:   "hypotheses [file:label[:usage-minutes]]...",
		Short: "Run both hypothesis tests over the given conditions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadConditions(args, flags.config())
			if err != nil {
				return err
			}

			engine := hypothesis.NewEngine(registry)
			noise, err := engine.TestNoiseHypothesis()
			if err != nil {
				return err
			}

			var usage *hypothesis.UsageResult
			if u, err := engine.TestUsageHypothesis(flags.significanceThreshold); err == nil {
				usage = &u
			}

			var table metrics.ComparisonTable
			if registry.Len() >= 2 {
				table, _ = registry.Compare()
			}

			md := report.Hypotheses(table, noise, usage)
			if out != "" {
				if err := os.WriteFile(out, []byte(md), 0o644); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				fmt.Printf("report written to %s\n", out)
				return nil
			}
			fmt.Print(md)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Write the markdown report to this file instead of stdout")
	return cmd
}

func newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Convert a dBMeter export to a standard Time,dB CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ingest.ConvertDBMeter(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("converted %s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var dir string
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate synthetic sample nights for conditions A, B and C",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			gen := testkit.NewGenerator(seed)
			profiles := []testkit.NightProfile{
				testkit.ProfileBaseline,
				testkit.ProfileHeavyUse,
				testkit.ProfileLowUse,
			}
			for _, profile := range profiles {
				s := gen.Night(profile)
				path := filepath.Join(dir, fmt.Sprintf("sample_sleep_data_%s.csv", profile.Condition))
				if err := writeSeriesCSV(path, s); err != nil {
					return err
				}
				fmt.Printf("condition %s: %d samples -> %s\n", profile.Condition, s.Len(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "data", "Output directory")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic generation")
	return cmd
}

// conditionSpec is one parsed file:label[:usage] argument.
type conditionSpec struct {
	path  string
	label core.ConditionName
	usage *float64
}

// loadConditions reads all condition files concurrently (each file is
// independent) and then registers them serially - the registry itself
// assumes a single caller.
func loadConditions(args []string, cfg metrics.Config) (*hypothesis.Registry, error) {
	specs := make([]conditionSpec, len(args))
	for i, arg := range args {
		spec, err := parseConditionArg(arg)
		if err != nil {
			return nil, err
		}
		specs[i] = spec
	}

	loaded := make([]series.Series, len(specs))
	var g errgroup.Group
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			result, err := ingest.NewReader(spec.path).Read()
			if err != nil {
				return err
			}
			loaded[i] = result.Series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	registry := hypothesis.NewRegistry(cfg)
	for i, spec := range specs {
		if _, err := registry.Add(spec.label, loaded[i], spec.usage); err != nil {
			return nil, fmt.Errorf("condition %s: %w", spec.label, err)
		}
	}
	return registry, nil
}

func parseConditionArg(arg string) (conditionSpec, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return conditionSpec{}, fmt.Errorf("invalid condition argument %q (want file:label[:usage-minutes])", arg)
	}
	label, err := core.ParseConditionName(parts[1])
	if err != nil {
		return conditionSpec{}, err
	}
	spec := conditionSpec{path: parts[0], label: label}
	if len(parts) == 3 {
		usage, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return conditionSpec{}, fmt.Errorf("invalid usage minutes in %q: %w", arg, err)
		}
		spec.usage = &usage
	}
	return spec, nil
}

func writeSeriesCSV(path string, s series.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Time", "dB"}); err != nil {
		return err
	}
	// Synthetic nights start at 23:30 like the real recordings.
	const startOfNight = 23*3600 + 30*60
	for _, smp := range s.Samples {
		secs := (startOfNight + int(smp.Offset)) % (24 * 3600)
		clock := fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
		if err := w.Write([]string{clock, strconv.FormatFloat(smp.LevelDB, 'f', 1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
