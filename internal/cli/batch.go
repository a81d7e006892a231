package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"indicator-engine/internal/analysis/indicators"
	"indicator-engine/internal/analysis/series"
	"indicator-engine/internal/config"
	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/metrics"
	"indicator-engine/internal/models"
)

// addBatchCommands adds the batch evaluation command.
func addBatchCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBatchCmd(app))
}

type batchJobView struct {
	Name       string              `json:"name"`
	Indicator  string              `json:"indicator"`
	Begin      int                 `json:"begin"`
	Count      int                 `json:"count"`
	Last       map[string]*float64 `json:"last,omitempty"`
	DurationMS float64             `json:"duration_ms"`
	Error      string              `json:"error,omitempty"`
}

type batchView struct {
	Source  string           `json:"source"`
	Bars    int              `json:"bars"`
	Workers int              `json:"workers"`
	Jobs    []batchJobView   `json:"jobs"`
	Metrics []metrics.Sample `json:"metrics,omitempty"`
}

// buildJobs turns configured jobs into engine jobs over bars. Only the jobs
// named in only are built when it is non-empty.
func buildJobs(cfg *config.Config, bars models.Bars, only []string) ([]indicators.Job, error) {
	wanted := make(map[string]bool, len(only))
	for _, name := range only {
		wanted[name] = true
	}

	var jobs []indicators.Job
	for _, jc := range cfg.Jobs {
		if len(wanted) > 0 && !wanted[jc.Name] {
			continue
		}
		delete(wanted, jc.Name)

		kind, params, err := jc.Resolve()
		if err != nil {
			return nil, apperrors.Wrapf(err, "job %q", jc.Name)
		}
		ind, err := indicators.New(kind, params)
		if err != nil {
			return nil, apperrors.Wrapf(err, "job %q", jc.Name)
		}
		inputs, err := indicators.ResolveInputs(ind.Descriptor(), bars, cfg.PriceField(jc))
		if err != nil {
			return nil, apperrors.Wrapf(err, "job %q", jc.Name)
		}
		jobs = append(jobs, indicators.Job{
			Name:      jc.Name,
			Indicator: ind,
			Inputs:    inputs,
			Range:     series.Full(len(bars)),
		})
	}

	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for name := range wanted {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return nil, apperrors.Wrapf(apperrors.ErrConfigInvalid, "no job named %s", strings.Join(missing, ", "))
	}
	if len(jobs) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrConfigInvalid, "no jobs configured")
	}
	return jobs, nil
}

// lastValues returns each output's final value, or nil for an empty result.
func lastValues(job indicators.Job, r indicators.JobResult, precision int) map[string]*float64 {
	if r.Err != nil || r.Result.Len() == 0 {
		return nil
	}
	out := make(map[string]*float64)
	for o, name := range job.Indicator.Descriptor().Outputs {
		v, _ := r.Result.ValueAt(o, r.Result.End())
		out[name] = RoundValue(v, precision)
	}
	return out
}

func newBatchCmd(app *App) *cobra.Command {
	var src barSource

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Evaluate the configured jobs concurrently",
		Long: `Evaluate every [[jobs]] entry of config.toml over one bar set using a
pool of workers. Each job reports its first valid bar, the number of values
and the most recent value of every output.`,
		Example: `  indicators batch --symbol TCS --timeframe 1day
  indicators batch --csv bars.csv --job macd --job atr --metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			only, _ := cmd.Flags().GetStringArray("job")
			workers, _ := cmd.Flags().GetInt("workers")
			showMetrics, _ := cmd.Flags().GetBool("metrics")
			showMetrics = showMetrics || app.Config.Metrics.Enabled

			bars, source, err := app.loadBars(ctx, src)
			if err != nil {
				return err
			}
			jobs, err := buildJobs(app.Config, bars, only)
			if err != nil {
				return err
			}

			var m *metrics.Metrics
			if showMetrics {
				m = metrics.NewMetrics()
			}
			engine := app.Engine(workers, m)

			app.Logger.Info().Str("source", source).Int("bars", len(bars)).Int("jobs", len(jobs)).
				Int("workers", engine.Workers()).Msg("Batch started")
			results, runErr := engine.Run(ctx, jobs)

			precision := app.Config.Engine.Precision
			view := batchView{Source: source, Bars: len(bars), Workers: engine.Workers()}
			failed := 0
			for i, r := range results {
				jv := batchJobView{
					Name:       r.Name,
					Indicator:  indicators.Label(jobs[i].Indicator),
					Begin:      r.Result.Begin,
					Count:      r.Result.Len(),
					Last:       lastValues(jobs[i], r, precision),
					DurationMS: float64(r.Duration.Microseconds()) / 1000,
				}
				if r.Err != nil {
					jv.Error = r.Err.Error()
					failed++
				}
				view.Jobs = append(view.Jobs, jv)
			}

			if m != nil && output.IsJSON() {
				families, err := m.Gather()
				if err != nil {
					return err
				}
				view.Metrics = metrics.Samples(families)
			}

			if output.IsJSON() {
				if err := output.JSON(view); err != nil {
					return err
				}
			} else {
				output.Bold("%s  %d bars  %d jobs  %d workers", source, len(bars), len(jobs), engine.Workers())
				table := NewTable(output, "JOB", "INDICATOR", "FIRST", "VALUES", "LAST", "TIME")
				for i, jv := range view.Jobs {
					last := "-"
					switch {
					case jv.Error != "":
						last = "error: " + jv.Error
					case jv.Last != nil:
						last = formatLast(jobs[i], jv.Last, precision)
					}
					table.AddRow(jv.Name, jv.Indicator, fmt.Sprint(jv.Begin), fmt.Sprint(jv.Count), last,
						FormatDuration(results[i].Duration))
				}
				table.Render()

				if m != nil {
					output.Println()
					output.Bold("Metrics")
					if err := m.WriteText(output.Writer()); err != nil {
						return err
					}
				}
			}

			if runErr != nil {
				return runErr
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", failed, len(jobs))
			}
			return nil
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().StringArray("job", nil, "run only the named job (repeatable)")
	cmd.Flags().IntP("workers", "w", 0, "worker count (default from config)")
	cmd.Flags().Bool("metrics", false, "print Prometheus metrics after the run")

	return cmd
}

// formatLast renders the last values in output order.
func formatLast(job indicators.Job, last map[string]*float64, precision int) string {
	var parts []string
	for _, name := range job.Indicator.Descriptor().Outputs {
		s := "NaN"
		if v := last[name]; v != nil {
			s = FormatValue(*v, precision)
		}
		parts = append(parts, name+"="+s)
	}
	return strings.Join(parts, " ")
}
