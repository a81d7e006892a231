package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"indicator-engine/internal/analysis/indicators"
	"indicator-engine/internal/analysis/series"
	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/models"
)

// addIndicatorCommands adds indicator discovery and evaluation commands.
func addIndicatorCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDescribeCmd())
	rootCmd.AddCommand(newComputeCmd(app))
}

type paramView struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Range   string   `json:"range"`
	Default string   `json:"default"`
	Value   string   `json:"value,omitempty"`
	Choices []string `json:"choices,omitempty"`
}

type descriptorView struct {
	Name           string      `json:"name"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	Inputs         []string    `json:"inputs"`
	Params         []paramView `json:"params"`
	Outputs        []string    `json:"outputs"`
	Degenerate     string      `json:"degenerate"`
	RecalculateAll bool        `json:"recalculate_all"`
	Lookback       *int        `json:"lookback,omitempty"`
	Lookforward    *int        `json:"lookforward,omitempty"`
}

func viewDescriptor(d indicators.Descriptor) descriptorView {
	v := descriptorView{
		Name:           d.Name,
		Title:          d.Title,
		Description:    d.Description,
		Inputs:         inputNames(d.Inputs),
		Params:         make([]paramView, len(d.Params)),
		Outputs:        d.Outputs,
		Degenerate:     d.Degenerate.String(),
		RecalculateAll: d.RecalcAll,
	}
	for i, spec := range d.Params {
		v.Params[i] = paramView{
			Name:    spec.Name,
			Type:    spec.Type.String(),
			Range:   FormatParamRange(spec),
			Default: FormatParamValue(spec, spec.Default),
			Choices: spec.Choices,
		}
	}
	return v
}

func inputNames(inputs []indicators.Input) []string {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = string(in)
	}
	return names
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List available indicators",
		Example: "  indicators list\n  indicators list --json",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			descs := indicators.Descriptors()

			if output.IsJSON() {
				views := make([]descriptorView, len(descs))
				for i, d := range descs {
					views[i] = viewDescriptor(d)
				}
				return output.JSON(views)
			}

			table := NewTable(output, "NAME", "INPUTS", "PARAMS", "OUTPUTS", "TITLE")
			for _, d := range descs {
				params := make([]string, len(d.Params))
				for i, spec := range d.Params {
					params[i] = spec.Name
				}
				table.AddRow(
					d.Name,
					strings.Join(inputNames(d.Inputs), ","),
					strings.Join(params, ","),
					strings.Join(d.Outputs, ","),
					TruncateString(d.Title, 40),
				)
			}
			table.Render()
			return nil
		},
	}
}

// applyParams parses name=value assignments over the defaults of kind.
func applyParams(kind indicators.Kind, assignments []string) (indicators.Params, error) {
	params := indicators.DefaultParams(kind)
	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		if !ok {
			return params, apperrors.NewValidationError("param", a, "expected name=value")
		}
		if err := params.SetByName(strings.TrimSpace(name), strings.TrimSpace(value)); err != nil {
			return params, err
		}
	}
	return params, nil
}

// newIndicator resolves a kind name and parameter assignments into an instance.
func newIndicator(name string, assignments []string) (indicators.Indicator, error) {
	kind, err := indicators.ParseKind(name)
	if err != nil {
		return nil, err
	}
	params, err := applyParams(kind, assignments)
	if err != nil {
		return nil, err
	}
	return indicators.New(kind, params)
}

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <indicator>",
		Short: "Show an indicator's inputs, parameters and history requirements",
		Example: `  indicators describe MACD
  indicators describe BBANDS --param period=50 --param ma=ema`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			assignments, _ := cmd.Flags().GetStringArray("param")

			ind, err := newIndicator(args[0], assignments)
			if err != nil {
				return err
			}

			view := viewDescriptor(ind.Descriptor())
			lookback, lookforward := ind.Lookback(), ind.Lookforward()
			view.Lookback, view.Lookforward = &lookback, &lookforward
			params := ind.Params()
			for i, spec := range params.Specs() {
				view.Params[i].Value = FormatParamValue(spec, params.Float(i))
			}

			if output.IsJSON() {
				return output.JSON(view)
			}

			output.Bold("%s - %s", view.Name, view.Title)
			if view.Description != "" {
				output.Dim("%s", view.Description)
			}
			output.Println()
			output.Printf("  Inputs:       %s\n", strings.Join(view.Inputs, ", "))
			output.Printf("  Outputs:      %s\n", strings.Join(view.Outputs, ", "))
			output.Printf("  Lookback:     %d\n", lookback)
			output.Printf("  Lookforward:  %d\n", lookforward)
			output.Printf("  Degenerate:   %s\n", view.Degenerate)
			if view.RecalculateAll {
				output.Printf("  Recalculates from the first valid bar on every call\n")
			}
			output.Println()

			if len(view.Params) == 0 {
				output.Dim("No parameters")
				return nil
			}
			table := NewTable(output, "PARAM", "TYPE", "VALUE", "DEFAULT", "RANGE")
			for _, p := range view.Params {
				table.AddRow(p.Name, p.Type, p.Value, p.Default, p.Range)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringArrayP("param", "p", nil, "parameter assignment name=value (repeatable)")
	return cmd
}

type computeRow struct {
	Index  int                 `json:"index"`
	Time   string              `json:"time"`
	Values map[string]*float64 `json:"values"`
}

type computeView struct {
	Indicator   string       `json:"indicator"`
	Source      string       `json:"source"`
	Bars        int          `json:"bars"`
	Lookback    int          `json:"lookback"`
	Lookforward int          `json:"lookforward"`
	Begin       int          `json:"begin"`
	Count       int          `json:"count"`
	Rows        []computeRow `json:"rows"`
}

func newComputeCmd(app *App) *cobra.Command {
	var src barSource

	cmd := &cobra.Command{
		Use:   "compute <indicator>",
		Short: "Evaluate an indicator over bars",
		Long: `Evaluate an indicator over bars from a CSV file or the local store.

--start and --end select an inclusive range of bar indexes. Bars before the
indicator's lookback (and, for FRACTAL, after len-1-lookforward) produce no
values; a range that lies entirely inside that history yields an empty result.`,
		Example: `  indicators compute SMA --csv bars.csv --param period=20
  indicators compute MACD --symbol TCS --timeframe 1day --tail 10
  indicators compute BBANDS --csv bars.csv --price typical --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			assignments, _ := cmd.Flags().GetStringArray("param")
			priceName, _ := cmd.Flags().GetString("price")
			start, _ := cmd.Flags().GetInt("start")
			end, _ := cmd.Flags().GetInt("end")
			tail, _ := cmd.Flags().GetInt("tail")
			format, _ := cmd.Flags().GetString("format")
			if format != "table" && format != "csv" {
				return apperrors.NewValidationError("format", format, "must be table or csv")
			}

			ind, err := newIndicator(args[0], assignments)
			if err != nil {
				return err
			}
			if priceName == "" {
				priceName = app.Config.Engine.DefaultPrice
			}
			price, err := models.ParseField(priceName)
			if err != nil {
				return apperrors.NewValidationError("price", priceName, err.Error())
			}

			bars, source, err := app.loadBars(ctx, src)
			if err != nil {
				return err
			}
			inputs, err := indicators.ResolveInputs(ind.Descriptor(), bars, price)
			if err != nil {
				return err
			}

			rng := series.Full(len(bars))
			if start >= 0 {
				rng.Start = start
			}
			if end >= 0 {
				rng.End = end
			}

			res := app.Engine(1, nil).Evaluate(ctx, indicators.Job{
				Name:      "compute",
				Indicator: ind,
				Inputs:    inputs,
				Range:     rng,
			})
			if res.Err != nil {
				return res.Err
			}
			result := res.Result

			first := result.Begin
			if tail > 0 && result.Len() > tail {
				first = result.End() - tail + 1
			}
			outputs := ind.Descriptor().Outputs
			precision := app.Config.Engine.Precision

			if output.IsJSON() {
				view := computeView{
					Indicator:   indicators.Label(ind),
					Source:      source,
					Bars:        len(bars),
					Lookback:    ind.Lookback(),
					Lookforward: ind.Lookforward(),
					Begin:       result.Begin,
					Count:       result.Len(),
					Rows:        []computeRow{},
				}
				for i := first; i <= result.End(); i++ {
					row := computeRow{Index: i, Time: FormatTime(bars[i].Timestamp), Values: make(map[string]*float64, len(outputs))}
					for o, name := range outputs {
						v, _ := result.ValueAt(o, i)
						row.Values[name] = RoundValue(v, precision)
					}
					view.Rows = append(view.Rows, row)
				}
				return output.JSON(view)
			}

			if result.Len() == 0 {
				output.Warning("%s produced no values for bars %d..%d of %d (lookback %d, lookforward %d)",
					indicators.Label(ind), rng.Start, rng.End, len(bars), ind.Lookback(), ind.Lookforward())
				return nil
			}

			table := NewTable(output, append([]string{"index", "time"}, outputs...)...)
			for i := first; i <= result.End(); i++ {
				cells := []string{fmt.Sprint(i), FormatTime(bars[i].Timestamp)}
				for o := range outputs {
					v, _ := result.ValueAt(o, i)
					cells = append(cells, FormatValue(v, precision))
				}
				table.AddRow(cells...)
			}

			if format == "csv" {
				return table.RenderCSV()
			}
			output.Bold("%s  %s  (%d of %d bars, first index %d)", indicators.Label(ind), source, result.Len(), len(bars), result.Begin)
			table.Render()
			return nil
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().StringArrayP("param", "p", nil, "parameter assignment name=value (repeatable)")
	cmd.Flags().String("price", "", "bar field for price inputs (default from config)")
	cmd.Flags().Int("start", -1, "first bar index to evaluate (default: first bar)")
	cmd.Flags().Int("end", -1, "last bar index to evaluate (default: last bar)")
	cmd.Flags().Int("tail", 0, "print only the last n values (0 for all)")
	cmd.Flags().String("format", "table", "output format: table or csv")

	return cmd
}
