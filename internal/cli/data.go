package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/logging"
	"indicator-engine/internal/models"
	"indicator-engine/internal/store"
)

// addDataCommands adds bar import and inspection commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newBarsCmd(app))
	rootCmd.AddCommand(newSeriesCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
}

// barSource selects bars from a CSV file or a stored series.
type barSource struct {
	csv       string
	symbol    string
	timeframe string
	from      string
	to        string
}

func addSourceFlags(cmd *cobra.Command, src *barSource) {
	cmd.Flags().StringVar(&src.csv, "csv", "", "read bars from a CSV file (time,open,high,low,close,volume)")
	cmd.Flags().StringVarP(&src.symbol, "symbol", "s", "", "read bars of a stored symbol")
	cmd.Flags().StringVarP(&src.timeframe, "timeframe", "t", "1day", "timeframe of the stored series")
	cmd.Flags().StringVar(&src.from, "from", "", "first bar time to read from the store (date or RFC3339)")
	cmd.Flags().StringVar(&src.to, "to", "", "last bar time to read from the store (date or RFC3339)")
	cmd.MarkFlagsMutuallyExclusive("csv", "symbol")
}

// loadBars reads the bars src selects and returns them with a printable
// description of the source.
func (a *App) loadBars(ctx context.Context, src barSource) (models.Bars, string, error) {
	logger := logging.WithOperation(a.Logger, "load_bars")

	if src.csv != "" {
		bars, err := store.LoadBarsFile(src.csv)
		if err != nil {
			return nil, "", err
		}
		logger.Debug().Str("file", src.csv).Int("bars", len(bars)).Msg("Bars loaded from CSV")
		return bars, filepath.Base(src.csv), nil
	}

	if src.symbol == "" {
		return nil, "", apperrors.NewValidationError("source", "", "either --csv or --symbol is required")
	}
	from, err := parseTimeFlag("from", src.from)
	if err != nil {
		return nil, "", err
	}
	to, err := parseTimeFlag("to", src.to)
	if err != nil {
		return nil, "", err
	}

	s, err := a.Store()
	if err != nil {
		return nil, "", err
	}
	symbol := strings.ToUpper(src.symbol)
	bars, err := s.GetBars(ctx, symbol, src.timeframe, from, to)
	if err != nil {
		return nil, "", err
	}
	symLogger := logging.WithSymbol(logger, symbol)
	symLogger.Debug().Str("timeframe", src.timeframe).Int("bars", len(bars)).Msg("Bars loaded from store")
	return bars, symbol + "/" + src.timeframe, nil
}

var timeFlagLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// parseTimeFlag parses a date or timestamp flag; empty means unbounded.
func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeFlagLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperrors.NewValidationError(name, value, "expected YYYY-MM-DD, 'YYYY-MM-DD HH:MM:SS' or RFC3339")
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bars from a CSV file into the local store",
		Long: `Import OHLCV bars from a CSV file into the SQLite store.

The file needs the header time,open,high,low,close,volume. Times may be
RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD' and must be strictly
increasing. Bars already stored at the same time are replaced.`,
		Example: `  indicators import --csv tcs.csv --symbol TCS --timeframe 1day`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			file, _ := cmd.Flags().GetString("csv")
			symbol, _ := cmd.Flags().GetString("symbol")
			timeframe, _ := cmd.Flags().GetString("timeframe")
			symbol = strings.ToUpper(symbol)

			started := time.Now()
			bars, err := store.LoadBarsFile(file)
			if err != nil {
				return err
			}
			if len(bars) == 0 {
				output.Warning("%s contains no bars", file)
				return nil
			}

			s, err := app.Store()
			if err != nil {
				return err
			}
			if err := s.SaveBars(ctx, symbol, timeframe, bars); err != nil {
				return err
			}
			if err := s.RecordImport(ctx, store.ImportRecord{
				Symbol:    symbol,
				Timeframe: timeframe,
				Source:    file,
				Bars:      len(bars),
			}); err != nil {
				return err
			}
			logging.LogImport(app.Logger, symbol, timeframe, len(bars), time.Since(started))

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":    symbol,
					"timeframe": timeframe,
					"bars":      len(bars),
					"first":     bars[0].Timestamp,
					"last":      bars[len(bars)-1].Timestamp,
				})
			}
			output.Success("✓ Imported %d bars for %s/%s (%s to %s)", len(bars), symbol, timeframe,
				FormatTime(bars[0].Timestamp), FormatTime(bars[len(bars)-1].Timestamp))
			return nil
		},
	}

	cmd.Flags().String("csv", "", "CSV file to import")
	cmd.Flags().StringP("symbol", "s", "", "symbol to store the bars under")
	cmd.Flags().StringP("timeframe", "t", "1day", "timeframe of the bars")
	cmd.MarkFlagRequired("csv")
	cmd.MarkFlagRequired("symbol")

	return cmd
}

func newBarsCmd(app *App) *cobra.Command {
	var src barSource

	cmd := &cobra.Command{
		Use:   "bars",
		Short: "Show OHLCV bars",
		Example: `  indicators bars --symbol TCS --limit 20
  indicators bars --csv tcs.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			limit, _ := cmd.Flags().GetInt("limit")

			bars, source, err := app.loadBars(cmd.Context(), src)
			if err != nil {
				return err
			}

			first := 0
			if limit > 0 && len(bars) > limit {
				first = len(bars) - limit
			}
			shown := bars[first:]

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"source": source,
					"count":  len(bars),
					"bars":   shown,
				})
			}

			output.Bold("%s", source)
			output.Printf("  %d bars\n\n", len(bars))

			table := NewTable(output, "INDEX", "TIME", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME", "CHANGE")
			for i, b := range shown {
				idx := first + i
				change := "-"
				if idx > 0 && bars[idx-1].Close != 0 {
					change = FormatPercent((b.Close - bars[idx-1].Close) / bars[idx-1].Close * 100)
				}
				table.AddRow(
					fmt.Sprint(idx),
					FormatTime(b.Timestamp),
					FormatValue(b.Open, 2),
					FormatValue(b.High, 2),
					FormatValue(b.Low, 2),
					FormatValue(b.Close, 2),
					FormatVolume(b.Volume),
					change,
				)
			}
			table.Render()
			return nil
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().IntP("limit", "l", 0, "show only the last n bars (0 for all)")
	return cmd
}

func newSeriesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "series",
		Short: "List stored series",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			s, err := app.Store()
			if err != nil {
				return err
			}
			infos, err := s.ListSeries(ctx)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if infos == nil {
					infos = []models.SeriesInfo{}
				}
				return output.JSON(infos)
			}
			if len(infos) == 0 {
				output.Dim("No stored series. Use 'indicators import' to add bars.")
				return nil
			}

			table := NewTable(output, "SYMBOL", "TIMEFRAME", "BARS", "FIRST", "LAST", "IMPORTED")
			for _, info := range infos {
				imported := "-"
				if rec, err := s.LastImport(ctx, info.Symbol, info.Timeframe); err == nil && rec != nil {
					imported = FormatTime(rec.ImportedAt)
				}
				table.AddRow(info.Symbol, info.Timeframe, fmt.Sprint(info.Bars), FormatTime(info.First), FormatTime(info.Last), imported)
			}
			table.Render()
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <symbol> <timeframe>",
		Short: "Delete a stored series",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			s, err := app.Store()
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])
			n, err := s.DeleteSeries(cmd.Context(), symbol, args[1])
			if err != nil {
				return err
			}
			if n == 0 {
				return apperrors.NewDataError("bars", symbol, "no bars stored for timeframe "+args[1], apperrors.ErrDataNotFound)
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"symbol": symbol, "timeframe": args[1], "deleted": n})
			}
			output.Success("✓ Deleted %d bars of %s/%s", n, symbol, args[1])
			return nil
		},
	})

	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var src barSource

	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Export stored bars to CSV",
		Example: `  indicators export --symbol TCS --timeframe 1day --output tcs.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			outFile, _ := cmd.Flags().GetString("output")

			bars, source, err := app.loadBars(cmd.Context(), src)
			if err != nil {
				return err
			}

			if outFile == "" {
				return store.WriteBarsCSV(output.Writer(), bars)
			}

			file, err := os.Create(outFile)
			if err != nil {
				return err
			}
			defer file.Close()

			if err := store.WriteBarsCSV(file, bars); err != nil {
				return err
			}
			output.Success("✓ Exported %d bars of %s to %s", len(bars), source, outFile)
			return nil
		},
	}

	addSourceFlags(cmd, &src)
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	return cmd
}
