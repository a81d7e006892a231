package cli

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"indicator-engine/internal/analysis/indicators"
	"indicator-engine/internal/config"
	"indicator-engine/internal/logging"
	"indicator-engine/internal/metrics"
	"indicator-engine/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	store store.BarStore
}

// NewRootCmd creates the root command for the CLI. Configuration and logging
// are initialised before any subcommand runs.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "indicators",
		Short: "Streaming technical indicator engine",
		Long: `indicators evaluates technical indicators over OHLCV bars.

Bars come from CSV files or from the local SQLite store filled by 'import'.
Every indicator reports its lookback (bars of history it needs) and only
emits values where that history exists.

Use 'indicators list' to see available indicators.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/indicator-engine)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addIndicatorCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addBatchCommands(rootCmd, app)

	return rootCmd
}

func (a *App) init(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	a.Config = cfg

	logCfg := cfg.LogConfig()
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
	}
	a.Logger = logging.NewLoggerWithConfig(logCfg)
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.Logger))

	a.Logger.Debug().Str("config", cfg.File).Msg("Configuration loaded")
	return nil
}

// Store opens the bar store on first use.
func (a *App) Store() (store.BarStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	path := a.Config.Store.Path
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", path).Msg("SQLite store initialized")
	a.store = s
	return s, nil
}

// Close releases the store if it was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// Engine builds an evaluation engine from the configuration. m may be nil.
func (a *App) Engine(workers int, m *metrics.Metrics) *indicators.Engine {
	if workers <= 0 {
		workers = a.Config.Engine.Workers
	}
	opts := []indicators.EngineOption{indicators.WithLogger(a.Logger)}
	if m != nil {
		opts = append(opts, indicators.WithObserver(m))
	}
	return indicators.NewEngine(workers, opts...)
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("indicators v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.Config.File})
			} else {
				output.Println(app.Config.File)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"valid": true, "jobs": len(app.Config.Jobs)})
			}
			output.Success("✓ Configuration is valid (%d jobs)", len(app.Config.Jobs))
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Engine")
	output.Printf("  Workers:         %d\n", cfg.Engine.Workers)
	output.Printf("  Precision:       %d\n", cfg.Engine.Precision)
	output.Printf("  Default Price:   %s\n", cfg.Engine.DefaultPrice)
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:            %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  Console:         %v\n", cfg.Logging.Console)
	output.Printf("  File:            %v\n", cfg.Logging.File)
	if cfg.Logging.File {
		output.Printf("  File Path:       %s\n", cfg.Logging.FilePath)
	}
	output.Println()

	output.Bold("Metrics")
	output.Printf("  Enabled:         %v\n", cfg.Metrics.Enabled)
	output.Println()

	output.Bold("Jobs")
	if len(cfg.Jobs) == 0 {
		output.Dim("  none")
		return nil
	}
	table := NewTable(output, "NAME", "INDICATOR", "PRICE")
	for _, job := range cfg.Jobs {
		label := job.Kind
		if kind, params, err := job.Resolve(); err == nil {
			if ind, err := indicators.New(kind, params); err == nil {
				label = indicators.Label(ind)
			}
		}
		table.AddRow(job.Name, label, string(cfg.PriceField(job)))
	}
	table.Render()
	return nil
}
