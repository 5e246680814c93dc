package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/spektr-org/sfhousing/config"
	"github.com/spektr-org/sfhousing/dataset"
	"github.com/spektr-org/sfhousing/logger"
	"github.com/spektr-org/sfhousing/report"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "text" | "json" | "yaml" | "csv"

	// Logger overrides the logger built from the config. Used by tests.
	Logger logger.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml", "csv"}

// NewRootCommand creates the root command for the sfhousing CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sfhousing",
		Short: "San Francisco housing cost dashboard",
		Long: `Load the San Francisco neighborhood census data, compute per-year and
per-neighborhood averages, and render them as an interactive dashboard,
static images, or plain tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", config.DefaultFile, "config file (YAML)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml|csv)")

	// Add subcommands
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// ============================================================================
// SHARED SETUP
// ============================================================================

// env is what a data command needs after setup.
type env struct {
	cfg  *config.Config
	lggr logger.Logger
}

func setup(opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "config", err)
	}

	lggr := opts.Logger
	if lggr == nil {
		lc := logger.Config{Level: logger.ParseLevel(cfg.Log.Level), Development: cfg.Log.Development}
		if opts.Verbose {
			lc.Level = logger.ParseLevel("debug")
		}
		lggr, err = lc.New()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "logger", err)
		}
	}
	return &env{cfg: cfg, lggr: lggr}, nil
}

// load reads every configured source. A load failure is a command error.
func (e *env) load(ctx context.Context) (*dataset.Context, error) {
	data, err := dataset.Load(ctx, e.cfg.Data.Sources(), e.lggr)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load data", err)
	}
	return data, nil
}

// reportOptions turns the config and per-command overrides into builder
// options. Explicit neighborhoods win over the configured ones.
func (e *env) reportOptions(neighborhoods []string) []report.Option {
	if len(neighborhoods) == 0 {
		neighborhoods = e.cfg.Report.Neighborhoods
	}
	m := e.cfg.Map
	return []report.Option{
		report.WithLogger(e.lggr),
		report.WithNeighborhoods(neighborhoods...),
		report.WithTopN(e.cfg.Report.TopN),
		report.WithMap(report.MapOptions{
			CenterLat: m.CenterLat,
			CenterLon: m.CenterLon,
			Zoom:      m.Zoom,
			Style:     m.Style,
			Height:    m.Height,
		}),
	}
}

// build loads the data and builds the dashboard.
func (e *env) build(ctx context.Context, neighborhoods []string) (*dataset.Context, *report.Dashboard, error) {
	data, err := e.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return data, report.Build(data, e.reportOptions(neighborhoods)...), nil
}
