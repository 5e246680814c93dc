package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spektr-org/sfhousing/render"
	"github.com/spektr-org/sfhousing/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Long: `Load every source once and serve the dashboard. The page accepts a
repeatable ?neighborhood= parameter that rebuilds the per-neighborhood
charts for another selection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions, opts *ServeOptions) error {
	e, err := setup(rootOpts)
	if err != nil {
		return err
	}
	data, err := e.load(cmd.Context())
	if err != nil {
		return err
	}

	addr := opts.Addr
	if addr == "" {
		addr = e.cfg.Server.Addr
	}
	srv := server.New(data, server.Config{
		Addr:           addr,
		CacheTTL:       e.cfg.Server.CacheTTL,
		AllowedOrigins: e.cfg.Server.AllowedOrigins,
		Report:         e.reportOptions(nil),
		Image:          render.DefaultImageOptions(),
	}, e.lggr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil {
		return WrapExitError(ExitFailure, "serve", err)
	}
	return nil
}
