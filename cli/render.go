package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spektr-org/sfhousing/render"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	Output        string
	Neighborhoods []string
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the dashboard as a single HTML page",
		Long: `Load every source, build all charts in display order, and write them
as one self-contained HTML page drawn with Plotly.js.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "sfhousing.html", "output file, - for stdout")
	cmd.Flags().StringSliceVarP(&opts.Neighborhoods, "neighborhood", "n", nil, "neighborhoods for the per-neighborhood charts (repeatable)")

	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions) error {
	e, err := setup(rootOpts)
	if err != nil {
		return err
	}
	data, d, err := e.build(cmd.Context(), opts.Neighborhoods)
	if err != nil {
		return err
	}

	pageOpts := render.PageOptions{Available: data.Neighborhoods()}
	if opts.Output == "-" {
		if err := render.WritePage(cmd.OutOrStdout(), d, pageOpts); err != nil {
			return WrapExitError(ExitFailure, "render page", err)
		}
		return nil
	}

	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapExitError(ExitCommandError, "create output directory", err)
		}
	}
	f, err := os.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "create output file", err)
	}
	defer f.Close()

	if err := render.WritePage(f, d, pageOpts); err != nil {
		return WrapExitError(ExitFailure, "render page", err)
	}
	e.lggr.Infow("Wrote dashboard", "path", opts.Output, "charts", len(d.Charts), "runID", d.RunID)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d charts to %s\n", len(d.Charts), opts.Output)
	return nil
}
