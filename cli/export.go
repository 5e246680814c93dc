package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spektr-org/sfhousing/render"
	"github.com/spektr-org/sfhousing/report"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	Dir           string
	Image         string
	Width         int
	Height        int
	CSV           bool
	Neighborhoods []string
}

// ExportResult lists the files written by export.
type ExportResult struct {
	RunID   string   `json:"runId" yaml:"runId"`
	Files   []string `json:"files" yaml:"files"`
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one static image per chart",
		Long: `Write every chart as a PNG or SVG file named after its chart ID.
Charts with no data are skipped. With --csv the derived table behind each
chart is written next to its image.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "charts", "output directory")
	cmd.Flags().StringVar(&opts.Image, "image", render.FormatPNG, "image format (png|svg)")
	cmd.Flags().IntVar(&opts.Width, "width", 1024, "image width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", 600, "image height in pixels")
	cmd.Flags().BoolVar(&opts.CSV, "csv", false, "also write each chart's table as CSV")
	cmd.Flags().StringSliceVarP(&opts.Neighborhoods, "neighborhood", "n", nil, "neighborhoods for the per-neighborhood charts (repeatable)")

	return cmd
}

func runExport(cmd *cobra.Command, rootOpts *RootOptions, opts *ExportOptions) error {
	if opts.Image != render.FormatPNG && opts.Image != render.FormatSVG {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid image format %q: must be png or svg", opts.Image))
	}
	e, err := setup(rootOpts)
	if err != nil {
		return err
	}
	_, d, err := e.build(cmd.Context(), opts.Neighborhoods)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "create output directory", err)
	}

	res := ExportResult{RunID: d.RunID, Files: []string{}}
	imgOpts := render.ImageOptions{Width: opts.Width, Height: opts.Height}
	for _, c := range d.Charts {
		if c.Empty() {
			e.lggr.Debugw("Skipping empty chart", "chart", c.ID)
			res.Skipped = append(res.Skipped, c.ID)
			continue
		}
		path := filepath.Join(opts.Dir, c.ID+"."+opts.Image)
		if err := writeFile(path, func(f *os.File) error { return render.WriteImage(f, c.Config, opts.Image, imgOpts) }); err != nil {
			return WrapExitError(ExitFailure, "export "+c.ID, err)
		}
		res.Files = append(res.Files, path)

		if opts.CSV {
			path := filepath.Join(opts.Dir, c.ID+".csv")
			if err := writeFile(path, func(f *os.File) error { return render.WriteCSV(f, c) }); err != nil {
				return WrapExitError(ExitFailure, "export "+c.ID, err)
			}
			res.Files = append(res.Files, path)
		}
	}
	e.lggr.Infow("Exported charts", "dir", opts.Dir, "files", len(res.Files), "skipped", len(res.Skipped))

	out := cmd.OutOrStdout()
	if ok, err := writeStructured(out, rootOpts.Format, res); ok {
		return err
	}
	fmt.Fprintf(out, "✓ Wrote %d files to %s\n", len(res.Files), opts.Dir)
	for _, id := range res.Skipped {
		fmt.Fprintf(out, "  skipped %s (no data)\n", id)
	}
	return nil
}

// writeFile creates path and hands it to write, closing it afterwards.
func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// chartByID finds a chart or returns a command error naming the valid IDs.
func chartByID(d *report.Dashboard, id string) (report.Chart, error) {
	c, ok := d.Chart(id)
	if !ok {
		return report.Chart{}, NewExitError(ExitCommandError,
			fmt.Sprintf("unknown chart %q: must be one of %v", id, d.IDs()))
	}
	return c, nil
}
