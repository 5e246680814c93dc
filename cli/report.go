package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spektr-org/sfhousing/render"
	"github.com/spektr-org/sfhousing/report"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	Chart         string
	Neighborhoods []string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print chart specs and derived tables",
		Long: `Build the dashboard and print it without rendering: --format text
prints each derived table, json and yaml print the chart specs, csv
prints the derived tables as CSV.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Chart, "chart", "", "print only the chart with this ID")
	cmd.Flags().StringSliceVarP(&opts.Neighborhoods, "neighborhood", "n", nil, "neighborhoods for the per-neighborhood charts (repeatable)")

	return cmd
}

func runReport(cmd *cobra.Command, rootOpts *RootOptions, opts *ReportOptions) error {
	e, err := setup(rootOpts)
	if err != nil {
		return err
	}
	_, d, err := e.build(cmd.Context(), opts.Neighborhoods)
	if err != nil {
		return err
	}

	charts := d.Charts
	var payload any = d
	if opts.Chart != "" {
		c, err := chartByID(d, opts.Chart)
		if err != nil {
			return err
		}
		charts, payload = []report.Chart{c}, c
	}

	out := cmd.OutOrStdout()
	if ok, err := writeStructured(out, rootOpts.Format, payload); ok {
		return err
	}
	if rootOpts.Format == "csv" {
		return writeChartsCSV(out, charts)
	}
	return writeChartsText(out, charts)
}

func writeChartsCSV(w io.Writer, charts []report.Chart) error {
	for i, c := range charts {
		if len(charts) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "# %s\n", c.ID)
		}
		if err := render.WriteCSV(w, c); err != nil {
			return err
		}
	}
	return nil
}

func writeChartsText(w io.Writer, charts []report.Chart) error {
	for i, c := range charts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s [%s]\n", c.Title, c.ID)
		if c.Caption != "" {
			fmt.Fprintf(w, "  %s\n", c.Caption)
		}
		if c.Table == nil || len(c.Table.Rows) == 0 {
			fmt.Fprintln(w, "  (no data)")
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		headers := make([]string, len(c.Table.Columns))
		for j, col := range c.Table.Columns {
			headers[j] = col.Label
		}
		fmt.Fprintf(tw, "  %s\t\n", strings.Join(headers, "\t"))
		for _, row := range c.Table.Rows {
			fmt.Fprintf(tw, "  %s\t\n", strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
