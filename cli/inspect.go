package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/sfhousing/dataset"
	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/schema"
)

// InspectResult is the output of inspect.
type InspectResult struct {
	File    string                  `json:"file" yaml:"file"`
	Schema  *schema.Config          `json:"schema" yaml:"schema"`
	Matches []string                `json:"matches" yaml:"matches"`
	Stats   map[string]engine.Stats `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	Name   string
	Sample int
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <file.csv>",
		Short: "Discover a CSV's schema and match it against the known sources",
		Long: `Detect the dimensions and measures of a CSV file, report which of the
five declared sources its header satisfies, and summarise every numeric
column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "dataset name reported in the schema")
	cmd.Flags().IntVar(&opts.Sample, "sample", schema.DefaultDiscoverOptions().SampleSize, "rows inspected to classify columns (0 = all)")
	return cmd
}

func runInspect(cmd *cobra.Command, rootOpts *RootOptions, opts *InspectOptions, path string) error {
	if opts.Sample < 0 {
		return NewExitError(ExitCommandError, "--sample must not be negative")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read "+path, err)
	}
	sch, err := schema.DiscoverFromCSV(raw, schema.DiscoverOptions{SampleSize: opts.Sample, Name: opts.Name})
	if err != nil {
		return WrapExitError(ExitCommandError, "discover "+path, err)
	}
	headers, err := csv.NewReader(strings.NewReader(string(raw))).Read()
	if err != nil {
		return WrapExitError(ExitCommandError, "read header of "+path, err)
	}

	res := InspectResult{
		File:    path,
		Schema:  sch,
		Matches: schema.Match(headers),
		Stats:   map[string]engine.Stats{},
	}
	if res.Matches == nil {
		res.Matches = []string{}
	}

	view, err := dataset.ReadView(path, sch)
	if err != nil {
		return WrapExitError(ExitCommandError, "read "+path, err)
	}
	for _, m := range sch.Measures {
		s := engine.Describe(engine.ValidValues(view, m.Key))
		if s.N > 0 {
			res.Stats[m.Key] = s
		}
	}

	out := cmd.OutOrStdout()
	if ok, err := writeStructured(out, rootOpts.Format, res); ok {
		return err
	}

	fmt.Fprintf(out, "%s (%s): %d rows, %d dimensions, %d measures\n",
		path, sch.Name, sch.Rows, len(sch.Dimensions), len(sch.Measures))
	for _, d := range sch.Dimensions {
		kind := "text"
		if d.IsTemporal {
			kind = "temporal"
		}
		fmt.Fprintf(out, "  dimension %-24s %-9s %s cardinality\n", d.Key, kind, d.CardinalityHint)
	}
	for _, m := range sch.Measures {
		s, ok := res.Stats[m.Key]
		if !ok {
			fmt.Fprintf(out, "  measure   %-24s no numeric values\n", m.Key)
			continue
		}
		fmt.Fprintf(out, "  measure   %-24s mean %s, min %s, max %s, std %s\n", m.Key,
			engine.FormatNumber(s.Mean, 2), engine.FormatNumber(s.Min, 2),
			engine.FormatNumber(s.Max, 2), engine.FormatNumber(s.StdDev, 2))
	}
	for _, c := range sch.SkippedColumns {
		fmt.Fprintf(out, "  skipped   %-24s %s\n", c.Column, c.Reason)
	}
	for _, b := range sch.Bindings {
		if b.Compatible {
			fmt.Fprintf(out, "  ✓ %s is the %s %s of %s\n", b.Column, b.Role, b.Key, strings.Join(b.Sources, ", "))
			continue
		}
		fmt.Fprintf(out, "  ✗ %s should be the %s %s of %s: %s\n", b.Column, b.Role, b.Key, strings.Join(b.Sources, ", "), b.Reason)
	}
	if len(res.Matches) == 0 {
		fmt.Fprintln(out, "✗ No declared source matches this header")
		return nil
	}
	fmt.Fprintf(out, "✓ Matches: %s\n", strings.Join(res.Matches, ", "))
	return nil
}
