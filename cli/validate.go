package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/report"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	Tolerance float64
}

// ValidationResult holds the reconciliation of every reference table.
type ValidationResult struct {
	Valid           bool                    `json:"valid" yaml:"valid"`
	Observations    int                     `json:"observations" yaml:"observations"`
	Neighborhoods   int                     `json:"neighborhoods" yaml:"neighborhoods"`
	Tolerance       float64                 `json:"tolerance" yaml:"tolerance"`
	Reconciliations []report.Reconciliation `json:"reconciliations" yaml:"reconciliations"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load all sources and reconcile them",
		Long: `Load every configured source and recompute the per-year mean of each
reference measure from the census observations. Exits 1 when a year
differs from its reference table by more than --tolerance, and 2 when a
source cannot be loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", 0.01, "allowed relative difference per year")

	return cmd
}

func runValidate(cmd *cobra.Command, rootOpts *RootOptions, opts *ValidateOptions) error {
	e, err := setup(rootOpts)
	if err != nil {
		return err
	}
	data, err := e.load(cmd.Context())
	if err != nil {
		return err
	}

	res := ValidationResult{
		Valid:           true,
		Observations:    data.Len(),
		Neighborhoods:   len(data.Neighborhoods()),
		Tolerance:       opts.Tolerance,
		Reconciliations: report.Reconcile(data, opts.Tolerance),
	}
	drifted := 0
	for _, r := range res.Reconciliations {
		if !r.OK() {
			res.Valid = false
			drifted++
			e.lggr.Warnw("Reference drift", "measure", r.Measure, "drifts", len(r.Drifts), "maxDelta", r.MaxDelta)
		}
	}

	out := cmd.OutOrStdout()
	ok, err := writeStructured(out, rootOpts.Format, res)
	if err != nil {
		return err
	}
	if !ok {
		writeValidationText(out, res)
	}

	if !res.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d reference table(s) drift from the observations", drifted))
	}
	return nil
}

func writeValidationText(out io.Writer, res ValidationResult) {
	fmt.Fprintf(out, "Loaded %d observations across %d neighborhoods\n", res.Observations, res.Neighborhoods)
	for _, r := range res.Reconciliations {
		if r.OK() {
			fmt.Fprintf(out, "✓ %-20s %d/%d years match (max delta %.4f%%)\n", r.Measure, r.Matched, r.Years, r.MaxDelta*100)
			continue
		}
		fmt.Fprintf(out, "✗ %-20s %d/%d years match\n", r.Measure, r.Matched, r.Years)
		for _, d := range r.Drifts {
			if d.Missing {
				fmt.Fprintf(out, "    %d: present on one side only\n", d.Year)
				continue
			}
			fmt.Fprintf(out, "    %d: computed %s, reference %s (%+.2f%%)\n", d.Year,
				engine.FormatNumber(d.Computed, 2), engine.FormatNumber(d.Reference, 2), d.Delta*100)
		}
	}
	if res.Valid {
		fmt.Fprintln(out, "✓ All reference tables reconcile")
	}
}
