package render

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/report"
)

// ============================================================================
// CSV OUTPUT — Derived tables, ready for Sheets/Excel
// ============================================================================

// WriteCSV writes the derived table behind c. Charts without a table fall
// back to their series; a chart with neither writes a single "No data" row.
func WriteCSV(w io.Writer, c report.Chart) error {
	cw := csv.NewWriter(w)

	switch {
	case c.Table != nil && len(c.Table.Columns) > 0:
		writeTableCSV(cw, c.Table)
	case c.Config != nil && len(c.Config.Series) > 0:
		writeSeriesCSV(cw, c.Config)
	default:
		_ = cw.Write([]string{"Result", "No data"})
	}

	cw.Flush()
	return cw.Error()
}

func writeTableCSV(cw *csv.Writer, t *engine.TableData) {
	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = col.Label
	}
	_ = cw.Write(headers)
	for _, row := range t.Rows {
		_ = cw.Write(row)
	}
}

func writeSeriesCSV(cw *csv.Writer, cfg *engine.ChartConfig) {
	xLabel, yLabel := cfg.XAxis, cfg.YAxis
	if xLabel == "" {
		xLabel = "Label"
	}
	if yLabel == "" {
		yLabel = "Value"
	}

	// Single series → two columns
	if len(cfg.Series) == 1 {
		_ = cw.Write([]string{xLabel, yLabel})
		for _, d := range cfg.Series[0].Data {
			_ = cw.Write([]string{d.Label, fmtNum(d.Value)})
		}
		return
	}

	// Multi-series → label + one column per series, joined on label
	headers := []string{xLabel}
	for _, s := range cfg.Series {
		headers = append(headers, s.Name)
	}
	_ = cw.Write(headers)

	for _, label := range categoryLabels(cfg.Series) {
		row := []string{label}
		for _, s := range cfg.Series {
			cell := ""
			for _, d := range s.Data {
				if d.Label == label {
					cell = fmtNum(d.Value)
					break
				}
			}
			row = append(row, cell)
		}
		_ = cw.Write(row)
	}
}

// fmtNum prints whole numbers without decimals, everything else with two.
func fmtNum(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
