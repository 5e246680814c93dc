package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/spektr-org/sfhousing/engine"
	"github.com/spektr-org/sfhousing/schema"
)

// ============================================================================
// FRAME — Raw rows → schema check → typed gota dataframe
// ============================================================================
// Every source, CSV or sqlite, is first read as raw string rows (header
// first). The header is checked against the source schema, then the rows
// are typed in one pass: measures become float columns where a value that
// fails coercion is NaN, integer dimensions become int columns.
// ============================================================================

const utf8BOM = "\ufeff"

// readRecords reads the raw rows of a source, header first.
func readRecords(ctx context.Context, src source) ([][]string, error) {
	if strings.HasPrefix(src.location, sqlitePrefix) {
		return readSQLite(ctx, src)
	}
	return readCSV(src)
}

func readCSV(src source) ([][]string, error) {
	f, err := os.Open(src.location)
	if err != nil {
		return nil, loadError(src, "", 0, ErrMissingSource, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		row := 0
		var pe *csv.ParseError
		if errors.As(err, &pe) && pe.Line > 1 {
			row = pe.Line - 1
		}
		return nil, loadError(src, "", row, ErrMalformed, err)
	}
	return records, nil
}

// table is a source typed through a gota dataframe.
type table struct {
	src source
	df  dataframe.DataFrame
}

// typeRecords validates the header of records against the source schema
// and types the data rows.
func typeRecords(src source, records [][]string) (*table, error) {
	if len(records) == 0 {
		return nil, loadError(src, "", 0, ErrEmpty, nil)
	}

	header := records[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
	}
	if missing := src.schema.MissingColumns(header); len(missing) > 0 {
		return nil, loadError(src, missing[0], 0, ErrMissingColumn,
			fmt.Errorf("want %s, have %s", strings.Join(missing, ", "), strings.Join(header, ", ")))
	}
	if len(records) < 2 {
		return nil, loadError(src, "", 0, ErrEmpty, nil)
	}

	types := make(map[string]series.Type, len(src.schema.Columns()))
	for _, d := range src.schema.Dimensions {
		if d.Integer {
			types[d.Column] = series.Int
		} else {
			types[d.Column] = series.String
		}
	}
	for _, m := range src.schema.Measures {
		types[m.Column] = series.Float
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(types),
	)
	if df.Err != nil {
		return nil, loadError(src, "", 0, ErrMalformed, df.Err)
	}
	return &table{src: src, df: df}, nil
}

func (t *table) rows() int { return t.df.Nrow() }

// text returns a required, non-empty string column.
func (t *table) text(column string) ([]string, error) {
	col := t.df.Col(column)
	vals := col.Records()
	for i, v := range vals {
		if col.Elem(i).IsNA() || strings.TrimSpace(v) == "" {
			return nil, loadError(t.src, column, i+1, ErrMalformed, errors.New("empty value"))
		}
		vals[i] = strings.TrimSpace(v)
	}
	return vals, nil
}

// integers returns a required integer column.
func (t *table) integers(column string) ([]int, error) {
	col := t.df.Col(column)
	vals := make([]int, col.Len())
	for i := range vals {
		e := col.Elem(i)
		if e.IsNA() {
			return nil, loadError(t.src, column, i+1, ErrMalformed, fmt.Errorf("%q is not an integer", e.String()))
		}
		v, err := e.Int()
		if err != nil {
			return nil, loadError(t.src, column, i+1, ErrMalformed, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// measure returns a float column and how many of its values are missing.
// A strict measure fails on the first missing value instead.
func (t *table) measure(m schema.MeasureMeta) ([]float64, int, error) {
	vals := t.df.Col(m.Column).Float()
	missing := 0
	for i, v := range vals {
		if !math.IsNaN(v) {
			continue
		}
		if m.Strict {
			return nil, 0, loadError(t.src, m.Column, i+1, ErrMalformed, errors.New("not a number"))
		}
		missing++
	}
	return vals, missing, nil
}

// ============================================================================
// GENERIC RECORDS — any CSV + schema → RecordView
// ============================================================================

// ReadView reads a CSV file into a RecordView using cfg to decide which
// columns are dimensions and which are measures. Unmapped columns are
// skipped. Used to inspect files that are not one of the declared sources.
func ReadView(path string, cfg *schema.Config) (engine.RecordView, error) {
	src := source{name: cfg.Name, location: path, schema: cfg}
	records, err := readCSV(src)
	if err != nil {
		return nil, err
	}

	// Inspection keeps every row: integer dimensions are read as text.
	lenient := *cfg
	lenient.Dimensions = make([]schema.DimensionMeta, len(cfg.Dimensions))
	for i, d := range cfg.Dimensions {
		d.Integer = false
		lenient.Dimensions[i] = d
	}
	src.schema = &lenient

	t, err := typeRecords(src, records)
	if err != nil {
		return nil, err
	}

	recs := make([]engine.Record, t.rows())
	for i := range recs {
		recs[i] = engine.Record{
			Dimensions: make(map[string]string, len(cfg.Dimensions)),
			Measures:   make(map[string]float64, len(cfg.Measures)),
		}
	}
	for _, d := range lenient.Dimensions {
		for i, v := range t.df.Col(d.Column).Records() {
			recs[i].Dimensions[d.Key] = v
		}
	}
	for _, m := range lenient.Measures {
		for i, v := range t.df.Col(m.Column).Float() {
			recs[i].Measures[m.Key] = v
		}
	}
	return engine.NewSliceView(recs), nil
}
