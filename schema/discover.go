package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ============================================================================
// AUTO-DISCOVERY — Classify the columns of a CSV of unknown origin
// ============================================================================
// Used by `sfhousing inspect`. A column whose header is one of the declared
// source columns takes the declared role, provided its values agree with
// it. Every other column is classified from its values:
//
//   1. empty                       → skipped
//   2. four-digit integers, "year" → temporal dimension
//   3. mostly numbers              → measure (dimension if few integer codes)
//   4. text                        → dimension (skipped if unique per row)
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int    // rows inspected, 0 = all
	Name       string // dataset name, otherwise "discovered"
}

// DefaultDiscoverOptions inspects the first 1000 rows.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{SampleSize: 1000}
}

// Fraction of non-empty values that must parse for a column to be numeric.
const numericShare = 0.8

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// DiscoverFromCSV generates a schema.Config by inspecting CSV data.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows [][]string
	for opt.SampleSize <= 0 || len(rows) < opt.SampleSize {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	cfg := &Config{
		Name:           opt.Name,
		Rows:           len(rows),
		DiscoveredFrom: "CSV",
		DiscoveredAt:   time.Now().Format(time.RFC3339),
	}
	if cfg.Name == "" {
		cfg.Name = "discovered"
	}

	declared := declaredColumns()
	for i, header := range headers {
		col := profile(header, i, rows)
		if d, ok := declared[header]; ok {
			b := col.bind(d)
			cfg.Bindings = append(cfg.Bindings, b)
			if b.Compatible {
				col.addAs(cfg, d)
				continue
			}
		}
		col.classify(cfg)
	}
	return cfg, nil
}

// ============================================================================
// DECLARED COLUMNS
// ============================================================================

// declaredColumn is one header of the declared sources and every source
// that requires it.
type declaredColumn struct {
	key       string
	measure   bool
	integer   bool
	dimension DimensionMeta
	meas      MeasureMeta
	sources   []string
}

func declaredColumns() map[string]*declaredColumn {
	cols := make(map[string]*declaredColumn)
	for _, cfg := range Declared() {
		for _, d := range cfg.Dimensions {
			c, ok := cols[d.Column]
			if !ok {
				c = &declaredColumn{key: d.Key, integer: d.Integer, dimension: d}
				cols[d.Column] = c
			}
			c.sources = append(c.sources, cfg.Name)
		}
		for _, m := range cfg.Measures {
			c, ok := cols[m.Column]
			if !ok {
				c = &declaredColumn{key: m.Key, measure: true, meas: m}
				cols[m.Column] = c
			}
			c.sources = append(c.sources, cfg.Name)
		}
	}
	return cols
}

// ============================================================================
// COLUMN PROFILE
// ============================================================================

type columnProfile struct {
	header   string
	values   []string // non-empty values in row order
	unique   map[string]bool
	numeric  int // values that parse as numbers
	integral bool
	rows     int
}

func profile(header string, index int, rows [][]string) columnProfile {
	col := columnProfile{header: header, unique: map[string]bool{}, integral: true, rows: len(rows)}
	for _, row := range rows {
		if index >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[index])
		if v == "" {
			continue
		}
		col.values = append(col.values, v)
		col.unique[v] = true
		if isNumeric(v) {
			col.numeric++
			if strings.Contains(v, ".") {
				col.integral = false
			}
		}
	}
	return col
}

func (col columnProfile) isNumeric() bool {
	return len(col.values) > 0 && float64(col.numeric) >= numericShare*float64(len(col.values))
}

func (col columnProfile) isYear() bool {
	if !col.isNumeric() || !col.integral {
		return false
	}
	for v := range col.unique {
		if !yearPattern.MatchString(v) {
			return false
		}
	}
	key := toSnakeCase(col.header)
	return key == "year" || strings.HasSuffix(key, "_year")
}

func (col columnProfile) cardinality() string {
	switch n := len(col.unique); {
	case n <= 10:
		return "low"
	case n <= 100:
		return "medium"
	}
	return "high"
}

func (col columnProfile) samples() []string {
	s := slices.Sorted(maps.Keys(col.unique))
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}

// bind checks the values of a declared column against its declared role.
func (col columnProfile) bind(d *declaredColumn) Binding {
	b := Binding{Column: col.header, Key: d.key, Role: "dimension", Sources: d.sources, Compatible: true}
	if d.measure {
		b.Role = "measure"
	}
	switch {
	case len(col.values) == 0:
		b.Compatible, b.Reason = false, "no values"
	case d.measure && !col.isNumeric():
		b.Compatible = false
		b.Reason = fmt.Sprintf("%d of %d values are not numbers", len(col.values)-col.numeric, len(col.values))
	case d.integer && (col.numeric < len(col.values) || !col.integral):
		b.Compatible, b.Reason = false, "values are not all integers"
	}
	return b
}

// addAs appends the column to cfg with the declared key and role.
func (col columnProfile) addAs(cfg *Config, d *declaredColumn) {
	if d.measure {
		cfg.Measures = append(cfg.Measures, d.meas)
		return
	}
	dim := d.dimension
	dim.SampleValues = col.samples()
	dim.CardinalityHint = col.cardinality()
	cfg.Dimensions = append(cfg.Dimensions, dim)
}

// classify appends the column to cfg by looking at its values alone.
func (col columnProfile) classify(cfg *Config) {
	dim := DefaultDimension(col.header, col.samples())
	dim.CardinalityHint = col.cardinality()

	switch {
	case len(col.values) == 0:
		cfg.SkippedColumns = append(cfg.SkippedColumns, SkippedColumn{Column: col.header, Reason: "All values are empty"})

	case col.isYear():
		dim.IsTemporal, dim.TemporalFormat, dim.Integer = true, "yyyy", true
		cfg.Dimensions = append(cfg.Dimensions, dim)

	case col.isNumeric():
		// A handful of integer codes (a ward or a district number) groups.
		if col.integral && len(col.unique) < 20 && float64(len(col.unique)) < 0.3*float64(col.rows) {
			dim.Integer = true
			cfg.Dimensions = append(cfg.Dimensions, dim)
			return
		}
		cfg.Measures = append(cfg.Measures, DefaultMeasure(col.header, ""))

	case len(col.unique) == col.rows && col.rows > 10:
		cfg.SkippedColumns = append(cfg.SkippedColumns, SkippedColumn{Column: col.header, Reason: "Unique per row, likely an identifier"})

	default:
		cfg.Dimensions = append(cfg.Dimensions, dim)
	}
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

func isNumeric(s string) bool {
	s = strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// toSnakeCase converts "Sale Price" or "grossRent" to "sale_price" and
// "gross_rent".
func toSnakeCase(s string) string {
	var b strings.Builder
	prev := rune(0)
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == ' ' || r == '-' || r == '_':
			r = '_'
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			b.WriteRune('_')
		}
		if r == '_' && prev == '_' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
		prev = r
	}
	return strings.Trim(b.String(), "_")
}

// toDisplayName turns a header into a title: "housing_units" → "Housing Units".
func toDisplayName(s string) string {
	s = strings.Join(strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(s)), " ")
	return cases.Title(language.English).String(s)
}
