package schema

// ============================================================================
// SCHEMA — Describes the shape of a tabular source
// ============================================================================
// Declared for the dashboard's own sources (see sources.go) or discovered
// heuristically from an unknown CSV (see discover.go).
// The loader checks headers against a Config before typing any column, so
// every later stage can assume numeric measures.
// ============================================================================

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions" yaml:"dimensions"`
	Measures   []MeasureMeta   `json:"measures" yaml:"measures"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty" yaml:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty" yaml:"discoveredAt,omitempty"`
	Rows           int    `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Columns skipped during auto-discovery
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty" yaml:"skippedColumns,omitempty"`

	// Discovered columns that carry a declared source header
	Bindings []Binding `json:"bindings,omitempty" yaml:"bindings,omitempty"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key             string   `json:"key" yaml:"key"`
	Column          string   `json:"column" yaml:"column"` // header in the source
	DisplayName     string   `json:"displayName" yaml:"displayName"`
	SampleValues    []string `json:"sampleValues,omitempty" yaml:"sampleValues,omitempty"`
	IsTemporal      bool     `json:"isTemporal,omitempty" yaml:"isTemporal,omitempty"`
	TemporalFormat  string   `json:"temporalFormat,omitempty" yaml:"temporalFormat,omitempty"`
	Integer         bool     `json:"integer,omitempty" yaml:"integer,omitempty"` // must parse as an integer
	CardinalityHint string   `json:"cardinalityHint,omitempty" yaml:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key         string `json:"key" yaml:"key"`
	Column      string `json:"column" yaml:"column"` // header in the source
	DisplayName string `json:"displayName" yaml:"displayName"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"` // "USD", "units", "degrees"

	// Strict measures must parse on every row. Lenient ones keep the row and
	// mark the value missing instead.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column string `json:"column" yaml:"column"`
	Reason string `json:"reason" yaml:"reason"`
}

// Binding ties a discovered column to the declared column with the same
// header. An incompatible binding names the disagreement in Reason and the
// column is classified from its values instead.
type Binding struct {
	Column     string   `json:"column" yaml:"column"`
	Key        string   `json:"key" yaml:"key"`
	Role       string   `json:"role" yaml:"role"` // "dimension", "measure"
	Sources    []string `json:"sources" yaml:"sources"`
	Compatible bool     `json:"compatible" yaml:"compatible"`
	Reason     string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// DefaultDimension creates a DimensionMeta keyed by the snake_case form of
// the column header.
func DefaultDimension(column string, samples []string) DimensionMeta {
	return DimensionMeta{
		Key:          toSnakeCase(column),
		Column:       column,
		DisplayName:  toDisplayName(column),
		SampleValues: samples,
	}
}

// DefaultMeasure creates a lenient MeasureMeta keyed by the snake_case form
// of the column header.
func DefaultMeasure(column, unit string) MeasureMeta {
	return MeasureMeta{
		Key:         toSnakeCase(column),
		Column:      column,
		DisplayName: toDisplayName(column),
		Unit:        unit,
	}
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Columns returns the source headers the schema requires, dimensions first.
func (c Config) Columns() []string {
	cols := make([]string, 0, len(c.Dimensions)+len(c.Measures))
	for _, d := range c.Dimensions {
		cols = append(cols, d.Column)
	}
	for _, m := range c.Measures {
		cols = append(cols, m.Column)
	}
	return cols
}

// Measure returns the measure with the given key.
func (c Config) Measure(key string) (MeasureMeta, bool) {
	for _, m := range c.Measures {
		if m.Key == key {
			return m, true
		}
	}
	return MeasureMeta{}, false
}
