package engine

import "github.com/spektr-org/sfhousing/logger"

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute() and GroupAndAggregate()
// ============================================================================

// Sort modes understood by SortGroups.
const (
	SortKeyAsc    = "key_asc" // default: numeric keys numerically, others lexically
	SortKeyDesc   = "key_desc"
	SortValueDesc = "value_desc"
	SortValueAsc  = "value_asc"
)

// Option configures the aggregation pipeline via functional options pattern.
type Option func(*config)

type config struct {
	SortBy      string
	SortMeasure string // measure compared by the value_* modes
	Limit       int    // 0 = all
	Logger      logger.Logger
}

// WithSort orders groups by mode; value modes compare the mean of measure.
func WithSort(mode, measure string) Option {
	return func(c *config) {
		c.SortBy = mode
		c.SortMeasure = measure
	}
}

// WithLimit keeps only the first n groups after sorting.
func WithLimit(n int) Option {
	return func(c *config) {
		c.Limit = n
	}
}

// WithLogger routes the executor's debug output to lggr.
func WithLogger(lggr logger.Logger) Option {
	return func(c *config) {
		if lggr != nil {
			c.Logger = lggr
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		SortBy: SortKeyAsc,
		Logger: nopLogger,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
