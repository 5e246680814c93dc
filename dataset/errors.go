package dataset

import (
	"errors"
	"fmt"
)

// Failure kinds wrapped by DataLoadError.
var (
	ErrMissingSource = errors.New("source not found")
	ErrMissingColumn = errors.New("missing column")
	ErrMalformed     = errors.New("malformed source")
	ErrEmpty         = errors.New("source has no rows")
)

// DataLoadError reports a fatal problem with one source. Err wraps one of
// the failure kinds above, so callers can match with errors.Is.
type DataLoadError struct {
	Source   string // source name, e.g. "observations"
	Location string // path or sqlite URL
	Column   string // offending column, if any
	Row      int    // 1-based data row, 0 when not row specific
	Err      error
}

func (e *DataLoadError) Error() string {
	msg := fmt.Sprintf("load %s from %s", e.Source, e.Location)
	if e.Column != "" {
		msg += fmt.Sprintf(": column %q", e.Column)
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	return msg + ": " + e.Err.Error()
}

func (e *DataLoadError) Unwrap() error { return e.Err }

func loadError(src source, column string, row int, kind error, detail error) *DataLoadError {
	err := kind
	if detail != nil {
		err = fmt.Errorf("%w: %w", kind, detail)
	}
	return &DataLoadError{
		Source:   src.name,
		Location: src.location,
		Column:   column,
		Row:      row,
		Err:      err,
	}
}
