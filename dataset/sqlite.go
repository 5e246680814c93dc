package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// sqlitePrefix marks a source location read from a sqlite table:
// sqlite://data/housing.db?table=observations
const sqlitePrefix = "sqlite://"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// parseSQLiteLocation splits a sqlite location into file path and table.
func parseSQLiteLocation(location string) (path, table string, err error) {
	rest := strings.TrimPrefix(location, sqlitePrefix)
	path, query, _ := strings.Cut(rest, "?")
	if path == "" {
		return "", "", errors.New("missing database path")
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return "", "", fmt.Errorf("invalid query: %w", err)
	}
	table = params.Get("table")
	if !tableName.MatchString(table) {
		return "", "", fmt.Errorf("invalid table name %q", table)
	}
	return path, table, nil
}

// sqliteDSN is a read-only URI for path. The path is escaped so that '#',
// '?' and '%' stay part of the file name.
func sqliteDSN(path string) string {
	u := url.URL{
		Scheme:   "file",
		Opaque:   (&url.URL{Path: path}).EscapedPath(),
		RawQuery: "mode=ro",
	}
	return u.String()
}

// readSQLite reads every row of a table, header first, as strings. The
// database is opened read-only; nothing is ever written back.
func readSQLite(ctx context.Context, src source) ([][]string, error) {
	path, table, err := parseSQLiteLocation(src.location)
	if err != nil {
		return nil, loadError(src, "", 0, ErrMalformed, err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, loadError(src, "", 0, ErrMissingSource, err)
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, loadError(src, "", 0, ErrMissingSource, fmt.Errorf("failed to open database: %w", err))
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, table))
	if err != nil {
		return nil, loadError(src, "", 0, ErrMissingSource, fmt.Errorf("failed to query table %s: %w", table, err))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, loadError(src, "", 0, ErrMalformed, err)
	}
	records := [][]string{cols}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, loadError(src, "", len(records), ErrMalformed, err)
		}
		rec := make([]string, len(cols))
		for i, v := range vals {
			rec[i] = cellString(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, loadError(src, "", 0, ErrMalformed, err)
	}
	return records, nil
}

// cellString renders a scanned sqlite value the way it would appear in a
// CSV export. NULL becomes an empty cell.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
