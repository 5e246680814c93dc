package engine

import (
	"math"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from Groups
// ============================================================================
// Tables are the derived aggregates rendered as strings for CSV export and
// terminal output. Missing values render as an empty cell.
// ============================================================================

// BuildTable produces a TableData with one row per group: the group key
// followed by the value of every measure. Two-level groups are flattened to
// one row per sub-group with both keys.
func BuildTable(title string, groupBy []string, measures []string, groups []Group) *TableData {
	table := &TableData{
		Title:   title,
		Columns: make([]Column, 0, len(groupBy)+len(measures)),
		Rows:    [][]string{},
	}

	depth := 1
	if hasSubGroups(groups) {
		depth = 2
	}
	for i := 0; i < depth && i < len(groupBy); i++ {
		table.Columns = append(table.Columns, Column{
			Key:   groupBy[i],
			Label: LabelForDimension(groupBy[i]),
			Type:  "text",
			Align: "left",
		})
	}
	if len(groupBy) == 0 {
		table.Columns = append(table.Columns, Column{Key: "group", Label: "Group", Type: "text", Align: "left"})
	}
	for _, m := range measures {
		table.Columns = append(table.Columns, Column{
			Key:   m,
			Label: LabelForDimension(m),
			Type:  "number",
			Align: "right",
		})
	}

	for _, g := range groups {
		if depth == 1 {
			table.Rows = append(table.Rows, buildRow([]string{g.Label}, g, measures))
			continue
		}
		for _, sg := range g.SubGroups {
			table.Rows = append(table.Rows, buildRow([]string{g.Label, sg.Label}, sg, measures))
		}
	}
	return table
}

func buildRow(keys []string, g Group, measures []string) []string {
	row := make([]string, 0, len(keys)+len(measures))
	row = append(row, keys...)
	for _, m := range measures {
		row = append(row, FormatCell(g.Value(m)))
	}
	return row
}

// FormatCell renders a measure value for a table cell: two decimals, empty
// when missing.
func FormatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
