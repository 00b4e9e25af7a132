package dataapi

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fetchview/fetchview/internal/query"
)

// formattedSuffix is the annotation the API attaches next to raw values
// when formatted values are requested; exports prefer it since raw lookup
// values are bare ids.
const formattedSuffix = "@OData.Community.Display.V1.FormattedValue"

// Table is row-major tabular data keyed by the selected columns' display
// names, ready for delimited-text serialization.
type Table struct {
	Headers []string
	Rows    [][]string
}

// BuildTable flattens fetched records into a table. Columns on joined nodes
// are read through the record's nested expansion objects along the node's
// navigation path; a one-to-many hop yields an array, whose values are
// joined with "; " into one cell.
func BuildTable(g *query.Graph, cols query.Columns, records []Record) (*Table, error) {
	t := &Table{Headers: make([]string, len(cols))}
	for i, c := range cols {
		t.Headers[i] = c.Display
	}

	for _, rec := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			path, err := g.Path(c.EntityAlias)
			if err != nil {
				return nil, fmt.Errorf("export column %s.%s: %w", c.EntityAlias, c.WireName, err)
			}
			row[i] = extract(rec, path, c.WireName)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteCSV serializes the table as comma-delimited text.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// extract walks a record along a navigation path ("a/b") and reads one
// field, preferring the formatted-value annotation.
func extract(rec Record, path, field string) string {
	var hops []string
	if path != "" {
		hops = strings.Split(path, "/")
	}
	return walk(rec, hops, field)
}

func walk(v any, hops []string, field string) string {
	switch node := v.(type) {
	case map[string]any:
		if len(hops) > 0 {
			return walk(node[hops[0]], hops[1:], field)
		}
		if fv, ok := node[field+formattedSuffix]; ok {
			return formatCell(fv)
		}
		return formatCell(node[field])
	case []any:
		// One-to-many expansion: apply the remaining path to every element
		// and join the results into one cell.
		parts := make([]string, 0, len(node))
		for _, elem := range node {
			if s := walk(elem, hops, field); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
