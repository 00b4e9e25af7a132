package query

import "github.com/fetchview/fetchview/internal/metadata"

// Column is one selected field, bound to a graph node by alias. WireName is
// the exact field to request on the wire, already adjusted for reference
// attributes (the _name_value form).
type Column struct {
	EntityAlias string
	WireName    string
	Display     string
	LogicalName string
	Type        metadata.AttributeType
}

// Columns is an ordered selection list.
type Columns []Column

// ForAlias returns the columns bound to one node, preserving order.
func (cs Columns) ForAlias(alias string) Columns {
	var out Columns
	for _, c := range cs {
		if metadata.EqualFold(c.EntityAlias, alias) {
			out = append(out, c)
		}
	}
	return out
}

// Contains reports whether a wire name is already selected for an alias.
func (cs Columns) Contains(alias, wireName string) bool {
	for _, c := range cs {
		if metadata.EqualFold(c.EntityAlias, alias) && metadata.EqualFold(c.WireName, wireName) {
			return true
		}
	}
	return false
}

// Order is one sort hint on a root-entity field, already resolved to its
// wire name.
type Order struct {
	WireName   string
	Descending bool
}
