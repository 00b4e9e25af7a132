package importer

import (
	"fmt"

	"github.com/fetchview/fetchview/internal/filter"
	"github.com/fetchview/fetchview/internal/query"
)

// Snapshot serializes the imported model as canonical JSON. Node ids are
// excluded: they are per-session identities, and two imports of the same
// document must snapshot to the same bytes.
func (r *Result) Snapshot() ([]byte, error) {
	nodes := make([]any, 0)
	for _, n := range r.Graph.Nodes() {
		entry := map[string]any{
			"alias":  n.Alias,
			"entity": n.Entity.LogicalName,
		}
		if !n.IsRoot() {
			entry["parent"] = n.ParentAlias
			entry["relationship"] = n.Relationship
			entry["relationshipType"] = string(n.RelationshipType)
			entry["navigation"] = n.NavigationProperty
		}
		nodes = append(nodes, entry)
	}

	columns := make([]any, 0, len(r.Columns))
	for _, c := range r.Columns {
		columns = append(columns, map[string]any{
			"alias":   c.EntityAlias,
			"wire":    c.WireName,
			"display": c.Display,
		})
	}

	orders := make([]any, 0, len(r.Orders))
	for _, o := range r.Orders {
		orders = append(orders, map[string]any{
			"attribute":  o.WireName,
			"descending": o.Descending,
		})
	}

	dropped := make([]any, 0, len(r.Dropped))
	for _, d := range r.Dropped {
		dropped = append(dropped, map[string]any{
			"path":   d.Path,
			"reason": d.Reason,
		})
	}

	filterTree, err := filterToMap(r.Filter)
	if err != nil {
		return nil, err
	}

	return query.MarshalCanonical(map[string]any{
		"entity":  r.Graph.Root().Entity.LogicalName,
		"nodes":   nodes,
		"columns": columns,
		"filter":  filterTree,
		"orders":  orders,
		"dropped": dropped,
	})
}

func filterToMap(n filter.Node) (any, error) {
	switch node := n.(type) {
	case filter.Group:
		children := make([]any, 0, len(node.Children))
		for _, child := range node.Children {
			m, err := filterToMap(child)
			if err != nil {
				return nil, err
			}
			children = append(children, m)
		}
		return map[string]any{
			"logic":    string(node.Logic),
			"children": children,
		}, nil
	case filter.Condition:
		m := map[string]any{
			"alias":     node.EntityAlias,
			"attribute": node.Attribute,
			"operator":  node.Operator,
		}
		if node.Value != nil {
			m["value"] = node.Value
		}
		if node.Value2 != nil {
			m["value2"] = node.Value2
		}
		return m, nil
	default:
		return nil, fmt.Errorf("importer: unsupported filter node %T", n)
	}
}
