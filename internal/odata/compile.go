// Package odata compiles the normalized query model into a single wire
// query string: <entitySet>?$select=...[&$expand=...][&$orderby=...]
// [&$filter=...]. Compilation is a pure function of its inputs; the same
// model always produces the same string.
package odata

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fetchview/fetchview/internal/filter"
	"github.com/fetchview/fetchview/internal/query"
)

// Compile serializes one query model. The graph supplies the entity set and
// the expansion tree, columns the selection lists, the filter root the
// predicate. Incomplete conditions and empty groups are omitted, never
// rendered; compilation itself only fails on a structurally broken graph
// (an alias that resolves to no node).
func Compile(g *query.Graph, cols query.Columns, filterRoot filter.Group, orders []query.Order) (string, error) {
	var sb strings.Builder
	sb.WriteString(g.Root().Entity.EntitySetName)
	sb.WriteByte('?')

	sb.WriteString("$select=")
	sb.WriteString(strings.Join(selectNames(g.Root(), cols), ","))

	if expand := expandClauses(g, cols, query.RootAlias); expand != "" {
		sb.WriteString("&$expand=")
		sb.WriteString(expand)
	}

	if len(orders) > 0 {
		parts := make([]string, len(orders))
		for i, o := range orders {
			parts[i] = o.WireName
			if o.Descending {
				parts[i] += " desc"
			}
		}
		sb.WriteString("&$orderby=")
		sb.WriteString(strings.Join(parts, ","))
	}

	predicate, err := renderNode(g, filterRoot)
	if err != nil {
		return "", err
	}
	if predicate != "" {
		sb.WriteString("&$filter=")
		sb.WriteString(encodeFilter(predicate))
	}

	return sb.String(), nil
}

// selectNames computes the wire field list for one node, force-including
// its primary id so records stay addressable even when the selection was
// edited down.
func selectNames(n query.Node, cols query.Columns) []string {
	var names []string
	seen := map[string]bool{}
	for _, c := range cols.ForAlias(n.Alias) {
		key := strings.ToLower(c.WireName)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, c.WireName)
	}
	if id := n.Entity.PrimaryIDAttribute; id != "" && !seen[strings.ToLower(id)] {
		names = append(names, id)
	}
	return names
}

// expandClauses renders the comma-joined expansion clauses for the children
// of one alias, each of the form nav($select=...;$expand=...), omitting
// either sub-clause when empty and the parens entirely when both are.
func expandClauses(g *query.Graph, cols query.Columns, alias string) string {
	var clauses []string
	for _, child := range g.Children(alias) {
		var inner []string
		if names := selectNames(child, cols); len(names) > 0 {
			inner = append(inner, "$select="+strings.Join(names, ","))
		}
		if nested := expandClauses(g, cols, child.Alias); nested != "" {
			inner = append(inner, "$expand="+nested)
		}
		clause := child.NavigationProperty
		if len(inner) > 0 {
			clause += "(" + strings.Join(inner, ";") + ")"
		}
		clauses = append(clauses, clause)
	}
	return strings.Join(clauses, ",")
}

// renderNode renders one filter node to a predicate fragment. Empty string
// means "contributes nothing".
func renderNode(g *query.Graph, n filter.Node) (string, error) {
	switch node := n.(type) {
	case filter.Group:
		return renderGroup(g, node)
	case filter.Condition:
		return renderCondition(g, node)
	default:
		return "", fmt.Errorf("odata: unsupported filter node %T", n)
	}
}

// renderGroup renders children joined by the group logic. A single
// surviving child renders without parentheses; zero children render to
// nothing.
func renderGroup(g *query.Graph, group filter.Group) (string, error) {
	var parts []string
	for _, child := range group.Children {
		frag, err := renderNode(g, child)
		if err != nil {
			return "", err
		}
		if frag != "" {
			parts = append(parts, frag)
		}
	}
	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	default:
		return "(" + strings.Join(parts, " "+string(group.Logic)+" ") + ")", nil
	}
}

// renderCondition renders one predicate, or nothing when the condition is
// incomplete or its operator is outside the table.
func renderCondition(g *query.Graph, c filter.Condition) (string, error) {
	if c.Attribute == "" || c.Operator == "" {
		return "", nil
	}
	op, ok := filter.OperatorFor(c.Operator)
	if !ok {
		return "", nil
	}
	if op.Arity >= 1 && c.Value == nil {
		return "", nil
	}
	if op.Arity == 2 && c.Value2 == nil {
		return "", nil
	}

	path := c.Attribute
	if !strings.EqualFold(c.EntityAlias, query.RootAlias) {
		prefix, err := g.Path(c.EntityAlias)
		if err != nil {
			// Condition bound to an alias the graph no longer has (its join
			// was removed); it contributes nothing.
			return "", nil
		}
		path = prefix + "/" + c.Attribute
	}

	switch op.Kind {
	case filter.KindCompare:
		return fmt.Sprintf("%s %s %s", path, op.Target, literal(c.Value)), nil
	case filter.KindNull:
		return fmt.Sprintf("%s %s null", path, op.Target), nil
	case filter.KindFunc:
		frag := fmt.Sprintf("%s(%s, %s)", op.Target, path, literal(c.Value))
		if op.Negate {
			frag = "not " + frag
		}
		return frag, nil
	case filter.KindBetween:
		frag := fmt.Sprintf("(%s ge %s and %s le %s)", path, literal(c.Value), path, literal(c.Value2))
		if op.Negate {
			frag = "not " + frag
		}
		return frag, nil
	case filter.KindDateFunc:
		if op.Arity == 0 {
			return fmt.Sprintf("%s.%s(PropertyName='%s')", filter.FunctionNamespace, op.Target, path), nil
		}
		return fmt.Sprintf("%s.%s(PropertyName='%s',PropertyValue=%s)",
			filter.FunctionNamespace, op.Target, path, propertyValue(c.Value)), nil
	default:
		return "", nil
	}
}

// literal formats a condition value: strings single-quoted with quote
// doubling, numbers and booleans bare.
func literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// propertyValue formats a PropertyValue argument: integer counts bare,
// date strings quoted.
func propertyValue(v any) string {
	switch val := v.(type) {
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// encodeFilter percent-encodes the $filter value as a whole. $select and
// $expand stay literal: their commas are syntax the wire protocol expects
// unencoded.
func encodeFilter(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
