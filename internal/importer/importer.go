// Package importer turns a parsed FetchXML document into the normalized
// query model: query graph, selected columns, filter tree, and sort orders.
//
// Import is deliberately tolerant. View documents are authored externally
// and outlive schema changes, so attributes missing from current metadata
// are skipped and joins whose relationship no longer resolves are dropped
// with their whole subtree. A smaller query beats no query; every drop is
// recorded so callers can surface the degradation instead of guessing.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fetchview/fetchview/internal/fetchxml"
	"github.com/fetchview/fetchview/internal/filter"
	"github.com/fetchview/fetchview/internal/metadata"
	"github.com/fetchview/fetchview/internal/query"
)

// Dropped records one subtree or condition the importer discarded, keyed by
// its alias path in the document.
type Dropped struct {
	Path   string
	Reason string
}

// Result is a complete imported model.
type Result struct {
	Graph   *query.Graph
	Columns query.Columns
	Filter  filter.Group
	Orders  []query.Order
	Dropped []Dropped
}

// Importer builds query models from FetchXML documents using a metadata
// resolver for join and attribute resolution.
type Importer struct {
	meta *metadata.Resolver
}

// New returns an Importer over the given resolver.
func New(meta *metadata.Resolver) *Importer {
	return &Importer{meta: meta}
}

// Import translates one document. It fails on metadata fetch errors and on
// an unknown root entity; stale attributes and unresolvable joins degrade
// the result instead of failing it.
func (im *Importer) Import(ctx context.Context, doc *fetchxml.Document) (*Result, error) {
	if doc.Entity == nil || doc.Entity.Name == "" {
		return nil, fetchxml.ErrNoEntity
	}

	root, err := im.meta.Entity(ctx, doc.Entity.Name)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Graph:  query.NewGraph(*root),
		Filter: filter.NewGroup(filter.And),
	}
	if err := im.importScope(ctx, res, query.RootAlias, *root, doc.Entity.Members); err != nil {
		return nil, err
	}
	return res, nil
}

// importScope applies the per-entity import steps for one node: columns,
// filters, orders, then nested joins recursively.
func (im *Importer) importScope(ctx context.Context, res *Result, alias string, ent metadata.EntityDescriptor, members fetchxml.Members) error {
	attrs, err := im.meta.Attributes(ctx, ent.LogicalName)
	if err != nil {
		return err
	}

	declared := 0
	for _, a := range members.Attributes {
		desc := findAttribute(attrs, a.Name)
		if desc == nil {
			// Schema drift: the view selects a field the entity no longer
			// has.
			res.Dropped = append(res.Dropped, Dropped{
				Path:   alias + "." + a.Name,
				Reason: "attribute not in current metadata",
			})
			continue
		}
		display := a.Alias
		if display == "" {
			display = desc.Label()
		}
		res.Columns = append(res.Columns, query.Column{
			EntityAlias: alias,
			WireName:    desc.SelectName(),
			Display:     display,
			LogicalName: desc.LogicalName,
			Type:        desc.Type,
		})
		declared++
	}

	for _, f := range members.Filters {
		group := im.importFilter(res, alias, attrs, f)
		if len(group.Children) > 0 {
			res.Filter.Children = append(res.Filter.Children, group)
		}
	}

	// A view that declares no columns still has to show something human
	// readable, so fall back to the primary name attribute.
	if declared == 0 {
		if desc := findAttribute(attrs, ent.PrimaryNameAttribute); desc != nil {
			res.Columns = append(res.Columns, query.Column{
				EntityAlias: alias,
				WireName:    desc.SelectName(),
				Display:     desc.Label(),
				LogicalName: desc.LogicalName,
				Type:        desc.Type,
			})
		}
	}

	// The primary id is always selected: record links and joined-array
	// traversal anchor on it.
	if !res.Columns.Contains(alias, ent.PrimaryIDAttribute) {
		display := ent.PrimaryIDAttribute
		typ := metadata.TypeUniqueidentifier
		if desc := findAttribute(attrs, ent.PrimaryIDAttribute); desc != nil {
			display = desc.Label()
			typ = desc.Type
		}
		res.Columns = append(res.Columns, query.Column{
			EntityAlias: alias,
			WireName:    ent.PrimaryIDAttribute,
			Display:     display,
			LogicalName: ent.PrimaryIDAttribute,
			Type:        typ,
		})
	}

	if alias == query.RootAlias {
		for _, o := range members.Orders {
			desc := findAttribute(attrs, o.Attribute)
			if desc == nil {
				continue
			}
			res.Orders = append(res.Orders, query.Order{WireName: desc.SelectName(), Descending: o.Descending})
		}
	}

	for _, link := range members.LinkEntities {
		if err := im.importJoin(ctx, res, alias, ent, link); err != nil {
			return err
		}
	}
	return nil
}

// importJoin resolves one link-entity into a graph edge, or drops it.
func (im *Importer) importJoin(ctx context.Context, res *Result, parentAlias string, parent metadata.EntityDescriptor, link fetchxml.LinkEntity) error {
	childAlias := link.Alias
	if childAlias == "" {
		childAlias = link.Name
	}
	path := parentAlias + "." + childAlias

	nav, err := im.meta.ResolveNavigation(ctx, parent.LogicalName, link.Name, link.From, link.To)
	if err != nil {
		return err
	}
	if nav == nil {
		res.Dropped = append(res.Dropped, Dropped{
			Path:   path,
			Reason: fmt.Sprintf("no relationship from %s to %s matches the join hints", parent.LogicalName, link.Name),
		})
		return nil
	}

	child, err := im.meta.Entity(ctx, link.Name)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			res.Dropped = append(res.Dropped, Dropped{Path: path, Reason: "joined entity not in current metadata"})
			return nil
		}
		return err
	}

	grown, err := res.Graph.WithJoin(query.Node{
		Alias:              childAlias,
		Entity:             *child,
		ParentAlias:        parentAlias,
		Relationship:       nav.Relationship.SchemaName,
		RelationshipType:   nav.Type,
		NavigationProperty: nav.Property,
	})
	if err != nil {
		// Alias collisions are authoring mistakes in the document; merging
		// two joins under one alias would silently conflate their columns.
		res.Dropped = append(res.Dropped, Dropped{Path: path, Reason: err.Error()})
		return nil
	}
	res.Graph = grown

	return im.importScope(ctx, res, childAlias, *child, link.Members)
}

// importFilter translates one filter element into a group, recursively.
func (im *Importer) importFilter(res *Result, alias string, attrs []metadata.AttributeDescriptor, f fetchxml.Filter) filter.Group {
	logic := filter.And
	if strings.EqualFold(f.Type, string(filter.Or)) {
		logic = filter.Or
	}
	group := filter.NewGroup(logic)

	for _, c := range f.Conditions {
		cond, ok := im.importCondition(res, alias, attrs, c)
		if ok {
			group.Children = append(group.Children, cond)
		}
	}
	for _, nested := range f.Filters {
		sub := im.importFilter(res, alias, attrs, nested)
		if len(sub.Children) > 0 {
			group.Children = append(group.Children, sub)
		}
	}
	return group
}

// importCondition maps one raw condition through the operator table and
// coerces its value by the target attribute's type.
func (im *Importer) importCondition(res *Result, alias string, attrs []metadata.AttributeDescriptor, c fetchxml.Condition) (filter.Condition, bool) {
	path := alias + "." + c.Attribute

	op, ok := filter.OperatorFor(c.Operator)
	if !ok {
		res.Dropped = append(res.Dropped, Dropped{
			Path:   path,
			Reason: fmt.Sprintf("operator %q is not supported", c.Operator),
		})
		return filter.Condition{}, false
	}

	desc := findAttribute(attrs, c.Attribute)
	if desc == nil {
		res.Dropped = append(res.Dropped, Dropped{
			Path:   path,
			Reason: "condition attribute not in current metadata",
		})
		return filter.Condition{}, false
	}

	cond := filter.NewCondition(alias, desc.SelectName())
	cond.Operator = op.Name

	raw, raw2 := c.Value, ""
	if len(c.Values) > 0 {
		raw = c.Values[0]
	}
	if len(c.Values) > 1 {
		raw2 = c.Values[1]
	}
	if op.Arity >= 1 {
		cond.Value = coerceValue(op, desc.Type, raw)
	}
	if op.Arity == 2 {
		cond.Value2 = coerceValue(op, desc.Type, raw2)
	}
	return cond, true
}

// coerceValue converts the document's string literal to the value type the
// compiler expects for the attribute.
func coerceValue(op filter.Operator, t metadata.AttributeType, raw string) any {
	raw = strings.TrimSpace(raw)

	// The x-days family takes an integer count no matter what the attribute
	// declares.
	if op.IntValue {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
		return raw
	}

	switch op.Name {
	case "contains", "not-contains":
		// FetchXML like-patterns carry SQL wildcards; contains() has its
		// own substring semantics.
		raw = strings.ReplaceAll(raw, "%", "")
	}

	switch {
	case t.IsNumeric():
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	case t == metadata.TypeBoolean:
		return raw == "1" || strings.EqualFold(raw, "true")
	default:
		return raw
	}
}

func findAttribute(attrs []metadata.AttributeDescriptor, logicalName string) *metadata.AttributeDescriptor {
	if logicalName == "" {
		return nil
	}
	for i := range attrs {
		if metadata.EqualFold(attrs[i].LogicalName, logicalName) {
			return &attrs[i]
		}
	}
	return nil
}
