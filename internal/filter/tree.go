// Package filter holds the boolean expression tree attached to a query:
// AND/OR groups containing conditions or nested groups. Each condition is
// bound to a query-graph node by entity alias.
package filter

import "github.com/google/uuid"

// Logic is a group's combining operator.
type Logic string

const (
	And Logic = "and"
	Or  Logic = "or"
)

// Node is one element of a filter tree.
//
// This is a sealed interface - only Group and Condition implement it. The
// marker method keeps type switches in the compiler exhaustive.
type Node interface {
	filterNode()
	// NodeID returns the stable identity used by the rebuild-by-id edit
	// operations.
	NodeID() string
}

// Group combines child nodes with a single logical operator. A group with
// zero children is legal in the model and compiles to nothing. The root of
// every filter tree is a Group.
type Group struct {
	ID       string
	Logic    Logic
	Children []Node
}

func (Group) filterNode() {}

// NodeID implements Node.
func (g Group) NodeID() string { return g.ID }

// Condition is one predicate on a single attribute of a graph node. Value2
// is only set for two-value operators (between). A condition with an empty
// Attribute or Operator is an in-progress edit and compiles to nothing.
type Condition struct {
	ID          string
	EntityAlias string
	Attribute   string
	Operator    string
	Value       any
	Value2      any
}

func (Condition) filterNode() {}

// NodeID implements Node.
func (c Condition) NodeID() string { return c.ID }

// NewGroup returns an empty group with a fresh id.
func NewGroup(logic Logic) Group {
	return Group{ID: newID(), Logic: logic}
}

// NewCondition returns a condition bound to an alias with a fresh id. The
// operator defaults to eq.
func NewCondition(entityAlias, attribute string) Condition {
	return Condition{ID: newID(), EntityAlias: entityAlias, Attribute: attribute, Operator: "eq"}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
