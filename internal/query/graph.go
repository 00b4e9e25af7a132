// Package query holds the normalized query model: a tree of entity nodes
// (the root plus joined entities) and the columns selected from them. The
// model is what the importer produces, what interactive editing mutates, and
// what the compiler consumes.
package query

import (
	"fmt"
	"strings"

	"github.com/fetchview/fetchview/internal/metadata"
)

// RootAlias is the fixed alias of the root node. Every joined node's parent
// chain terminates here.
const RootAlias = "main"

// Node is one entity in the query graph. The root carries only its alias and
// descriptor; joined nodes additionally record how they hang off their
// parent.
type Node struct {
	Alias  string
	Entity metadata.EntityDescriptor

	// Join fields, zero-valued on the root.
	ParentAlias        string
	Relationship       string // relationship schema name
	RelationshipType   metadata.RelationshipType
	NavigationProperty string
}

// IsRoot reports whether the node is the graph root.
func (n Node) IsRoot() bool {
	return n.ParentAlias == ""
}

// Graph is a tree of entity nodes rooted at RootAlias. Aliases are unique
// case-insensitively. Graphs are values: every mutation returns a new graph
// and never touches the receiver, so a graph in the middle of a compile can
// be read freely while an edit builds its successor.
type Graph struct {
	nodes []Node // root first, then joins in insertion order
}

// NewGraph builds a graph containing only the root entity.
func NewGraph(root metadata.EntityDescriptor) *Graph {
	return &Graph{nodes: []Node{{Alias: RootAlias, Entity: root}}}
}

// Root returns the root node.
func (g *Graph) Root() Node {
	return g.nodes[0]
}

// Nodes returns every node, root first, in insertion order. The slice is a
// copy; callers may not reorder the graph through it.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Node finds a node by alias, case-insensitively.
func (g *Graph) Node(alias string) (Node, bool) {
	for _, n := range g.nodes {
		if metadata.EqualFold(n.Alias, alias) {
			return n, true
		}
	}
	return Node{}, false
}

// Children returns the nodes joined directly under the given alias.
func (g *Graph) Children(alias string) []Node {
	var out []Node
	for _, n := range g.nodes {
		if !n.IsRoot() && metadata.EqualFold(n.ParentAlias, alias) {
			out = append(out, n)
		}
	}
	return out
}

// WithJoin returns a new graph with one joined node added. It fails when the
// parent alias does not resolve or the new alias collides with an existing
// one; the graph invariants are enforced here, at the single construction
// point, rather than re-validated downstream.
func (g *Graph) WithJoin(n Node) (*Graph, error) {
	if n.Alias == "" {
		return nil, fmt.Errorf("join node requires an alias")
	}
	if n.ParentAlias == "" {
		return nil, fmt.Errorf("join node %q requires a parent alias", n.Alias)
	}
	if _, ok := g.Node(n.ParentAlias); !ok {
		return nil, fmt.Errorf("join node %q: parent alias %q does not exist", n.Alias, n.ParentAlias)
	}
	if _, ok := g.Node(n.Alias); ok {
		return nil, fmt.Errorf("alias %q already exists", n.Alias)
	}
	nodes := make([]Node, 0, len(g.nodes)+1)
	nodes = append(nodes, g.nodes...)
	nodes = append(nodes, n)
	return &Graph{nodes: nodes}, nil
}

// WithoutNode returns a new graph with the aliased node and its entire
// subtree removed. Removing the root is not allowed.
func (g *Graph) WithoutNode(alias string) (*Graph, error) {
	if metadata.EqualFold(alias, RootAlias) {
		return nil, fmt.Errorf("cannot remove the root node")
	}
	if _, ok := g.Node(alias); !ok {
		return nil, fmt.Errorf("alias %q does not exist", alias)
	}

	doomed := map[string]bool{strings.ToLower(alias): true}
	// Insertion order guarantees parents precede children, so one pass
	// collects the whole subtree.
	for _, n := range g.nodes {
		if !n.IsRoot() && doomed[strings.ToLower(n.ParentAlias)] {
			doomed[strings.ToLower(n.Alias)] = true
		}
	}

	nodes := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if !doomed[strings.ToLower(n.Alias)] {
			nodes = append(nodes, n)
		}
	}
	return &Graph{nodes: nodes}, nil
}

// Path returns the navigation-property path from the root to the aliased
// node, e.g. "parentcustomerid/primarycontactid". The root's path is empty.
func (g *Graph) Path(alias string) (string, error) {
	if metadata.EqualFold(alias, RootAlias) {
		return "", nil
	}
	var hops []string
	current := alias
	for !metadata.EqualFold(current, RootAlias) {
		n, ok := g.Node(current)
		if !ok {
			return "", fmt.Errorf("alias %q does not exist", current)
		}
		hops = append(hops, n.NavigationProperty)
		current = n.ParentAlias
	}
	// Collected leaf-to-root; reverse.
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}
	return strings.Join(hops, "/"), nil
}
