package filter

// Edit operations rebuild the tree rather than mutating in place: they
// locate a node by id and return a new root with the replacement spliced
// in. A tree is therefore an immutable value between edits, which keeps
// change detection and undo a matter of holding old roots.

// WithNode returns a new tree in which the node with the given id has been
// replaced by fn's result. The second result is false when the id is not in
// the tree; the original root is returned unchanged.
func WithNode(root Group, id string, fn func(Node) Node) (Group, bool) {
	node, ok := rebuild(root, id, func(n Node) (Node, bool) {
		return fn(n), true
	})
	if !ok {
		return root, false
	}
	return node.(Group), true
}

// WithoutNode returns a new tree with the identified node (and, for groups,
// its entire subtree) removed. Removing the root id is not supported; the
// root group always remains.
func WithoutNode(root Group, id string) (Group, bool) {
	if root.ID == id {
		return root, false
	}
	node, ok := rebuild(root, id, func(Node) (Node, bool) {
		return nil, false // splice out
	})
	if !ok {
		return root, false
	}
	return node.(Group), true
}

// Append returns a new tree with child appended to the group identified by
// groupID.
func Append(root Group, groupID string, child Node) (Group, bool) {
	node, ok := rebuild(root, groupID, func(n Node) (Node, bool) {
		g, isGroup := n.(Group)
		if !isGroup {
			return n, true
		}
		children := make([]Node, 0, len(g.Children)+1)
		children = append(children, g.Children...)
		children = append(children, child)
		g.Children = children
		return g, true
	})
	if !ok {
		return root, false
	}
	return node.(Group), true
}

// Retarget returns the condition re-bound to a new attribute. The operator
// resets to eq and both values clear: an operator legal for the old
// attribute type may be illegal for the new one.
func Retarget(c Condition, entityAlias, attribute string) Condition {
	c.EntityAlias = entityAlias
	c.Attribute = attribute
	c.Operator = "eq"
	c.Value = nil
	c.Value2 = nil
	return c
}

// Find locates a node by id.
func Find(root Group, id string) (Node, bool) {
	if root.ID == id {
		return root, true
	}
	for _, child := range root.Children {
		switch n := child.(type) {
		case Group:
			if found, ok := Find(n, id); ok {
				return found, ok
			}
		case Condition:
			if n.ID == id {
				return n, true
			}
		}
	}
	return nil, false
}

// rebuild walks the tree copying every node on the path to id, applying fn
// at the target. fn's second result false removes the node. The returned
// bool reports whether the id was found.
func rebuild(n Node, id string, fn func(Node) (Node, bool)) (Node, bool) {
	if n.NodeID() == id {
		replacement, keep := fn(n)
		if !keep {
			return nil, true
		}
		return replacement, true
	}

	g, isGroup := n.(Group)
	if !isGroup {
		return n, false
	}

	found := false
	children := make([]Node, 0, len(g.Children))
	for _, child := range g.Children {
		if found {
			children = append(children, child)
			continue
		}
		replaced, ok := rebuild(child, id, fn)
		if ok {
			found = true
			if replaced != nil {
				children = append(children, replaced)
			}
			continue
		}
		children = append(children, child)
	}
	if !found {
		return n, false
	}
	g.Children = children
	return g, true
}
