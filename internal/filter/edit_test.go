package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTree builds and(cond1, or(cond2)) and returns the tree plus the
// three ids.
func sampleTree() (Group, Condition, Group, Condition) {
	cond1 := NewCondition("main", "fullname")
	cond1.Operator = "contains"
	cond1.Value = "smith"

	cond2 := NewCondition("acct", "revenue")
	cond2.Operator = "gt"
	cond2.Value = 100000

	inner := NewGroup(Or)
	inner.Children = []Node{cond2}

	root := NewGroup(And)
	root.Children = []Node{cond1, inner}
	return root, cond1, inner, cond2
}

func TestNewConditionDefaults(t *testing.T) {
	c := NewCondition("main", "fullname")
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "eq", c.Operator)
	assert.Nil(t, c.Value)
}

func TestFind(t *testing.T) {
	root, cond1, inner, cond2 := sampleTree()

	n, ok := Find(root, cond2.ID)
	require.True(t, ok)
	assert.Equal(t, cond2.ID, n.NodeID())

	n, ok = Find(root, inner.ID)
	require.True(t, ok)
	assert.Equal(t, inner.ID, n.NodeID())

	_, ok = Find(root, "no-such-id")
	assert.False(t, ok)

	n, ok = Find(root, cond1.ID)
	require.True(t, ok)
	assert.Equal(t, cond1.ID, n.NodeID())
}

func TestWithNodeReplacesDeepCondition(t *testing.T) {
	root, _, _, cond2 := sampleTree()

	updated, ok := WithNode(root, cond2.ID, func(n Node) Node {
		c := n.(Condition)
		c.Value = 250000
		return c
	})
	require.True(t, ok)

	found, ok := Find(updated, cond2.ID)
	require.True(t, ok)
	assert.Equal(t, 250000, found.(Condition).Value)

	// Original tree unchanged.
	orig, _ := Find(root, cond2.ID)
	assert.Equal(t, 100000, orig.(Condition).Value)
}

func TestWithNodeUnknownID(t *testing.T) {
	root, _, _, _ := sampleTree()

	updated, ok := WithNode(root, "missing", func(n Node) Node { return n })
	assert.False(t, ok)
	assert.Equal(t, root.ID, updated.ID)
}

func TestWithoutNodeRemovesSubtree(t *testing.T) {
	root, cond1, inner, cond2 := sampleTree()

	updated, ok := WithoutNode(root, inner.ID)
	require.True(t, ok)

	_, found := Find(updated, inner.ID)
	assert.False(t, found)
	_, found = Find(updated, cond2.ID)
	assert.False(t, found, "the group's children go with it")
	_, found = Find(updated, cond1.ID)
	assert.True(t, found)
}

func TestWithoutNodeRefusesRoot(t *testing.T) {
	root, _, _, _ := sampleTree()

	_, ok := WithoutNode(root, root.ID)
	assert.False(t, ok)
}

func TestAppendToNestedGroup(t *testing.T) {
	root, _, inner, _ := sampleTree()

	extra := NewCondition("main", "statecode")
	updated, ok := Append(root, inner.ID, extra)
	require.True(t, ok)

	got, found := Find(updated, inner.ID)
	require.True(t, found)
	assert.Len(t, got.(Group).Children, 2)

	// Original group still has one child.
	orig, _ := Find(root, inner.ID)
	assert.Len(t, orig.(Group).Children, 1)
}

func TestRetargetResetsOperatorAndValues(t *testing.T) {
	c := NewCondition("main", "fullname")
	c.Operator = "contains"
	c.Value = "smith"
	c.Value2 = "jones"

	r := Retarget(c, "acct", "revenue")
	assert.Equal(t, c.ID, r.ID, "identity survives a retarget")
	assert.Equal(t, "acct", r.EntityAlias)
	assert.Equal(t, "revenue", r.Attribute)
	assert.Equal(t, "eq", r.Operator)
	assert.Nil(t, r.Value)
	assert.Nil(t, r.Value2)
}
