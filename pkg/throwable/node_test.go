package throwable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeEqual(t *testing.T) {
	assert.True(t, sampleTree().Equal(sampleTree()))
	assert.True(t, (*Node)(nil).Equal(nil))
	assert.False(t, sampleTree().Equal(nil))

	changed := sampleTree()
	changed.Suppressed[0].Frames[0].Exact = true
	assert.False(t, sampleTree().Equal(changed))

	changed = sampleTree()
	changed.Frames[1].Exact = true
	assert.True(t, sampleTree().Equal(changed), "exact without provenance is ignored")

	changed = sampleTree()
	changed.Cause.Cause = &Node{Name: "x"}
	assert.False(t, sampleTree().Equal(changed))
}

func TestNodeEqual_Cyclic(t *testing.T) {
	a := &Node{Name: "a.A"}
	a.Cause = a
	b := &Node{Name: "a.A"}
	b.Cause = b
	assert.True(t, a.Equal(b))

	c := &Node{Name: "a.C"}
	c.Cause = c
	assert.False(t, a.Equal(c))
}

func TestNodeWalkAndCounts(t *testing.T) {
	n := sampleTree()

	var names []string
	n.Walk(func(node *Node, _ int) bool {
		names = append(names, node.Name)
		return true
	})
	assert.Equal(t, []string{
		"java.lang.RuntimeException",
		"java.lang.IllegalStateException",
		"java.lang.NullPointerException",
	}, names)

	assert.Equal(t, 5, n.FrameCount())
	assert.Equal(t, 2, n.Depth())
	assert.Equal(t, "java.lang.NullPointerException", n.RootCause().Name)
}

func TestNodeRootCause_Cycle(t *testing.T) {
	a := &Node{Name: "a.A"}
	b := &Node{Name: "a.B", Cause: a}
	a.Cause = b

	root := a.RootCause()
	require.NotNil(t, root)
	assert.Equal(t, "a.B", root.Name)
	assert.Nil(t, (*Node)(nil).RootCause())
}
