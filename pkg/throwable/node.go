package throwable

// Node is one exception in a trace tree.
//
// Name and Message are absent when empty. OmittedElements counts trailing
// frames elided because they are shared with the enclosing trace.
//
// Nothing prevents Cause or Suppressed from pointing back at an ancestor.
// Nodes built by Parse are always trees; code that builds nodes by hand must
// not rely on acyclicity, and Format guards against cycles.
type Node struct {
	Name            string  `json:"name,omitempty" yaml:"name,omitempty"`
	Message         string  `json:"message,omitempty" yaml:"message,omitempty"`
	Frames          []Frame `json:"frames,omitempty" yaml:"frames,omitempty"`
	OmittedElements int     `json:"omitted_elements,omitempty" yaml:"omitted_elements,omitempty"`
	Suppressed      []*Node `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	Cause           *Node   `json:"cause,omitempty" yaml:"cause,omitempty"`
}

// Header returns the first line content for the node: "name: message",
// or whichever of the two is present.
func (n *Node) Header() string {
	switch {
	case n.Name == "":
		return n.Message
	case n.Message == "" || n.Message == n.Name:
		return n.Name
	default:
		return n.Name + ": " + n.Message
	}
}

// RootCause follows the cause chain to its end. It stops at the first
// repeated node.
func (n *Node) RootCause() *Node {
	if n == nil {
		return nil
	}
	seen := map[*Node]struct{}{}
	cur := n
	for cur.Cause != nil {
		seen[cur] = struct{}{}
		if _, ok := seen[cur.Cause]; ok {
			break
		}
		cur = cur.Cause
	}
	return cur
}

// Walk visits n and every node reachable through Suppressed and Cause in
// the order Format emits them. Each node is visited at most once. Returning
// false from fn stops the walk.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	if n == nil {
		return
	}
	type item struct {
		node  *Node
		depth int
	}
	seen := map[*Node]struct{}{}
	stack := []item{{n, 0}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[it.node]; ok {
			continue
		}
		seen[it.node] = struct{}{}
		if !fn(it.node, it.depth) {
			return
		}
		if it.node.Cause != nil {
			stack = append(stack, item{it.node.Cause, it.depth + 1})
		}
		for i := len(it.node.Suppressed) - 1; i >= 0; i-- {
			if s := it.node.Suppressed[i]; s != nil {
				stack = append(stack, item{s, it.depth + 1})
			}
		}
	}
}

// Depth returns the longest cause/suppressed path below n, counting n itself.
func (n *Node) Depth() int {
	max := 0
	n.Walk(func(_ *Node, depth int) bool {
		if depth+1 > max {
			max = depth + 1
		}
		return true
	})
	return max
}

// FrameCount returns the number of frames in n and all reachable nodes.
func (n *Node) FrameCount() int {
	total := 0
	n.Walk(func(node *Node, _ int) bool {
		total += len(node.Frames)
		return true
	})
	return total
}

// Equal reports whether n and o are structurally equal, field for field.
// Cyclic structures compare equal when their shapes match.
func (n *Node) Equal(o *Node) bool {
	return equalNodes(n, o, map[[2]*Node]struct{}{})
}

func equalNodes(a, b *Node, assumed map[[2]*Node]struct{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	key := [2]*Node{a, b}
	if _, ok := assumed[key]; ok {
		return true
	}
	assumed[key] = struct{}{}

	if a.Name != b.Name || a.Message != b.Message || a.OmittedElements != b.OmittedElements {
		return false
	}
	if len(a.Frames) != len(b.Frames) || len(a.Suppressed) != len(b.Suppressed) {
		return false
	}
	for i := range a.Frames {
		if !a.Frames[i].Equal(b.Frames[i]) {
			return false
		}
	}
	for i := range a.Suppressed {
		if !equalNodes(a.Suppressed[i], b.Suppressed[i], assumed) {
			return false
		}
	}
	return equalNodes(a.Cause, b.Cause, assumed)
}
