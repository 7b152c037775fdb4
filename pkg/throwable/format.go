package throwable

import (
	"strconv"
	"strings"
)

// CircularReferenceMarker is emitted in place of a node that was already
// written earlier in the same trace.
const CircularReferenceMarker = "[CIRCULAR REFERENCE]"

const (
	causedByPrefix   = "Caused by: "
	suppressedPrefix = "Suppressed: "
)

// Format renders n in the canonical multi-line stack trace form. Lines are
// separated by "\n" and there is no trailing newline. A nil node renders as
// the empty string.
func Format(n *Node, extended bool) string {
	return string(AppendFormat(nil, n, extended))
}

// AppendFormat appends the canonical rendering of n to dst and returns the
// extended buffer.
func AppendFormat(dst []byte, n *Node, extended bool) []byte {
	if n == nil {
		return dst
	}
	w := traceWriter{buf: dst, extended: extended, visited: map[*Node]struct{}{}}
	w.write(n)
	return w.buf
}

type pendingNode struct {
	node   *Node
	indent int
	prefix string
}

type traceWriter struct {
	buf      []byte
	extended bool
	visited  map[*Node]struct{}
	started  bool
}

// write emits the tree rooted at root using an explicit stack so that deep
// cause chains cannot exhaust the goroutine stack.
func (w *traceWriter) write(root *Node) {
	stack := []pendingNode{{node: root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		w.newLine(p.indent)
		w.buf = append(w.buf, p.prefix...)
		w.appendHeader(p.node, p.indent)

		if _, seen := w.visited[p.node]; seen {
			w.buf = append(w.buf, ' ')
			w.buf = append(w.buf, CircularReferenceMarker...)
			continue
		}
		w.visited[p.node] = struct{}{}

		for _, f := range p.node.Frames {
			w.newLine(p.indent + 1)
			w.buf = append(w.buf, "at "...)
			w.buf = f.AppendFormat(w.buf, w.extended)
		}
		if p.node.OmittedElements > 0 {
			w.newLine(p.indent + 1)
			w.buf = append(w.buf, "... "...)
			w.buf = strconv.AppendInt(w.buf, int64(p.node.OmittedElements), 10)
			w.buf = append(w.buf, " more"...)
		}

		// Pushed in reverse: suppressed entries pop first, in order, then the cause.
		if p.node.Cause != nil {
			stack = append(stack, pendingNode{node: p.node.Cause, indent: p.indent, prefix: causedByPrefix})
		}
		for i := len(p.node.Suppressed) - 1; i >= 0; i-- {
			if s := p.node.Suppressed[i]; s != nil {
				stack = append(stack, pendingNode{node: s, indent: p.indent + 1, prefix: suppressedPrefix})
			}
		}
	}
}

// newLine terminates the previous line, if any, and writes indent tabs.
func (w *traceWriter) newLine(indent int) {
	if w.started {
		w.buf = append(w.buf, '\n')
	}
	w.started = true
	for i := 0; i < indent; i++ {
		w.buf = append(w.buf, '\t')
	}
}

// appendHeader writes the node header. Continuation lines of a multi-line
// message are re-indented to the header's indent.
func (w *traceWriter) appendHeader(n *Node, indent int) {
	header := n.Header()
	if indent == 0 || !strings.Contains(header, "\n") {
		w.buf = append(w.buf, header...)
		return
	}
	tabs := strings.Repeat("\t", indent)
	w.buf = append(w.buf, strings.ReplaceAll(header, "\n", "\n"+tabs)...)
}
