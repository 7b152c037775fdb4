package throwable

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds cause/suppressed nesting when Parser.MaxDepth is zero.
const DefaultMaxDepth = 512

var (
	frameLine   = regexp.MustCompile(`^(\t+)at (.+)$`)
	omittedLine = regexp.MustCompile(`^(\t+)\.\.\. (\d+) more\s*$`)
	headerLine  = regexp.MustCompile(`^(\t*)(Caused by: |Suppressed: )?(.*)$`)
)

// Warning is a non-fatal diagnostic produced while parsing.
type Warning struct {
	// Line is the 1-based line number within the parsed input.
	Line   int    `json:"line" yaml:"line"`
	Text   string `json:"text" yaml:"text"`
	Reason string `json:"reason" yaml:"reason"`
}

func (w Warning) Error() string {
	return fmt.Sprintf("line %d: %s: %q", w.Line, w.Reason, w.Text)
}

// Result is the outcome of a parse.
type Result struct {
	// Node is nil when the input held no trace content.
	Node     *Node
	Warnings []Warning
	// End is the index of the first line not consumed by the trace.
	End int
}

// Parser turns canonical stack trace text back into a Node tree. The zero
// value is ready to use. A Parser holds no state between calls and may be
// shared between goroutines.
type Parser struct {
	// MaxDepth bounds nesting of causes and suppressed nodes. When exceeded,
	// parsing stops and the partial tree is returned with a warning.
	MaxDepth int
}

// Parse parses text with a default Parser and returns the root node, or nil.
func Parse(text string) *Node {
	return (&Parser{}).Parse(text).Node
}

// ParseLines parses pre-split lines with a default Parser.
func ParseLines(lines []string) *Node {
	return (&Parser{}).ParseLines(lines).Node
}

// Parse splits text into lines and parses them.
func (p *Parser) Parse(text string) Result {
	return p.ParseLines(SplitLines(text))
}

// ParseLines parses a trace starting at the first line. Parsing never fails:
// malformed lines are dropped or end the trace region and are reported as
// warnings. Trailing blank lines are ignored.
func (p *Parser) ParseLines(lines []string) Result {
	last := len(lines)
	for last > 0 && isBlank(lines[last-1]) {
		last--
	}

	c := &cursor{lines: lines[:last], maxDepth: p.MaxDepth}
	if c.maxDepth <= 0 {
		c.maxDepth = DefaultMaxDepth
	}

	node, end := c.parseNode(0, 0, 1)
	if end < last && !c.halted {
		c.warn(end, "trailing lines outside the trace were ignored")
	}
	if end == last {
		end = len(lines)
	}
	return Result{Node: node, Warnings: c.warnings, End: end}
}

// cursor walks a fixed slice of lines. Each parseNode call owns the region it
// consumes and returns the index of the first line it did not consume.
type cursor struct {
	lines    []string
	maxDepth int
	halted   bool
	warnings []Warning
}

func (c *cursor) warn(index int, reason string) {
	c.warnings = append(c.warnings, Warning{Line: index + 1, Text: c.lines[index], Reason: reason})
}

//nolint:gocognit,gocyclo,funlen // one loop per grammar rule keeps the region logic in one place
func (c *cursor) parseNode(start, indent, depth int) (*Node, int) {
	n := &Node{}
	var (
		headerSeen     bool
		messageStarted bool
		message        strings.Builder
	)

	i := start
scan:
	for i < len(c.lines) && !c.halted {
		line := c.lines[i]

		if m := frameLine.FindStringSubmatch(line); m != nil {
			if len(m[1]) != indent+1 {
				break
			}
			if f, ok := ParseFrame(m[2]); ok {
				n.Frames = append(n.Frames, f)
			} else {
				c.warn(i, "unparseable frame dropped")
			}
			i++
			continue
		}

		if m := omittedLine.FindStringSubmatch(line); m != nil {
			if len(m[1]) != indent+1 {
				break
			}
			if count, err := strconv.Atoi(m[2]); err == nil {
				n.OmittedElements = count
			} else {
				c.warn(i, "omitted frame count out of range")
			}
			i++
			continue
		}

		m := headerLine.FindStringSubmatch(line)
		if m == nil {
			c.warn(i, "unrecognized line skipped")
			i++
			continue
		}
		lineIndent, prefix, rest := len(m[1]), m[2], m[3]
		// A prefix on the node's first content line belongs to the node itself.
		first := !headerSeen && len(n.Frames) == 0 && n.OmittedElements == 0 &&
			n.Cause == nil && len(n.Suppressed) == 0

		switch {
		case prefix == causedByPrefix && !first:
			if lineIndent != indent {
				break scan
			}
			if depth >= c.maxDepth {
				c.halt(i)
				break scan
			}
			cause, next := c.parseNode(i, indent, depth+1)
			if cause != nil {
				n.Cause = cause
			}
			i = next

		case prefix == suppressedPrefix && !first:
			if lineIndent != indent+1 {
				break scan
			}
			if depth >= c.maxDepth {
				c.halt(i)
				break scan
			}
			suppressed, next := c.parseNode(i, indent+1, depth+1)
			if suppressed != nil {
				n.Suppressed = append(n.Suppressed, suppressed)
			}
			i = next

		case !headerSeen:
			i++
			if isBlank(rest) {
				continue
			}
			headerSeen = true
			name, msg, found := strings.Cut(rest, ": ")
			n.Name = name
			if found {
				messageStarted = true
				message.WriteString(msg)
			}

		default:
			i++
			extra := lineIndent - indent
			if extra < 0 {
				extra = 0
			}
			if messageStarted {
				message.WriteByte('\n')
			}
			messageStarted = true
			message.WriteString(strings.Repeat("\t", extra))
			message.WriteString(rest)
		}
	}

	n.Message = message.String()
	if !n.populated() {
		return nil, i
	}
	return n, i
}

func (c *cursor) halt(index int) {
	c.halted = true
	c.warn(index, fmt.Sprintf("nesting deeper than %d levels; remaining lines ignored", c.maxDepth))
}

func (n *Node) populated() bool {
	return n.Name != "" || n.Message != "" || len(n.Frames) > 0 ||
		n.OmittedElements != 0 || n.Cause != nil || len(n.Suppressed) > 0
}
