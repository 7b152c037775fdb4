// Package render decorates canonical stack trace text for terminals.
package render

import (
	"strings"

	"github.com/fatih/color"
)

var (
	headerColor     = color.New(color.FgRed, color.Bold)
	prefixColor     = color.New(color.FgYellow)
	provenanceColor = color.New(color.FgCyan)
	omittedColor    = color.New(color.Faint)
)

// Colorize adds ANSI colors to canonical stack trace text. Headers are bold
// red, "Caused by:" and "Suppressed:" labels yellow, frame provenance cyan and
// "... n more" lines faint. Text is returned unchanged when color.NoColor is
// set.
func Colorize(text string) string {
	if color.NoColor || text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = colorizeLine(line)
	}
	return strings.Join(lines, "\n")
}

func colorizeLine(line string) string {
	body := strings.TrimLeft(line, "\t")
	indent := line[:len(line)-len(body)]
	if body == "" {
		return line
	}

	switch {
	case strings.HasPrefix(body, "at "):
		return indent + colorizeFrame(body)
	case strings.HasPrefix(body, "... ") && strings.HasSuffix(body, " more"):
		return indent + omittedColor.Sprint(body)
	}

	for _, label := range []string{"Caused by:", "Suppressed:"} {
		if rest, ok := strings.CutPrefix(body, label); ok {
			return indent + prefixColor.Sprint(label) + headerColor.Sprint(rest)
		}
	}
	return indent + headerColor.Sprint(body)
}

// colorizeFrame highlights a trailing " [..]" or " ~[..]" provenance suffix.
func colorizeFrame(body string) string {
	if !strings.HasSuffix(body, "]") {
		return body
	}
	paren := strings.LastIndexByte(body, ')')
	if paren < 0 || paren+1 >= len(body) || body[paren+1] != ' ' {
		return body
	}
	return body[:paren+1] + " " + provenanceColor.Sprint(body[paren+2:])
}
