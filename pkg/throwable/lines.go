package throwable

import "strings"

// SplitLines splits text on line breaks. "\r" is ignored, so "\r\n" and "\n"
// both end a line. Empty lines are preserved, and empty or blank input yields
// a single empty line.
func SplitLines(text string) []string {
	if isBlank(text) {
		return []string{""}
	}
	if strings.IndexByte(text, '\r') >= 0 {
		text = strings.ReplaceAll(text, "\r", "")
	}
	return strings.Split(text, "\n")
}

// SplitBlocks splits a log excerpt holding several traces into blocks
// separated by one or more blank lines. Blank-only input yields no blocks.
func SplitBlocks(text string) []string {
	var (
		blocks  []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = current[:0]
		}
	}
	for _, line := range SplitLines(text) {
		if isBlank(line) {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
