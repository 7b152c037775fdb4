package store

import (
	"encoding/json"
	"fmt"

	"github.com/dotcommander/tracekit/internal/models"
	"github.com/dotcommander/tracekit/pkg/throwable"
)

// traceColumns is the column list shared by every full-trace query.
const traceColumns = `id, fingerprint, name, message, body, tree, frame_count, depth,
	source, occurrences, warning_count, created_at, last_seen_at`

// traceRowScanner encapsulates the common trace row scanning logic.
type traceRowScanner struct {
	trace models.Trace
	tree  string
}

func (s *traceRowScanner) scan(row interface {
	Scan(dest ...any) error
}) error {
	return row.Scan(
		&s.trace.ID,
		&s.trace.Fingerprint,
		&s.trace.Name,
		&s.trace.Message,
		&s.trace.Body,
		&s.tree,
		&s.trace.FrameCount,
		&s.trace.Depth,
		&s.trace.Source,
		&s.trace.Occurrences,
		&s.trace.WarningCount,
		&s.trace.CreatedAt,
		&s.trace.LastSeenAt,
	)
}

func (s *traceRowScanner) hydrate() error {
	var node throwable.Node
	if err := json.Unmarshal([]byte(s.tree), &node); err != nil {
		return fmt.Errorf("decode tree for trace %s: %w", s.trace.ID, err)
	}
	s.trace.Tree = &node
	return nil
}

// scanTraceRow is a helper that scans and hydrates a trace from a single row.
func scanTraceRow(row interface {
	Scan(dest ...any) error
}) (*models.Trace, error) {
	scanner := &traceRowScanner{}
	if err := scanner.scan(row); err != nil {
		return nil, err
	}
	if err := scanner.hydrate(); err != nil {
		return nil, err
	}
	return &scanner.trace, nil
}
