package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dotcommander/tracekit/pkg/throwable"
)

// Diagnostic represents a single consistency check finding.
type Diagnostic struct {
	Level           string `json:"level"` // "warning" or "error"
	Code            string `json:"code"`
	TraceID         string `json:"trace_id,omitempty"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggested_action,omitempty"`
}

// RunDiagnostics re-derives body and fingerprint from every stored tree and
// reports rows that no longer agree with the current codec.
func RunDiagnostics(db *sql.DB) ([]Diagnostic, error) {
	rows, err := db.QueryContext(context.Background(), `SELECT id, fingerprint, body, tree FROM traces ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("trace consistency check: %w", err)
	}
	defer func() { _ = rows.Close() }()

	diags := []Diagnostic{}
	for rows.Next() {
		var id, fingerprint, body, tree string
		if err := rows.Scan(&id, &fingerprint, &body, &tree); err != nil {
			return nil, fmt.Errorf("trace consistency check: %w", err)
		}
		diags = append(diags, checkTrace(id, fingerprint, body, tree)...)
	}
	return diags, rows.Err()
}

func checkTrace(id, fingerprint, body, tree string) []Diagnostic {
	var node throwable.Node
	if err := json.Unmarshal([]byte(tree), &node); err != nil {
		return []Diagnostic{{
			Level:           "error",
			Code:            "CORRUPT_TREE",
			TraceID:         id,
			Message:         fmt.Sprintf("stored tree does not decode: %v", err),
			SuggestedAction: "tracekit delete " + id,
		}}
	}

	var diags []Diagnostic
	if throwable.Fingerprint(&node) != fingerprint {
		diags = append(diags, Diagnostic{
			Level:           "warning",
			Code:            "FINGERPRINT_DRIFT",
			TraceID:         id,
			Message:         "stored fingerprint differs from the fingerprint of the stored tree",
			SuggestedAction: "re-ingest the source so duplicates merge again",
		})
	}
	if throwable.Format(&node, true) != body {
		diags = append(diags, Diagnostic{
			Level:   "warning",
			Code:    "BODY_DRIFT",
			TraceID: id,
			Message: "stored body differs from the canonical rendering of the stored tree",
		})
	}
	return diags
}
