package models

import (
	"time"

	"github.com/dotcommander/tracekit/pkg/throwable"
)

// ID Strategy:
// Traces use string IDs ("trc_k3x9q2m1_a3f9...") so that ingests from
// several processes never collide. De-duplication is by Fingerprint, not ID.

// Trace is a stored stack trace. Body holds the canonical extended text and
// Tree the parsed structure it was rendered from.
type Trace struct {
	ID           string          `json:"id" yaml:"id"`
	Fingerprint  string          `json:"fingerprint" yaml:"fingerprint"`
	Name         string          `json:"name,omitempty" yaml:"name,omitempty"`
	Message      string          `json:"message,omitempty" yaml:"message,omitempty"`
	Body         string          `json:"body" yaml:"body"`
	Tree         *throwable.Node `json:"tree,omitempty" yaml:"tree,omitempty"`
	FrameCount   int             `json:"frame_count" yaml:"frame_count"`
	Depth        int             `json:"depth" yaml:"depth"`
	Source       string          `json:"source,omitempty" yaml:"source,omitempty"`
	Occurrences  int             `json:"occurrences" yaml:"occurrences"`
	WarningCount int             `json:"warning_count" yaml:"warning_count"`
	CreatedAt    time.Time       `json:"created_at" yaml:"created_at"`
	LastSeenAt   time.Time       `json:"last_seen_at" yaml:"last_seen_at"`
}

// RootCauseName returns the name of the last node in the cause chain.
func (t *Trace) RootCauseName() string {
	if t.Tree == nil {
		return ""
	}
	return t.Tree.RootCause().Name
}

// TraceSummary is the list view of a Trace, without body or tree.
type TraceSummary struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name,omitempty" yaml:"name,omitempty"`
	Message     string    `json:"message,omitempty" yaml:"message,omitempty"`
	FrameCount  int       `json:"frame_count" yaml:"frame_count"`
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`
	Occurrences int       `json:"occurrences" yaml:"occurrences"`
	LastSeenAt  time.Time `json:"last_seen_at" yaml:"last_seen_at"`
}
