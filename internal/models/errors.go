package models

import (
	"strconv"

	"go.uber.org/multierr"

	"github.com/dotcommander/tracekit/pkg/throwable"
)

// RecoverableError is implemented by enriched errors that carry structured
// context and remediation hints. Both the store and output packages use this
// interface to avoid an import cycle.
type RecoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}

// StrictParseError is returned when --strict parsing produced warnings.
// Err combines every warning with multierr.
type StrictParseError struct {
	Source   string
	Warnings []throwable.Warning
	Err      error
}

// NewStrictParseError combines warnings into a single error. It returns nil
// when there are no warnings.
func NewStrictParseError(source string, warnings []throwable.Warning) error {
	if len(warnings) == 0 {
		return nil
	}
	var combined error
	for _, w := range warnings {
		combined = multierr.Append(combined, w)
	}
	return &StrictParseError{Source: source, Warnings: warnings, Err: combined}
}

func (e *StrictParseError) Error() string { return "strict parse failed: " + e.Err.Error() }
func (e *StrictParseError) Unwrap() error { return e.Err }
func (e *StrictParseError) ErrorCode() string { return "PARSE_WARNINGS" }
func (e *StrictParseError) Context() map[string]string {
	return map[string]string{
		"source":        e.Source,
		"warning_count": strconv.Itoa(len(e.Warnings)),
		"first_line":    strconv.Itoa(e.Warnings[0].Line),
	}
}
func (e *StrictParseError) SuggestedAction() string {
	return "fix the reported lines or rerun without --strict"
}

// SlogAttrs adds the source and warning count to the command error log.
func (e *StrictParseError) SlogAttrs() []any {
	return []any{"source", e.Source, "warning_count", len(e.Warnings)}
}
