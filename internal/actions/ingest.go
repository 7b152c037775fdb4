package actions

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/dotcommander/tracekit/internal/models"
	"github.com/dotcommander/tracekit/internal/store"
	"github.com/dotcommander/tracekit/pkg/throwable"
)

// StdinSource names input read from standard input.
const StdinSource = "-"

const defaultIngestConcurrency = 4

// IngestOptions controls how text is split, parsed and stored.
type IngestOptions struct {
	// Split treats blank-line separated blocks as separate traces.
	Split bool
	// Strict rejects a source whose parse produced any warning.
	Strict   bool
	MaxDepth int
	// Concurrency bounds parallel file reads in IngestFiles.
	Concurrency int
}

// ParsedBlock is one trace parsed out of a source.
type ParsedBlock struct {
	Index    int                 `json:"index"`
	Node     *throwable.Node     `json:"node"`
	Warnings []throwable.Warning `json:"warnings,omitempty"`
}

// IngestedTrace reports the stored outcome of one block.
type IngestedTrace struct {
	Block    int                 `json:"block"`
	ID       string              `json:"id"`
	Name     string              `json:"name,omitempty"`
	Created  bool                `json:"created"`
	Warnings []throwable.Warning `json:"warnings,omitempty"`
}

// IngestReport is the result of ingesting one source.
type IngestReport struct {
	Source string          `json:"source"`
	Traces []IngestedTrace `json:"traces"`
	// Empty counts blocks that held no trace content.
	Empty int    `json:"empty,omitempty"`
	Error string `json:"error,omitempty"`
}

// ParseText parses text into trace blocks. Empty blocks come back with a nil
// Node. In strict mode any warning fails the whole source.
func ParseText(text, source string, opts IngestOptions) ([]ParsedBlock, error) {
	blocks := []string{text}
	if opts.Split {
		blocks = throwable.SplitBlocks(text)
	}

	p := &throwable.Parser{MaxDepth: opts.MaxDepth}
	out := make([]ParsedBlock, 0, len(blocks))
	var warnings []throwable.Warning
	for i, block := range blocks {
		res := p.Parse(block)
		out = append(out, ParsedBlock{Index: i, Node: res.Node, Warnings: res.Warnings})
		warnings = append(warnings, res.Warnings...)
	}

	if opts.Strict {
		if err := models.NewStrictParseError(source, warnings); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// IngestText parses text and stores every non-empty block.
func IngestText(db *sql.DB, text, source string, opts IngestOptions) (*IngestReport, error) {
	blocks, err := ParseText(text, source, opts)
	if err != nil {
		return nil, err
	}
	return storeBlocks(db, source, blocks)
}

func storeBlocks(db *sql.DB, source string, blocks []ParsedBlock) (*IngestReport, error) {
	report := &IngestReport{Source: source, Traces: []IngestedTrace{}}
	for _, b := range blocks {
		for _, w := range b.Warnings {
			slog.Warn("trace parse warning", "source", source, "block", b.Index, "line", w.Line, "reason", w.Reason)
		}
		if b.Node == nil {
			report.Empty++
			continue
		}
		t, created, err := store.SaveTrace(db, b.Node, source, len(b.Warnings))
		if err != nil {
			return report, fmt.Errorf("save block %d of %s: %w", b.Index, source, err)
		}
		report.Traces = append(report.Traces, IngestedTrace{
			Block:    b.Index,
			ID:       t.ID,
			Name:     t.Name,
			Created:  created,
			Warnings: b.Warnings,
		})
	}
	return report, nil
}

// IngestFiles reads and parses paths concurrently, then stores the results in
// path order. A failing path does not stop the others; all failures are
// combined into the returned error and noted on that path's report.
func IngestFiles(ctx context.Context, db *sql.DB, paths []string, opts IngestOptions) ([]IngestReport, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultIngestConcurrency
	}

	parsed := make([][]ParsedBlock, len(paths))
	parseErrs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := ReadSource(path)
			if err != nil {
				parseErrs[i] = err
				return nil
			}
			parsed[i], parseErrs[i] = ParseText(text, path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reports := make([]IngestReport, len(paths))
	var errs error
	for i, path := range paths {
		if parseErrs[i] != nil {
			reports[i] = IngestReport{Source: path, Traces: []IngestedTrace{}, Error: parseErrs[i].Error()}
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, parseErrs[i]))
			continue
		}
		report, err := storeBlocks(db, path, parsed[i])
		if err != nil {
			report.Error = err.Error()
			errs = multierr.Append(errs, err)
		}
		reports[i] = *report
	}
	return reports, errs
}

// ReadSource reads a file, or standard input for StdinSource.
func ReadSource(path string) (string, error) {
	if path == StdinSource {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path) //nolint:gosec // G304: paths are explicit CLI arguments
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
