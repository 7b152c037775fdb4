package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dotcommander/tracekit/internal/models"
	"github.com/dotcommander/tracekit/pkg/throwable"
)

// Listing limits for ListTraces.
const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// SaveTrace stores node, de-duplicating by fingerprint. A repeat sighting bumps
// occurrences and last_seen_at and reports created=false.
func SaveTrace(db *sql.DB, node *throwable.Node, source string, warningCount int) (*models.Trace, bool, error) {
	if node == nil {
		return nil, false, errors.New("trace is empty")
	}

	tree, err := json.Marshal(node)
	if err != nil {
		return nil, false, fmt.Errorf("encode trace tree: %w", err)
	}
	body := throwable.Format(node, true)
	fingerprint := throwable.Fingerprint(node)

	var (
		saved   *models.Trace
		created bool
	)
	ctx := context.Background()
	err = Transact(ctx, db, func(tx *sql.Tx) error {
		var id string
		lookupErr := tx.QueryRowContext(ctx, `SELECT id FROM traces WHERE fingerprint = ?`, fingerprint).Scan(&id)
		switch {
		case errors.Is(lookupErr, sql.ErrNoRows):
			id = newTraceID()
			created = true
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO traces (id, fingerprint, name, message, body, tree, frame_count, depth, source, warning_count)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, id, fingerprint, node.Name, node.Message, body, string(tree),
				node.FrameCount(), node.Depth(), source, warningCount); err != nil {
				return fmt.Errorf("failed to insert trace: %w", err)
			}
		case lookupErr != nil:
			return fmt.Errorf("failed to look up trace fingerprint: %w", lookupErr)
		default:
			created = false
			if _, err := tx.ExecContext(ctx, `
				UPDATE traces
				SET occurrences = occurrences + 1,
				    last_seen_at = CURRENT_TIMESTAMP,
				    source = CASE WHEN ? != '' THEN ? ELSE source END
				WHERE id = ?
			`, source, source, id); err != nil {
				return fmt.Errorf("failed to update trace: %w", err)
			}
		}

		t, err := getTrace(ctx, tx, id)
		if err != nil {
			return err
		}
		saved = t
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return saved, created, nil
}

// GetTrace loads a trace by ID.
func GetTrace(db *sql.DB, id string) (*models.Trace, error) {
	return getTrace(context.Background(), db, id)
}

func getTrace(ctx context.Context, q Querier, id string) (*models.Trace, error) {
	row := q.QueryRowContext(ctx, `SELECT `+traceColumns+` FROM traces WHERE id = ?`, id)
	t, err := scanTraceRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &TraceNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trace: %w", err)
	}
	return t, nil
}

// ListOptions filters ListTraces.
type ListOptions struct {
	// Search matches a substring of the name, message or body.
	Search string
	Limit  int
}

// ListTraces returns trace summaries, most recently seen first.
func ListTraces(db *sql.DB, opts ListOptions) ([]models.TraceSummary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := `SELECT id, name, message, frame_count, source, occurrences, last_seen_at FROM traces`
	var args []any
	if s := strings.TrimSpace(opts.Search); s != "" {
		query += ` WHERE name LIKE ? ESCAPE '\' OR message LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\'`
		pattern := "%" + escapeLike(s) + "%"
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY last_seen_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list traces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []models.TraceSummary{}
	for rows.Next() {
		var s models.TraceSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Message, &s.FrameCount, &s.Source, &s.Occurrences, &s.LastSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan trace: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// DeleteTrace removes a trace by ID.
func DeleteTrace(db *sql.DB, id string) error {
	ctx := context.Background()
	return Transact(ctx, db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM traces WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete trace: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return &TraceNotFoundError{ID: id}
		}
		return nil
	})
}

// CountTraces returns the number of stored traces.
func CountTraces(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM traces`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count traces: %w", err)
	}
	return n, nil
}
