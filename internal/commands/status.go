package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/tracekit/internal/app"
	"github.com/dotcommander/tracekit/internal/output"
	"github.com/dotcommander/tracekit/internal/store"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database location, schema version and trace count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			check, _ := cmd.Flags().GetBool("check")
			return runStatus(commandContext(cmd), check)
		},
	}

	cmd.Flags().Bool("check", false, "Run connectivity (SELECT 1) and stored trace consistency checks")

	return cmd
}

func runStatus(ctx context.Context, check bool) error {
	dbPath, dbSource, err := app.ResolveDBPathDetailed()
	if err != nil {
		return cmdErr(err)
	}

	type dbInfo struct {
		Path          string `json:"path"`
		Source        string `json:"source"`
		OK            bool   `json:"ok"`
		SizeBytes     *int64 `json:"size_bytes,omitempty"`
		SchemaVersion int64  `json:"schema_version,omitempty"`
		LatestVersion int64  `json:"latest_version,omitempty"`
		Error         string `json:"error,omitempty"`
	}

	type resp struct {
		DB          dbInfo             `json:"db"`
		Codec       app.CodecSettings  `json:"codec"`
		Traces      *int               `json:"traces,omitempty"`
		QueryOK     *bool              `json:"query_ok,omitempty"`
		QueryError  string             `json:"query_error,omitempty"`
		Hint        string             `json:"hint,omitempty"`
		Diagnostics []store.Diagnostic `json:"diagnostics,omitempty"`
	}

	result := resp{
		DB:    dbInfo{Path: dbPath, Source: dbSource},
		Codec: app.EffectiveCodecSettings(),
	}

	db, err := store.Open(ctx, dbPath)
	if err != nil {
		result.DB.Error = err.Error()
		result.Hint = "set db_path to a writable location or use --db-path"
		if check {
			qOK := false
			result.QueryOK = &qOK
			result.QueryError = "db not available"
		}
		return output.PrintSuccess(result)
	}
	defer func() { _ = db.Close() }()
	result.DB.OK = true

	if stat, err := os.Stat(dbPath); err == nil {
		size := stat.Size()
		result.DB.SizeBytes = &size
	}

	if current, latest, err := store.SchemaVersion(ctx, db); err == nil {
		result.DB.SchemaVersion = current
		result.DB.LatestVersion = latest
	}

	if n, err := store.CountTraces(db); err == nil {
		result.Traces = &n
	}

	if check {
		var one int
		qErr := db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
		qOK := qErr == nil
		result.QueryOK = &qOK
		if !qOK {
			result.QueryError = qErr.Error()
		}

		if diagnostics, diagErr := store.RunDiagnostics(db); diagErr == nil {
			result.Diagnostics = diagnostics
		}
	}

	return output.PrintSuccess(result)
}
