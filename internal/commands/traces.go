package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/tracekit/internal/models"
	"github.com/dotcommander/tracekit/internal/output"
	"github.com/dotcommander/tracekit/internal/store"
	"github.com/dotcommander/tracekit/pkg/throwable"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored traces, most recently seen first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			search, _ := cmd.Flags().GetString("search")
			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 0 {
				return cmdErr(errors.New("--limit must be >= 0"))
			}

			var (
				traces []models.TraceSummary
				total  int
			)
			if err := withDB(commandContext(cmd), func(db *DB) error {
				t, err := store.ListTraces(db, store.ListOptions{Search: search, Limit: limit})
				if err != nil {
					return err
				}
				n, err := store.CountTraces(db)
				if err != nil {
					return err
				}
				traces, total = t, n
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Count  int                   `json:"count"`
				Total  int                   `json:"total"`
				Traces []models.TraceSummary `json:"traces"`
			}
			return output.PrintSuccess(resp{Count: len(traces), Total: total, Traces: traces})
		},
	}

	cmd.Flags().String("search", "", "Only traces whose name, message or body contains this text")
	cmd.Flags().Int("limit", store.DefaultListLimit, "Max traces to return")

	return cmd
}

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print a stored trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			codec := resolveCodecFlags(cmd)

			var trace *models.Trace
			if err := withDB(commandContext(cmd), func(db *DB) error {
				t, err := store.GetTrace(db, args[0])
				if err != nil {
					return err
				}
				trace = t
				return nil
			}); err != nil {
				return err
			}

			if asJSON {
				return output.PrintSuccess(trace)
			}

			text := trace.Body
			if trace.Tree != nil {
				text = throwable.Format(trace.Tree, codec.extended)
			}
			if err := writeTrace(cmd, text, codec.color); err != nil {
				return cmdErr(fmt.Errorf("show %s: %w", trace.ID, err))
			}
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print the stored record as JSON")
	addExtendedFlag(cmd)
	addColorFlag(cmd)

	return cmd
}

// NewDeleteCmd creates the delete command.
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := withDB(commandContext(cmd), func(db *DB) error {
				return store.DeleteTrace(db, args[0])
			}); err != nil {
				return err
			}

			type resp struct {
				ID      string `json:"id"`
				Deleted bool   `json:"deleted"`
			}
			return output.PrintSuccess(resp{ID: args[0], Deleted: true})
		},
	}
}
