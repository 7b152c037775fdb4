package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dotcommander/tracekit/internal/actions"
	"github.com/dotcommander/tracekit/internal/output"
)

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [FILES...|-]",
		Short: "Parse stack traces and store them, de-duplicated by fingerprint",
		Long: `Parse stack traces from files (or stdin with "-") and store them,
de-duplicated by fingerprint.

By default each blank-line separated block is stored as its own trace. A
message that itself contains a blank line (SQL and driver errors often do) is
then cut in two; pass --split=false to store each source as a single trace.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			split, _ := cmd.Flags().GetBool("split")
			strict, _ := cmd.Flags().GetBool("strict")
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			codec := resolveCodecFlags(cmd)

			paths := args
			if len(paths) == 0 {
				paths = []string{actions.StdinSource}
			}
			opts := actions.IngestOptions{
				Split:       split,
				Strict:      strict,
				MaxDepth:    codec.maxDepth,
				Concurrency: concurrency,
			}

			var (
				reports   []actions.IngestReport
				ingestErr error
			)
			ctx := commandContext(cmd)
			if err := withDB(ctx, func(db *DB) error {
				reports, ingestErr = actions.IngestFiles(ctx, db, paths, opts)
				if reports == nil {
					return ingestErr
				}
				return nil
			}); err != nil {
				return err
			}

			type resp struct {
				Reports []actions.IngestReport `json:"reports"`
				Stored  int                    `json:"stored"`
				Created int                    `json:"created"`
				Failed  int                    `json:"failed"`
			}
			out := resp{Reports: reports}
			for _, r := range reports {
				if r.Error != "" {
					out.Failed++
				}
				for _, t := range r.Traces {
					out.Stored++
					if t.Created {
						out.Created++
					}
				}
			}

			if ingestErr != nil {
				if out.Stored == 0 {
					return cmdErr(ingestErr)
				}
				// Partial success still reports what was stored.
				slog.Warn("some sources failed to ingest", "failed", out.Failed, "error", ingestErr.Error())
			}
			return output.PrintSuccess(out)
		},
	}

	cmd.Flags().Bool("split", true, splitUsage)
	cmd.Flags().Bool("strict", false, "Reject a source when parsing produces any warning")
	cmd.Flags().Int("concurrency", 4, "Files read and parsed in parallel")
	addMaxDepthFlag(cmd)

	return cmd
}
