package commands

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dotcommander/tracekit/internal/actions"
	"github.com/dotcommander/tracekit/internal/app"
	"github.com/dotcommander/tracekit/internal/watcher"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch FILE...",
		Short: "Ingest stack traces appended to log files until interrupted",
		Long: `Follow log files and ingest stack traces appended to them until
interrupted.

Only complete lines are read. A trace is ingested once a blank line follows it
or the file stays quiet for the debounce period. With --split (the default)
each blank-line separated block is its own trace; --split=false ingests each
batch of appended lines as one trace.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromStart, _ := cmd.Flags().GetBool("from-start")
			split, _ := cmd.Flags().GetBool("split")
			debounce, _ := cmd.Flags().GetDuration("debounce")
			codec := resolveCodecFlags(cmd)
			if !cmd.Flags().Changed("debounce") {
				debounce = app.EffectiveCodecSettings().WatchDebounce
			}

			opts := actions.IngestOptions{Split: split, MaxDepth: codec.maxDepth}

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withDB(ctx, func(db *DB) error {
				onChange := func(path, text string) {
					report, err := actions.IngestText(db, text, path, opts)
					if err != nil {
						slog.Error("watch ingest failed", "source", path, "error", err.Error())
						return
					}
					for _, t := range report.Traces {
						slog.Info("trace ingested", "source", path, "id", t.ID, "name", t.Name, "created", t.Created)
					}
				}

				watchOpts := []watcher.Option{
					watcher.WithDebounceDelay(debounce),
					watcher.WithOnError(func(err error) {
						slog.Warn("watch error", "error", err.Error())
					}),
				}
				if fromStart {
					watchOpts = append(watchOpts, watcher.WithFromStart())
				}

				w, err := watcher.New(args, onChange, watchOpts...)
				if err != nil {
					return err
				}

				w.Start()
				slog.Info("watching", "paths", w.Paths(), "debounce", debounce.String())
				<-ctx.Done()
				return w.Stop()
			})
		},
	}

	cmd.Flags().Bool("split", true, splitUsage)
	cmd.Flags().Bool("from-start", false, "Ingest existing file content before following appends")
	cmd.Flags().Duration("debounce", 0, "Quiet period before reading changed files (default from config)")
	addMaxDepthFlag(cmd)

	return cmd
}
