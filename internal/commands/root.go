package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dotcommander/tracekit/internal/app"
	"github.com/dotcommander/tracekit/internal/output"
)

// logLevel backs --log-level for the process-wide slog handler.
//
//nolint:gochecknoglobals // shared by Execute and the root pre-run hook
var logLevel = new(slog.LevelVar)

// Execute runs the CLI application. Diagnostics go to stderr as JSON lines;
// stdout carries only command results.
func Execute(version string) error {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	err := newRootCmd(version).ExecuteContext(context.Background())
	var printed printedError
	if err != nil && !errors.As(err, &printed) {
		slog.Error("command failed", "error", err.Error())
	}
	return err
}

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "tracekit",
		Short:         "Parse, format and collect JVM-style stack traces",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
				return output.PrintSuccess(struct {
					Version string `json:"version"`
				}{Version: version})
			}
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			if err := setLogLevel(level); err != nil {
				return err
			}
			if err := app.EnsureConfigDir(); err != nil {
				return err
			}
			if dbPath, _ := cmd.Flags().GetString("db-path"); dbPath != "" {
				app.SetDBPathOverride(dbPath)
			}
			return nil
		},
	}

	root.PersistentFlags().String("db-path", "", "Override database path")
	root.PersistentFlags().String("log-level", "info", "Stderr log level: debug|info|warn|error")
	root.Flags().BoolP("version", "v", false, "version for tracekit")

	root.AddCommand(
		NewParseCmd(),
		NewFormatCmd(),
		NewNormalizeCmd(),
		NewFrameCmd(),
		NewIngestCmd(),
		NewListCmd(),
		NewShowCmd(),
		NewDeleteCmd(),
		NewWatchCmd(),
		NewStatusCmd(),
		NewSchemaCmd(root),
	)
	return root
}

func setLogLevel(name string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return fmt.Errorf("invalid --log-level %q: want debug|info|warn|error", name)
	}
	logLevel.Set(level)
	return nil
}
