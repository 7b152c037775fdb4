package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dotcommander/tracekit/internal/actions"
	"github.com/dotcommander/tracekit/internal/app"
	"github.com/dotcommander/tracekit/internal/output"
	"github.com/dotcommander/tracekit/internal/render"
)

// inputSource returns the single optional FILE argument, defaulting to stdin.
func inputSource(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return actions.StdinSource
	}
	return args[0]
}

func readInput(args []string) (string, string, error) {
	source := inputSource(args)
	text, err := actions.ReadSource(source)
	if err != nil {
		return "", source, err
	}
	return text, source, nil
}

// codecFlags resolves --extended, --max-depth and --color against config.yaml.
// Explicit flags win over settings.
type codecFlags struct {
	extended bool
	maxDepth int
	color    bool
}

func addExtendedFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("extended", true, "Include [location:version] provenance in frames")
}

// splitUsage documents --split for commands that default it on.
const splitUsage = "Treat blank-line separated blocks as separate traces " +
	"(use --split=false when messages contain blank lines)"

func addMaxDepthFlag(cmd *cobra.Command) {
	cmd.Flags().Int("max-depth", 0, "Maximum cause/suppressed nesting (0 uses config or default)")
}

func addColorFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("color", false, "Colorize trace text output")
}

func resolveCodecFlags(cmd *cobra.Command) codecFlags {
	settings := app.EffectiveCodecSettings()
	out := codecFlags{
		extended: settings.Extended,
		maxDepth: settings.MaxDepth,
		color:    settings.Color,
	}
	flags := cmd.Flags()
	if flags.Lookup("extended") != nil && flags.Changed("extended") {
		out.extended, _ = flags.GetBool("extended")
	}
	if flags.Lookup("max-depth") != nil && flags.Changed("max-depth") {
		if v, _ := flags.GetInt("max-depth"); v > 0 {
			out.maxDepth = v
		}
	}
	if flags.Lookup("color") != nil && flags.Changed("color") {
		out.color, _ = flags.GetBool("color")
		// An explicit --color forces escapes even when stdout is not a terminal.
		color.NoColor = !out.color
	}
	return out
}

// writeTrace prints canonical trace text followed by a newline.
func writeTrace(cmd *cobra.Command, text string, colorize bool) error {
	if colorize {
		text = render.Colorize(text)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func validateOutputFormat(format string) error {
	switch format {
	case output.FormatJSON, output.FormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want json or yaml)", format)
	}
}
