package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dotcommander/tracekit/internal/actions"
	"github.com/dotcommander/tracekit/internal/output"
	"github.com/dotcommander/tracekit/pkg/throwable"
)

type parsedTrace struct {
	Node        *throwable.Node     `json:"node" yaml:"node"`
	Warnings    []throwable.Warning `json:"warnings" yaml:"warnings"`
	Fingerprint string              `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

func newParsedTrace(b actions.ParsedBlock) parsedTrace {
	pt := parsedTrace{Node: b.Node, Warnings: b.Warnings}
	if pt.Warnings == nil {
		pt.Warnings = []throwable.Warning{}
	}
	if b.Node != nil {
		pt.Fingerprint = throwable.Fingerprint(b.Node)
	}
	return pt
}

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [FILE|-]",
		Short: "Parse stack trace text into a JSON tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")
			split, _ := cmd.Flags().GetBool("split")
			format, _ := cmd.Flags().GetString("output")
			if err := validateOutputFormat(format); err != nil {
				return cmdErr(err)
			}
			codec := resolveCodecFlags(cmd)

			text, source, err := readInput(args)
			if err != nil {
				return cmdErr(err)
			}

			blocks, err := actions.ParseText(text, source, actions.IngestOptions{
				Split:    split,
				Strict:   strict,
				MaxDepth: codec.maxDepth,
			})
			if err != nil {
				return cmdErr(err)
			}

			if split {
				type resp struct {
					Source string        `json:"source" yaml:"source"`
					Count  int           `json:"count" yaml:"count"`
					Traces []parsedTrace `json:"traces" yaml:"traces"`
				}
				out := resp{Source: source, Traces: make([]parsedTrace, 0, len(blocks))}
				for _, b := range blocks {
					out.Traces = append(out.Traces, newParsedTrace(b))
				}
				out.Count = len(out.Traces)
				return output.PrintSuccessAs(format, out)
			}

			if len(blocks) == 0 {
				return cmdErr(errors.New("no input"))
			}
			return output.PrintSuccessAs(format, newParsedTrace(blocks[0]))
		},
	}

	cmd.Flags().Bool("strict", false, "Fail when parsing produces any warning")
	cmd.Flags().Bool("split", false, "Parse blank-line separated blocks as separate traces")
	cmd.Flags().StringP("output", "o", output.FormatJSON, "Output format: json|yaml")
	addMaxDepthFlag(cmd)

	return cmd
}

// NewNormalizeCmd creates the normalize command.
func NewNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize [FILE|-]",
		Short: "Parse stack trace text and print it in canonical form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")
			split, _ := cmd.Flags().GetBool("split")
			codec := resolveCodecFlags(cmd)

			text, source, err := readInput(args)
			if err != nil {
				return cmdErr(err)
			}

			blocks, err := actions.ParseText(text, source, actions.IngestOptions{
				Split:    split,
				Strict:   strict,
				MaxDepth: codec.maxDepth,
			})
			if err != nil {
				return cmdErr(err)
			}

			first := true
			for _, b := range blocks {
				if b.Node == nil {
					continue
				}
				if !first {
					if err := writeTrace(cmd, "", false); err != nil {
						return cmdErr(err)
					}
				}
				first = false
				if err := writeTrace(cmd, throwable.Format(b.Node, codec.extended), codec.color); err != nil {
					return cmdErr(err)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("strict", false, "Fail when parsing produces any warning")
	cmd.Flags().Bool("split", false, "Normalize blank-line separated blocks as separate traces")
	addExtendedFlag(cmd)
	addMaxDepthFlag(cmd)
	addColorFlag(cmd)

	return cmd
}

// NewFrameCmd creates the frame command.
func NewFrameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frame TEXT",
		Short: "Parse a single stack frame line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatOnly, _ := cmd.Flags().GetBool("format")
			codec := resolveCodecFlags(cmd)

			f, ok := throwable.ParseFrame(args[0])
			if !ok {
				return cmdErr(&invalidFrameError{text: args[0]})
			}

			if formatOnly {
				if err := writeTrace(cmd, f.Format(codec.extended), false); err != nil {
					return cmdErr(err)
				}
				return nil
			}

			type resp struct {
				Frame     throwable.Frame `json:"frame"`
				Canonical string          `json:"canonical"`
			}
			return output.PrintSuccess(resp{Frame: f, Canonical: f.Format(codec.extended)})
		},
	}

	cmd.Flags().Bool("format", false, "Print the canonical frame text instead of JSON")
	addExtendedFlag(cmd)

	return cmd
}

type invalidFrameError struct {
	text string
}

func (e *invalidFrameError) Error() string     { return "not a stack frame" }
func (e *invalidFrameError) ErrorCode() string { return "INVALID_FRAME" }
func (e *invalidFrameError) Context() map[string]string {
	return map[string]string{"text": e.text}
}
func (e *invalidFrameError) SuggestedAction() string {
	return "expected class.method(source) with optional [location:version]"
}
