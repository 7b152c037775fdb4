package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/tracekit/internal/output"
	"github.com/dotcommander/tracekit/pkg/throwable"
)

// nodeDocument accepts a bare node, {"node": ...} as printed by parse, or the
// full parse response envelope.
type nodeDocument struct {
	throwable.Node `yaml:",inline"`

	Wrapped *throwable.Node `json:"node" yaml:"node"`
	Data    *struct {
		Node *throwable.Node `json:"node" yaml:"node"`
	} `json:"data" yaml:"data"`
}

func (d *nodeDocument) root() *throwable.Node {
	switch {
	case d.Data != nil && d.Data.Node != nil:
		return d.Data.Node
	case d.Wrapped != nil:
		return d.Wrapped
	}
	if d.Node.Name == "" && d.Node.Message == "" && len(d.Node.Frames) == 0 && d.Node.OmittedElements == 0 && d.Node.Cause == nil && len(d.Node.Suppressed) == 0 {
		return nil
	}
	n := d.Node
	return &n
}

func decodeNode(format, text string) (*throwable.Node, error) {
	var doc nodeDocument
	switch format {
	case output.FormatJSON:
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("decode json node: %w", err)
		}
	case output.FormatYAML:
		if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("decode yaml node: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported input format %q (want json or yaml)", format)
	}
	n := doc.root()
	if n == nil {
		return nil, errors.New("input holds no trace node")
	}
	return n, nil
}

// NewFormatCmd creates the format command.
func NewFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format [FILE|-]",
		Short: "Render a JSON or YAML trace tree as stack trace text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputFormat, _ := cmd.Flags().GetString("input")
			codec := resolveCodecFlags(cmd)

			text, _, err := readInput(args)
			if err != nil {
				return cmdErr(err)
			}
			if strings.TrimSpace(text) == "" {
				return cmdErr(errors.New("no input"))
			}

			n, err := decodeNode(inputFormat, text)
			if err != nil {
				return cmdErr(err)
			}

			if err := writeTrace(cmd, throwable.Format(n, codec.extended), codec.color); err != nil {
				return cmdErr(err)
			}
			return nil
		},
	}

	cmd.Flags().StringP("input", "i", output.FormatJSON, "Input format: json|yaml")
	addExtendedFlag(cmd)
	addColorFlag(cmd)

	return cmd
}
