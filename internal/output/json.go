package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Supported encodings for Config.Format.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// recoverableError mirrors models.RecoverableError without importing models.
type recoverableError interface {
	error
	ErrorCode() string
	Context() map[string]string
	SuggestedAction() string
}

// Response represents a standard response envelope
type Response struct {
	SchemaVersion   string            `json:"schema_version" yaml:"schema_version"`
	Success         bool              `json:"success" yaml:"success"`
	Data            interface{}       `json:"data,omitempty" yaml:"data,omitempty"`
	Error           string            `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorCode       string            `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	ErrorContext    map[string]string `json:"error_context,omitempty" yaml:"error_context,omitempty"`
	SuggestedAction string            `json:"suggested_action,omitempty" yaml:"suggested_action,omitempty"`
}

// Success wraps a successful response with data
func Success(data interface{}) Response {
	return Response{
		SchemaVersion: "v1",
		Success:       true,
		Data:          data,
	}
}

// Error wraps an error in a response. Recoverable errors also carry their
// code, context and suggested action.
func Error(err error) Response {
	resp := Response{
		SchemaVersion: "v1",
		Success:       false,
		Error:         err.Error(),
	}
	var re recoverableError
	if errors.As(err, &re) {
		resp.ErrorCode = re.ErrorCode()
		resp.ErrorContext = re.Context()
		resp.SuggestedAction = re.SuggestedAction()
	}
	return resp
}

// Config controls where and how responses are written.
type Config struct {
	Writer io.Writer
	Pretty bool
	Format string
}

// DefaultConfig writes compact JSON to stdout.
// Pretty JSON for humans: TRACEKIT_PRETTY_JSON=1.
func DefaultConfig() Config {
	v := os.Getenv("TRACEKIT_PRETTY_JSON")
	return Config{
		Writer: os.Stdout,
		Pretty: v == "1" || v == "true",
		Format: FormatJSON,
	}
}

// PrintWith encodes v using cfg.
func PrintWith(cfg Config, v interface{}) error {
	switch cfg.Format {
	case "", FormatJSON:
		enc := json.NewEncoder(cfg.Writer)
		if cfg.Pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(cfg.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (want json or yaml)", cfg.Format)
	}
}

// Print prints a value as JSON to stdout
func Print(v interface{}) error {
	return PrintWith(DefaultConfig(), v)
}

// PrintSuccess prints a success response
func PrintSuccess(data interface{}) error {
	return Print(Success(data))
}

// PrintSuccessAs prints a success response in the given format.
func PrintSuccessAs(format string, data interface{}) error {
	cfg := DefaultConfig()
	cfg.Format = format
	return PrintWith(cfg, Success(data))
}

// PrintError prints an error response
func PrintError(err error) error {
	return Print(Error(err))
}

// Keep output package focused: commands should handle human-readable formatting.
