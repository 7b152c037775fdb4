package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/tracekit/internal/models"
	"github.com/dotcommander/tracekit/pkg/throwable"
)

// Compile-time check: models.RecoverableError must satisfy the local recoverableError interface.
var _ recoverableError = (models.RecoverableError)(nil)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = original }()

	fn()
	require.NoError(t, w.Close())

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(b)
}

func strictErr() error {
	return models.NewStrictParseError("app.log", []throwable.Warning{
		{Line: 3, Text: "\tat garbage", Reason: "unparseable frame dropped"},
	})
}

func TestError_PlainAndRecoverable(t *testing.T) {
	plain := Error(errors.New("boom"))
	require.Equal(t, "v1", plain.SchemaVersion)
	require.False(t, plain.Success)
	require.Equal(t, "boom", plain.Error)
	require.Empty(t, plain.ErrorCode)
	require.Nil(t, plain.ErrorContext)

	wrapped := Error(fmt.Errorf("parse app.log: %w", strictErr()))
	require.Equal(t, "PARSE_WARNINGS", wrapped.ErrorCode)
	require.Equal(t, "3", wrapped.ErrorContext["first_line"])
	require.Equal(t, "app.log", wrapped.ErrorContext["source"])
	require.NotEmpty(t, wrapped.SuggestedAction)
	require.Contains(t, wrapped.Error, "parse app.log: strict parse failed")
}

func TestPrintWith_Encodings(t *testing.T) {
	node := &throwable.Node{
		Name:   "java.lang.IllegalStateException",
		Frames: []throwable.Frame{{ClassName: "a.B", MethodName: "c", LineNumber: throwable.NativeMethod}},
	}

	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "compact json",
			cfg:  Config{},
			want: []string{`{"schema_version":"v1","success":true,"data":{"name":"java.lang.IllegalStateException","frames":[{"class_name":"a.B"`},
		},
		{
			name: "pretty json",
			cfg:  Config{Pretty: true},
			want: []string{"{\n  \"schema_version\": \"v1\",\n", "\n    \"name\": \"java.lang.IllegalStateException\",\n"},
		},
		{
			name: "yaml",
			cfg:  Config{Format: FormatYAML},
			want: []string{"schema_version: v1\n", "success: true\n", "  name: java.lang.IllegalStateException\n", "line_number: -2\n"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			tc.cfg.Writer = &buf
			require.NoError(t, PrintWith(tc.cfg, Success(node)))
			for _, w := range tc.want {
				require.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestPrintWith_YAMLDecodesBackToNode(t *testing.T) {
	node := &throwable.Node{Name: "a.Err", Message: "m", Cause: &throwable.Node{Name: "b.Root", OmittedElements: 2}}

	var buf bytes.Buffer
	require.NoError(t, PrintWith(Config{Writer: &buf, Format: FormatYAML}, node))

	var back throwable.Node
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	require.True(t, node.Equal(&back))
}

func TestPrintWith_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := PrintWith(Config{Writer: &buf, Format: "xml"}, map[string]string{})
	require.Error(t, err)
	require.Contains(t, err.Error(), `"xml"`)
	require.Empty(t, buf.String())
}

func TestDefaultConfig_PrettyEnv(t *testing.T) {
	for value, pretty := range map[string]bool{"": false, "0": false, "1": true, "true": true} {
		t.Run("env="+value, func(t *testing.T) {
			t.Setenv("TRACEKIT_PRETTY_JSON", value)
			cfg := DefaultConfig()
			require.Equal(t, os.Stdout, cfg.Writer)
			require.Equal(t, FormatJSON, cfg.Format)
			require.Equal(t, pretty, cfg.Pretty)
		})
	}
}

func TestPrintHelpersWriteToStdout(t *testing.T) {
	t.Setenv("TRACEKIT_PRETTY_JSON", "")

	out := captureStdout(t, func() {
		require.NoError(t, PrintSuccess(map[string]int{"stored": 2}))
	})
	require.Equal(t, "{\"schema_version\":\"v1\",\"success\":true,\"data\":{\"stored\":2}}\n", out)

	out = captureStdout(t, func() {
		require.NoError(t, PrintSuccessAs(FormatYAML, map[string]int{"stored": 2}))
	})
	require.Equal(t, "schema_version: v1\nsuccess: true\ndata:\n  stored: 2\n", out)

	out = captureStdout(t, func() {
		require.NoError(t, PrintError(strictErr()))
	})
	require.Contains(t, out, `"success":false`)
	require.Contains(t, out, `"error_code":"PARSE_WARNINGS"`)
	require.Contains(t, out, `"error_context":{`)
}
