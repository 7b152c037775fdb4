package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tracekitTestBin is the path to the built binary for end-to-end tests.
var tracekitTestBin string

// TestMain builds the tracekit binary once before running the tests.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tracekit-e2e")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: temp dir: %v\n", err)
		os.Exit(1)
	}

	binPath := filepath.Join(dir, "tracekit")
	buildCmd := exec.Command("go", "build", "-o", binPath, ".")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to build tracekit binary: %v\n", err)
		os.Exit(1)
	}
	tracekitTestBin = binPath

	code := m.Run()

	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// harness holds test-scoped state shared across helper functions.
type harness struct {
	t      *testing.T
	home   string
	dbPath string
}

// newHarness creates a harness with an isolated HOME and database.
func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{t: t, home: dir, dbPath: filepath.Join(dir, "tracekit-e2e.db")}
}

// run executes tracekit with --db-path set and returns stdout and the exit error.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	fullArgs := append([]string{"--db-path", h.dbPath}, args...)
	cmd := exec.Command(tracekitTestBin, fullArgs...)
	cmd.Env = append(os.Environ(), "HOME="+h.home, "NO_COLOR=1")
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), err
}

// requireSuccess parses a JSON envelope and asserts success=true.
func requireSuccess(t *testing.T, out string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &m), "failed to parse JSON: %s", out)
	require.Equal(t, true, m["success"], "expected success=true, got: %s", out)
	return m
}

const e2eTrace = "java.lang.RuntimeException: outer\n" +
	"\tat com.acme.Main.run(Main.java:20) [app.jar:1.0]\n" +
	"\tSuppressed: java.io.IOException: close\n" +
	"\t\tat com.acme.Res.close(Res.java:5) ~[app.jar:1.0]\n" +
	"\t\t... 1 more\n" +
	"Caused by: java.lang.IllegalArgumentException: bad\n" +
	"\tat com.acme.Main.check(Main.java:9) [app.jar:1.0]\n" +
	"\t... 1 more"

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "--version")
	require.NoError(t, err)
	m := requireSuccess(t, out)
	assert.Equal(t, "dev", m["data"].(map[string]any)["version"])
}

func TestParseFormatPipeline(t *testing.T) {
	h := newHarness(t)

	parsed, err := h.run(e2eTrace, "parse")
	require.NoError(t, err)
	m := requireSuccess(t, parsed)
	data := m["data"].(map[string]any)
	assert.NotEmpty(t, data["fingerprint"])
	assert.Empty(t, data["warnings"])

	formatted, err := h.run(parsed, "format")
	require.NoError(t, err)
	assert.Equal(t, e2eTrace+"\n", formatted)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	h := newHarness(t)

	once, err := h.run(e2eTrace+"\r\n\r\n", "normalize")
	require.NoError(t, err)
	twice, err := h.run(once, "normalize")
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestIngestListShowDelete(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(e2eTrace+"\n\n"+e2eTrace, "ingest")
	require.NoError(t, err)
	m := requireSuccess(t, out)
	data := m["data"].(map[string]any)
	assert.EqualValues(t, 2, data["stored"])
	assert.EqualValues(t, 1, data["created"])

	out, err = h.run("", "list", "--search", "outer")
	require.NoError(t, err)
	traces := requireSuccess(t, out)["data"].(map[string]any)["traces"].([]any)
	require.Len(t, traces, 1)
	trace := traces[0].(map[string]any)
	assert.EqualValues(t, 2, trace["occurrences"])
	id := trace["id"].(string)

	shown, err := h.run("", "show", id)
	require.NoError(t, err)
	assert.Equal(t, e2eTrace+"\n", shown)

	out, err = h.run("", "delete", id)
	require.NoError(t, err)
	requireSuccess(t, out)

	out, err = h.run("", "show", id)
	require.Error(t, err)
	assert.Contains(t, out, `"error_code":"TRACE_NOT_FOUND"`)
}

func TestStrictParseFailure(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("a.Err: x\n\tat garbage", "parse", "--strict")
	require.Error(t, err)
	assert.Contains(t, out, `"error_code":"PARSE_WARNINGS"`)
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "status")
	require.NoError(t, err)
	db := requireSuccess(t, out)["data"].(map[string]any)["db"].(map[string]any)
	assert.Equal(t, h.dbPath, db["path"])
	assert.Equal(t, true, db["ok"])
}
