package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usersJSON = `{"users":[{"id":1,"name":"Alice"},{"id":2,"name":"Bob"}]}`

const usersTONL = "#version 1.0\nusers[2]{id,name}:\n  1, Alice\n  2, Bob\n"

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"tonl"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestEncodeDecode(t *testing.T) {
	code, out, stderr := runCLI(t, usersJSON, "encode")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, usersTONL, out)

	code, out, stderr = runCLI(t, usersTONL, "decode")
	require.Equal(t, 0, code, stderr)
	assert.JSONEq(t, usersJSON, out)
	assert.Equal(t, 1, strings.Count(out, "\n"))

	code, out, _ = runCLI(t, usersTONL, "decode", "--pretty")
	require.Equal(t, 0, code)
	assert.JSONEq(t, usersJSON, out)
	assert.Contains(t, out, "\n  \"users\"")
}

func TestEncode_Flags(t *testing.T) {
	code, out, stderr := runCLI(t, `{"x":[1,2]}`, "encode", "--delimiter", "|")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "#version 1.0\n#delimiter |\nx[2]: 1| 2\n", out)

	code, out, _ = runCLI(t, `{"x":[1,2]}`, "encode", "--multiline-lists", "--indent", "4")
	require.Equal(t, 0, code)
	assert.Equal(t, "#version 1.0\nx[2]:\n    [0]: 1\n    [1]: 2\n", out)

	code, _, stderr = runCLI(t, `{"x":1}`, "encode", "--delimiter", "/")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid --delimiter")
}

func TestEncode_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(usersJSON), 0o644))

	code, out, stderr := runCLI(t, "", "encode", path)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, usersTONL, out)

	code, _, stderr = runCLI(t, "", "encode", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "read input")
}

func TestDecode_Invalid(t *testing.T) {
	code, out, stderr := runCLI(t, "users[2]{id}:\n  1\n", "decode", "--strict")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "decode")
}

func TestFormat(t *testing.T) {
	messy := "#version 1.0\nusers[2]{id,name}:\n    1,Alice\n    2,   Bob\n"
	code, out, stderr := runCLI(t, messy, "format")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, usersTONL, out)
}

func TestQueryAndGet(t *testing.T) {
	for _, input := range []string{usersJSON, usersTONL} {
		code, out, stderr := runCLI(t, input, "query", "$.users[*].name")
		require.Equal(t, 0, code, stderr)
		assert.JSONEq(t, `["Alice","Bob"]`, out)

		code, out, stderr = runCLI(t, input, "get", "$.users[1]")
		require.Equal(t, 0, code, stderr)
		assert.JSONEq(t, `{"id":2,"name":"Bob"}`, out)
	}

	code, out, _ := runCLI(t, usersJSON, "query", "$.nobody")
	require.Equal(t, 0, code)
	assert.JSONEq(t, `[]`, out)

	code, _, stderr := runCLI(t, usersJSON, "get", "$.nobody")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no value at $.nobody")

	code, _, _ = runCLI(t, usersJSON, "get")
	assert.Equal(t, 1, code)
}

func TestValidatePath(t *testing.T) {
	code, out, stderr := runCLI(t, "", "validate-path", `$.users[?(true)].name`)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "canonical:  $.users[?(true)].name\n")
	assert.Contains(t, out, "optimized:  $.users[*].name\n")
	assert.Contains(t, out, "expanding:  true\n")

	code, out, _ = runCLI(t, "", "validate-path", "$.a[::0]")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "error slice-step-zero")

	code, _, _ = runCLI(t, "", "validate-path", "$.a[")
	assert.Equal(t, 1, code)
}

func TestCheckPattern(t *testing.T) {
	code, out, stderr := runCLI(t, "", "check-pattern", "--input", "abc123", `^[a-z]+\d+$`)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "ok: nesting depth 0\n")
	assert.Contains(t, out, "match: true")

	code, _, stderr = runCLI(t, "", "check-pattern", "(a+)+$")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "nested-quantifier")

	code, _, _ = runCLI(t, "", "check-pattern", `(a)\1`)
	assert.Equal(t, 1, code)
	code, _, _ = runCLI(t, "", "check-pattern", "--allow-backreferences", `(a)\1`)
	assert.Equal(t, 0, code)
}

func TestStats(t *testing.T) {
	input := `{"user":{"name":"Alice","age":30},"users":[{"id":1,"name":"Alice"},{"id":2,"name":"Bob"}]}`
	code, out, stderr := runCLI(t, input, "stats")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "nodes:      11\n")
	assert.Contains(t, out, "max depth:  3\n")
	assert.Contains(t, out, "arrays:     1\n")
	assert.Contains(t, out, "JSON:       90 bytes")
}

func TestBench(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "users.json")
	bad := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(good, []byte(usersJSON), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`{"a":`), 0o644))

	code, out, stderr := runCLI(t, "", "bench", "--format", "csv", good, bad)
	require.Equal(t, 0, code, stderr)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,json_bytes,tonl_bytes,bytes_saved,bytes_pct,json_tokens,tonl_tokens,tokens_pct", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "users,57,"), lines[1])
	assert.Contains(t, stderr, "skipped")

	code, out, _ = runCLI(t, "", "bench", good)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "# TONL Size Comparison")
	assert.Contains(t, out, "| users | 57 |")

	code, _, _ = runCLI(t, "", "bench", bad)
	assert.Equal(t, 1, code)
}

func TestLogFlags(t *testing.T) {
	code, _, stderr := runCLI(t, usersJSON, "--log-level", "info", "--log-format", "json", "encode")
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, `"msg":"encoded"`)
	assert.Contains(t, stderr, `"json_bytes":57`)

	code, _, _ = runCLI(t, usersJSON, "--log-level", "loud", "encode")
	assert.Equal(t, 1, code)
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 1},
		{"{}", 2},
		{"hello", 2},
		{"12345678", 2},
		{`{"a":1}`, 7},
		{"name: Alice", 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, estimateTokens(tt.in), tt.in)
	}
}
