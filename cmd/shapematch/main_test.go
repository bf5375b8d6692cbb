package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/shapematch/pkg/checker"
)

const accumulatorPattern = `_accu_ = 0
for _item_ in _iList_:
    _accu_ = _accu_ + _item_
`

const accumulatorSubmission = `total = 0
for n in numbers:
    total = total + n
print(total)
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))

	err := cmd.Execute()

	return stdout.String(), err
}

func TestMatch_Table(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	patternPath := writeFile(t, dir, "accumulator.py", accumulatorPattern)
	subjectPath := writeFile(t, dir, "solution.py", accumulatorSubmission)

	out, err := execute(t, "", "match", "-P", patternPath, subjectPath)
	require.NoError(t, err)

	assert.Contains(t, out, "_accu_")
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "_iList_")
	assert.Contains(t, out, "numbers")
	assert.Contains(t, strings.ToUpper(out), "TOTAL: 1 MATCHES")
	assert.Contains(t, out, "1 of 1 subjects matched")
}

func TestMatch_JSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	subjectPath := writeFile(t, dir, "solution.py", accumulatorSubmission)

	out, err := execute(t, "", "match", "-p", accumulatorPattern, "--format", "json", subjectPath)
	require.NoError(t, err)

	var reports []checker.SubjectReport

	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)

	report := reports[0]
	assert.True(t, report.Matched)
	assert.Equal(t, inlinePatternName, report.Pattern)
	require.Len(t, report.Matches, 1)

	m := report.Matches[0]
	assert.Equal(t, "1:1", m.Location)
	assert.Equal(t, map[string]string{"accu": "total", "item": "n", "iList": "numbers"}, m.Bindings)
	assert.Equal(t, map[string]int{"accu": 3, "item": 2, "iList": 1}, m.Occurrences)
}

func TestMatch_YAMLWithExpressionFromStdin(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "y = (a + b) * 2\n", "match", "-p", "__E__ * 2", "-o", "yaml", "-")
	require.NoError(t, err)

	var reports []checker.SubjectReport

	require.NoError(t, yaml.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Matches, 1)
	assert.Equal(t, "(BinOp + (Name a) (Name b))", reports[0].Matches[0].Expressions["E"])
	assert.Equal(t, "-", reports[0].File)
}

func TestMatch_FailOnMiss(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	subjectPath := writeFile(t, dir, "solution.py", "print('hi')\n")

	out, err := execute(t, "", "match", "-p", "while ___:\n    pass\n", subjectPath)
	require.NoError(t, err)
	assert.Contains(t, out, "no match")
	assert.Contains(t, out, "0 of 1 subjects matched")

	_, err = execute(t, "", "match", "-p", "while ___:\n    pass\n", "--fail-on-miss", subjectPath)
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestMatch_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	subjectPath := writeFile(t, dir, "solution.py", accumulatorSubmission)
	goPath := writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"no pattern", []string{"match", subjectPath}, ErrNoPattern},
		{"both patterns", []string{"match", "-p", "x", "-P", subjectPath, subjectPath}, ErrBothPatterns},
		{"bad format", []string{"match", "-p", "x", "-o", "xml", subjectPath}, ErrUnsupportedFormat},
		{"directory", []string{"match", "-p", "x", dir}, ErrDirectoryPath},
		{"empty path", []string{"match", "-p", "x", " "}, ErrEmptyPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := execute(t, "", tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := execute(t, "", "match", "-p", "x = 1", goPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")

	_, err = execute(t, "", "match", "-p", "x = = 1", subjectPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
}

func TestParse_Formats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "x.py", "x = 0\n")

	out, err := execute(t, "", "parse", "--format", "sexpr", path)
	require.NoError(t, err)
	assert.Equal(t, "(Block (Assign (Name x) (Constant 0)))\n", out)

	out, err = execute(t, "", "parse", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Block @1:1")
	assert.Contains(t, out, `  Assign @1:1`)
	assert.Contains(t, out, `Name "x" @1:1`)

	out, err = execute(t, "x = 0\n", "parse", "-f", "json", "-")
	require.NoError(t, err)

	var tree map[string]any

	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Equal(t, "Block", tree["kind"])

	_, err = execute(t, "", "parse", "-f", "dot", path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = execute(t, "", "parse", "-f", "sexp", path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), `did you mean "sexpr"`)
}

func TestKinds(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "kinds")
	require.NoError(t, err)

	var table map[string]any

	require.NoError(t, yaml.Unmarshal([]byte(out), &table))
	assert.Equal(t, "python", table["language"])
	assert.Contains(t, out, "for_statement: For")
}

func TestConfigFlag(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "shapematch.yaml", "parser:\n  max_source_size: 8B\n")
	subjectPath := writeFile(t, dir, "solution.py", accumulatorSubmission)

	_, err := execute(t, "", "--config", cfgPath, "match", "-p", "x", subjectPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source too large")

	_, err = execute(t, "", "--log-format", "xml", "kinds")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "shapematch "))
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	names := make([]string, 0)
	for _, cmd := range newRootCmd().Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"match", "parse", "kinds", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}
