package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	withJSX    = "export const App = () => <main>hello</main>;\n"
	withoutJSX = "export const add = (a: number, b: number) => a + b;\n"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	t.Chdir(root)
	return root
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLintSources(t *testing.T) {
	writeTree(t, map[string]string{
		"src/app.tsx":                 withJSX,
		"src/math.tsx":                withoutJSX,
		"src/math.ts":                 withoutJSX,
		"node_modules/lib/index.tsx":  withoutJSX,
		"src/components/broken.tsx":   "export const = ;\n",
		"src/components/fragment.tsx": "export const F = () => <></>;\n",
	})

	stdout, stderr, err := execute(t, ".")
	assert.ErrorIs(t, err, ErrProblems)
	assert.Equal(t,
		filepath.Join("src", "math.tsx")+":1:1: error This file has a .tsx extension but does not contain any JSX elements. (no-tsx-without-jsx)\n"+
			"\n1 problems (1 errors, 0 warnings)\n",
		stdout)
	assert.Contains(t, stderr, "skipping file with syntax errors")
}

func TestLintClean(t *testing.T) {
	writeTree(t, map[string]string{"app.tsx": withJSX})

	stdout, _, err := execute(t)
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestLintWarnConfig(t *testing.T) {
	writeTree(t, map[string]string{
		"math.tsx":      withoutJSX,
		".tsxlint.yaml": "rules:\n  no-tsx-without-jsx: warn\n",
	})

	stdout, _, err := execute(t, ".")
	require.NoError(t, err, "warnings do not fail the run")
	assert.Contains(t, stdout, "math.tsx:1:1: warning")
	assert.Contains(t, stdout, "1 problems (0 errors, 1 warnings)")
}

func TestLintExplicitFile(t *testing.T) {
	writeTree(t, map[string]string{"lib/util.ts": withoutJSX, "lib/util.tsx": withoutJSX})

	_, _, err := execute(t, filepath.Join("lib", "util.ts"))
	require.NoError(t, err, "a .ts file is never reported")

	_, _, err = execute(t, filepath.Join("lib", "util.tsx"))
	assert.ErrorIs(t, err, ErrProblems)
}

func TestLintJSONFormat(t *testing.T) {
	writeTree(t, map[string]string{"math.tsx": "\n\n" + withoutJSX})

	stdout, _, err := execute(t, "--format", "json", "math.tsx")
	assert.ErrorIs(t, err, ErrProblems)

	var out []jsonDiagnostic
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 1)
	assert.Equal(t, jsonDiagnostic{
		File:      "math.tsx",
		Line:      3,
		Column:    1,
		EndLine:   3,
		EndColumn: 7,
		RuleID:    "no-tsx-without-jsx",
		MessageID: "noJsxInTsx",
		Message:   "This file has a .tsx extension but does not contain any JSX elements.",
		Severity:  "error",
	}, out[0])
}

func TestLintESTree(t *testing.T) {
	writeTree(t, map[string]string{
		"dump/empty.tsx.json": `{"type": "Program", "range": [0, 0], "body": [], "tokens": [],
			"loc": {"start": {"line": 1, "column": 0}, "end": {"line": 1, "column": 0}}}`,
		"dump/view.tsx.json": `{"type": "Program", "range": [0, 20], "body": [
			{"type": "ExpressionStatement", "range": [0, 20],
			 "expression": {"type": "JSXFragment", "range": [0, 19]}}]}`,
		"dump/plain.ts.json": `{"type": "Program", "range": [0, 0], "body": []}`,
	})

	stdout, _, err := execute(t, "--estree", "dump")
	assert.ErrorIs(t, err, ErrProblems)
	assert.Contains(t, stdout, filepath.Join("dump", "empty.tsx")+":1:1: error")
	assert.NotContains(t, stdout, "view.tsx")
	assert.NotContains(t, stdout, "plain.ts")
}

func TestBadFlags(t *testing.T) {
	writeTree(t, map[string]string{"app.tsx": withJSX})

	_, _, err := execute(t, "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, _, err = execute(t, "--log-level", "loud")
	assert.Error(t, err)

	_, _, err = execute(t, "missing-dir")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
