package analyzer

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/Sayanli/tsxlint/host"
)

// collector stands in for *testing.T: analysistest has no "want" syntax for
// non-Go files, so every diagnostic comes back as unexpected.
type collector struct {
	mu       sync.Mutex
	messages []string
}

func (c *collector) Errorf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, fmt.Sprintf(format, args...))
}

func TestTSXAnalyzer(t *testing.T) {
	testCases := []struct {
		name     string
		pkg      string
		severity string
		expected []string
	}{
		{
			name:     "tsx file without jsx is reported",
			pkg:      "webui",
			severity: "error",
			expected: []string{"hooks.tsx"},
		},
		{
			name:     "every tsx file has jsx",
			pkg:      "widgets",
			severity: "error",
		},
		{
			name:     "jsx only inside a template substitution",
			pkg:      "labels",
			severity: "error",
		},
		{
			name:     "unparsable files are skipped",
			pkg:      "broken",
			severity: "error",
		},
		{
			name:     "rule turned off",
			pkg:      "webui",
			severity: "off",
		},
	}

	testdata := analysistest.TestData()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &collector{}
			results := analysistest.Run(c, testdata, NewAnalyzer(tc.severity, "*.tsx"), tc.pkg)
			require.Len(t, results, 1)

			result := results[0]
			require.NoError(t, result.Err)

			diags, ok := result.Result.([]host.Diagnostic)
			require.True(t, ok)

			var files []string
			for _, d := range diags {
				files = append(files, filepath.Base(d.Filename))
				assert.Equal(t, "noJsxInTsx", d.MessageID)
			}
			assert.ElementsMatch(t, tc.expected, files)
			require.Len(t, result.Diagnostics, len(tc.expected))

			for _, msg := range c.messages {
				assert.True(t, strings.Contains(msg, "does not contain any JSX elements"), msg)
			}
		})
	}
}

func TestReportPosition(t *testing.T) {
	c := &collector{}
	results := analysistest.Run(c, analysistest.TestData(), NewAnalyzer("error", "*.tsx"), "webui")
	require.Len(t, results, 1)
	require.Len(t, results[0].Diagnostics, 1)

	d := results[0].Diagnostics[0]
	posn := results[0].Pass.Fset.Position(d.Pos)
	assert.Equal(t, "hooks.tsx", filepath.Base(posn.Filename))
	assert.Equal(t, 1, posn.Line, "anchored at the first token")
	assert.Equal(t, 1, posn.Column)
	assert.Equal(t, "no-tsx-without-jsx", d.Category)
}

func TestInvalidSeverity(t *testing.T) {
	c := &collector{}
	results := analysistest.Run(c, analysistest.TestData(), NewAnalyzer("fatal", "*.tsx"), "widgets")
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, host.ErrInvalidSeverity)
}

func TestDoc(t *testing.T) {
	a := NewAnalyzer("error", "*.tsx")
	assert.Equal(t, Name, a.Name)
	assert.Contains(t, a.Doc, "Disallow .tsx files without JSX")
	assert.NotNil(t, a.Flags.Lookup("severity"))
	assert.NotNil(t, a.Flags.Lookup("include"))
}

func TestPackageDir(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "go-build")
	t.Setenv("GOCACHE", cache)
	src := filepath.Join(t.TempDir(), "ui")

	testCases := []struct {
		name     string
		files    []string
		other    []string
		ignored  []string
		expected string
	}{
		{
			name:     "plain package",
			files:    []string{filepath.Join(src, "ui.go")},
			expected: src,
		},
		{
			name: "cgo files from the build cache come first",
			files: []string{
				filepath.Join(cache, "3f", "3f2a9c-d"),
				filepath.Join(src, "ui.go"),
			},
			expected: src,
		},
		{
			name: "cgo files from the work directory",
			files: []string{
				filepath.Join(t.TempDir(), "b001", "_cgo_gotypes.go"),
				filepath.Join(t.TempDir(), "b001", "ui.cgo1.go"),
			},
			other:    []string{filepath.Join(src, "bridge.c")},
			expected: src,
		},
		{
			name:     "only ignored files",
			files:    []string{filepath.Join(cache, "aa", "aa01-d")},
			ignored:  []string{filepath.Join(src, "ui_windows.go")},
			expected: src,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fset := token.NewFileSet()
			var files []*ast.File
			for _, name := range tc.files {
				f, err := parser.ParseFile(fset, name, "package ui", 0)
				require.NoError(t, err)
				files = append(files, f)
			}

			pass := &analysis.Pass{Fset: fset, Files: files, OtherFiles: tc.other, IgnoredFiles: tc.ignored}
			dir, ok := packageDir(pass)
			require.True(t, ok)
			assert.Equal(t, tc.expected, dir)
		})
	}

	t.Run("nothing but generated files", func(t *testing.T) {
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, filepath.Join(cache, "bb", "bb02-d"), "package ui", 0)
		require.NoError(t, err)

		_, ok := packageDir(&analysis.Pass{Fset: fset, Files: []*ast.File{f}})
		assert.False(t, ok)
	})
}
