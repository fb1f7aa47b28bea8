package analyzer

import (
	"context"
	"errors"
	"flag"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/tools/go/analysis"
	"honnef.co/go/tools/analysis/lint"

	"github.com/Sayanli/tsxlint/config"
	"github.com/Sayanli/tsxlint/host"
	"github.com/Sayanli/tsxlint/parser/treesitter"
	"github.com/Sayanli/tsxlint/rules/notsxwithoutjsx"
)

const Name = "notsxwithoutjsx"

var Doc = &lint.RawDocumentation{
	Title: "Disallow .tsx files without JSX",
	Text: `A file with the .tsx extension is parsed with JSX enabled, which
changes how generics and type assertions are read. Files that contain no
JSX element or fragment should use the .ts extension instead.

The check looks at the .tsx files that sit next to the Go files of each
package, e.g. an embedded web UI.`,
	Since:    "Unreleased",
	Severity: lint.SeverityError,
	MergeIf:  lint.MergeIfAny,
}

type TSXAnalyzer struct {
	severity string
	include  string
}

func NewAnalyzer(severity, include string) *analysis.Analyzer {
	a := &TSXAnalyzer{
		severity: severity,
		include:  include,
	}

	la := lint.InitializeAnalyzer(&lint.Analyzer{
		Doc: Doc,
		Analyzer: &analysis.Analyzer{
			Name:       Name,
			Run:        a.run,
			Flags:      a.newFlagSet(),
			ResultType: reflect.TypeOf([]host.Diagnostic{}),
		},
	})
	la.Analyzer.URL = ""
	return la.Analyzer
}

func (a *TSXAnalyzer) newFlagSet() flag.FlagSet {
	fs := flag.NewFlagSet(Name, flag.ExitOnError)
	fs.StringVar(&a.severity, "severity", a.severity, "rule severity: error, warn or off")
	fs.StringVar(&a.include, "include", a.include, "glob selecting files in the package directory")
	return *fs
}

func (a *TSXAnalyzer) run(pass *analysis.Pass) (interface{}, error) {
	if strings.HasSuffix(pass.Pkg.Name(), "_test") {
		return []host.Diagnostic{}, nil
	}

	severity, err := host.ParseSeverity(a.severity)
	if err != nil {
		return nil, err
	}
	if severity == host.SeverityOff {
		return []host.Diagnostic{}, nil
	}

	// passes for different packages may run concurrently
	linter := host.New()
	linter.Register(notsxwithoutjsx.Name, notsxwithoutjsx.Rule, severity)

	dir, ok := packageDir(pass)
	if !ok {
		return []host.Diagnostic{}, nil
	}
	paths, err := a.collectFiles(dir)
	if err != nil {
		return nil, err
	}

	var diags []host.Diagnostic
	for _, path := range paths {
		fileDiags, err := a.lintFile(pass, linter, path)
		if err != nil {
			return nil, err
		}
		diags = append(diags, fileDiags...)
	}

	if diags == nil {
		diags = []host.Diagnostic{}
	}
	return diags, nil
}

// packageDir finds the source directory of the package. For cgo packages
// pass.Files holds the generated files from the build cache or the work
// directory, so those are skipped and the C and ignored files are tried
// after the Go ones.
func packageDir(pass *analysis.Pass) (string, bool) {
	cache := goCache()

	var candidates []string
	for _, f := range pass.Files {
		if tf := pass.Fset.File(f.Pos()); tf != nil {
			candidates = append(candidates, tf.Name())
		}
	}
	candidates = append(candidates, pass.OtherFiles...)
	candidates = append(candidates, pass.IgnoredFiles...)

	for _, name := range candidates {
		if name == "" || isGenerated(name, cache) {
			continue
		}
		return filepath.Dir(name), true
	}
	return "", false
}

func goCache() string {
	if dir := os.Getenv("GOCACHE"); dir != "" && dir != "off" {
		return filepath.Clean(dir)
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "go-build")
	}
	return ""
}

func isGenerated(name, cache string) bool {
	if cache != "" {
		if rel, err := filepath.Rel(cache, name); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}
	base := filepath.Base(name)
	return strings.HasPrefix(base, "_cgo_") || strings.HasSuffix(base, ".cgo1.go")
}

func (a *TSXAnalyzer) collectFiles(dir string) ([]string, error) {
	cfg := &config.Config{Include: []string{a.include}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !cfg.Match(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (a *TSXAnalyzer) lintFile(pass *analysis.Pass, linter *host.Linter, path string) ([]host.Diagnostic, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ast, err := treesitter.Parse(context.Background(), path, src)
	if errors.Is(err, treesitter.ErrSyntax) {
		// the rule needs a well-formed tree
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	diags, err := linter.Lint(host.File{Name: path, AST: ast})
	if err != nil {
		return nil, err
	}
	if len(diags) == 0 {
		return nil, nil
	}

	tf := pass.Fset.AddFile(path, -1, len(src))
	tf.SetLinesForContent(src)

	for _, d := range diags {
		pass.Report(analysis.Diagnostic{
			Pos:      position(tf, d),
			Category: d.RuleID,
			Message:  d.Message,
		})
	}
	return diags, nil
}

func position(tf *token.File, d host.Diagnostic) token.Pos {
	line := d.Loc.Start.Line
	if line < 1 || line > tf.LineCount() {
		return tf.Pos(0)
	}

	offset := tf.Offset(tf.LineStart(line)) + d.Loc.Start.Column
	if offset > tf.Size() {
		offset = tf.Size()
	}
	return tf.Pos(offset)
}
