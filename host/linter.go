// Package host drives lint rules over parsed files: it creates one rule
// instance per file, walks the tree and collects what the rules report.
package host

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Sayanli/tsxlint/estree"
	"github.com/Sayanli/tsxlint/rule"
)

var (
	ErrUnknownRule    = errors.New("unknown rule")
	ErrUnknownMessage = errors.New("unknown message id")
)

type Diagnostic struct {
	RuleID    string
	MessageID string
	Message   string
	Severity  Severity
	Filename  string
	Loc       estree.SourceLocation
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s %s (%s)",
		d.Filename, d.Loc.Start.Line, d.Loc.Start.Column+1, d.Severity, d.Message, d.RuleID)
}

type File struct {
	Name string
	AST  *estree.File
}

// Loader parses the file at path. A nil file with a nil error skips it.
type Loader func(ctx context.Context, path string) (*estree.File, error)

type registered struct {
	module   *rule.Module
	severity Severity
}

type Linter struct {
	rules       map[string]registered
	logger      log.FieldLogger
	concurrency int
}

type Option func(*Linter)

func WithLogger(l log.FieldLogger) Option {
	return func(lt *Linter) {
		lt.logger = l
	}
}

// WithConcurrency bounds the number of files LintPaths processes at once.
func WithConcurrency(n int) Option {
	return func(lt *Linter) {
		if n > 0 {
			lt.concurrency = n
		}
	}
}

func New(opts ...Option) *Linter {
	l := &Linter{
		rules:       make(map[string]registered),
		logger:      log.StandardLogger(),
		concurrency: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Linter) Register(name string, m *rule.Module, severity Severity) {
	l.rules[name] = registered{module: m, severity: severity}
}

func (l *Linter) Configure(name string, severity Severity) error {
	r, ok := l.rules[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRule, name)
	}
	r.severity = severity
	l.rules[name] = r
	return nil
}

// Rules returns the registered rule names in order.
func (l *Linter) Rules() []string {
	names := make([]string, 0, len(l.rules))
	for name := range l.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type handler struct {
	ruleID string
	fn     func(*estree.Node)
}

// Lint runs every enabled rule over f in a single walk of its tree.
func (l *Linter) Lint(f File) ([]Diagnostic, error) {
	if f.AST == nil || f.AST.Root == nil {
		return nil, nil
	}

	var source *rule.SourceCode
	if len(f.AST.Tokens) > 0 {
		source = rule.NewSourceCode(f.AST)
	}

	dispatch := make(map[string][]handler)
	contexts := make([]*fileContext, 0, len(l.rules))
	for _, name := range l.Rules() {
		r := l.rules[name]
		if r.severity == SeverityOff {
			continue
		}

		ctx := &fileContext{
			ruleID:   name,
			module:   r.module,
			severity: r.severity,
			filename: f.Name,
			source:   source,
		}
		contexts = append(contexts, ctx)

		for selector, fn := range r.module.Create(ctx) {
			dispatch[selector] = append(dispatch[selector], handler{ruleID: name, fn: fn})
		}
	}

	if len(dispatch) > 0 {
		fire := func(selector string, n *estree.Node) {
			for _, h := range dispatch[selector] {
				h.fn(n)
			}
		}
		estree.Walk(f.AST.Root, func(n *estree.Node) {
			fire(n.Type, n)
		}, func(n *estree.Node) {
			fire(estree.Exit(n.Type), n)
		})
	}

	var diags []Diagnostic
	for _, ctx := range contexts {
		if ctx.err != nil {
			return nil, ctx.err
		}
		diags = append(diags, ctx.diagnostics...)
	}
	sortDiagnostics(diags)

	l.logger.WithField("file", f.Name).WithField("diagnostics", len(diags)).Debug("linted")
	return diags, nil
}

// LintPaths loads and lints paths concurrently. Each file gets its own rule
// instances; diagnostics come back sorted by file and position.
func (l *Linter) LintPaths(ctx context.Context, paths []string, load Loader) ([]Diagnostic, error) {
	var (
		mu    sync.Mutex
		diags []Diagnostic
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			ast, err := load(ctx, path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			if ast == nil {
				l.logger.WithField("file", path).Debug("skipped")
				return nil
			}

			fileDiags, err := l.Lint(File{Name: path, AST: ast})
			if err != nil {
				return fmt.Errorf("lint %s: %w", path, err)
			}

			mu.Lock()
			diags = append(diags, fileDiags...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sortDiagnostics(diags)
	return diags, nil
}

func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Loc.Start.Line != b.Loc.Start.Line {
			return a.Loc.Start.Line < b.Loc.Start.Line
		}
		if a.Loc.Start.Column != b.Loc.Start.Column {
			return a.Loc.Start.Column < b.Loc.Start.Column
		}
		return a.RuleID < b.RuleID
	})
}

type fileContext struct {
	ruleID      string
	module      *rule.Module
	severity    Severity
	filename    string
	source      *rule.SourceCode
	diagnostics []Diagnostic
	err         error
}

func (c *fileContext) Filename() string {
	return c.filename
}

func (c *fileContext) SourceCode() *rule.SourceCode {
	return c.source
}

func (c *fileContext) Report(d rule.ReportDescriptor) {
	msg, ok := c.module.Message(d.MessageID, d.Data)
	if !ok {
		if c.err == nil {
			c.err = fmt.Errorf("rule %s: %w: %q", c.ruleID, ErrUnknownMessage, d.MessageID)
		}
		return
	}

	var loc estree.SourceLocation
	switch {
	case d.Loc != nil:
		loc = *d.Loc
	case d.Node != nil:
		loc = d.Node.Loc
	}

	c.diagnostics = append(c.diagnostics, Diagnostic{
		RuleID:    c.ruleID,
		MessageID: d.MessageID,
		Message:   msg,
		Severity:  c.severity,
		Filename:  c.filename,
		Loc:       loc,
	})
}
