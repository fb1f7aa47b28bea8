// Package cli implements the tsxlint command.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Sayanli/tsxlint/config"
	"github.com/Sayanli/tsxlint/estree"
	"github.com/Sayanli/tsxlint/host"
	"github.com/Sayanli/tsxlint/parser/treesitter"
	"github.com/Sayanli/tsxlint/rules/notsxwithoutjsx"
)

// ErrProblems is returned when at least one error-level diagnostic was
// reported.
var ErrProblems = errors.New("lint problems found")

const estreeSuffix = ".json"

type options struct {
	config   string
	logLevel string
	format   string
	estree   bool
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "tsxlint [paths...]",
		Short: "Report .tsx files that contain no JSX",
		Long: `tsxlint walks the given files and directories, parses every selected
.tsx file and reports the ones without a JSX element or fragment.

With --estree the inputs are ESTree JSON dumps named <file>.tsx.json, as
printed by typescript-estree, instead of source files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			return run(cmd.Context(), o, args, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.config, "config", "", "config file (default .tsxlint.{yaml,json,toml} in the working directory)")
	flags.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flags.StringVar(&o.format, "format", "text", "output format: text or json")
	flags.BoolVar(&o.estree, "estree", false, "read ESTree JSON dumps (<file>.tsx.json) instead of sources")
	return cmd
}

func run(ctx context.Context, o *options, paths []string, stdout, stderr io.Writer) error {
	if o.format != "text" && o.format != "json" {
		return fmt.Errorf("unknown format %q", o.format)
	}

	logger := log.New()
	logger.SetOutput(stderr)
	level, err := log.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	cfg, err := config.Load(o.config)
	if err != nil {
		return err
	}

	linter := host.New(host.WithLogger(logger), host.WithConcurrency(cfg.Concurrency))
	linter.Register(notsxwithoutjsx.Name, notsxwithoutjsx.Rule, host.SeverityError)
	if err := cfg.Apply(linter); err != nil {
		return err
	}

	files, err := collect(cfg, paths, o.estree)
	if err != nil {
		return err
	}
	logger.WithField("files", len(files)).Debug("collected")

	load := sourceLoader(logger)
	if o.estree {
		load = estreeLoader
	}

	diags, err := linter.LintPaths(ctx, files, load)
	if err != nil {
		return err
	}

	if err := write(stdout, o.format, diags); err != nil {
		return err
	}

	for _, d := range diags {
		if d.Severity == host.SeverityError {
			return ErrProblems
		}
	}
	return nil
}

// collect expands paths into the names to lint. Explicit files are always
// linted; directories are walked and filtered by the config. In estree mode
// the returned names have the .json suffix removed.
func collect(cfg *config.Config, paths []string, estreeMode bool) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(name string) {
		if estreeMode {
			name = strings.TrimSuffix(name, estreeSuffix)
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		files = append(files, name)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && cfg.SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if estreeMode {
				if !strings.HasSuffix(rel, estreeSuffix) {
					return nil
				}
				rel = strings.TrimSuffix(rel, estreeSuffix)
			}
			if cfg.Match(rel) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

func sourceLoader(logger log.FieldLogger) host.Loader {
	return func(ctx context.Context, path string) (*estree.File, error) {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		f, err := treesitter.Parse(ctx, path, src)
		if errors.Is(err, treesitter.ErrSyntax) {
			logger.WithError(err).Warn("skipping file with syntax errors")
			return nil, nil
		}
		return f, err
	}
}

func estreeLoader(_ context.Context, path string) (*estree.File, error) {
	f, err := os.Open(path + estreeSuffix)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return estree.Decode(f)
}

type jsonDiagnostic struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"endLine"`
	EndColumn int    `json:"endColumn"`
	RuleID    string `json:"ruleId"`
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
}

func write(w io.Writer, format string, diags []host.Diagnostic) error {
	if format == "json" {
		out := make([]jsonDiagnostic, 0, len(diags))
		for _, d := range diags {
			out = append(out, jsonDiagnostic{
				File:      d.Filename,
				Line:      d.Loc.Start.Line,
				Column:    d.Loc.Start.Column + 1,
				EndLine:   d.Loc.End.Line,
				EndColumn: d.Loc.End.Column + 1,
				RuleID:    d.RuleID,
				MessageID: d.MessageID,
				Message:   d.Message,
				Severity:  d.Severity.String(),
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	var errs, warns int
	for _, d := range diags {
		if _, err := fmt.Fprintln(w, d.String()); err != nil {
			return err
		}
		switch d.Severity {
		case host.SeverityError:
			errs++
		case host.SeverityWarn:
			warns++
		}
	}
	if len(diags) > 0 {
		_, err := fmt.Fprintf(w, "\n%d problems (%d errors, %d warnings)\n", len(diags), errs, warns)
		return err
	}
	return nil
}
