// Package plugin registers the tsxlint analyzer as a golangci-lint module
// plugin.
package plugin

import (
	"fmt"

	"github.com/golangci/plugin-module-register/register"
	"golang.org/x/tools/go/analysis"

	"github.com/Sayanli/tsxlint/analyzer"
)

func init() {
	register.Plugin("tsxlint", New)
}

type Settings struct {
	Severity string `json:"severity"`
	Include  string `json:"include"`
}

type analyzerPlugin struct {
	settings Settings
}

func New(conf any) (register.LinterPlugin, error) {
	settings, err := register.DecodeSettings[Settings](conf)
	if err != nil {
		return nil, fmt.Errorf("tsxlint settings: %w", err)
	}
	if settings.Severity == "" {
		settings.Severity = "error"
	}
	if settings.Include == "" {
		settings.Include = "*.tsx"
	}
	return &analyzerPlugin{settings: settings}, nil
}

func (p *analyzerPlugin) BuildAnalyzers() ([]*analysis.Analyzer, error) {
	return []*analysis.Analyzer{
		analyzer.NewAnalyzer(p.settings.Severity, p.settings.Include),
	}, nil
}

func (p *analyzerPlugin) GetLoadMode() string {
	return register.LoadModeSyntax
}
