// Package notsxwithoutjsx reports .tsx files that contain no JSX.
package notsxwithoutjsx

import (
	"strings"

	"github.com/Sayanli/tsxlint/estree"
	"github.com/Sayanli/tsxlint/rule"
)

const (
	Name          = "no-tsx-without-jsx"
	MessageNoJSX  = "noJsxInTsx"
	TSXExtension  = ".tsx"
	noJSXTemplate = "This file has a .tsx extension but does not contain any JSX elements."
)

var Rule = &rule.Module{
	DefaultOptions: []any{},
	Meta: rule.Meta{
		Type: rule.TypeProblem,
		Docs: rule.Docs{
			Description: "Disallow .tsx files without JSX",
		},
		Messages: map[string]string{
			MessageNoJSX: noJSXTemplate,
		},
		Schema: []any{},
	},
	Create: create,
}

func create(ctx rule.Context) rule.Visitor {
	if !strings.HasSuffix(ctx.Filename(), TSXExtension) {
		return rule.Visitor{}
	}

	sawJSX := false
	markJSX := func(*estree.Node) {
		sawJSX = true
	}

	programExit := func(program *estree.Node) {
		if sawJSX {
			return
		}
		if tok, ok := ctx.SourceCode().FirstToken(program); ok {
			loc := tok.Loc
			ctx.Report(rule.ReportDescriptor{Loc: &loc, MessageID: MessageNoJSX})
			return
		}
		ctx.Report(rule.ReportDescriptor{Node: program, MessageID: MessageNoJSX})
	}

	return rule.Visitor{
		estree.JSXElement:           markJSX,
		estree.JSXFragment:          markJSX,
		estree.Exit(estree.Program): programExit,
	}
}
