// Package rule defines the contract between lint rules and the host that
// drives them: the rule descriptor, the per-file context and the visitor
// map a rule hands back.
package rule

import (
	"strings"

	"github.com/Sayanli/tsxlint/estree"
)

// Type classifies what a rule reports.
type Type string

const (
	TypeProblem    Type = "problem"
	TypeSuggestion Type = "suggestion"
	TypeLayout     Type = "layout"
)

type Docs struct {
	Description string
	URL         string
}

type Meta struct {
	Type     Type
	Docs     Docs
	Messages map[string]string
	Schema   []any
}

// Module is a rule descriptor. Create is called once per analyzed file and
// returns the callbacks the host dispatches by node type.
type Module struct {
	DefaultOptions []any
	Meta           Meta
	Create         func(ctx Context) Visitor
}

// Message renders the template registered under id, replacing {{key}}
// placeholders with data. ok is false for an unknown id.
func (m *Module) Message(id string, data map[string]string) (string, bool) {
	tmpl, ok := m.Meta.Messages[id]
	if !ok {
		return "", false
	}
	for k, v := range data {
		tmpl = strings.ReplaceAll(tmpl, "{{"+k+"}}", v)
		tmpl = strings.ReplaceAll(tmpl, "{{ "+k+" }}", v)
	}
	return tmpl, true
}

// Visitor maps node types, or exit selectors such as "Program:exit", to
// callbacks.
type Visitor map[string]func(node *estree.Node)

// ReportDescriptor describes one diagnostic. Loc takes precedence over Node
// when both are set.
type ReportDescriptor struct {
	Node      *estree.Node
	Loc       *estree.SourceLocation
	MessageID string
	Data      map[string]string
}

type Context interface {
	Filename() string
	// SourceCode is nil when the host has no token stream for the file.
	SourceCode() *SourceCode
	Report(d ReportDescriptor)
}

type SourceCode struct {
	file *estree.File
}

func NewSourceCode(f *estree.File) *SourceCode {
	return &SourceCode{file: f}
}

func (s *SourceCode) Tokens() []estree.Token {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Tokens
}

// FirstToken returns the first token inside node.
func (s *SourceCode) FirstToken(node *estree.Node) (estree.Token, bool) {
	if node == nil {
		return estree.Token{}, false
	}
	for _, tok := range s.Tokens() {
		if tok.Range[0] >= node.Range[1] {
			break
		}
		if tok.Range[0] >= node.Range[0] {
			return tok, true
		}
	}
	return estree.Token{}, false
}
