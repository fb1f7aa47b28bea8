// Package treesitter parses TypeScript and TSX sources with tree-sitter and
// converts the concrete syntax tree into estree nodes and tokens.
package treesitter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/Sayanli/tsxlint/estree"
)

var ErrSyntax = errors.New("syntax error")

var nodeTypes = map[string]string{
	"program":                       estree.Program,
	"jsx_element":                   estree.JSXElement,
	"jsx_self_closing_element":      estree.JSXElement,
	"jsx_fragment":                  estree.JSXFragment,
	"lexical_declaration":           estree.VariableDeclaration,
	"variable_declaration":          estree.VariableDeclaration,
	"function_declaration":          estree.FunctionDeclaration,
	"expression_statement":          estree.ExpressionStatement,
	"return_statement":              estree.ReturnStatement,
	"identifier":                    estree.Identifier,
	"property_identifier":           estree.Identifier,
	"type_identifier":               estree.Identifier,
	"shorthand_property_identifier": estree.Identifier,
	"statement_block":               "BlockStatement",
	"arrow_function":                "ArrowFunctionExpression",
	"function":                      "FunctionExpression",
	"function_expression":           "FunctionExpression",
	"ternary_expression":            "ConditionalExpression",
	"string":                        "Literal",
	"number":                        "Literal",
	"template_string":               "TemplateLiteral",
	"import_statement":              "ImportDeclaration",
	"export_statement":              "ExportNamedDeclaration",
	"interface_declaration":         "TSInterfaceDeclaration",
	"type_alias_declaration":        "TSTypeAliasDeclaration",
}

// single tokens even though tree-sitter gives them children
var atomic = map[string]string{
	"string":       "String",
	"regex":        "RegularExpression",
	"comment":      "Comment",
	"html_comment": "Comment",
}

// Language picks the grammar for filename: plain TypeScript for .ts, .mts
// and .cts files, TSX for everything else.
func Language(filename string) *sitter.Language {
	switch filepath.Ext(filename) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	}
	return tsx.GetLanguage()
}

// Parse parses src. When the source has syntax errors the converted file is
// still returned, together with an error wrapping ErrSyntax.
func Parse(ctx context.Context, filename string, src []byte) (*estree.File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(Language(filename))

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	c := &converter{src: src}
	f := &estree.File{Root: c.node(root)}
	f.Tokens, f.Comments = c.tokens, c.comments

	if root.HasError() {
		if bad := firstError(root); bad != nil {
			p := bad.StartPoint()
			return f, fmt.Errorf("%s:%d:%d: %w", filename, p.Row+1, p.Column+1, ErrSyntax)
		}
		return f, fmt.Errorf("%s: %w", filename, ErrSyntax)
	}
	return f, nil
}

type converter struct {
	src      []byte
	tokens   []estree.Token
	comments []estree.Token
}

func (c *converter) node(n *sitter.Node) *estree.Node {
	out := &estree.Node{
		Type:  nodeType(n),
		Range: estree.Range{int(n.StartByte()), int(n.EndByte())},
		Loc:   location(n),
	}
	if out.Type == estree.Identifier {
		out.Name = n.Content(c.src)
	}

	if n.Type() == "template_string" {
		c.template(n, out)
		return out
	}

	if kind, ok := atomic[n.Type()]; ok || n.ChildCount() == 0 {
		if out.Type != estree.Program {
			c.token(n, kind)
		}
		return out
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			c.token(child, "")
			continue
		}
		converted := c.node(child)
		if child.Type() == "comment" || child.Type() == "html_comment" {
			continue
		}
		out.Children = append(out.Children, converted)
	}
	return out
}

// template emits the literal parts of a template string as Template tokens,
// "`a ${" and "} b`" as typescript-estree does, and converts the expression
// of every substitution into a child of out.
func (c *converter) template(n *sitter.Node, out *estree.Node) {
	start := int(n.StartByte())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		sub := n.NamedChild(i)
		if sub == nil || sub.Type() != "template_substitution" {
			continue
		}

		c.span("Template", start, int(sub.StartByte())+len("${"))
		for j := 0; j < int(sub.NamedChildCount()); j++ {
			expr := sub.NamedChild(j)
			if expr == nil {
				continue
			}
			converted := c.node(expr)
			if expr.Type() == "comment" || expr.Type() == "html_comment" {
				continue
			}
			out.Children = append(out.Children, converted)
		}
		start = int(sub.EndByte()) - len("}")
	}
	c.span("Template", start, int(n.EndByte()))
}

// span records a token for src[start:end].
func (c *converter) span(kind string, start, end int) {
	if start >= end {
		return
	}
	c.tokens = append(c.tokens, estree.Token{
		Type:  kind,
		Value: string(c.src[start:end]),
		Range: estree.Range{start, end},
		Loc: estree.SourceLocation{
			Start: c.position(start),
			End:   c.position(end),
		},
	})
}

// position converts a byte offset into a line and byte column.
func (c *converter) position(offset int) estree.Position {
	line, lineStart := 1, 0
	for i := 0; i < offset && i < len(c.src); i++ {
		if c.src[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return estree.Position{Line: line, Column: offset - lineStart}
}

func (c *converter) token(n *sitter.Node, kind string) {
	if n.IsMissing() || n.StartByte() == n.EndByte() {
		return
	}

	value := n.Content(c.src)
	if kind == "" {
		kind = tokenType(n, value)
	}
	tok := estree.Token{
		Type:  kind,
		Value: value,
		Range: estree.Range{int(n.StartByte()), int(n.EndByte())},
		Loc:   location(n),
	}

	if kind == "Comment" {
		tok.Type = "Line"
		if strings.HasPrefix(value, "/*") {
			tok.Type = "Block"
		}
		c.comments = append(c.comments, tok)
		return
	}
	c.tokens = append(c.tokens, tok)
}

func nodeType(n *sitter.Node) string {
	typ := n.Type()
	if typ == "jsx_element" && isFragment(n) {
		return estree.JSXFragment
	}
	if mapped, ok := nodeTypes[typ]; ok {
		return mapped
	}
	return pascalCase(typ)
}

// isFragment reports whether a jsx_element opens with a nameless tag, the
// way newer grammars encode <>...</>.
func isFragment(n *sitter.Node) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child != nil && child.Type() == "jsx_opening_element" {
			return child.ChildByFieldName("name") == nil
		}
	}
	return false
}

func tokenType(n *sitter.Node, value string) string {
	switch n.Type() {
	case "number":
		return "Numeric"
	case "jsx_text":
		return "JSXText"
	case "true", "false":
		return "Boolean"
	case "null":
		return "Null"
	case "identifier", "property_identifier", "shorthand_property_identifier",
		"type_identifier", "private_property_identifier":
		return "Identifier"
	}
	if n.IsNamed() {
		return "Identifier"
	}
	for _, r := range value {
		if !unicode.IsLetter(r) {
			return "Punctuator"
		}
	}
	return "Keyword"
}

func location(n *sitter.Node) estree.SourceLocation {
	start, end := n.StartPoint(), n.EndPoint()
	return estree.SourceLocation{
		Start: estree.Position{Line: int(start.Row) + 1, Column: int(start.Column)},
		End:   estree.Position{Line: int(end.Row) + 1, Column: int(end.Column)},
	}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return nil
}

// pascalCase turns tree-sitter's snake_case names into ESTree style ones,
// keeping the JSX and TS prefixes upper case.
func pascalCase(s string) string {
	var b strings.Builder
	for i, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		if i == 0 && (part == "jsx" || part == "ts") {
			b.WriteString(strings.ToUpper(part))
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}
