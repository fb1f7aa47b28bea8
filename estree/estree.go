// Package estree holds the subset of the ESTree syntax tree that lint rules
// in this module consume.
package estree

const (
	Program             = "Program"
	JSXElement          = "JSXElement"
	JSXFragment         = "JSXFragment"
	VariableDeclaration = "VariableDeclaration"
	FunctionDeclaration = "FunctionDeclaration"
	ExpressionStatement = "ExpressionStatement"
	ReturnStatement     = "ReturnStatement"
	Identifier          = "Identifier"
)

// ExitSuffix turns a node type into the selector fired when the walker
// leaves a node of that type.
const ExitSuffix = ":exit"

// Exit returns the exit selector for nodeType, e.g. "Program:exit".
func Exit(nodeType string) string {
	return nodeType + ExitSuffix
}

// Position is a 1-based line and a 0-based column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type SourceLocation struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Range holds byte offsets [start, end) into the source.
type Range [2]int

type Node struct {
	Type     string
	Name     string
	Range    Range
	Loc      SourceLocation
	Children []*Node
}

type Token struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Range Range          `json:"range"`
	Loc   SourceLocation `json:"loc"`
}

// File is a parsed source file: the Program node and its token stream.
type File struct {
	Root     *Node
	Tokens   []Token
	Comments []Token
}

// Walk visits n and its descendants depth-first. enter is called before
// the children of a node, leave after them. Either may be nil.
func Walk(n *Node, enter, leave func(*Node)) {
	if n == nil {
		return
	}
	if enter != nil {
		enter(n)
	}
	for _, c := range n.Children {
		Walk(c, enter, leave)
	}
	if leave != nil {
		leave(n)
	}
}

// Count returns the number of nodes of the given type under n, n included.
func Count(n *Node, nodeType string) int {
	count := 0
	Walk(n, func(c *Node) {
		if c.Type == nodeType {
			count++
		}
	}, nil)
	return count
}
