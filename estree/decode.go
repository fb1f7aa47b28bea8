package estree

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

var ErrNotProgram = errors.New("estree: root node is not a Program")

// keys that never hold child nodes
var skipKeys = map[string]struct{}{
	"type":     {},
	"range":    {},
	"loc":      {},
	"parent":   {},
	"tokens":   {},
	"comments": {},
}

type document struct {
	Tokens   []Token `json:"tokens"`
	Comments []Token `json:"comments"`
}

// Decode reads an ESTree JSON document, as printed by typescript-estree with
// the range, loc, tokens and comment options enabled.
func Decode(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read estree: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode estree: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode estree: %w", err)
	}

	root := convert(raw)
	if root == nil || root.Type != Program {
		return nil, ErrNotProgram
	}

	return &File{Root: root, Tokens: doc.Tokens, Comments: doc.Comments}, nil
}

func convert(m map[string]any) *Node {
	typ, ok := m["type"].(string)
	if !ok {
		return nil
	}

	n := &Node{Type: typ}
	if name, ok := m["name"].(string); ok {
		n.Name = name
	}
	if r, ok := m["range"].([]any); ok && len(r) == 2 {
		n.Range = Range{toInt(r[0]), toInt(r[1])}
	}
	if loc, ok := m["loc"].(map[string]any); ok {
		n.Loc = SourceLocation{
			Start: toPosition(loc["start"]),
			End:   toPosition(loc["end"]),
		}
	}

	for key, v := range m {
		if _, skip := skipKeys[key]; skip {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			if c := convert(val); c != nil {
				n.Children = append(n.Children, c)
			}
		case []any:
			for _, item := range val {
				if im, ok := item.(map[string]any); ok {
					if c := convert(im); c != nil {
						n.Children = append(n.Children, c)
					}
				}
			}
		}
	}

	// map iteration order is random, source order is not
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i].Range, n.Children[j].Range
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return a[1] < b[1]
	})

	return n
}

func toPosition(v any) Position {
	m, ok := v.(map[string]any)
	if !ok {
		return Position{}
	}
	return Position{Line: toInt(m["line"]), Column: toInt(m["column"])}
}

func toInt(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}
