package markup

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind is the closed set of node kinds the compiler understands.
// Anything else is Passthrough and only contributes its children.
type Kind int

const (
	Passthrough Kind = iota
	Doc
	Paragraph
	Text
	HardBreak
	Mention
)

var kindNames = map[string]Kind{
	"doc":       Doc,
	"paragraph": Paragraph,
	"text":      Text,
	"hardBreak": HardBreak,
	"mention":   Mention,
}

// Node is a rich-text document node as produced by the editor.
type Node struct {
	Type    string
	Text    string
	HasText bool // "text" was present and non-null
	Attrs   map[string]string
	Marks   []Mark
	Content []Node
}

// Mark is an inline decoration on a text node.
type Mark struct {
	Type  string
	Attrs map[string]string
}

// Kind classifies the node.
func (n *Node) Kind() Kind {
	return kindNames[n.Type]
}

// Attr returns the named attribute, or "".
func (n *Node) Attr(name string) string {
	return n.Attrs[name]
}

// Parse converts a decoded JSON value into a Node tree.
//
// v may be a map[string]any as produced by encoding/json, or raw JSON bytes.
// The root must be an object with a non-blank "type"; children that are not
// objects are skipped. ok is false when the root is not a well-formed node.
func Parse(v any) (*Node, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case json.RawMessage:
		return parseRaw(t)
	case []byte:
		return parseRaw(t)
	case map[string]any:
		n := parseNode(t)
		if strings.TrimSpace(n.Type) == "" {
			return nil, false
		}
		return &n, true
	default:
		return nil, false
	}
}

func parseRaw(raw []byte) (*Node, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}
	return Parse(m)
}

// parseNode never fails; an untyped child becomes a passthrough node.
func parseNode(m map[string]any) Node {
	n := Node{
		Type:  strings.TrimSpace(scalar(m["type"])),
		Attrs: parseAttrs(m["attrs"]),
	}
	if t, ok := m["text"]; ok && t != nil {
		n.Text, n.HasText = scalar(t), true
	}
	if marks, ok := m["marks"].([]any); ok {
		for _, raw := range marks {
			mm, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			n.Marks = append(n.Marks, Mark{
				Type:  scalar(mm["type"]),
				Attrs: parseAttrs(mm["attrs"]),
			})
		}
	}
	if content, ok := m["content"].([]any); ok {
		for _, raw := range content {
			cm, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			n.Content = append(n.Content, parseNode(cm))
		}
	}
	return n
}

func parseAttrs(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if val == nil {
			continue
		}
		out[k] = scalar(val)
	}
	return out
}

// scalar stringifies JSON scalars; objects and arrays yield "".
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
