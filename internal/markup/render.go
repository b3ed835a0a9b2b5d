package markup

import (
	"encoding/json"
	"strings"
)

// mentionKeyAttrs lists the attributes that may carry a user key, by precedence.
var mentionKeyAttrs = []string{"jiraUserKey", "userKey", "id", "username"}

var plainEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
)

var plainUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\*`, `*`,
	`\_`, `_`,
	`\[`, `[`,
	`\]`, `]`,
	`\{`, `{`,
	`\}`, `}`,
	`\|`, `|`,
)

var linkEscaper = strings.NewReplacer(`[`, "%5B", `]`, "%5D")

var mentionKeyStripper = strings.NewReplacer(`[`, "", `]`, "")

// Render compiles doc into wiki markup.
//
// A nil doc, or one that renders to blank text, yields plainFallback.
// Render never fails and has no side effects.
func Render(doc *Node, plainFallback string) string {
	if doc == nil || strings.TrimSpace(doc.Type) == "" {
		return plainFallback
	}
	var sb strings.Builder
	sb.Grow(256)
	renderNode(doc, &sb)
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return plainFallback
	}
	return out
}

// RenderJSON parses raw and renders it. Malformed JSON yields plainFallback.
func RenderJSON(raw json.RawMessage, plainFallback string) string {
	doc, ok := Parse(raw)
	if !ok {
		return plainFallback
	}
	return Render(doc, plainFallback)
}

// RenderAny renders an already decoded JSON value.
func RenderAny(v any, plainFallback string) string {
	doc, ok := Parse(v)
	if !ok {
		return plainFallback
	}
	return Render(doc, plainFallback)
}

func renderNode(n *Node, sb *strings.Builder) {
	switch n.Kind() {
	case Paragraph:
		renderChildren(n, sb)
		sb.WriteString("\n\n")
	case Text:
		if !n.HasText {
			return
		}
		sb.WriteString(applyMarks(n.Text, n.Marks))
	case HardBreak:
		sb.WriteString("\n")
	case Mention:
		renderMention(n, sb)
	default:
		renderChildren(n, sb)
	}
}

func renderChildren(n *Node, sb *strings.Builder) {
	for i := range n.Content {
		renderNode(&n.Content[i], sb)
	}
}

func renderMention(n *Node, sb *strings.Builder) {
	for _, attr := range mentionKeyAttrs {
		key := strings.TrimSpace(n.Attr(attr))
		if key == "" {
			continue
		}
		if key = mentionKeyStripper.Replace(key); key != "" {
			sb.WriteString("[~")
			sb.WriteString(key)
			sb.WriteString("]")
			return
		}
	}
	label := n.Attr("label")
	if strings.TrimSpace(label) == "" {
		label = "user"
	}
	sb.WriteString("@")
	sb.WriteString(EscapePlain(label))
}

// applyMarks escapes raw, then wraps it code, bold, italic, link in that order.
func applyMarks(raw string, marks []Mark) string {
	text := EscapePlain(raw)

	var bold, italic, code bool
	var href string
	for _, m := range marks {
		switch m.Type {
		case "bold":
			bold = true
		case "italic":
			italic = true
		case "code":
			code = true
		case "link":
			href = m.Attrs["href"]
		}
	}

	if code {
		text = "{{" + text + "}}"
	}
	if bold {
		text = "*" + text + "*"
	}
	if italic {
		text = "_" + text + "_"
	}
	if h := strings.TrimSpace(href); h != "" {
		text = "[" + text + "|" + linkEscaper.Replace(h) + "]"
	}
	return text
}

// EscapePlain backslash-escapes the markup metacharacters \ * _ [ ] { } |.
func EscapePlain(s string) string {
	return plainEscaper.Replace(s)
}

// UnescapePlain reverses EscapePlain.
func UnescapePlain(s string) string {
	return plainUnescaper.Replace(s)
}
