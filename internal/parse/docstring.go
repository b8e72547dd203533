package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// docstring returns the cleaned docstring of a module or block: the first
// statement, when it is a lone plain string literal.
func (w *walker) docstring(block *sitter.Node) string {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		n := block.NamedChild(i)
		if n.Type() == "comment" {
			continue
		}
		if n.Type() != "expression_statement" || n.NamedChildCount() != 1 {
			return ""
		}
		lit := n.NamedChild(0)
		if lit.Type() != "string" {
			return ""
		}
		body, ok := stringBody(w.text(lit))
		if !ok {
			return ""
		}
		return cleandoc(body)
	}
	return ""
}

// stringBody strips the prefix and quotes of a string literal. Byte strings
// and f-strings are not docstrings.
func stringBody(raw string) (string, bool) {
	i := 0
	for i < len(raw) && strings.IndexByte("rRbBuUfF", raw[i]) >= 0 {
		i++
	}
	if strings.ContainsAny(raw[:i], "bBfF") {
		return "", false
	}
	raw = raw[i:]
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(raw) >= 2*len(q) && strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) {
			return raw[len(q) : len(raw)-len(q)], true
		}
	}
	return "", false
}

// cleandoc normalizes docstring indentation: tabs are expanded, the first
// line loses its leading whitespace, the common indentation of the
// remaining lines is removed, and blank leading and trailing lines are
// dropped.
func cleandoc(doc string) string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	lines := strings.Split(doc, "\n")
	for i, l := range lines {
		lines[i] = expandTabs(l)
	}

	margin := -1
	for _, l := range lines[1:] {
		content := strings.TrimLeft(l, " ")
		if content == "" {
			continue
		}
		if indent := len(l) - len(content); margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) < margin {
				lines[i] = ""
				continue
			}
			lines[i] = lines[i][margin:]
		}
	}

	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	const width = 8
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			pad := width - col%width
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}
