// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/ctxbundle/internal/lang"
	"github.com/phobologic/ctxbundle/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a bundle into TOON format: tables of files, symbols,
// internal dependencies, external packages and parse errors.
func Encode(b *model.Bundle) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("project: %s", encodeValue(b.Project)))
	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(b.Root)))

	files := b.Files()

	var fileRows [][]string
	for _, f := range files {
		fileRows = append(fileRows, []string{
			f.Path,
			lang.FenceName(f.Ext),
			fmt.Sprintf("%.4f", b.Ranks[f.Path]),
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "language", "rank"}, fileRows))

	var symbolRows [][]string
	var errorRows [][]string
	for _, f := range files {
		if f.Module == nil {
			continue
		}
		if f.Module.Error != "" {
			errorRows = append(errorRows, []string{f.Path, f.Module.Error})
			continue
		}
		symbolRows = append(symbolRows, symbolRowsFor(f.Path, f.Module)...)
	}
	parts = append(parts, formatTabular("symbols", []string{"file", "name", "kind", "line", "signature"}, symbolRows))

	var depRows, extRows [][]string
	if g := b.Graph; g != nil {
		for _, src := range g.Files {
			for _, tgt := range g.Internal[src] {
				depRows = append(depRows, []string{src, tgt})
			}
			if ext := g.External[src]; len(ext) > 0 {
				extRows = append(extRows, []string{src, strings.Join(ext, " ")})
			}
		}
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "target"}, depRows))
	parts = append(parts, formatTabular("external", []string{"file", "packages"}, extRows))

	if len(errorRows) > 0 {
		parts = append(parts, formatTabular("errors", []string{"file", "error"}, errorRows))
	}

	return strings.Join(parts, "\n")
}

func symbolRowsFor(path string, m *model.ModuleModel) [][]string {
	row := func(name string, d model.Declaration) []string {
		return []string{path, name, string(d.Kind), strconv.Itoa(d.Line), d.Signature()}
	}

	var rows [][]string
	for _, c := range m.Classes {
		rows = append(rows, row(c.Name, c))
		for _, meth := range c.Methods {
			rows = append(rows, row(c.Name+"."+meth.Name, meth))
		}
		for _, prop := range c.Properties {
			rows = append(rows, row(c.Name+"."+prop.Name, prop))
		}
	}
	for _, fn := range m.Functions {
		rows = append(rows, row(fn.Name, fn))
	}
	for _, v := range m.Variables {
		sig := v.Name
		if v.Type != "" {
			sig += ": " + v.Type
		}
		rows = append(rows, []string{path, v.Name, string(model.KindVariable), strconv.Itoa(v.Line), sig})
	}
	return rows
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
