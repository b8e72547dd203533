package parse

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/ctxbundle/internal/lang"
	"github.com/phobologic/ctxbundle/internal/model"
)

// importQuery matches every import statement at any depth. Matches are
// reported in source order.
const importQuery = `
(import_statement) @import
(import_from_statement) @import
(future_import_statement) @import
`

var (
	compiledOnce  sync.Once
	compiledQuery *sitter.Query
	compiledErr   error
)

func getImportQuery() (*sitter.Query, error) {
	compiledOnce.Do(func() {
		compiledQuery, compiledErr = sitter.NewQuery([]byte(importQuery), lang.Python.GetLanguage())
	})
	return compiledQuery, compiledErr
}

// collectImports records one edge per imported name, including imports
// nested inside functions, classes and conditional blocks.
func (w *walker) collectImports(root *sitter.Node, m *model.ModuleModel) {
	q, err := getImportQuery()
	if err != nil {
		return
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range match.Captures {
			m.Imports = append(m.Imports, w.importEdges(c.Node)...)
		}
	}
}

func (w *walker) importEdges(stmt *sitter.Node) []model.ImportEdge {
	ln := line(stmt)

	if stmt.Type() == "import_statement" {
		var edges []model.ImportEdge
		for i := 0; i < int(stmt.NamedChildCount()); i++ {
			name, alias := w.aliased(stmt.NamedChild(i))
			if name == "" {
				continue
			}
			edges = append(edges, model.ImportEdge{
				Kind:   model.Absolute,
				Module: name,
				Alias:  alias,
				Line:   ln,
			})
		}
		return edges
	}

	// from-imports, including "from __future__ import ..."
	kind := model.Absolute
	module := ""
	level := 0
	if stmt.Type() == "future_import_statement" {
		module = "__future__"
	}
	if mod := stmt.ChildByFieldName("module_name"); mod != nil {
		if mod.Type() == "relative_import" {
			kind = model.Relative
			for i := 0; i < int(mod.NamedChildCount()); i++ {
				part := mod.NamedChild(i)
				switch part.Type() {
				case "import_prefix":
					level = strings.Count(w.text(part), ".")
				case "dotted_name":
					module = dotted(w.text(part))
				}
			}
		} else {
			module = dotted(w.text(mod))
		}
	}

	edge := func(name, alias string) model.ImportEdge {
		return model.ImportEdge{
			Kind:   kind,
			Module: module,
			Name:   name,
			Alias:  alias,
			Level:  level,
			Line:   ln,
			From:   true,
		}
	}

	var edges []model.ImportEdge
	for i := 0; i < int(stmt.ChildCount()); i++ {
		c := stmt.Child(i)
		if c.Type() == "wildcard_import" {
			edges = append(edges, edge("*", ""))
			continue
		}
		if stmt.FieldNameForChild(i) != "name" {
			continue
		}
		if name, alias := w.aliased(c); name != "" {
			edges = append(edges, edge(name, alias))
		}
	}
	return edges
}

// aliased returns the name and optional alias of a dotted_name or
// aliased_import node.
func (w *walker) aliased(n *sitter.Node) (name, alias string) {
	switch n.Type() {
	case "dotted_name", "identifier":
		return dotted(w.text(n)), ""
	case "aliased_import":
		return dotted(w.compact(n.ChildByFieldName("name"))), w.compact(n.ChildByFieldName("alias"))
	}
	return "", ""
}

func dotted(s string) string {
	return strings.Join(strings.Fields(s), "")
}
