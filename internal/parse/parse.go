// Package parse extracts structural models from Python source using tree-sitter.
package parse

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/ctxbundle/internal/lang"
	"github.com/phobologic/ctxbundle/internal/model"
)

// MaxValuePreview is the longest variable value kept before truncation.
const MaxValuePreview = 50

var bom = []byte("\xef\xbb\xbf")

// Extractor parses source files into structural models.
// An Extractor owns a tree-sitter parser and must not be shared across goroutines.
type Extractor struct {
	parser *sitter.Parser
}

// NewExtractor creates an extractor for Python source.
func NewExtractor() *Extractor {
	return &Extractor{parser: lang.Python.NewParser()}
}

// Close releases the underlying parser.
func (e *Extractor) Close() {
	e.parser.Close()
}

// Extract parses source and returns its structural model. It never fails:
// syntax errors produce a model with Error set and no declarations.
func (e *Extractor) Extract(source []byte) model.ModuleModel {
	source = bytes.TrimPrefix(source, bom)
	if len(bytes.TrimSpace(source)) == 0 {
		return model.ModuleModel{}
	}

	tree, err := e.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return model.ModuleModel{Error: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return model.ModuleModel{Error: syntaxError(root)}
	}

	w := walker{src: source}
	m := model.ModuleModel{Docstring: w.docstring(root)}
	w.collectDefs(root, &m, true)
	w.collectImports(root, &m)
	return m
}

func syntaxError(root *sitter.Node) string {
	n := firstError(root)
	if n == nil {
		return "syntax error"
	}
	p := n.StartPoint()
	if n.IsMissing() {
		return fmt.Sprintf("syntax error at line %d, column %d: missing %q", p.Row+1, p.Column+1, n.Type())
	}
	return fmt.Sprintf("syntax error at line %d, column %d", p.Row+1, p.Column+1)
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsMissing() || n.Type() == "ERROR" {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c == nil || !(c.HasError() || c.IsMissing()) {
			continue
		}
		if e := firstError(c); e != nil {
			return e
		}
	}
	return nil
}

type walker struct {
	src []byte
}

func (w *walker) text(n *sitter.Node) string {
	return lang.NodeText(n, w.src)
}

func (w *walker) compact(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return lang.CollapseWhitespace(w.text(n))
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// collectDefs records the classes, functions and (at the top level only)
// variables of a statement block. Compound statements such as
// "if TYPE_CHECKING:" or "try:" do not open a new scope, so their blocks
// are searched too; function and class bodies are not.
func (w *walker) collectDefs(block *sitter.Node, m *model.ModuleModel, topLevel bool) {
	for i := 0; i < int(block.NamedChildCount()); i++ {
		n := block.NamedChild(i)
		switch n.Type() {
		case "class_definition":
			m.Classes = append(m.Classes, w.class(n, nil))
		case "function_definition":
			m.Functions = append(m.Functions, w.function(n, nil, false))
		case "decorated_definition":
			def := n.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			switch def.Type() {
			case "class_definition":
				m.Classes = append(m.Classes, w.class(def, w.decorators(n)))
			case "function_definition":
				m.Functions = append(m.Functions, w.function(def, w.decorators(n), false))
			}
		case "expression_statement":
			if topLevel {
				m.Variables = append(m.Variables, w.assignments(n)...)
			}
		case "if_statement", "try_statement", "with_statement",
			"elif_clause", "else_clause", "except_clause", "except_group_clause", "finally_clause":
			for _, b := range innerBlocks(n) {
				w.collectDefs(b, m, false)
			}
		}
	}
}

// innerBlocks returns n's direct block children and the blocks of its clauses.
func innerBlocks(n *sitter.Node) []*sitter.Node {
	var blocks []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c := n.NamedChild(i)
		switch {
		case c.Type() == "block":
			blocks = append(blocks, c)
		case strings.HasSuffix(c.Type(), "_clause"):
			blocks = append(blocks, innerBlocks(c)...)
		}
	}
	return blocks
}

func (w *walker) class(n *sitter.Node, decorators []string) model.Declaration {
	d := model.Declaration{
		Name:       w.text(n.ChildByFieldName("name")),
		Kind:       model.KindClass,
		Line:       line(n),
		Decorators: decorators,
	}

	if sc := n.ChildByFieldName("superclasses"); sc != nil {
		for i := 0; i < int(sc.NamedChildCount()); i++ {
			arg := sc.NamedChild(i)
			if arg.Type() == "keyword_argument" || arg.Type() == "comment" {
				continue
			}
			d.Bases = append(d.Bases, w.compact(arg))
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return d
	}
	d.Docstring = w.docstring(body)

	for i := 0; i < int(body.NamedChildCount()); i++ {
		item := body.NamedChild(i)
		switch item.Type() {
		case "function_definition":
			addMember(&d, w.function(item, nil, true))
		case "decorated_definition":
			def := item.ChildByFieldName("definition")
			if def != nil && def.Type() == "function_definition" {
				addMember(&d, w.function(def, w.decorators(item), true))
			}
		case "expression_statement":
			d.ClassVariables = append(d.ClassVariables, w.assignments(item)...)
		}
	}
	return d
}

// addMember files a method under Properties when a property-style decorator
// is present, and under Methods otherwise.
func addMember(class *model.Declaration, fn model.Declaration) {
	if isProperty(fn.Decorators) {
		fn.Kind = model.KindProperty
		class.Properties = append(class.Properties, fn)
		return
	}
	class.Methods = append(class.Methods, fn)
}

func (w *walker) function(n *sitter.Node, decorators []string, method bool) model.Declaration {
	kind := model.KindFunction
	if isAsync(n) {
		kind = model.KindAsyncFunction
	}

	d := model.Declaration{
		Name:       w.text(n.ChildByFieldName("name")),
		Kind:       kind,
		Line:       line(n),
		Decorators: decorators,
		ReturnType: w.compact(n.ChildByFieldName("return_type")),
	}
	if body := n.ChildByFieldName("body"); body != nil {
		d.Docstring = w.docstring(body)
	}

	params := w.parameters(n.ChildByFieldName("parameters"))
	if method && !hasDecorator(decorators, "staticmethod") && len(params) > 0 && isPlainName(params[0]) {
		d.Receiver = params[0].Name
		params = params[1:]
	}
	d.Params = params
	return d
}

func isAsync(fn *sitter.Node) bool {
	for i := 0; i < int(fn.ChildCount()); i++ {
		switch fn.Child(i).Type() {
		case "async":
			return true
		case "def":
			return false
		}
	}
	return false
}

func isPlainName(p model.Parameter) bool {
	return p.Type == "" && p.Default == "" && !strings.HasPrefix(p.Name, "*")
}

func (w *walker) decorators(decorated *sitter.Node) []string {
	var out []string
	for i := 0; i < int(decorated.NamedChildCount()); i++ {
		c := decorated.NamedChild(i)
		if c.Type() != "decorator" {
			continue
		}
		expr := strings.TrimPrefix(strings.TrimSpace(w.text(c)), "@")
		out = append(out, lang.CollapseWhitespace(expr))
	}
	return out
}

// decoratorName returns the final dotted component of a decorator,
// without call arguments: "functools.cached_property" -> "cached_property".
func decoratorName(dec string) string {
	if i := strings.IndexByte(dec, '('); i >= 0 {
		dec = dec[:i]
	}
	if i := strings.LastIndexByte(dec, '.'); i >= 0 {
		dec = dec[i+1:]
	}
	return strings.TrimSpace(dec)
}

func isProperty(decorators []string) bool {
	for _, dec := range decorators {
		if strings.HasSuffix(decoratorName(dec), "property") {
			return true
		}
	}
	return false
}

func hasDecorator(decorators []string, name string) bool {
	for _, dec := range decorators {
		if decoratorName(dec) == name {
			return true
		}
	}
	return false
}

// assignments returns one Variable per plain-name target of an assignment
// statement. Chained targets ("a = b = 1") share the final value; tuple
// and attribute targets are skipped.
func (w *walker) assignments(stmt *sitter.Node) []model.Variable {
	if stmt.NamedChildCount() == 0 {
		return nil
	}
	cur := stmt.NamedChild(0)
	if cur.Type() != "assignment" {
		return nil
	}

	var targets []*sitter.Node
	var typ, value *sitter.Node
	for cur != nil {
		targets = append(targets, cur.ChildByFieldName("left"))
		if t := cur.ChildByFieldName("type"); t != nil && typ == nil {
			typ = t
		}
		right := cur.ChildByFieldName("right")
		if right != nil && right.Type() == "assignment" {
			cur = right
			continue
		}
		value = right
		cur = nil
	}

	var vars []model.Variable
	for _, t := range targets {
		if t == nil || t.Type() != "identifier" {
			continue
		}
		vars = append(vars, model.Variable{
			Name:  w.text(t),
			Type:  w.compact(typ),
			Value: preview(w.compact(value)),
			Line:  line(stmt),
		})
	}
	return vars
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= MaxValuePreview {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxValuePreview]) + "..."
}
