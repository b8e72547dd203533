package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/ctxbundle/internal/model"
)

// parameters flattens a parameter list in source order. Defaults of the
// positional parameters are bound right-aligned against those parameters,
// keyword-only parameters keep their own default, and variadic parameters
// carry their "*" or "**" marker in the name.
func (w *walker) parameters(list *sitter.Node) []model.Parameter {
	if list == nil {
		return nil
	}

	var (
		params   []model.Parameter
		fixed    []int // indexes into params of positional parameters
		defaults []string
		kwOnly   bool
	)

	for i := 0; i < int(list.NamedChildCount()); i++ {
		n := list.NamedChild(i)

		var p model.Parameter
		var def string
		switch n.Type() {
		case "identifier":
			p.Name = w.text(n)
		case "typed_parameter":
			p.Name = w.paramName(n.NamedChild(0))
			p.Type = w.compact(n.ChildByFieldName("type"))
		case "default_parameter":
			p.Name = w.paramName(n.ChildByFieldName("name"))
			def = w.compact(n.ChildByFieldName("value"))
		case "typed_default_parameter":
			p.Name = w.paramName(n.ChildByFieldName("name"))
			p.Type = w.compact(n.ChildByFieldName("type"))
			def = w.compact(n.ChildByFieldName("value"))
		case "list_splat_pattern", "dictionary_splat_pattern":
			p.Name = w.paramName(n)
		case "keyword_separator":
			kwOnly = true
			continue
		default:
			// positional_separator, comments
			continue
		}

		if strings.HasPrefix(p.Name, "*") {
			if !strings.HasPrefix(p.Name, "**") {
				kwOnly = true
			}
			params = append(params, p)
			continue
		}

		if kwOnly {
			p.Default = def
			params = append(params, p)
			continue
		}

		fixed = append(fixed, len(params))
		if def != "" {
			defaults = append(defaults, def)
		}
		params = append(params, p)
	}

	bindDefaults(params, fixed, defaults)
	return params
}

// bindDefaults assigns defaults to the last len(defaults) positional
// parameters. Surplus defaults, which valid source never produces, are
// dropped from the front.
func bindDefaults(params []model.Parameter, fixed []int, defaults []string) {
	offset := len(fixed) - len(defaults)
	for i, def := range defaults {
		j := offset + i
		if j < 0 {
			continue
		}
		params[fixed[j]].Default = def
	}
}

// paramName returns a parameter's name, keeping any splat marker.
func (w *walker) paramName(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "list_splat_pattern", "dictionary_splat_pattern":
		return strings.Join(strings.Fields(w.text(n)), "")
	}
	return w.text(n)
}
