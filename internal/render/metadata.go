package render

import (
	"strings"

	"github.com/phobologic/ctxbundle/internal/model"
)

// metadata writes the structural summary of one Python module.
func (w *writer) metadata(p string, m *model.ModuleModel) {
	w.line("### 📄 Python File Metadata: `%s`", p)
	w.blank()

	if m.Error != "" {
		w.line("> ⚠️ Could not parse this file: %s", m.Error)
		w.blank()
		w.line("---")
		w.blank()
		return
	}

	if m.Docstring != "" {
		w.line("#### 📝 Module Docstring")
		w.blank()
		w.fenced("", m.Docstring)
		w.blank()
	}

	if len(m.Imports) > 0 {
		w.line("#### 📦 Imports")
		w.blank()
		for _, imp := range m.Imports {
			w.line("- `%s`", importText(imp))
		}
		w.blank()
	}

	if len(m.Classes) > 0 {
		w.line("#### 🏛️ Classes (%d)", len(m.Classes))
		w.blank()
		for _, c := range m.Classes {
			w.class(c)
		}
	}

	var public []model.Declaration
	for _, fn := range m.Functions {
		if fn.Visibility() == model.Public {
			public = append(public, fn)
		}
	}
	if len(public) > 0 {
		w.line("#### 🔧 Public Functions (%d)", len(public))
		w.blank()
		for _, fn := range public {
			w.line("- `%s`%s", def(fn), decoratorSuffix(fn))
			w.line("  - *Line: %d*", fn.Line)
			w.docstring(fn.Docstring)
		}
		w.blank()
	}

	w.line("---")
	w.blank()
}

func (w *writer) class(c model.Declaration) {
	w.line("##### 📌 `class %s`", c.Signature())
	w.line("*Line: %d*", c.Line)
	w.blank()

	if c.Docstring != "" {
		w.line("**Docstring:**")
		w.fenced("", c.Docstring)
		w.blank()
	}

	if ctor, ok := c.Constructor(); ok {
		w.line("**🔧 Constructor (`%s`):**", model.ConstructorName)
		w.line("- `def %s`", ctor.Signature())
		if ctor.Docstring != "" {
			w.line("  - **Docstring:**")
			w.fenced("  ", ctor.Docstring)
		}
		if len(ctor.Params) > 0 {
			w.line("  - **Parameters:**")
			for _, p := range ctor.Params {
				w.line("    - `%s`", p.String())
			}
		}
		w.blank()
	}

	var public []model.Declaration
	for _, meth := range c.Methods {
		if meth.Name != model.ConstructorName && meth.Visibility() == model.Public {
			public = append(public, meth)
		}
	}
	if len(public) > 0 {
		w.line("**Public Methods (%d):**", len(public))
		for _, meth := range public {
			w.line("- `%s`%s", def(meth), decoratorSuffix(meth))
			w.docstring(meth.Docstring)
		}
		w.blank()
	}

	if len(c.Properties) > 0 {
		w.line("**Properties (%d):**", len(c.Properties))
		for _, prop := range c.Properties {
			ret := ""
			if prop.ReturnType != "" {
				ret = " -> " + prop.ReturnType
			}
			w.line("- `@property %s%s`", prop.Name, ret)
		}
		w.blank()
	}

	if len(c.ClassVariables) > 0 {
		w.line("**Class Variables (%d):**", len(c.ClassVariables))
		for _, v := range c.ClassVariables {
			s := v.Name
			if v.Type != "" {
				s += ": " + v.Type
			}
			if v.Value != "" {
				s += " = " + v.Value
			}
			w.line("- `%s`", s)
		}
		w.blank()
	}
}

// docstring writes a one-line docstring inline and longer ones fenced.
func (w *writer) docstring(doc string) {
	if doc == "" {
		return
	}
	if !strings.Contains(doc, "\n") {
		w.line("  - *%s*", strings.TrimSpace(doc))
		return
	}
	w.line("  - **Docstring:**")
	w.fenced("  ", doc)
}

func (w *writer) fenced(indent, text string) {
	w.line("%s%s", indent, Fence)
	for _, l := range strings.Split(text, "\n") {
		w.line("%s%s", indent, l)
	}
	w.line("%s%s", indent, Fence)
}

func def(d model.Declaration) string {
	if d.IsAsync() {
		return "async def " + d.Signature()
	}
	return "def " + d.Signature()
}

func decoratorSuffix(d model.Declaration) string {
	if len(d.Decorators) == 0 {
		return ""
	}
	parts := make([]string, len(d.Decorators))
	for i, dec := range d.Decorators {
		parts[i] = "`@" + dec + "`"
	}
	return " " + strings.Join(parts, " ")
}

func importText(imp model.ImportEdge) string {
	alias := ""
	if imp.Alias != "" {
		alias = " as " + imp.Alias
	}
	if !imp.From {
		return "import " + imp.Module + alias
	}
	return "from " + strings.Repeat(".", imp.Level) + imp.Module + " import " + imp.Name + alias
}
