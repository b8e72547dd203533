// Package model defines core data structures for ctxbundle.
package model

import "strings"

// Kind is the closed set of declaration kinds.
type Kind string

const (
	KindClass         Kind = "class"
	KindFunction      Kind = "function"
	KindAsyncFunction Kind = "async_function"
	KindProperty      Kind = "property"
	KindVariable      Kind = "variable"
)

// Visibility is derived from a declaration's name.
type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

// VisibilityOf reports Private for names carrying the leading-underscore marker.
func VisibilityOf(name string) Visibility {
	if strings.HasPrefix(name, "_") {
		return Private
	}
	return Public
}

// Parameter is one entry of a function signature. Variadic parameters keep
// their marker in Name ("*args", "**kwargs"). Empty Type/Default mean absent.
type Parameter struct {
	Name    string
	Type    string
	Default string
}

// String renders the parameter as written: "port: int = 3306".
func (p Parameter) String() string {
	s := p.Name
	if p.Type != "" {
		s += ": " + p.Type
	}
	if p.Default != "" {
		if p.Type != "" {
			s += " = " + p.Default
		} else {
			s += "=" + p.Default
		}
	}
	return s
}

// Variable is an assignment at module or class body level.
type Variable struct {
	Name  string
	Type  string
	Value string // bounded preview of the source text
	Line  int
}

// Declaration is a class, function, async function or property.
// Class-only fields (Bases, Methods, Properties, ClassVariables) are empty
// for the other kinds.
type Declaration struct {
	Name       string
	Kind       Kind
	Params     []Parameter
	Receiver   string // bound first parameter of a method ("self", "cls")
	ReturnType string
	Docstring  string
	Line       int
	Decorators []string

	Bases          []string
	Methods        []Declaration
	Properties     []Declaration
	ClassVariables []Variable
}

// Visibility returns the declaration's derived visibility.
func (d Declaration) Visibility() Visibility {
	return VisibilityOf(d.Name)
}

// IsAsync reports whether the declaration is an async function.
func (d Declaration) IsAsync() bool {
	return d.Kind == KindAsyncFunction
}

// Signature renders a declaration header. Functions include the receiver
// and return type ("connect(self, host: str) -> bool"); classes list their
// bases ("Child(Base)").
func (d Declaration) Signature() string {
	if d.Kind == KindClass {
		if len(d.Bases) == 0 {
			return d.Name
		}
		return d.Name + "(" + strings.Join(d.Bases, ", ") + ")"
	}

	args := make([]string, 0, len(d.Params)+1)
	if d.Receiver != "" {
		args = append(args, d.Receiver)
	}
	for _, p := range d.Params {
		args = append(args, p.String())
	}
	sig := d.Name + "(" + strings.Join(args, ", ") + ")"
	if d.ReturnType != "" {
		sig += " -> " + d.ReturnType
	}
	return sig
}

// ConstructorName is the method name treated as a class constructor.
const ConstructorName = "__init__"

// Constructor returns the class's constructor, which also remains in Methods.
func (d Declaration) Constructor() (Declaration, bool) {
	for _, m := range d.Methods {
		if m.Name == ConstructorName {
			return m, true
		}
	}
	return Declaration{}, false
}

// ImportKind distinguishes absolute from relative imports.
type ImportKind string

const (
	Absolute ImportKind = "absolute"
	Relative ImportKind = "relative"
)

// ImportEdge is one raw imported name, as written in the source.
// Name is empty for plain "import x" statements.
type ImportEdge struct {
	Kind   ImportKind
	Module string
	Name   string
	Alias  string
	Level  int
	Line   int
	From   bool // written as "from ... import ..."
}

// ModuleModel is the structural model of one source file.
// When Error is set, every declaration list is empty.
type ModuleModel struct {
	Docstring string
	Classes   []Declaration
	Functions []Declaration
	Variables []Variable
	Imports   []ImportEdge
	Error     string
}

// DependencyGraph is the resolved import graph of an analyzed file set.
// For every a, b in Files: b in Internal[a] iff a in Reverse[b].
type DependencyGraph struct {
	Files    []string
	Internal map[string][]string
	External map[string][]string
	Reverse  map[string][]string
}

// FileDoc is one file placed in a bundle.
type FileDoc struct {
	Path   string // relative to the project root, forward slashes
	Ext    string
	Text   string
	Module *ModuleModel // nil when no structural model was extracted
}

// Section is a titled group of files.
type Section struct {
	Title    string
	Files    []FileDoc
	Metadata bool
	Text     bool
}

// Bundle is the complete assembled context, ready for rendering.
type Bundle struct {
	Project   string
	Root      string
	Summary   string
	Guide     bool
	CoreFiles []FileDoc
	Sections  []Section
	Graph     *DependencyGraph
	Ranks     map[string]float64
}

// Files returns every file of every section, first occurrence wins.
func (b *Bundle) Files() []FileDoc {
	seen := make(map[string]struct{})
	var out []FileDoc
	for _, s := range b.Sections {
		for _, f := range s.Files {
			if _, ok := seen[f.Path]; ok {
				continue
			}
			seen[f.Path] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}
