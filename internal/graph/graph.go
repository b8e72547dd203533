// Package graph resolves raw imports into a file-level dependency graph
// and computes centrality over it.
package graph

import (
	"path"
	"sort"
	"strings"

	"github.com/phobologic/ctxbundle/internal/model"
)

// File is one analyzed file. Module may be nil when no structural model
// exists; the file is still a node in the graph.
type File struct {
	Path   string
	Module *model.ModuleModel
}

// Build resolves every import of every file against the file set.
// Files are processed in path order so edge order is reproducible.
func Build(files []File) *model.DependencyGraph {
	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	g := &model.DependencyGraph{
		Internal: make(map[string][]string),
		External: make(map[string][]string),
		Reverse:  make(map[string][]string),
	}
	for _, f := range sorted {
		g.Files = append(g.Files, f.Path)
	}

	modules := moduleIndex(g.Files)

	for _, f := range sorted {
		if f.Module == nil {
			continue
		}
		seenInternal := make(map[string]struct{})
		seenExternal := make(map[string]struct{})

		for _, imp := range f.Module.Imports {
			resolved, ok := Resolve(f.Path, imp)
			if !ok {
				continue
			}

			target, found := longestPrefix(modules, resolved)
			if found {
				if target == f.Path {
					continue
				}
				if _, dup := seenInternal[target]; dup {
					continue
				}
				seenInternal[target] = struct{}{}
				g.Internal[f.Path] = append(g.Internal[f.Path], target)
				g.Reverse[target] = append(g.Reverse[target], f.Path)
				continue
			}

			top, _, _ := strings.Cut(resolved, ".")
			if _, dup := seenExternal[top]; dup || top == "" {
				continue
			}
			seenExternal[top] = struct{}{}
			g.External[f.Path] = append(g.External[f.Path], top)
		}

		sort.Strings(g.External[f.Path])
	}

	return g
}

// ModuleName returns the dotted module name of a root-relative path.
// A package initializer names its directory; the root initializer has no
// name.
func ModuleName(relPath string) string {
	dir, base := path.Split(relPath)
	stem := strings.TrimSuffix(base, path.Ext(base))
	dir = strings.TrimSuffix(dir, "/")

	var parts []string
	if dir != "" {
		parts = strings.Split(dir, "/")
	}
	if stem != initStem {
		parts = append(parts, stem)
	}
	return strings.Join(parts, ".")
}

const initStem = "__init__"

func isInit(relPath string) bool {
	base := path.Base(relPath)
	return strings.TrimSuffix(base, path.Ext(base)) == initStem
}

// moduleIndex maps module names to files. Ancestor packages are registered
// through their initializer when it is part of the set. The first file to
// claim a name keeps it.
func moduleIndex(files []string) map[string]string {
	initFor := make(map[string]string) // package dir -> init file
	for _, f := range files {
		if isInit(f) {
			dir := path.Dir(f)
			if _, ok := initFor[dir]; !ok {
				initFor[dir] = f
			}
		}
	}

	index := make(map[string]string)
	register := func(name, file string) {
		if name == "" {
			return
		}
		if _, ok := index[name]; !ok {
			index[name] = file
		}
	}

	for _, f := range files {
		register(ModuleName(f), f)

		dir := path.Dir(f)
		for dir != "." && dir != "/" {
			if init, ok := initFor[dir]; ok {
				register(ModuleName(init), init)
			}
			dir = path.Dir(dir)
		}
	}
	return index
}

// Resolve returns the absolute dotted module an import refers to.
// Relative imports ascend level-1 packages from the importing file's
// enclosing package; an ascent past the top keeps the written module.
// The result is false for an import that names no module at all.
func Resolve(fromPath string, imp model.ImportEdge) (string, bool) {
	if imp.Kind != model.Relative || imp.Level == 0 {
		return imp.Module, imp.Module != ""
	}

	pkg := enclosingPackage(fromPath)
	up := imp.Level - 1
	if up > len(pkg) {
		return imp.Module, imp.Module != "" || imp.Name != ""
	}

	parts := append([]string{}, pkg[:len(pkg)-up]...)
	if imp.Module != "" {
		parts = append(parts, strings.Split(imp.Module, ".")...)
	}
	resolved := strings.Join(parts, ".")
	return resolved, resolved != "" || (imp.Name != "" && imp.Name != "*")
}

// enclosingPackage is the package a file's relative imports start from:
// the package itself for an initializer, the parent directory otherwise.
func enclosingPackage(relPath string) []string {
	name := ModuleName(relPath)
	var parts []string
	if name != "" {
		parts = strings.Split(name, ".")
	}
	if isInit(relPath) || len(parts) == 0 {
		return parts
	}
	return parts[:len(parts)-1]
}

// longestPrefix finds the longest dotted prefix of name present in the
// index. Only the module part of an import is classified: "from pkg import
// mod" links to pkg's initializer, not to pkg/mod.py. Two unrelated packages sharing a prefix resolve to whichever the
// index holds; no further disambiguation is attempted.
func longestPrefix(index map[string]string, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	parts := strings.Split(name, ".")
	for i := len(parts); i > 0; i-- {
		if file, ok := index[strings.Join(parts[:i], ".")]; ok {
			return file, true
		}
	}
	return "", false
}

// EntryPoints returns the files no other analyzed file imports, in path order.
func EntryPoints(g *model.DependencyGraph) []string {
	var out []string
	for _, f := range g.Files {
		if len(g.Reverse[f]) == 0 {
			out = append(out, f)
		}
	}
	return out
}

// Hub is a file and the number of analyzed files importing it.
type Hub struct {
	Path  string
	Count int
}

// Hubs returns imported files by descending importer count, ties broken by
// path. A limit of zero or less returns all of them.
func Hubs(g *model.DependencyGraph, limit int) []Hub {
	var hubs []Hub
	for _, f := range g.Files {
		if n := len(g.Reverse[f]); n > 0 {
			hubs = append(hubs, Hub{Path: f, Count: n})
		}
	}
	sort.Slice(hubs, func(i, j int) bool {
		if hubs[i].Count != hubs[j].Count {
			return hubs[i].Count > hubs[j].Count
		}
		return hubs[i].Path < hubs[j].Path
	})
	if limit > 0 && len(hubs) > limit {
		hubs = hubs[:limit]
	}
	return hubs
}
