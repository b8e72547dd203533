package render

import (
	"sort"

	"github.com/phobologic/ctxbundle/internal/graph"
	"github.com/phobologic/ctxbundle/internal/model"
)

// MaxHubs bounds the core-file list of the dependency analysis.
const MaxHubs = 10

func (w *writer) dependencies(g *model.DependencyGraph) {
	w.line("## 🔗 %s File Dependencies Analysis", w.project)
	w.blank()
	w.line("### 📊 Internal Dependencies Graph")
	w.blank()
	w.line(Fence)
	if entries := graph.EntryPoints(g); len(entries) > 0 {
		w.line("Entry Points (not imported by other project files):")
		for _, f := range entries {
			w.line("  ★ %s", f)
		}
		w.blank()
	}
	if hubs := graph.Hubs(g, MaxHubs); len(hubs) > 0 {
		w.line("Core Files (imported by other files, sorted by import count):")
		for _, h := range hubs {
			w.line("  ◆ %s (imported by %d files)", h.Path, h.Count)
		}
		w.blank()
	}
	w.line(Fence)
	w.blank()

	w.line("### 📋 Detailed Dependencies")
	w.blank()
	for _, f := range g.Files {
		deps, users := sorted(g.Internal[f]), sorted(g.Reverse[f])
		if len(deps) == 0 && len(users) == 0 {
			continue
		}
		w.line("#### `%s`", f)
		w.blank()
		if len(deps) > 0 {
			w.line("**Imports from project:**")
			for _, d := range deps {
				w.line("- `%s`", d)
			}
			w.blank()
		}
		if len(users) > 0 {
			w.line("**Imported by:**")
			for _, u := range users {
				w.line("- `%s`", u)
			}
			w.blank()
		}
	}

	if third := ThirdParty(g); len(third) > 0 {
		w.line("### 📦 Third-party Dependencies")
		w.blank()
		for _, pkg := range third {
			w.line("- `%s`", pkg)
		}
		w.blank()
	}

	w.line("---")
	w.blank()
}

// ThirdParty returns the sorted external packages of g that are not part
// of the Python standard library.
func ThirdParty(g *model.DependencyGraph) []string {
	seen := make(map[string]struct{})
	for _, pkgs := range g.External {
		for _, pkg := range pkgs {
			if _, std := stdlib[pkg]; !std {
				seen[pkg] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for pkg := range seen {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

func sorted(list []string) []string {
	out := append([]string(nil), list...)
	sort.Strings(out)
	return out
}
