package graph

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/phobologic/ctxbundle/internal/model"
)

func imports(edges ...model.ImportEdge) *model.ModuleModel {
	return &model.ModuleModel{Imports: edges}
}

func absImport(module string) model.ImportEdge {
	return model.ImportEdge{Kind: model.Absolute, Module: module}
}

func fromImport(module, name string) model.ImportEdge {
	return model.ImportEdge{Kind: model.Absolute, Module: module, Name: name, From: true}
}

func relImport(level int, module, name string) model.ImportEdge {
	return model.ImportEdge{Kind: model.Relative, Module: module, Name: name, Level: level, From: true}
}

func TestModuleName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"main.py":              "main",
		"pkg/__init__.py":      "pkg",
		"pkg/sub/mod.py":       "pkg.sub.mod",
		"pkg/sub/__init__.pyi": "pkg.sub",
		"__init__.py":          "",
	}
	for in, want := range tests {
		if got := ModuleName(in); got != want {
			t.Errorf("ModuleName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildRelativeImport(t *testing.T) {
	t.Parallel()

	g := Build([]File{
		{Path: "pkg/__init__.py", Module: imports()},
		{Path: "pkg/a.py", Module: imports()},
		{Path: "pkg/sub/__init__.py", Module: imports()},
		{Path: "pkg/sub/b.py", Module: imports(relImport(2, "a", "helper"))},
	})

	if got := g.Internal["pkg/sub/b.py"]; !reflect.DeepEqual(got, []string{"pkg/a.py"}) {
		t.Errorf("internal[b] = %v, want [pkg/a.py]", got)
	}
	if got := g.Reverse["pkg/a.py"]; !reflect.DeepEqual(got, []string{"pkg/sub/b.py"}) {
		t.Errorf("reverse[a] = %v", got)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from string
		imp  model.ImportEdge
		want string
		ok   bool
	}{
		{"pkg/mod.py", absImport("os.path"), "os.path", true},
		{"pkg/mod.py", relImport(1, "util", "x"), "pkg.util", true},
		{"pkg/__init__.py", relImport(1, "util", "x"), "pkg.util", true},
		{"pkg/sub/mod.py", relImport(2, "", "sibling"), "pkg", true},
		{"pkg/sub/mod.py", relImport(3, "top", "x"), "top", true},
		// Ascending past the top keeps the written module.
		{"mod.py", relImport(3, "far", "x"), "far", true},
		{"mod.py", relImport(1, "", "*"), "", false},
		{"mod.py", absImport(""), "", false},
	}
	for _, tt := range tests {
		got, ok := Resolve(tt.from, tt.imp)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Resolve(%q, %+v) = (%q, %v), want (%q, %v)", tt.from, tt.imp, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBuildFromImportClassifiesModule(t *testing.T) {
	t.Parallel()

	g := Build([]File{
		{Path: "app.py", Module: imports(fromImport("pkg", "models"), fromImport("pkg", "VERSION"))},
		{Path: "pkg/__init__.py", Module: imports(relImport(1, "", "models"))},
		{Path: "pkg/models.py", Module: imports()},
	})

	// Only the module part is classified: both names link to the initializer.
	if got := g.Internal["app.py"]; !reflect.DeepEqual(got, []string{"pkg/__init__.py"}) {
		t.Errorf("internal[app] = %v, want [pkg/__init__.py]", got)
	}
	if len(g.Internal["pkg/__init__.py"]) != 0 {
		t.Errorf("internal[pkg] = %v, want none", g.Internal["pkg/__init__.py"])
	}
	if len(g.Reverse["pkg/models.py"]) != 0 {
		t.Errorf("reverse[models] = %v, want none", g.Reverse["pkg/models.py"])
	}
}

func TestBuildFromImportWithoutInitializer(t *testing.T) {
	t.Parallel()

	g := Build([]File{
		{Path: "main.py", Module: imports(fromImport("pkg", "mod"))},
		{Path: "pkg/mod.py", Module: imports()},
	})

	if len(g.Internal["main.py"]) != 0 {
		t.Errorf("internal[main] = %v, want none", g.Internal["main.py"])
	}
	if got := g.External["main.py"]; !reflect.DeepEqual(got, []string{"pkg"}) {
		t.Errorf("external[main] = %v, want [pkg]", got)
	}
}

func TestBuildUnresolvedRelativeIsExternal(t *testing.T) {
	t.Parallel()

	g := Build([]File{
		{Path: "a.py", Module: imports(relImport(1, "missing", "x"))},
		{Path: "pkg/__init__.py", Module: imports()},
		{Path: "pkg/b.py", Module: imports(relImport(1, "gone.deep", "y"))},
	})

	if got := g.External["a.py"]; !reflect.DeepEqual(got, []string{"missing"}) {
		t.Errorf("external[a] = %v, want [missing]", got)
	}
	// pkg.gone.deep falls back to the pkg initializer by longest prefix.
	if got := g.Internal["pkg/b.py"]; !reflect.DeepEqual(got, []string{"pkg/__init__.py"}) {
		t.Errorf("internal[b] = %v, want [pkg/__init__.py]", got)
	}
}

func TestBuildExternal(t *testing.T) {
	t.Parallel()

	g := Build([]File{
		{Path: "main.py", Module: imports(
			absImport("requests.adapters"),
			absImport("os"),
			fromImport("requests", "Session"),
			relImport(1, "missing", "x"),
		)},
	})

	if got := g.External["main.py"]; !reflect.DeepEqual(got, []string{"missing", "os", "requests"}) {
		t.Errorf("external = %v, want [missing os requests]", got)
	}
	if len(g.Internal["main.py"]) != 0 {
		t.Errorf("unexpected internal edges: %v", g.Internal["main.py"])
	}
}

func TestBuildNoSelfOrDuplicateEdges(t *testing.T) {
	t.Parallel()

	g := Build([]File{
		{Path: "pkg/__init__.py", Module: imports(absImport("pkg"), fromImport("pkg", "thing"))},
		{Path: "pkg/a.py", Module: imports(absImport("pkg"), fromImport("pkg", "x"), absImport("pkg.a"))},
	})

	if len(g.Internal["pkg/__init__.py"]) != 0 {
		t.Errorf("self edge recorded: %v", g.Internal["pkg/__init__.py"])
	}
	if got := g.Internal["pkg/a.py"]; !reflect.DeepEqual(got, []string{"pkg/__init__.py"}) {
		t.Errorf("internal[a] = %v", got)
	}
}

func TestBuildUnparsedFileIsNode(t *testing.T) {
	t.Parallel()

	g := Build([]File{
		{Path: "broken.py", Module: &model.ModuleModel{Error: "syntax error at line 1, column 5"}},
		{Path: "notes.py"},
	})
	if !reflect.DeepEqual(g.Files, []string{"broken.py", "notes.py"}) {
		t.Errorf("files = %v", g.Files)
	}
	if got := EntryPoints(g); !reflect.DeepEqual(got, []string{"broken.py", "notes.py"}) {
		t.Errorf("entry points = %v", got)
	}
}

func TestBuildSymmetry(t *testing.T) {
	t.Parallel()

	var files []File
	for i := 0; i < 8; i++ {
		var edges []model.ImportEdge
		for j := 0; j < 8; j++ {
			if (i+j)%3 == 0 {
				edges = append(edges, absImport(fmt.Sprintf("m%d", j)))
			}
		}
		files = append(files, File{Path: fmt.Sprintf("m%d.py", i), Module: imports(edges...)})
	}
	g := Build(files)

	for _, a := range g.Files {
		for _, b := range g.Files {
			fwd := contains(g.Internal[a], b)
			back := contains(g.Reverse[b], a)
			if fwd != back {
				t.Errorf("%s -> %s: internal=%v reverse=%v", a, b, fwd, back)
			}
		}
		if contains(g.Internal[a], a) {
			t.Errorf("%s depends on itself", a)
		}
	}
}

func TestEntryPointsAndHubs(t *testing.T) {
	t.Parallel()

	g := Build([]File{
		{Path: "a.py", Module: imports(absImport("core"), absImport("util"))},
		{Path: "b.py", Module: imports(absImport("core"))},
		{Path: "c.py", Module: imports(absImport("core"))},
		{Path: "core.py", Module: imports()},
		{Path: "util.py", Module: imports()},
		{Path: "z.py", Module: imports(absImport("zz"))},
		{Path: "zz.py", Module: imports()},
	})

	if got, want := EntryPoints(g), []string{"a.py", "b.py", "c.py", "z.py"}; !reflect.DeepEqual(got, want) {
		t.Errorf("entry points = %v, want %v", got, want)
	}

	want := []Hub{{"core.py", 3}, {"util.py", 1}, {"zz.py", 1}}
	if got := Hubs(g, 0); !reflect.DeepEqual(got, want) {
		t.Errorf("hubs = %v, want %v", got, want)
	}
	if got := Hubs(g, 2); len(got) != 2 || got[1].Path != "util.py" {
		t.Errorf("limited hubs = %v", got)
	}
}

func TestRankUniform(t *testing.T) {
	t.Parallel()

	g := Build([]File{{Path: "a.py"}, {Path: "b.py"}, {Path: "c.py"}})
	ranks := Rank(g)

	expected := 1.0 / 3.0
	for _, f := range g.Files {
		if math.Abs(ranks[f]-expected) > 1e-9 {
			t.Errorf("%s: rank = %f, want %f", f, ranks[f], expected)
		}
	}
}

func TestRankWithEdges(t *testing.T) {
	t.Parallel()

	g := Build([]File{
		{Path: "a.py", Module: imports(absImport("c"))},
		{Path: "b.py", Module: imports(absImport("c"))},
		{Path: "c.py", Module: imports()},
	})
	ranks := Rank(g)

	if ranks["c.py"] <= ranks["a.py"] || ranks["c.py"] <= ranks["b.py"] {
		t.Errorf("c.py should rank highest: %v", ranks)
	}

	var sum float64
	for _, r := range ranks {
		sum += r
	}
	if math.Abs(sum-1.0) > 0.01 {
		t.Errorf("ranks sum to %f, want ~1.0", sum)
	}
}

func TestRankEmpty(t *testing.T) {
	t.Parallel()
	if got := Rank(Build(nil)); len(got) != 0 {
		t.Errorf("expected no ranks, got %v", got)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
