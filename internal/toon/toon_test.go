package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/ctxbundle/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"True keyword", "True", `"True"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative float", "-3.14", "-3.14"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "list[str]", `"list[str]"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "pkg/core.py", "pkg/core.py"},
		{"signature", "run(self) -> None", "run(self) -> None"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := encodeValue(tt.in); got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	core := &model.ModuleModel{
		Classes: []model.Declaration{{
			Name:  "Engine",
			Kind:  model.KindClass,
			Line:  3,
			Bases: []string{"Base"},
			Methods: []model.Declaration{{
				Name:     "run",
				Kind:     model.KindFunction,
				Receiver: "self",
				Line:     4,
			}},
		}},
		Variables: []model.Variable{{Name: "VERSION", Type: "str", Line: 1}},
		Imports:   []model.ImportEdge{{Kind: model.Relative, Name: "util", Level: 1, From: true}},
	}
	util := &model.ModuleModel{
		Functions: []model.Declaration{{Name: "helper", Kind: model.KindFunction, Line: 1}},
	}

	b := &model.Bundle{
		Project: "demo",
		Root:    "/src/demo",
		Sections: []model.Section{{
			Title: "demo codes",
			Files: []model.FileDoc{
				{Path: "README.md", Ext: ".md"},
				{Path: "pkg/core.py", Ext: ".py", Module: core},
				{Path: "pkg/util.py", Ext: ".py", Module: util},
			},
		}},
		Graph: &model.DependencyGraph{
			Files:    []string{"pkg/core.py", "pkg/util.py"},
			Internal: map[string][]string{"pkg/core.py": {"pkg/util.py"}},
			External: map[string][]string{"pkg/util.py": {"requests"}},
		},
		Ranks: map[string]float64{"pkg/core.py": 0.25, "pkg/util.py": 0.75},
	}

	want := []string{
		"project: demo",
		"root: /src/demo",
		"files[3]{path,language,rank}:",
		"  README.md,markdown,0.0000",
		"  pkg/core.py,python,0.2500",
		"  pkg/util.py,python,0.7500",
		"symbols[4]{file,name,kind,line,signature}:",
		"  pkg/core.py,Engine,class,3,Engine(Base)",
		"  pkg/core.py,Engine.run,function,4,run(self)",
		`  pkg/core.py,VERSION,variable,1,"VERSION: str"`,
		"  pkg/util.py,helper,function,1,helper()",
		"dependencies[1]{source,target}:",
		"  pkg/core.py,pkg/util.py",
		"external[1]{file,packages}:",
		"  pkg/util.py,requests",
	}

	got := strings.Split(Encode(b), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEncodeParseErrors(t *testing.T) {
	t.Parallel()

	b := &model.Bundle{
		Project: "demo",
		Sections: []model.Section{{Files: []model.FileDoc{{
			Path:   "broken.py",
			Ext:    ".py",
			Module: &model.ModuleModel{Error: "syntax error at line 2"},
		}}}},
	}

	got := Encode(b)
	if !strings.Contains(got, "symbols[0]{file,name,kind,line,signature}:") {
		t.Errorf("a broken file should contribute no symbols:\n%s", got)
	}
	if !strings.Contains(got, "errors[1]{file,error}:\n  broken.py,syntax error at line 2") {
		t.Errorf("expected errors table:\n%s", got)
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Bundle{Project: "empty", Root: "empty"})
	for _, want := range []string{
		"files[0]{path,language,rank}:",
		"symbols[0]{file,name,kind,line,signature}:",
		"dependencies[0]{source,target}:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "errors[") {
		t.Error("errors table should be omitted when nothing failed")
	}
}
