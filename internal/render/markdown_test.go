package render

import (
	"reflect"
	"strings"
	"testing"

	"github.com/phobologic/ctxbundle/internal/model"
)

func sampleBundle() *model.Bundle {
	db := &model.ModuleModel{
		Docstring: "Database helpers.",
		Imports: []model.ImportEdge{
			{Kind: model.Absolute, Module: "os", Line: 1},
			{Kind: model.Relative, Module: "util", Name: "retry", Alias: "r", Level: 1, Line: 2, From: true},
		},
		Classes: []model.Declaration{{
			Name:      "DatabaseConnection",
			Kind:      model.KindClass,
			Line:      4,
			Bases:     []string{"Base"},
			Docstring: "Connection wrapper.",
			Methods: []model.Declaration{
				{
					Name:     "__init__",
					Kind:     model.KindFunction,
					Receiver: "self",
					Line:     5,
					Params: []model.Parameter{
						{Name: "host", Type: "str"},
						{Name: "port", Type: "int", Default: "3306"},
					},
				},
				{Name: "close", Kind: model.KindAsyncFunction, Receiver: "self", Line: 8, Docstring: "Close it."},
				{Name: "_reset", Kind: model.KindFunction, Receiver: "self", Line: 10},
			},
			Properties: []model.Declaration{
				{Name: "address", Kind: model.KindProperty, Receiver: "self", ReturnType: "str", Decorators: []string{"property"}},
			},
			ClassVariables: []model.Variable{{Name: "default_port", Value: "3306", Line: 4}},
		}},
		Functions: []model.Declaration{
			{Name: "connect", Kind: model.KindFunction, Line: 20, Decorators: []string{"cache"}, ReturnType: "DatabaseConnection"},
			{Name: "_private", Kind: model.KindFunction, Line: 30},
		},
	}

	return &model.Bundle{
		Project: "demo",
		Root:    "/src/demo",
		Summary: "A demo project.",
		Guide:   true,
		Sections: []model.Section{
			{
				Title:    "demo codes",
				Metadata: true,
				Text:     true,
				Files: []model.FileDoc{
					{Path: "demo/db.py", Ext: ".py", Text: "import os\n", Module: db},
					{Path: "demo/util.py", Ext: ".py", Text: "def retry(): pass\n", Module: &model.ModuleModel{}},
				},
			},
			{
				Title: "docs",
				Text:  true,
				Files: []model.FileDoc{{Path: "README.md", Ext: ".md", Text: "# Demo\n```py\nx\n```"}},
			},
		},
		Graph: &model.DependencyGraph{
			Files:    []string{"demo/db.py", "demo/util.py"},
			Internal: map[string][]string{"demo/db.py": {"demo/util.py"}},
			External: map[string][]string{"demo/db.py": {"os", "requests"}},
			Reverse:  map[string][]string{"demo/util.py": {"demo/db.py"}},
		},
	}
}

func TestMarkdownStructure(t *testing.T) {
	t.Parallel()

	out := Markdown(sampleBundle())

	wantInOrder := []string{
		"# 🤖 AI Reading Guide for Project: demo",
		"# markdown content namespace: demo project summary",
		"A demo project.",
		"## 🔗 demo File Dependencies Analysis",
		"  ★ demo/db.py",
		"  ◆ demo/util.py (imported by 1 files)",
		"# markdown content namespace: demo codes",
		"## demo File Tree (relative dir: `demo`)",
		"└── demo\n    ├── db.py\n    └── util.py",
		"## demo (relative dir: `demo`) Included Files (total: 2 files)",
		"--- **start of file: demo/db.py** (project: demo) ---",
		"### 📄 Python File Metadata: `demo/db.py`",
		Fence + "python\nimport os\n",
		"--- **end of file: demo/db.py** (project: demo) ---",
		"# markdown content namespace: docs",
		Fence + "markdown\n# Demo\n```py",
	}
	pos := 0
	for _, want := range wantInOrder {
		i := strings.Index(out[pos:], want)
		if i < 0 {
			t.Fatalf("missing (or out of order) %q in output:\n%s", want, out)
		}
		pos += i + len(want)
	}

	if !strings.Contains(out, "- `requests`") {
		t.Error("third-party package missing")
	}
	if strings.Contains(out, "- `os`") {
		t.Error("standard library module listed as third-party")
	}
}

func TestMetadata(t *testing.T) {
	t.Parallel()

	out := Markdown(sampleBundle())

	for _, want := range []string{
		"#### 📦 Imports",
		"- `import os`",
		"- `from .util import retry as r`",
		"##### 📌 `class DatabaseConnection(Base)`",
		"- `def __init__(self, host: str, port: int = 3306)`",
		"    - `host: str`",
		"    - `port: int = 3306`",
		"**Public Methods (1):**",
		"- `async def close(self)`",
		"  - *Close it.*",
		"- `@property address -> str`",
		"- `default_port = 3306`",
		"#### 🔧 Public Functions (1)",
		"- `def connect() -> DatabaseConnection` `@cache`",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
	for _, unwanted := range []string{"_reset", "_private"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("private member %q rendered", unwanted)
		}
	}
}

func TestMetadataOnlySection(t *testing.T) {
	t.Parallel()

	b := sampleBundle()
	b.Guide = false
	b.Summary = ""
	b.Graph = nil
	b.Sections = b.Sections[:1]
	b.Sections[0].Text = false

	out := Markdown(b)
	if strings.Contains(out, "start of file") {
		t.Error("metadata-only section should not include file markers")
	}
	if !strings.Contains(out, "### 📄 Python File Metadata: `demo/db.py`") {
		t.Error("metadata missing")
	}
}

func TestMetadataParseError(t *testing.T) {
	t.Parallel()

	b := &model.Bundle{
		Project: "p",
		Sections: []model.Section{{
			Title:    "s",
			Metadata: true,
			Text:     true,
			Files: []model.FileDoc{{
				Path: "bad.py", Ext: ".py", Text: "def (",
				Module: &model.ModuleModel{Error: "syntax error at line 1, column 5"},
			}},
		}},
	}
	out := Markdown(b)
	if !strings.Contains(out, "Could not parse this file: syntax error at line 1, column 5") {
		t.Errorf("parse error not reported:\n%s", out)
	}
	if !strings.Contains(out, Fence+"python\ndef (\n"+Fence) {
		t.Error("file text should still be included")
	}
}

func TestCoreFiles(t *testing.T) {
	t.Parallel()

	b := sampleBundle()
	b.Guide = false
	b.CoreFiles = []model.FileDoc{b.Sections[0].Files[0]}
	out := Markdown(b)

	summary := out[strings.Index(out, "project summary"):strings.Index(out, "Dependencies Analysis")]
	if !strings.Contains(summary, "- `demo/db.py`") {
		t.Error("core file list missing")
	}
	if !strings.Contains(summary, "### 📄 Python File Metadata: `demo/db.py`") {
		t.Error("core file metadata missing")
	}
	if strings.Contains(summary, "start of file") {
		t.Error("core files must not include source text")
	}
}

func TestTree(t *testing.T) {
	t.Parallel()

	got := Tree([]string{"b.py", "pkg/sub/x.py", "pkg/a.py", "a.md"})
	want := []string{
		"├── a.md",
		"├── b.py",
		"└── pkg",
		"    ├── a.py",
		"    └── sub",
		"        └── x.py",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tree =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestCommonDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		paths []string
		want  string
	}{
		{nil, "."},
		{[]string{"main.py"}, "."},
		{[]string{"pkg/a.py", "pkg/sub/b.py"}, "pkg"},
		{[]string{"pkg/sub/a.py", "pkg/sub/b.py"}, "pkg/sub"},
		{[]string{"pkg/a.py", "other/b.py"}, "."},
	}
	for _, tt := range tests {
		if got := commonDir(tt.paths); got != tt.want {
			t.Errorf("commonDir(%v) = %q, want %q", tt.paths, got, tt.want)
		}
	}
}

func TestThirdParty(t *testing.T) {
	t.Parallel()

	g := &model.DependencyGraph{External: map[string][]string{
		"a.py": {"requests", "sys", "typing_extensions"},
		"b.py": {"click", "requests", "__future__"},
	}}
	if got := ThirdParty(g); !reflect.DeepEqual(got, []string{"click", "requests"}) {
		t.Errorf("ThirdParty = %v", got)
	}
}
