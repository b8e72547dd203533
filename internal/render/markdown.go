// Package render writes a bundle as a single Markdown document.
package render

import (
	"fmt"
	"path"
	"strings"

	"github.com/phobologic/ctxbundle/internal/lang"
	"github.com/phobologic/ctxbundle/internal/model"
)

// Fence wraps file contents. It is longer than the usual three backticks
// so that merged Markdown files cannot close it early.
const Fence = "`````"

type writer struct {
	b       strings.Builder
	project string
}

func (w *writer) line(format string, args ...any) {
	if len(args) == 0 {
		w.b.WriteString(format)
	} else {
		fmt.Fprintf(&w.b, format, args...)
	}
	w.b.WriteByte('\n')
}

func (w *writer) blank() {
	w.b.WriteByte('\n')
}

// Markdown renders the whole bundle: reading guide, project summary with
// core-file metadata, dependency analysis, then every section.
func Markdown(b *model.Bundle) string {
	w := &writer{project: b.Project}

	if b.Guide {
		w.guide()
	}
	if b.Summary != "" || len(b.CoreFiles) > 0 {
		w.summary(b)
	}
	if b.Graph != nil && len(b.Graph.Files) > 0 {
		w.dependencies(b.Graph)
	}
	for _, s := range b.Sections {
		w.section(s)
	}
	return w.b.String()
}

func (w *writer) guide() {
	p := w.project
	w.line("# 🤖 AI Reading Guide for Project: %s", p)
	w.blank()
	w.line("> **Important Notice for AI Models**: This document contains the source code and documentation for the `%s` project. Please read this guide carefully before analyzing the content.", p)
	w.blank()
	w.line("## 📖 Document Structure")
	w.blank()
	w.line("1. **Project Summary** (`# markdown content namespace: %s project summary`)", p)
	w.line("   - Brief project description")
	w.line("   - Core source files metadata (class/function signatures without full source code)")
	w.line("   - File dependencies analysis")
	w.blank()
	w.line("2. **Source Code Sections** (`# markdown content namespace: ...`)")
	w.line("   - File Tree: shows directory structure")
	w.line("   - Included Files: lists all files in the section")
	w.line("   - Full source code, with structural metadata for Python files")
	w.blank()
	w.line("## 🔍 How to Identify File Boundaries")
	w.blank()
	w.line("- Each file starts with: `%s`", startMarker("<path>", p))
	w.line("- Each file ends with: `%s`", endMarker("<path>", p))
	w.line("- All file paths are relative to the project root")
	w.blank()
	w.line("## ⚠️ Important Notes")
	w.blank()
	w.line("1. **Do NOT hallucinate**: only reference code, classes, functions and APIs that actually exist in this document")
	w.line("2. **Check file paths**: when suggesting code changes, verify the file path exists in the File Tree")
	w.line("3. **Respect the project structure**: the File Tree shows the actual directory layout")
	w.line("4. **Metadata**: Python files include parsed metadata (imports, classes, methods) before the full source code")
	w.blank()
	w.line("---")
	w.blank()
}

func (w *writer) summary(b *model.Bundle) {
	w.line("# markdown content namespace: %s project summary", w.project)
	w.blank()
	if b.Summary != "" {
		w.line("%s", strings.TrimRight(b.Summary, "\n"))
		w.blank()
	}
	if len(b.CoreFiles) == 0 {
		return
	}

	w.line("## 📋 %s most core source files metadata", w.project)
	w.blank()
	w.line("### the project %s most core source code files as follows:", w.project)
	w.blank()
	for _, f := range b.CoreFiles {
		w.line("- `%s`", f.Path)
	}
	w.blank()
	for _, f := range b.CoreFiles {
		if f.Module != nil {
			w.metadata(f.Path, f.Module)
		}
	}
}

func (w *writer) section(s model.Section) {
	if len(s.Files) == 0 {
		return
	}

	paths := make([]string, len(s.Files))
	for i, f := range s.Files {
		paths[i] = f.Path
	}
	dir := commonDir(paths)

	w.line("# markdown content namespace: %s", s.Title)
	w.blank()
	w.line("## %s File Tree (relative dir: `%s`)", w.project, dir)
	w.blank()
	w.line(Fence)
	for _, l := range Tree(paths) {
		w.line("%s", l)
	}
	w.line(Fence)
	w.blank()
	w.line("---")
	w.blank()
	w.line("## %s (relative dir: `%s`) Included Files (total: %d files)", w.project, dir, len(s.Files))
	w.blank()
	for _, p := range paths {
		w.line("- `%s`", p)
	}
	w.blank()
	w.line("---")
	w.blank()

	for _, f := range s.Files {
		if !s.Text {
			if s.Metadata && f.Module != nil {
				w.metadata(f.Path, f.Module)
			}
			continue
		}

		w.line("%s", startMarker(f.Path, w.project))
		w.blank()
		if s.Metadata && f.Module != nil {
			w.metadata(f.Path, f.Module)
		}
		w.line("%s%s", Fence, lang.FenceName(f.Ext))
		w.line("%s", f.Text)
		w.line(Fence)
		w.line("%s", endMarker(f.Path, w.project))
		w.blank()
		w.line("---")
		w.blank()
	}
}

func startMarker(p, project string) string {
	return fmt.Sprintf("--- **start of file: %s** (project: %s) ---", p, project)
}

func endMarker(p, project string) string {
	return fmt.Sprintf("--- **end of file: %s** (project: %s) ---", p, project)
}

// commonDir returns the deepest directory shared by every path, or ".".
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return "."
	}
	common := strings.Split(path.Dir(paths[0]), "/")
	for _, p := range paths[1:] {
		parts := strings.Split(path.Dir(p), "/")
		n := 0
		for n < len(common) && n < len(parts) && common[n] == parts[n] {
			n++
		}
		common = common[:n]
	}
	dir := strings.Join(common, "/")
	if dir == "" {
		return "."
	}
	return dir
}
