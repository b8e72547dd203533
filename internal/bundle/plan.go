package bundle

import (
	"fmt"
	"io"
	"sort"

	"github.com/phobologic/ctxbundle/internal/discover"
)

// Section is a planned section: its files are chosen but not yet read.
type Section struct {
	Title    string
	Files    []discover.FileEntry
	Metadata bool
	Text     bool
}

// Plan is the set of files a run would include.
type Plan struct {
	Core     []discover.FileEntry
	Sections []Section
}

// Entries returns every planned file once, core files first, then sections
// in order.
func (p *Plan) Entries() []discover.FileEntry {
	seen := make(map[string]struct{})
	var out []discover.FileEntry
	add := func(files []discover.FileEntry) {
		for _, f := range files {
			if _, ok := seen[f.Path]; ok {
				continue
			}
			seen[f.Path] = struct{}{}
			out = append(out, f)
		}
	}
	add(p.Core)
	for _, s := range p.Sections {
		add(s.Files)
	}
	return out
}

// Plan collects the files of every configured section without reading them.
// Root files come first, as their own section.
func (a *Assembler) Plan() (*Plan, error) {
	matcher, err := a.matcher()
	if err != nil {
		return nil, err
	}

	plan := &Plan{}
	merged := make(map[string]struct{})
	if len(a.cfg.Project.CoreFiles) > 0 {
		core, err := discover.Resolve(a.root, a.cfg.Project.CoreFiles)
		if err != nil {
			return nil, fmt.Errorf("core files: %w", err)
		}
		plan.Core = core
	}

	if !a.cfg.Project.NoRootFiles {
		var present []string
		for _, name := range RootFiles {
			if discover.Exists(a.root, name) {
				present = append(present, name)
			}
		}
		if len(present) > 0 {
			files, err := discover.Resolve(a.root, present)
			if err != nil {
				return nil, fmt.Errorf("root files: %w", err)
			}
			for _, f := range files {
				merged[f.Path] = struct{}{}
			}
			plan.Sections = append(plan.Sections, Section{
				Title:    a.cfg.Project.Name + " Project Root Dir Some Files",
				Files:    files,
				Metadata: true,
				Text:     true,
			})
		}
	}

	for _, sc := range a.cfg.Sections {
		var files []discover.FileEntry
		if sc.Dir != "" {
			files, err = discover.Collect(a.root, sc.Dir, discover.Options{
				Extensions:   sc.Suffixes,
				ExcludeDirs:  sc.ExcludeDirs,
				ExcludeFiles: sc.ExcludeFiles,
				Ignore:       matcher,
				Logger:       a.logger,
			})
			files = without(files, merged)
		} else {
			files, err = discover.Resolve(a.root, sc.Files)
		}
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", sc.Title, err)
		}
		a.logger.Debug("planned section", "title", sc.Title, "files", len(files))
		plan.Sections = append(plan.Sections, Section{
			Title:    sc.Title,
			Files:    files,
			Metadata: !sc.SkipMetadata,
			Text:     !sc.SkipText,
		})
	}
	return plan, nil
}

// without drops the root files already merged from a directory walk.
func without(files []discover.FileEntry, drop map[string]struct{}) []discover.FileEntry {
	if len(drop) == 0 {
		return files
	}
	kept := files[:0]
	for _, f := range files {
		if _, ok := drop[f.Path]; !ok {
			kept = append(kept, f)
		}
	}
	return kept
}

// WritePlan prints the dry-run report of plan.
func WritePlan(w io.Writer, plan *Plan) {
	fmt.Fprintln(w, "--- [DRY RUN] Execution Plan ---")
	if len(plan.Core) > 0 {
		fmt.Fprintf(w, "\n📌 %d core files would be SUMMARIZED:\n", len(plan.Core))
		for _, f := range plan.Core {
			fmt.Fprintf(w, "  - %s\n", f.Path)
		}
	}
	for _, s := range plan.Sections {
		fmt.Fprintf(w, "\n✅ %d files would be INCLUDED in '%s':\n", len(s.Files), s.Title)
		paths := make([]string, len(s.Files))
		for i, f := range s.Files {
			paths[i] = f.Path
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}
	fmt.Fprintf(w, "\n--- End of DRY RUN (%d files) ---\n", len(plan.Entries()))
}
