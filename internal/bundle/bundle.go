// Package bundle assembles collected files, their structural models and the
// import graph into a model.Bundle.
package bundle

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/ctxbundle/internal/config"
	"github.com/phobologic/ctxbundle/internal/discover"
	"github.com/phobologic/ctxbundle/internal/graph"
	"github.com/phobologic/ctxbundle/internal/ignore"
	"github.com/phobologic/ctxbundle/internal/lang"
	"github.com/phobologic/ctxbundle/internal/logging"
	"github.com/phobologic/ctxbundle/internal/model"
	"github.com/phobologic/ctxbundle/internal/parse"
	"github.com/phobologic/ctxbundle/internal/ranking"
	"github.com/phobologic/ctxbundle/internal/textfile"
)

// RootFiles are merged into their own section when present at the root.
var RootFiles = []string{"README.md", "setup.py", "pyproject.toml"}

// modelCacheSize bounds the number of extracted models kept between runs.
const modelCacheSize = 4096

type contentKey [sha256.Size]byte

// Assembler builds bundles for one project root. It may be reused; models
// of unchanged file contents are not extracted twice.
type Assembler struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	models *lru.Cache[contentKey, model.ModuleModel]
}

// New returns an Assembler for root configured by cfg.
func New(root string, cfg *config.Config, logger *slog.Logger) (*Assembler, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	models, err := lru.New[contentKey, model.ModuleModel](modelCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating model cache: %w", err)
	}
	return &Assembler{root: abs, cfg: cfg, logger: logger, models: models}, nil
}

// Root returns the absolute project root.
func (a *Assembler) Root() string { return a.root }

// Assemble plans, reads, extracts and links every configured file.
func (a *Assembler) Assemble(ctx context.Context) (*model.Bundle, error) {
	plan, err := a.Plan()
	if err != nil {
		return nil, err
	}
	return a.Build(ctx, plan)
}

// Build turns a plan into a bundle. Unreadable files get empty text and
// files that fail to parse carry the error in their model; neither stops
// the run.
func (a *Assembler) Build(ctx context.Context, plan *Plan) (*model.Bundle, error) {
	entries := a.filterBySize(plan.Entries())

	docs, err := a.load(ctx, entries)
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]model.FileDoc, len(docs))
	var analyzed []graph.File
	for _, d := range docs {
		byPath[d.Path] = d
		if d.Module != nil {
			analyzed = append(analyzed, graph.File{Path: d.Path, Module: d.Module})
		}
	}

	g := graph.Build(analyzed)
	ranks := graph.Rank(g)

	keep := a.selection(g, ranks)
	if keep != nil {
		kept := make([]string, 0, len(keep))
		for _, p := range g.Files {
			if _, ok := keep[p]; ok {
				kept = append(kept, p)
			}
		}
		g = ranking.Subgraph(g, kept)
		a.logger.Info("narrowed analyzed files", "kept", len(kept), "total", len(analyzed))
	}

	b := &model.Bundle{
		Project: a.cfg.Project.Name,
		Root:    a.root,
		Summary: a.cfg.Project.Summary,
		Guide:   !a.cfg.Project.NoGuide,
		Graph:   g,
		Ranks:   ranks,
	}
	for _, e := range plan.Core {
		if d, ok := byPath[e.Path]; ok {
			b.CoreFiles = append(b.CoreFiles, d)
		}
	}
	for _, s := range plan.Sections {
		sec := model.Section{Title: s.Title, Metadata: s.Metadata, Text: s.Text}
		for _, e := range s.Files {
			d, ok := byPath[e.Path]
			if !ok {
				continue
			}
			if keep != nil && d.Module != nil {
				if _, ok := keep[d.Path]; !ok {
					continue
				}
			}
			sec.Files = append(sec.Files, d)
		}
		b.Sections = append(b.Sections, sec)
	}

	a.logger.Info("assembled bundle",
		"project", b.Project,
		"sections", len(b.Sections),
		"files", len(docs),
		"analyzed", len(g.Files),
	)
	return b, nil
}

// selection returns the analyzed files kept by the focus and max-files
// limits, or nil when neither applies. Files without a model are never
// narrowed.
func (a *Assembler) selection(g *model.DependencyGraph, ranks map[string]float64) map[string]struct{} {
	lim := a.cfg.Limits
	if lim.Focus == "" && lim.MaxFiles <= 0 {
		return nil
	}
	paths := g.Files
	if lim.Focus != "" {
		paths = ranking.Focus(paths, g, lim.Focus)
	}
	paths = ranking.SelectFiles(paths, ranks, lim.MaxFiles)

	keep := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		keep[p] = struct{}{}
	}
	return keep
}

func (a *Assembler) filterBySize(entries []discover.FileEntry) []discover.FileEntry {
	limit := a.cfg.Limits.MaxFileSize
	if limit <= 0 {
		return entries
	}
	kept := entries[:0:0]
	for _, e := range entries {
		fi, err := os.Stat(e.AbsPath)
		if err != nil {
			kept = append(kept, e) // the read reports it
			continue
		}
		if fi.Size() > limit {
			a.logger.Warn("skipping large file", "path", e.Path, "size", fi.Size(), "limit", limit)
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// load reads every entry and extracts Python models on a bounded pool of
// workers, each owning its own parser. Results keep the order of entries.
func (a *Assembler) load(ctx context.Context, entries []discover.FileEntry) ([]model.FileDoc, error) {
	docs := make([]model.FileDoc, len(entries))

	workers := a.cfg.Limits.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(entries))

	work := make(chan int)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(work)
		for i := range entries {
			select {
			case work <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for range workers {
		g.Go(func() error {
			var ex *parse.Extractor
			defer func() {
				if ex != nil {
					ex.Close()
				}
			}()
			for i := range work {
				e := entries[i]
				doc := model.FileDoc{Path: e.Path, Ext: e.Ext}

				text, err := textfile.Read(e.AbsPath)
				if err != nil {
					a.logger.Warn("could not read file", "path", e.Path, "error", err)
				}
				doc.Text = text

				if l := lang.ForExtension(e.Ext); l != nil && l.Parseable() {
					if ex == nil {
						ex = parse.NewExtractor()
					}
					doc.Module = a.extract(ex, e.Path, []byte(text))
				}
				docs[i] = doc
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (a *Assembler) extract(ex *parse.Extractor, path string, src []byte) *model.ModuleModel {
	key := contentKey(sha256.Sum256(src))
	if m, ok := a.models.Get(key); ok {
		a.logger.Debug("reusing extracted model", "path", path)
		return &m
	}

	m := ex.Extract(src)
	if m.Error != "" {
		a.logger.Warn("could not parse file", "path", path, "error", m.Error)
	}
	a.models.Add(key, m)
	return &m
}

// matcher builds the ignore matcher for directory sections. An explicitly
// configured ignore file must be readable; a discovered one is best effort.
func (a *Assembler) matcher() (ignore.Matcher, error) {
	ic := a.cfg.Ignore
	if ic.Mode == config.IgnoreNone {
		return nil, nil
	}

	var lines []string
	path := ic.File
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(a.root, path)
	}
	if path == "" {
		path, _ = ignore.FindIgnoreFile(a.root)
	}
	if path != "" {
		rules, err := ignore.LoadFile(path)
		switch {
		case err != nil && ic.File != "":
			return nil, fmt.Errorf("loading ignore file: %w", err)
		case err != nil:
			a.logger.Warn("could not read ignore file", "path", path, "error", err)
		default:
			a.logger.Debug("loaded ignore rules", "path", path, "rules", rules.Len())
			lines = rules.Lines()
		}
	}

	rules := ignore.NewRules(append(lines, ic.Rules...)...)
	if ic.Mode == config.IgnoreStrict {
		return ignore.NewStrict(rules), nil
	}
	return rules, nil
}
