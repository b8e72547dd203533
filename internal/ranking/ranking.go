// Package ranking narrows a bundle's file set by centrality or by focus.
package ranking

import (
	"sort"
	"strings"

	"github.com/phobologic/ctxbundle/internal/model"
)

// SelectFiles keeps the maxFiles highest-ranked paths, ties broken by path,
// and returns them in their original order. If maxFiles is <= 0 or
// >= len(paths), paths is returned unchanged.
func SelectFiles(paths []string, ranks map[string]float64, maxFiles int) []string {
	if maxFiles <= 0 || maxFiles >= len(paths) {
		return paths
	}

	byRank := make([]string, len(paths))
	copy(byRank, paths)
	sort.SliceStable(byRank, func(i, j int) bool {
		ri, rj := ranks[byRank[i]], ranks[byRank[j]]
		if ri != rj {
			return ri > rj
		}
		return byRank[i] < byRank[j]
	})

	keep := make(map[string]struct{}, maxFiles)
	for _, p := range byRank[:maxFiles] {
		keep[p] = struct{}{}
	}
	return filter(paths, keep)
}

// Focus keeps the paths containing substr (case-insensitive) together with
// the files they import and the files importing them.
func Focus(paths []string, g *model.DependencyGraph, substr string) []string {
	lower := strings.ToLower(substr)

	keep := make(map[string]struct{})
	for _, p := range paths {
		if !strings.Contains(strings.ToLower(p), lower) {
			continue
		}
		keep[p] = struct{}{}
		if g == nil {
			continue
		}
		for _, dep := range g.Internal[p] {
			keep[dep] = struct{}{}
		}
		for _, user := range g.Reverse[p] {
			keep[user] = struct{}{}
		}
	}
	return filter(paths, keep)
}

// Subgraph returns g restricted to the kept files. Edges leaving the set
// are dropped from both directions.
func Subgraph(g *model.DependencyGraph, files []string) *model.DependencyGraph {
	keep := make(map[string]struct{}, len(files))
	for _, f := range files {
		keep[f] = struct{}{}
	}

	sub := &model.DependencyGraph{
		Files:    filter(g.Files, keep),
		Internal: make(map[string][]string),
		External: make(map[string][]string),
		Reverse:  make(map[string][]string),
	}
	for _, f := range sub.Files {
		if deps := filter(g.Internal[f], keep); len(deps) > 0 {
			sub.Internal[f] = deps
		}
		if users := filter(g.Reverse[f], keep); len(users) > 0 {
			sub.Reverse[f] = users
		}
		if ext := g.External[f]; len(ext) > 0 {
			sub.External[f] = ext
		}
	}
	return sub
}

func filter(paths []string, keep map[string]struct{}) []string {
	var out []string
	for _, p := range paths {
		if _, ok := keep[p]; ok {
			out = append(out, p)
		}
	}
	return out
}
