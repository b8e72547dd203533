package graph

import (
	"math"

	"github.com/phobologic/ctxbundle/internal/model"
)

const (
	damping   = 0.85
	maxIter   = 100
	tolerance = 1e-6
)

// Rank computes PageRank over the internal edges of g. An import passes
// rank from the importer to the imported file, so widely used modules
// score highest. Ranks sum to 1; a graph without edges ranks uniformly.
func Rank(g *model.DependencyGraph) map[string]float64 {
	n := len(g.Files)
	if n == 0 {
		return map[string]float64{}
	}

	index := make(map[string]int, n)
	for i, f := range g.Files {
		index[f] = i
	}
	out := make([][]int, n)
	for i, f := range g.Files {
		for _, tgt := range g.Internal[f] {
			if j, ok := index[tgt]; ok {
				out[i] = append(out[i], j)
			}
		}
	}

	ranks := pageRank(out)
	result := make(map[string]float64, n)
	for i, f := range g.Files {
		result[f] = ranks[i]
	}
	return result
}

// pageRank iterates until the L1 change drops below tolerance. Nodes
// without outgoing edges spread their rank evenly over every node.
func pageRank(out [][]int) []float64 {
	n := len(out)
	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1.0 / float64(n)
	}
	teleport := (1.0 - damping) / float64(n)

	next := make([]float64, n)
	for iter := 0; iter < maxIter; iter++ {
		var dangling float64
		for i, targets := range out {
			if len(targets) == 0 {
				dangling += rank[i]
			}
		}
		base := teleport + damping*dangling/float64(n)
		for i := range next {
			next[i] = base
		}

		for i, targets := range out {
			if len(targets) == 0 {
				continue
			}
			share := damping * rank[i] / float64(len(targets))
			for _, j := range targets {
				next[j] += share
			}
		}

		var diff float64
		for i := range rank {
			diff += math.Abs(next[i] - rank[i])
		}
		rank, next = next, rank
		if diff < tolerance {
			break
		}
	}
	return rank
}
