package schema

import (
	"log/slog"
	"sort"
)

// Node is anything that can be placed in dependency order.
type Node interface {
	NodeName() string
	NodeDependencies() []string
}

func (t *Table) NodeName() string           { return t.Name }
func (t *Table) NodeDependencies() []string { return t.Dependencies }

// SortTablesByFKCount orders tables so every table comes after the tables it
// references.
func SortTablesByFKCount(tables []*Table) []*Table {
	return SortByDependencies(tables)
}

// SortByDependencies returns nodes in dependency order: parents before
// children, ties kept in input order. Cycles are broken by picking the node
// with the fewest unresolved dependencies, preferring nodes that take part in
// a two-way reference.
func SortByDependencies[T Node](nodes []T) []T {
	byName := make(map[string]T, len(nodes))
	for _, n := range nodes {
		byName[n.NodeName()] = n
	}

	sorted := make([]T, 0, len(nodes))
	processed := make(map[string]bool, len(nodes))

	for len(sorted) < len(nodes) {
		added := false

		for _, n := range nodes {
			if processed[n.NodeName()] || !depsSatisfied(n, processed, byName) {
				continue
			}
			sorted = append(sorted, n)
			processed[n.NodeName()] = true
			added = true
		}
		if added {
			continue
		}

		best, score := cycleBreaker(nodes, processed, byName)
		slog.Debug("breaking circular dependency", "table", best.NodeName(), "score", score)
		sorted = append(sorted, best)
		processed[best.NodeName()] = true
	}
	return sorted
}

// depsSatisfied ignores dependencies on nodes outside the set.
func depsSatisfied[T Node](n T, processed map[string]bool, byName map[string]T) bool {
	for _, dep := range n.NodeDependencies() {
		if _, known := byName[dep]; known && !processed[dep] && dep != n.NodeName() {
			return false
		}
	}
	return true
}

func cycleBreaker[T Node](nodes []T, processed map[string]bool, byName map[string]T) (T, int) {
	type candidate struct {
		node  T
		score int
	}
	var cands []candidate

	for _, n := range nodes {
		if processed[n.NodeName()] {
			continue
		}
		score := 0
		for _, dep := range n.NodeDependencies() {
			if !processed[dep] {
				score -= 100
			}
		}
		if isCircular(n, processed, byName) {
			score += 500
		}
		cands = append(cands, candidate{node: n, score: score})
	}

	// Highest score first, name as the deterministic tie-breaker.
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].node.NodeName() < cands[j].node.NodeName()
	})
	return cands[0].node, cands[0].score
}

// isCircular reports whether one of n's pending dependencies points back at n.
func isCircular[T Node](n T, processed map[string]bool, byName map[string]T) bool {
	for _, depName := range n.NodeDependencies() {
		if processed[depName] {
			continue
		}
		dep, ok := byName[depName]
		if !ok {
			continue
		}
		for _, back := range dep.NodeDependencies() {
			if back == n.NodeName() {
				return true
			}
		}
	}
	return false
}
