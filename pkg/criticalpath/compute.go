package criticalpath

import (
	"sync"

	"github.com/google/uuid"
)

// adjacency is the shared graph representation every tier's algorithm
// consumes: precedecessors/successors keyed by task id, plus each task's
// scheduled duration.
type adjacency struct {
	nodes        []uuid.UUID
	index        map[uuid.UUID]int
	predecessors map[uuid.UUID][]uuid.UUID
	successors   map[uuid.UUID][]uuid.UUID
	durations    map[uuid.UUID]int64
}

func buildAdjacency(nodes []uuid.UUID, edges []edge, durations map[uuid.UUID]int64) adjacency {
	idx := make(map[uuid.UUID]int, len(nodes))
	for i, n := range nodes {
		idx[n] = i
	}
	preds := make(map[uuid.UUID][]uuid.UUID, len(nodes))
	succs := make(map[uuid.UUID][]uuid.UUID, len(nodes))
	for _, e := range edges {
		succs[e.From] = append(succs[e.From], e.To)
		preds[e.To] = append(preds[e.To], e.From)
	}
	return adjacency{nodes: nodes, index: idx, predecessors: preds, successors: succs, durations: durations}
}

// computeDirect is the small-problem (<100 intervals) tier: a plain
// Bellman-Ford-style relaxation. Each pass recomputes every node's
// earliest start from its predecessors' current earliest finish; because
// the graph is acyclic, len(nodes) passes are always sufficient to reach
// a fixed point, and at this size the O(n^2) cost is negligible.
func computeDirect(adj adjacency) (timings []TaskTiming, makespan int64) {
	n := len(adj.nodes)
	es := make([]int64, n)
	for pass := 0; pass < n; pass++ {
		changed := false
		for i, taskID := range adj.nodes {
			var floor int64
			for _, pred := range adj.predecessors[taskID] {
				if ef := es[adj.index[pred]] + adj.durations[pred]; ef > floor {
					floor = ef
				}
			}
			if floor > es[i] {
				es[i] = floor
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	ef := make([]int64, n)
	for i, taskID := range adj.nodes {
		ef[i] = es[i] + adj.durations[taskID]
		if ef[i] > makespan {
			makespan = ef[i]
		}
	}

	lf := make([]int64, n)
	for i := range lf {
		lf[i] = makespan
	}
	for pass := 0; pass < n; pass++ {
		changed := false
		for i, taskID := range adj.nodes {
			ceiling := makespan
			for _, succ := range adj.successors[taskID] {
				if ls := lf[adj.index[succ]] - adj.durations[succ]; ls < ceiling {
					ceiling = ls
				}
			}
			if ceiling < lf[i] {
				lf[i] = ceiling
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	return assembleTimings(adj, es, ef, lf), makespan
}

// computeLeveled is the medium-problem (<1000 intervals) tier: nodes are
// grouped into dependency levels (a node's level is one more than the max
// level of its predecessors), then each level's earliest-start values are
// computed concurrently since nodes at the same level never depend on one
// another. The backward pass mirrors this level-by-level, walking levels
// in reverse.
func computeLeveled(adj adjacency) (timings []TaskTiming, makespan int64) {
	n := len(adj.nodes)
	level := computeLevels(adj)
	levelGroups := groupByLevel(adj.nodes, level)

	es := make([]int64, n)
	for _, group := range levelGroups {
		var wg sync.WaitGroup
		for _, i := range group {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				taskID := adj.nodes[i]
				var floor int64
				for _, pred := range adj.predecessors[taskID] {
					if ef := es[adj.index[pred]] + adj.durations[pred]; ef > floor {
						floor = ef
					}
				}
				es[i] = floor
			}(i)
		}
		wg.Wait()
	}

	ef := make([]int64, n)
	for i, taskID := range adj.nodes {
		ef[i] = es[i] + adj.durations[taskID]
		if ef[i] > makespan {
			makespan = ef[i]
		}
	}

	lf := make([]int64, n)
	for i := range levelGroups {
		group := levelGroups[len(levelGroups)-1-i]
		var wg sync.WaitGroup
		for _, idx := range group {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				taskID := adj.nodes[idx]
				ceiling := makespan
				for _, succ := range adj.successors[taskID] {
					if ls := lf[adj.index[succ]] - adj.durations[succ]; ls < ceiling {
						ceiling = ls
					}
				}
				lf[idx] = ceiling
			}(idx)
		}
		wg.Wait()
	}

	return assembleTimings(adj, es, ef, lf), makespan
}

// computeSinglePass is the large-problem (>=1000 intervals) tier: one
// Kahn topological order is computed once, then the forward pass is a
// single linear sweep along that order and the backward pass a single
// linear sweep along its reverse. No repeated relaxation, no per-level
// synchronization overhead.
func computeSinglePass(adj adjacency) (timings []TaskTiming, makespan int64) {
	order := topologicalOrder(adj)
	n := len(adj.nodes)
	es := make([]int64, n)
	ef := make([]int64, n)

	for _, i := range order {
		taskID := adj.nodes[i]
		var floor int64
		for _, pred := range adj.predecessors[taskID] {
			if v := es[adj.index[pred]] + adj.durations[pred]; v > floor {
				floor = v
			}
		}
		es[i] = floor
		ef[i] = es[i] + adj.durations[taskID]
		if ef[i] > makespan {
			makespan = ef[i]
		}
	}

	lf := make([]int64, n)
	for i := range lf {
		lf[i] = makespan
	}
	for k := len(order) - 1; k >= 0; k-- {
		i := order[k]
		taskID := adj.nodes[i]
		ceiling := makespan
		for _, succ := range adj.successors[taskID] {
			if v := lf[adj.index[succ]] - adj.durations[succ]; v < ceiling {
				ceiling = v
			}
		}
		lf[i] = ceiling
	}

	return assembleTimings(adj, es, ef, lf), makespan
}

func assembleTimings(adj adjacency, es, ef, lf []int64) []TaskTiming {
	timings := make([]TaskTiming, len(adj.nodes))
	for i, taskID := range adj.nodes {
		ls := lf[i] - adj.durations[taskID]
		timings[i] = TaskTiming{
			EarlyStart:  es[i],
			EarlyFinish: ef[i],
			LateStart:   ls,
			LateFinish:  lf[i],
			TotalFloat:  ls - es[i],
		}
	}
	return timings
}

// computeLevels assigns each node its longest-path depth from a source
// (a node with no predecessors).
func computeLevels(adj adjacency) []int {
	n := len(adj.nodes)
	level := make([]int, n)
	indegree := make([]int, n)
	for i, taskID := range adj.nodes {
		indegree[i] = len(adj.predecessors[taskID])
	}
	queue := make([]int, 0, n)
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		taskID := adj.nodes[i]
		for _, succ := range adj.successors[taskID] {
			j := adj.index[succ]
			if level[i]+1 > level[j] {
				level[j] = level[i] + 1
			}
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	return level
}

func groupByLevel(nodes []uuid.UUID, level []int) [][]int {
	maxLevel := 0
	for _, l := range level {
		if l > maxLevel {
			maxLevel = l
		}
	}
	groups := make([][]int, maxLevel+1)
	for i := range nodes {
		groups[level[i]] = append(groups[level[i]], i)
	}
	return groups
}

// topologicalOrder returns a Kahn ordering of node indices.
func topologicalOrder(adj adjacency) []int {
	n := len(adj.nodes)
	indegree := make([]int, n)
	for i, taskID := range adj.nodes {
		indegree[i] = len(adj.predecessors[taskID])
	}
	queue := make([]int, 0, n)
	for i, d := range indegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]int, 0, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		taskID := adj.nodes[i]
		for _, succ := range adj.successors[taskID] {
			j := adj.index[succ]
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	return order
}
