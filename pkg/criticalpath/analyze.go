package criticalpath

import (
	"sort"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/solver"
)

// Analyze runs the critical-path method over a solved schedule,
// selecting the forward/backward-pass algorithm tier by problem size
// (spec §4.4): a direct relaxation under 100 scheduled intervals, a
// level-parallel pass under 1000, and a single topological sweep at or
// above that.
func Analyze(model *constraint.Model, sol *solver.Solution) Report {
	nodes, edges := buildGraph(model, sol)
	durations := make(map[uuid.UUID]int64, len(nodes))
	for _, id := range nodes {
		durations[id] = durationOf(sol, id)
	}
	adj := buildAdjacency(nodes, edges, durations)

	var timingList []TaskTiming
	var makespan int64
	switch {
	case len(nodes) < 100:
		timingList, makespan = computeDirect(adj)
	case len(nodes) < 1000:
		timingList, makespan = computeLeveled(adj)
	default:
		timingList, makespan = computeSinglePass(adj)
	}

	timings := make(map[uuid.UUID]TaskTiming, len(nodes))
	var criticalTasks []uuid.UUID
	for i, id := range nodes {
		timings[id] = timingList[i]
		if timingList[i].IsCritical() {
			criticalTasks = append(criticalTasks, id)
		}
	}
	sort.Slice(criticalTasks, func(i, j int) bool {
		return timings[criticalTasks[i]].EarlyStart < timings[criticalTasks[j]].EarlyStart
	})

	return Report{
		Timings:       timings,
		CriticalTasks: criticalTasks,
		CriticalPath:  extractCriticalPath(adj, timings),
		Makespan:      makespan,
	}
}

// extractCriticalPath walks the subgraph of critical edges (both endpoints
// zero-float) to find the single chain spec §4.4 step 6 names: starting at
// a no-predecessor critical task and ending at a no-successor critical
// task. Candidate start tasks are compared by earliest start, ties broken
// by the lowest sum of task indices (adj.index) along the chain each
// would produce; both comparisons are resolved in O(V+E) via a
// minimal-index-sum suffix computed once per node.
func extractCriticalPath(adj adjacency, timings map[uuid.UUID]TaskTiming) []uuid.UUID {
	isCritical := func(id uuid.UUID) bool { return timings[id].IsCritical() }

	criticalSuccessors := make(map[uuid.UUID][]uuid.UUID)
	var starts []uuid.UUID
	for _, id := range adj.nodes {
		if !isCritical(id) {
			continue
		}
		hasCriticalPred := false
		for _, pred := range adj.predecessors[id] {
			if isCritical(pred) {
				hasCriticalPred = true
				break
			}
		}
		if !hasCriticalPred {
			starts = append(starts, id)
		}
		for _, succ := range adj.successors[id] {
			if isCritical(succ) {
				criticalSuccessors[id] = append(criticalSuccessors[id], succ)
			}
		}
	}
	if len(starts) == 0 {
		return nil
	}

	// suffixSum(id) is the lowest achievable sum of task indices from id to
	// a chain terminal (a critical task with no critical successor);
	// nextHop(id) is the successor achieving it. Internal nodes must
	// always continue to a successor — only a true terminal may stop —
	// so the recursion has no early-exit "stop here" base case for nodes
	// that do have critical successors.
	suffixSum := make(map[uuid.UUID]int64, len(adj.nodes))
	nextHop := make(map[uuid.UUID]uuid.UUID, len(adj.nodes))
	var resolve func(id uuid.UUID) int64
	resolve = func(id uuid.UUID) int64 {
		if v, ok := suffixSum[id]; ok {
			return v
		}
		succs := append([]uuid.UUID{}, criticalSuccessors[id]...)
		sort.Slice(succs, func(i, j int) bool { return adj.index[succs[i]] < adj.index[succs[j]] })
		if len(succs) == 0 {
			suffixSum[id] = int64(adj.index[id])
			return suffixSum[id]
		}
		best := int64(-1)
		for _, succ := range succs {
			s := int64(adj.index[id]) + resolve(succ)
			if best == -1 || s < best {
				best = s
				nextHop[id] = succ
			}
		}
		suffixSum[id] = best
		return best
	}
	for _, id := range starts {
		resolve(id)
	}

	sort.Slice(starts, func(i, j int) bool {
		a, b := starts[i], starts[j]
		if timings[a].EarlyStart != timings[b].EarlyStart {
			return timings[a].EarlyStart < timings[b].EarlyStart
		}
		if suffixSum[a] != suffixSum[b] {
			return suffixSum[a] < suffixSum[b]
		}
		return adj.index[a] < adj.index[b]
	})

	var path []uuid.UUID
	for current, ok := starts[0], true; ok; current, ok = nextHop[current] {
		path = append(path, current)
	}
	return path
}

// HasResourceConflict reports whether any two tasks placed on the same
// machine (or sharing an operator) overlap in time — a defect that
// should never survive pkg/solver's own booking but is cheap to confirm
// here since Analyze already groups tasks by resource.
func HasResourceConflict(sol *solver.Solution) bool {
	for _, group := range machineGroups(sol) {
		if overlapsAny(sol, group) {
			return true
		}
	}
	for _, group := range operatorGroups(sol) {
		if overlapsAny(sol, group) {
			return true
		}
	}
	return false
}

func overlapsAny(sol *solver.Solution, taskIDs []uuid.UUID) bool {
	ordered := sortByStart(sol, taskIDs)
	for i := 0; i+1 < len(ordered); i++ {
		a, b := sol.Placements[ordered[i]], sol.Placements[ordered[i+1]]
		if a.EndMinute() > b.StartMinute {
			return true
		}
	}
	return false
}
