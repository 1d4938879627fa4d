// Package criticalpath runs the critical-path method (forward/backward
// pass, total float, critical-path extraction) over a solved schedule.
// Size-tiered algorithm selection keeps the pass cheap on small problems,
// runs it level by level in parallel on medium ones, and uses a single
// sequential topological pass on large ones (spec §4.4).
package criticalpath

import (
	"sort"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/solver"
)

// edge asserts end(From) <= start(To) in the resolved schedule.
type edge struct {
	From, To uuid.UUID
}

// durationOf returns the total scheduled duration (setup + processing) of
// a task given its placement.
func durationOf(sol *solver.Solution, taskID uuid.UUID) int64 {
	if p, ok := sol.Placements[taskID]; ok {
		return p.SetupMinutes + p.ProcessingMinutes
	}
	return 0
}

// buildGraph combines the model's explicit job precedence edges with the
// resource-induced ordering the solver's chosen schedule imposes: two
// tasks bound to the same machine (or the same operator) are
// sequence-ordered by their placement's start time, which is itself a
// precedence relation for the purposes of float analysis (spec §4.4).
func buildGraph(model *constraint.Model, sol *solver.Solution) (nodes []uuid.UUID, edges []edge) {
	// Order nodes by the model's own task order (build order: job by job,
	// sequence by sequence) rather than sol.Placements' map iteration, so
	// the "task index" the critical-path tie-break (spec §4.4 step 6)
	// compares by is a stable, meaningful position rather than whatever
	// order a map ranges in.
	seen := make(map[uuid.UUID]bool, len(sol.Placements))
	for _, t := range model.Tasks {
		if _, ok := sol.Placements[t.TaskID]; ok {
			nodes = append(nodes, t.TaskID)
			seen[t.TaskID] = true
		}
	}
	if len(seen) != len(sol.Placements) {
		// Placements referencing tasks the model doesn't know about (e.g.
		// a hand-built Solution in a test) still need a deterministic,
		// if arbitrary, order.
		var extra []uuid.UUID
		for taskID := range sol.Placements {
			if !seen[taskID] {
				extra = append(extra, taskID)
			}
		}
		sort.Slice(extra, func(i, j int) bool { return extra[i].String() < extra[j].String() })
		nodes = append(nodes, extra...)
	}

	for _, p := range model.Precedences {
		if _, ok := sol.Placements[p.From]; !ok {
			continue
		}
		if _, ok := sol.Placements[p.To]; !ok {
			continue
		}
		edges = append(edges, edge{From: p.From, To: p.To})
	}

	edges = append(edges, resourceOrderEdges(sol, machineGroups(sol))...)
	edges = append(edges, resourceOrderEdges(sol, operatorGroups(sol))...)
	return nodes, edges
}

func machineGroups(sol *solver.Solution) map[uuid.UUID][]uuid.UUID {
	groups := make(map[uuid.UUID][]uuid.UUID)
	for taskID, p := range sol.Placements {
		groups[p.MachineID] = append(groups[p.MachineID], taskID)
	}
	return groups
}

func operatorGroups(sol *solver.Solution) map[uuid.UUID][]uuid.UUID {
	groups := make(map[uuid.UUID][]uuid.UUID)
	for taskID, p := range sol.Placements {
		for _, opID := range p.OperatorIDs {
			groups[opID] = append(groups[opID], taskID)
		}
	}
	return groups
}

// resourceOrderEdges sorts each resource's bound tasks by start minute and
// emits a chain of edges between consecutive ones.
func resourceOrderEdges(sol *solver.Solution, groups map[uuid.UUID][]uuid.UUID) []edge {
	var out []edge
	for _, taskIDs := range groups {
		out = append(out, chainEdges(sortByStart(sol, taskIDs))...)
	}
	return out
}

// chainEdges assumes taskIDs are already ordered (e.g. via sortByStart).
func chainEdges(taskIDs []uuid.UUID) []edge {
	if len(taskIDs) < 2 {
		return nil
	}
	var out []edge
	for i := 0; i+1 < len(taskIDs); i++ {
		out = append(out, edge{From: taskIDs[i], To: taskIDs[i+1]})
	}
	return out
}

// sortByStart orders taskIDs by their placement start minute, ascending.
func sortByStart(sol *solver.Solution, taskIDs []uuid.UUID) []uuid.UUID {
	sorted := append([]uuid.UUID{}, taskIDs...)
	sort.Slice(sorted, func(i, j int) bool {
		return sol.Placements[sorted[i]].StartMinute < sol.Placements[sorted[j]].StartMinute
	})
	return sorted
}
