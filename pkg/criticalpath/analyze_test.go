package criticalpath_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/criticalpath"
	"github.com/flowforge/jobshop/pkg/solver"
)

var emptyModel = constraint.Model{}

func chainSolution(n int) *solver.Solution {
	machine := uuid.New()
	sol := &solver.Solution{Placements: make(map[uuid.UUID]solver.TaskPlacement, n)}
	var cursor int64
	ids := make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		ids[i] = uuid.New()
		sol.Placements[ids[i]] = solver.TaskPlacement{
			TaskID: ids[i], MachineID: machine, StartMinute: cursor, ProcessingMinutes: 10,
		}
		cursor += 10
	}
	return sol
}

func TestAnalyzeChainIsEntirelyCritical(t *testing.T) {
	sol := chainSolution(5)
	report := criticalpath.Analyze(&emptyModel, sol)

	require.Equal(t, int64(50), report.Makespan)
	require.Len(t, report.CriticalPath, 5)
	require.Len(t, report.CriticalTasks, 5)
	for _, timing := range report.Timings {
		require.Zero(t, timing.TotalFloat)
	}
}

// TestAnalyzeDiamondPicksSingleChainByTaskIndex covers spec §4.4 step 6's
// tie-break: two equal-length critical branches of a diamond (A->B->D and
// A->C->D) are both zero-float, so CriticalTasks carries all four tasks,
// but CriticalPath must pick exactly one connected chain — here the
// lower-task-index branch (B, added to the model before C).
func TestAnalyzeDiamondPicksSingleChainByTaskIndex(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	model := &constraint.Model{
		Tasks: []*constraint.TaskNode{
			{TaskID: a}, {TaskID: b}, {TaskID: c}, {TaskID: d},
		},
		Precedences: []constraint.PrecedenceEdge{
			{From: a, To: b}, {From: a, To: c},
			{From: b, To: d}, {From: c, To: d},
		},
	}
	machine := uuid.New()
	sol := &solver.Solution{Placements: map[uuid.UUID]solver.TaskPlacement{
		a: {TaskID: a, MachineID: machine, StartMinute: 0, ProcessingMinutes: 10},
		b: {TaskID: b, MachineID: uuid.New(), StartMinute: 10, ProcessingMinutes: 20},
		c: {TaskID: c, MachineID: uuid.New(), StartMinute: 10, ProcessingMinutes: 20},
		d: {TaskID: d, MachineID: uuid.New(), StartMinute: 30, ProcessingMinutes: 10},
	}}

	report := criticalpath.Analyze(model, sol)

	require.ElementsMatch(t, []uuid.UUID{a, b, c, d}, report.CriticalTasks)
	require.Equal(t, []uuid.UUID{a, b, d}, report.CriticalPath)
}

func TestAnalyzeDisjointTasksHaveSlack(t *testing.T) {
	machineA, machineB := uuid.New(), uuid.New()
	taskA, taskB := uuid.New(), uuid.New()
	sol := &solver.Solution{Placements: map[uuid.UUID]solver.TaskPlacement{
		taskA: {TaskID: taskA, MachineID: machineA, StartMinute: 0, ProcessingMinutes: 100},
		taskB: {TaskID: taskB, MachineID: machineB, StartMinute: 0, ProcessingMinutes: 10},
	}}

	report := criticalpath.Analyze(&emptyModel, sol)

	require.Equal(t, int64(100), report.Makespan)
	require.True(t, report.Timings[taskA].IsCritical())
	require.False(t, report.Timings[taskB].IsCritical())
	require.Equal(t, int64(90), report.Timings[taskB].TotalFloat)
}

func TestHasResourceConflictDetectsOverlap(t *testing.T) {
	machine := uuid.New()
	taskA, taskB := uuid.New(), uuid.New()
	sol := &solver.Solution{Placements: map[uuid.UUID]solver.TaskPlacement{
		taskA: {TaskID: taskA, MachineID: machine, StartMinute: 0, ProcessingMinutes: 20},
		taskB: {TaskID: taskB, MachineID: machine, StartMinute: 10, ProcessingMinutes: 20},
	}}
	require.True(t, criticalpath.HasResourceConflict(sol))
}

func TestCacheReturnsSameReportForUnchangedSolution(t *testing.T) {
	sol := chainSolution(3)
	cache := criticalpath.NewCache(4)

	first := cache.Analyze(&emptyModel, sol)
	second := cache.Analyze(&emptyModel, sol)
	require.Equal(t, first.Makespan, second.Makespan)
}
