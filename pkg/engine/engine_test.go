package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/domain"
	"github.com/flowforge/jobshop/pkg/engine"
	"github.com/flowforge/jobshop/pkg/solver"
)

func lathe(t *testing.T) (*domain.Machine, *domain.Operation) {
	t.Helper()
	machine, err := domain.NewMachine("LATHE-1", domain.Unattended, 1.0)
	require.NoError(t, err)
	op, err := domain.NewOperation("TURN", []domain.RoutingOption{
		{MachineID: machine.ID, ProcessingTime: domain.NewDuration(30), SetupTime: domain.NewDuration(5)},
	}, nil)
	require.NoError(t, err)
	return machine, op
}

func baseRequest(t *testing.T, scheduleStart time.Time) (engine.SolveRequest, *domain.Machine, *domain.Operation) {
	t.Helper()
	machine, op := lathe(t)
	return engine.SolveRequest{
		ProblemName:   "two-job-linear",
		ScheduleStart: scheduleStart,
		HorizonDays:   5,
		Operations:    map[uuid.UUID]*domain.Operation{op.ID: op},
		Machines:      map[uuid.UUID]*domain.Machine{machine.ID: machine},
		Operators:     map[uuid.UUID]*domain.Operator{},
		Zones:         map[uuid.UUID]*domain.ProductionZone{},
	}, machine, op
}

// TestTwoJobLinearPrecedenceProducesOrderedAssignments covers S1: two
// jobs, each a two-task linear chain, sharing one machine.
func TestTwoJobLinearPrecedenceProducesOrderedAssignments(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	req, _, op := baseRequest(t, scheduleStart)
	req.Jobs = []engine.JobRequest{
		{
			JobNumber: "JOB-1", Priority: domain.PriorityNormal, DueDate: scheduleStart.Add(72 * time.Hour), Quantity: 1,
			Tasks: []constraint.JobTaskSpec{
				{OperationID: op.ID, SequenceInJob: 1},
				{OperationID: op.ID, SequenceInJob: 2},
			},
		},
		{
			JobNumber: "JOB-2", Priority: domain.PriorityNormal, DueDate: scheduleStart.Add(72 * time.Hour), Quantity: 1,
			Tasks: []constraint.JobTaskSpec{
				{OperationID: op.ID, SequenceInJob: 1},
				{OperationID: op.ID, SequenceInJob: 2},
			},
		},
	}

	resp, err := engine.New(nil, nil, nil, nil).Solve(context.Background(), req)
	require.NoError(t, err)
	require.Contains(t, []solver.Status{solver.StatusOptimal, solver.StatusFeasible}, resp.Status)
	require.Len(t, resp.Assignments, 4)

	endsBySeq := map[string]map[int]time.Time{}
	startsBySeq := map[string]map[int]time.Time{}
	for _, a := range resp.Assignments {
		if endsBySeq[a.JobNumber] == nil {
			endsBySeq[a.JobNumber] = map[int]time.Time{}
			startsBySeq[a.JobNumber] = map[int]time.Time{}
		}
		endsBySeq[a.JobNumber][a.OperationSequence] = a.End
		startsBySeq[a.JobNumber][a.OperationSequence] = a.Start
	}
	for _, job := range []string{"JOB-1", "JOB-2"} {
		require.False(t, endsBySeq[job][1].After(startsBySeq[job][2]), "task 1 must finish no later than task 2 starts")
	}
}

// TestInfeasibleDueDateYieldsPositiveTardinessNotFailure covers S3: a due
// date the solver cannot meet still returns FEASIBLE with positive
// tardiness rather than an INFEASIBLE response.
func TestInfeasibleDueDateYieldsPositiveTardinessNotFailure(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	req, _, op := baseRequest(t, scheduleStart)
	req.Jobs = []engine.JobRequest{
		{
			JobNumber: "JOB-LATE", Priority: domain.PriorityUrgent, DueDate: scheduleStart.Add(10 * time.Minute), Quantity: 1,
			Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1, PlannedDuration: domain.NewDuration(60)}},
		},
	}

	resp, err := engine.New(nil, nil, nil, nil).Solve(context.Background(), req)
	require.NoError(t, err)
	require.Contains(t, []solver.Status{solver.StatusOptimal, solver.StatusFeasible}, resp.Status)
	require.Greater(t, resp.Metrics.TotalTardinessMinutes, int64(0))
	require.Equal(t, 1, resp.Metrics.JobsLate)
}

// TestWarmStartReuseDoesNotWorsenObjective covers S5: re-solving the same
// problem with the first solve's solution as a warm start yields an
// objective no worse than the cold solve's.
func TestWarmStartReuseDoesNotWorsenObjective(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	req, _, op := baseRequest(t, scheduleStart)
	req.Jobs = []engine.JobRequest{
		{
			JobNumber: "JOB-1", Priority: domain.PriorityHigh, DueDate: scheduleStart.Add(48 * time.Hour), Quantity: 1,
			Tasks: []constraint.JobTaskSpec{
				{OperationID: op.ID, SequenceInJob: 1},
				{OperationID: op.ID, SequenceInJob: 2},
				{OperationID: op.ID, SequenceInJob: 3},
			},
		},
	}

	e := engine.New(nil, nil, nil, nil)
	first, err := e.Solve(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, first.FinalSolution)

	req.WarmStart = first.FinalSolution
	second, err := e.Solve(context.Background(), req)
	require.NoError(t, err)

	require.LessOrEqual(t, second.Metrics.MakespanMinutes, first.Metrics.MakespanMinutes)
}

// TestAllOperatorsUnavailableReturnsNoOperatorsReason covers the boundary
// case where an attended task's operation has zero eligible operators.
func TestAllOperatorsUnavailableReturnsNoOperatorsReason(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	machine, err := domain.NewMachine("PRESS-1", domain.Attended, 1.0)
	require.NoError(t, err)
	op, err := domain.NewOperation("STAMP", []domain.RoutingOption{
		{MachineID: machine.ID, ProcessingTime: domain.NewDuration(20), SetupTime: domain.NewDuration(0)},
	}, []domain.SkillRequirement{{SkillCode: "press-operation", MinimumLevel: domain.SkillLevelExpert}})
	require.NoError(t, err)

	req := engine.SolveRequest{
		ScheduleStart: scheduleStart,
		HorizonDays:   5,
		Operations:    map[uuid.UUID]*domain.Operation{op.ID: op},
		Machines:      map[uuid.UUID]*domain.Machine{machine.ID: machine},
		Operators:     map[uuid.UUID]*domain.Operator{}, // no operators at all
		Zones:         map[uuid.UUID]*domain.ProductionZone{},
		Jobs: []engine.JobRequest{{
			JobNumber: "JOB-1", Priority: domain.PriorityNormal, DueDate: scheduleStart.Add(48 * time.Hour), Quantity: 1,
			Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
		}},
	}

	resp, err := engine.New(nil, nil, nil, nil).Solve(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, solver.StatusInfeasible, resp.Status)
	require.Equal(t, domain.CodeNoFeasibleSolution, resp.ErrorCode)
	require.Equal(t, "no_operators", resp.ErrorDetails["code"])
	require.Contains(t, resp.ErrorDetails["conflicting_jobs"], "JOB-1")
}

// TestHolidaysCoveringEntireHorizonReturnsNoWorkingDaysReason covers the
// boundary case where the horizon's every day is masked as a holiday.
func TestHolidaysCoveringEntireHorizonReturnsNoWorkingDaysReason(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	req, machine, op := baseRequest(t, scheduleStart)
	machine.AutomationLevel = domain.Attended // unattended processing may run on holidays
	req.HorizonDays = 3
	req.BusinessConstraints = domain.BusinessConstraints{
		WorkStartHour: 8, WorkEndHour: 17, LunchStartHour: 12, LunchDurationMinutes: 30,
		EnforceBusinessHours: true,
		HolidayDays:          []int{0, 1, 2},
	}
	req.Jobs = []engine.JobRequest{{
		JobNumber: "JOB-1", Priority: domain.PriorityNormal, DueDate: scheduleStart.Add(48 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
	}}

	resp, err := engine.New(nil, nil, nil, nil).Solve(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, solver.StatusInfeasible, resp.Status)
	require.Equal(t, "no_working_days", resp.ErrorDetails["code"])
}

// TestDueDateBeforeScheduleStartIsAValidationError covers the boundary
// case enforced by pkg/constraint.Builder and passed through unchanged.
func TestDueDateBeforeScheduleStartIsAValidationError(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	req, _, op := baseRequest(t, scheduleStart)
	req.Jobs = []engine.JobRequest{{
		JobNumber: "JOB-1", Priority: domain.PriorityNormal, DueDate: scheduleStart.Add(-time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
	}}

	_, err := engine.New(nil, nil, nil, nil).Solve(context.Background(), req)
	require.Error(t, err)
	coreErr, ok := err.(*domain.CoreError)
	require.True(t, ok)
	require.Equal(t, domain.CodeValidationError, coreErr.Code)
}

// TestZeroDurationTaskIsLegal covers the boundary case of a task whose
// planned duration is zero (e.g. an inspection pass-through step).
func TestZeroDurationTaskIsLegal(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	machine, err := domain.NewMachine("INSPECT-1", domain.Unattended, 1.0)
	require.NoError(t, err)
	op, err := domain.NewOperation("INSPECT", []domain.RoutingOption{
		{MachineID: machine.ID, ProcessingTime: domain.NewDuration(0), SetupTime: domain.NewDuration(0)},
	}, nil)
	require.NoError(t, err)

	req := engine.SolveRequest{
		ScheduleStart: scheduleStart,
		HorizonDays:   2,
		Operations:    map[uuid.UUID]*domain.Operation{op.ID: op},
		Machines:      map[uuid.UUID]*domain.Machine{machine.ID: machine},
		Operators:     map[uuid.UUID]*domain.Operator{},
		Zones:         map[uuid.UUID]*domain.ProductionZone{},
		Jobs: []engine.JobRequest{{
			JobNumber: "JOB-1", Priority: domain.PriorityNormal, DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
			Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1, PlannedDuration: domain.NewDuration(0)}},
		}},
	}

	resp, err := engine.New(nil, nil, nil, nil).Solve(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Assignments, 1)
	require.Equal(t, resp.Assignments[0].Start, resp.Assignments[0].End)
}
