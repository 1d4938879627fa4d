package solver_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/domain"
	"github.com/flowforge/jobshop/pkg/solver"
)

func buildTwoMachineModel(t *testing.T) (*constraint.Model, uuid.UUID, uuid.UUID) {
	t.Helper()

	machineA, err := domain.NewMachine("MILL-1", domain.Unattended, 1.0)
	require.NoError(t, err)
	machineB, err := domain.NewMachine("MILL-2", domain.Unattended, 1.0)
	require.NoError(t, err)

	op, err := domain.NewOperation("MILLING", []domain.RoutingOption{
		{MachineID: machineA.ID, ProcessingTime: domain.NewDuration(60), SetupTime: domain.NewDuration(10)},
		{MachineID: machineB.ID, ProcessingTime: domain.NewDuration(90), SetupTime: domain.NewDuration(5)},
	}, nil)
	require.NoError(t, err)

	bc := domain.BusinessConstraints{
		WorkStartHour: 8, WorkEndHour: 17, LunchStartHour: 12, LunchDurationMinutes: 30,
		EnforceBusinessHours: false,
	}

	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in := constraint.BuildInput{
		ScheduleStart:     scheduleStart,
		HorizonDays:       5,
		MakespanIsHardCap: false,
		Jobs: []constraint.JobSpec{
			{
				JobNumber: "JOB-1",
				Priority:  domain.PriorityUrgent,
				DueDate:   scheduleStart.Add(48 * time.Hour),
				Quantity:  1,
				Tasks: []constraint.JobTaskSpec{
					{OperationID: op.ID, SequenceInJob: 1},
				},
			},
			{
				JobNumber: "JOB-2",
				Priority:  domain.PriorityLow,
				DueDate:   scheduleStart.Add(72 * time.Hour),
				Quantity:  1,
				Tasks: []constraint.JobTaskSpec{
					{OperationID: op.ID, SequenceInJob: 1},
				},
			},
		},
		Operations:          map[uuid.UUID]*domain.Operation{op.ID: op},
		Machines:            map[uuid.UUID]*domain.Machine{machineA.ID: machineA, machineB.ID: machineB},
		Operators:           map[uuid.UUID]*domain.Operator{},
		Zones:               map[uuid.UUID]*domain.ProductionZone{},
		BusinessConstraints: bc,
	}

	model, err := constraint.NewBuilder(nil).Build(in)
	require.NoError(t, err)
	return model, machineA.ID, machineB.ID
}

func TestDriverSolveFeasibilityPlacesEveryTask(t *testing.T) {
	model, _, _ := buildTwoMachineModel(t)

	outcome := solver.NewDriver().Solve(context.Background(), model, solver.ObjectiveSpec{Kind: solver.ObjectiveFeasibility}, solver.Config{}, nil, nil)

	require.Equal(t, solver.StatusOptimal, outcome.Status)
	require.NotNil(t, outcome.Solution)
	require.Len(t, outcome.Solution.Placements, len(model.Tasks))
}

func TestDriverSolveTardinessMakespanFindsNonOverlappingPlacements(t *testing.T) {
	model, _, _ := buildTwoMachineModel(t)

	cfg := solver.Config{
		MaxTimeSeconds: 10, NumSearchWorkers: 2, SearchBranching: solver.BranchingAutomatic,
		UseLNS: true, LNSFocus: solver.LNSImprovement, LinearizationLevel: 1, ProbingLevel: 1,
		SymmetryLevel: 1, UseWarmStart: false,
	}
	objective := solver.ObjectiveSpec{Kind: solver.ObjectiveTardinessMakespan, TardinessWeight: 10, MakespanWeight: 1}

	outcome := solver.NewDriver().Solve(context.Background(), model, objective, cfg, nil, nil)

	require.Contains(t, []solver.Status{solver.StatusFeasible, solver.StatusOptimal, solver.StatusTimeout}, outcome.Status)
	require.NotNil(t, outcome.Solution)
	require.Len(t, outcome.Solution.Placements, len(model.Tasks))

	byMachine := map[uuid.UUID][]solver.TaskPlacement{}
	for _, p := range outcome.Solution.Placements {
		byMachine[p.MachineID] = append(byMachine[p.MachineID], p)
	}
	for _, placements := range byMachine {
		for i := 0; i < len(placements); i++ {
			for j := i + 1; j < len(placements); j++ {
				a, b := placements[i], placements[j]
				overlap := a.StartMinute < b.EndMinute() && b.StartMinute < a.EndMinute()
				require.False(t, overlap, "machine double-booked: %+v / %+v", a, b)
			}
		}
	}
}

func TestDriverSolveRespectsContextCancellation(t *testing.T) {
	model, _, _ := buildTwoMachineModel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := solver.Config{
		MaxTimeSeconds: 10, NumSearchWorkers: 1, SearchBranching: solver.BranchingAutomatic,
		UseLNS: true, LNSFocus: solver.LNSQuickRestart, LinearizationLevel: 1, ProbingLevel: 1, SymmetryLevel: 1,
	}
	objective := solver.ObjectiveSpec{Kind: solver.ObjectiveTardinessMakespan, TardinessWeight: 1, MakespanWeight: 1}

	outcome := solver.NewDriver().Solve(ctx, model, objective, cfg, nil, nil)

	require.NotNil(t, outcome.Solution)
	require.Len(t, outcome.Solution.Placements, len(model.Tasks))
}

func TestConfigValidateRejectsOutOfRangeFields(t *testing.T) {
	cfg := solver.Config{MaxTimeSeconds: 5}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestDefaultConfigForSmallPatternDisablesLNS(t *testing.T) {
	cfg := solver.DefaultConfigFor(solver.PatternKey{Bucket: solver.SizeSmall})
	require.False(t, cfg.UseLNS)
	require.NoError(t, cfg.Validate())
}
