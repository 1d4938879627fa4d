package optimizer_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/domain"
	"github.com/flowforge/jobshop/pkg/optimizer"
	"github.com/flowforge/jobshop/pkg/solver"
)

func buildModel(t *testing.T) *constraint.Model {
	t.Helper()
	machineA, err := domain.NewMachine("LATHE-1", domain.Unattended, 1.0)
	require.NoError(t, err)

	op, err := domain.NewOperation("TURNING", []domain.RoutingOption{
		{MachineID: machineA.ID, ProcessingTime: domain.NewDuration(45), SetupTime: domain.NewDuration(5)},
	}, nil)
	require.NoError(t, err)

	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	model, err := constraint.NewBuilder(nil).Build(constraint.BuildInput{
		ScheduleStart: scheduleStart,
		HorizonDays:   3,
		Jobs: []constraint.JobSpec{
			{
				JobNumber: "JOB-A",
				Priority:  domain.PriorityHigh,
				DueDate:   scheduleStart.Add(24 * time.Hour),
				Quantity:  1,
				Tasks:     []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
			},
		},
		Operations: map[uuid.UUID]*domain.Operation{op.ID: op},
		Machines:   map[uuid.UUID]*domain.Machine{machineA.ID: machineA},
		Operators:  map[uuid.UUID]*domain.Operator{},
		Zones:      map[uuid.UUID]*domain.ProductionZone{},
	})
	require.NoError(t, err)
	return model
}

func TestOptimizeRunsAllThreePhasesAndReturnsFinalSolution(t *testing.T) {
	model := buildModel(t)
	cfg := solver.Config{
		MaxTimeSeconds: 30, NumSearchWorkers: 2, SearchBranching: solver.BranchingAutomatic,
		UseLNS: true, LNSFocus: solver.LNSImprovement, LinearizationLevel: 1, ProbingLevel: 1, SymmetryLevel: 1,
		UseWarmStart: true,
	}
	req := optimizer.Request{TardinessWeight: 10, MakespanWeight: 1, PrimaryTolerance: 0.1}

	result, err := optimizer.New(nil).Optimize(context.Background(), model, req, cfg, nil, nil)

	require.NoError(t, err)
	require.True(t, result.Feasible)
	require.Len(t, result.Phases, 3)
	require.Equal(t, "feasibility", result.Phases[0].Name)
	require.Equal(t, "primary", result.Phases[1].Name)
	require.Equal(t, "secondary", result.Phases[2].Name)
	require.NotNil(t, result.FinalSolution)
	require.Len(t, result.FinalSolution.Placements, len(model.Tasks))
}
