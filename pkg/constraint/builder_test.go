package constraint_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/domain"
)

func requireValidationError(t *testing.T, err error) {
	t.Helper()
	coreErr, ok := err.(*domain.CoreError)
	require.True(t, ok, "expected *domain.CoreError, got %T", err)
	require.Equal(t, domain.CodeValidationError, coreErr.Code)
}

func latheAndTurn(t *testing.T) (*domain.Machine, *domain.Operation) {
	t.Helper()
	machine, err := domain.NewMachine("LATHE-1", domain.Unattended, 1.0)
	require.NoError(t, err)
	op, err := domain.NewOperation("TURN", []domain.RoutingOption{
		{MachineID: machine.ID, ProcessingTime: domain.NewDuration(30), SetupTime: domain.NewDuration(5)},
	}, nil)
	require.NoError(t, err)
	return machine, op
}

func baseInput(t *testing.T, scheduleStart time.Time) (constraint.BuildInput, *domain.Machine, *domain.Operation) {
	t.Helper()
	machine, op := latheAndTurn(t)
	return constraint.BuildInput{
		ScheduleStart: scheduleStart,
		HorizonDays:   5,
		Operations:    map[uuid.UUID]*domain.Operation{op.ID: op},
		Machines:      map[uuid.UUID]*domain.Machine{machine.ID: machine},
		Operators:     map[uuid.UUID]*domain.Operator{},
		Zones:         map[uuid.UUID]*domain.ProductionZone{},
	}, machine, op
}

func TestBuildRejectsEmptyJobList(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, _, _ := baseInput(t, scheduleStart)
	in.Jobs = nil

	_, err := constraint.NewBuilder(nil).Build(in)
	require.Error(t, err)
	requireValidationError(t, err)
}

func TestBuildRejectsNonPositiveHorizon(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, _, op := baseInput(t, scheduleStart)
	in.HorizonDays = 0
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
	}}

	_, err := constraint.NewBuilder(nil).Build(in)
	require.Error(t, err)
	requireValidationError(t, err)
}

func TestBuildRejectsDueDateBeforeScheduleStart(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, _, op := baseInput(t, scheduleStart)
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-LATE", DueDate: scheduleStart.Add(-time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
	}}

	_, err := constraint.NewBuilder(nil).Build(in)
	require.Error(t, err)
	requireValidationError(t, err)
}

func TestBuildRejectsUnknownOperationReference(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, _, _ := baseInput(t, scheduleStart)
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: uuid.New(), SequenceInJob: 1}},
	}}

	_, err := constraint.NewBuilder(nil).Build(in)
	require.Error(t, err)
	requireValidationError(t, err)
}

func TestBuildRejectsOperationWithNoCandidateMachine(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, machine, op := baseInput(t, scheduleStart)
	machine.Status = domain.MachineOffline
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
	}}

	_, err := constraint.NewBuilder(nil).Build(in)
	require.Error(t, err)
	requireValidationError(t, err)
}

func TestBuildRejectsHolidayOutsideHorizon(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, _, op := baseInput(t, scheduleStart)
	in.BusinessConstraints = domain.BusinessConstraints{HolidayDays: []int{99}}
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
	}}

	_, err := constraint.NewBuilder(nil).Build(in)
	require.Error(t, err)
}

func TestBuildRejectsInvalidBusinessConstraintsWhenEnforced(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, _, op := baseInput(t, scheduleStart)
	in.BusinessConstraints = domain.BusinessConstraints{EnforceBusinessHours: true, WorkStartHour: 20, WorkEndHour: 8}
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
	}}

	_, err := constraint.NewBuilder(nil).Build(in)
	require.Error(t, err)
}

func TestBuildAcceptsZeroValueBusinessConstraintsWhenNotEnforced(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, _, op := baseInput(t, scheduleStart)
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
	}}

	model, err := constraint.NewBuilder(nil).Build(in)
	require.NoError(t, err)
	require.NotNil(t, model)
}

func TestBuildAssemblesPrecedenceEdgesInSequenceOrder(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, _, op := baseInput(t, scheduleStart)
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(72 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{
			{OperationID: op.ID, SequenceInJob: 1},
			{OperationID: op.ID, SequenceInJob: 2},
			{OperationID: op.ID, SequenceInJob: 3},
		},
	}}

	model, err := constraint.NewBuilder(nil).Build(in)
	require.NoError(t, err)
	require.Len(t, model.Tasks, 3)
	require.Len(t, model.Precedences, 2)

	byID := map[uuid.UUID]*constraint.TaskNode{}
	for _, task := range model.Tasks {
		byID[task.TaskID] = task
	}
	for _, edge := range model.Precedences {
		require.Less(t, byID[edge.From].SequenceInJob, byID[edge.To].SequenceInJob)
	}
}

func TestBuildComputesZoneBoundsFromMachineMembership(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, machine, op := baseInput(t, scheduleStart)
	zone, err := domain.NewProductionZone("ZONE-A", 2)
	require.NoError(t, err)
	machine.ProductionZoneID = &zone.ID
	in.Zones = map[uuid.UUID]*domain.ProductionZone{zone.ID: zone}
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: op.ID, SequenceInJob: 1}},
	}}

	model, err := constraint.NewBuilder(nil).Build(in)
	require.NoError(t, err)
	require.Len(t, model.ZoneBounds, 1)
	require.Equal(t, zone.ID, model.ZoneBounds[0].ZoneID)
	require.Equal(t, 2, model.ZoneBounds[0].Limit)
	require.Contains(t, model.ZoneBounds[0].MachineIDs, machine.ID)
}

func TestBuildOnlyAssignsEligibleOperatorsToAttendedCandidates(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, _, op := baseInput(t, scheduleStart)

	shift, err := domain.NewRelativeWindow(480, 960)
	require.NoError(t, err)
	lunch, err := domain.NewRelativeWindow(720, 750)
	require.NoError(t, err)
	skilled, err := domain.NewOperator("Skilled Sam", domain.SkillSet{"press-operation": domain.SkillLevelExpert}, shift, lunch, 28.50)
	require.NoError(t, err)
	unskilled, err := domain.NewOperator("New Hire Nia", domain.SkillSet{}, shift, lunch, 18.00)
	require.NoError(t, err)
	in.Operators = map[uuid.UUID]*domain.Operator{skilled.ID: skilled, unskilled.ID: unskilled}

	press, err := domain.NewMachine("PRESS-1", domain.Attended, 1.0)
	require.NoError(t, err)
	in.Machines[press.ID] = press

	attendedOp, err := domain.NewOperation("PRESS", []domain.RoutingOption{
		{MachineID: press.ID, ProcessingTime: domain.NewDuration(30), SetupTime: domain.NewDuration(5)},
		op.RoutingOptions[0],
	}, []domain.SkillRequirement{
		{SkillCode: "press-operation", MinimumLevel: domain.SkillLevelExpert},
	})
	require.NoError(t, err)
	in.Operations[attendedOp.ID] = attendedOp

	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{{OperationID: attendedOp.ID, SequenceInJob: 1}},
	}}

	model, err := constraint.NewBuilder(nil).Build(in)
	require.NoError(t, err)
	require.Len(t, model.Tasks, 1)
	require.Len(t, model.Tasks[0].Candidates, 2)

	for _, c := range model.Tasks[0].Candidates {
		if c.MachineID == press.ID {
			require.True(t, c.Attended)
			require.Equal(t, []uuid.UUID{skilled.ID}, c.EligibleOperators)
		} else {
			require.False(t, c.Attended)
			require.Empty(t, c.EligibleOperators)
		}
	}
}

func TestBuildEnforcesRequiresSameMachineAsSetup(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, machine, op := baseInput(t, scheduleStart)
	other, err := domain.NewMachine("LATHE-2", domain.Unattended, 1.0)
	require.NoError(t, err)
	in.Machines[other.ID] = other

	productionSeq := 1
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{
			{OperationID: op.ID, SequenceInJob: 1},
			{OperationID: op.ID, SequenceInJob: 2, RequiresSameMachineAsSetup: true, SetupForSequence: &productionSeq},
		},
	}}

	model, err := constraint.NewBuilder(nil).Build(in)
	require.NoError(t, err)
	require.Len(t, model.Tasks, 2)
	for _, task := range model.Tasks {
		require.Len(t, task.Candidates, 1)
		require.Equal(t, machine.ID, task.Candidates[0].MachineID)
	}
}

func TestBuildRejectsRequiresSameMachineAsSetupWithNoCommonMachine(t *testing.T) {
	scheduleStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	in, _, op := baseInput(t, scheduleStart)
	other, err := domain.NewMachine("LATHE-2", domain.Unattended, 1.0)
	require.NoError(t, err)
	in.Machines[other.ID] = other
	onlyOther, err := domain.NewOperation("TURN-2", []domain.RoutingOption{
		{MachineID: other.ID, ProcessingTime: domain.NewDuration(30), SetupTime: domain.NewDuration(5)},
	}, nil)
	require.NoError(t, err)
	in.Operations[onlyOther.ID] = onlyOther

	productionSeq := 1
	in.Jobs = []constraint.JobSpec{{
		JobNumber: "JOB-1", DueDate: scheduleStart.Add(24 * time.Hour), Quantity: 1,
		Tasks: []constraint.JobTaskSpec{
			{OperationID: op.ID, SequenceInJob: 1},
			{OperationID: onlyOther.ID, SequenceInJob: 2, RequiresSameMachineAsSetup: true, SetupForSequence: &productionSeq},
		},
	}}

	_, err = constraint.NewBuilder(nil).Build(in)
	require.Error(t, err)
	requireValidationError(t, err)
}
