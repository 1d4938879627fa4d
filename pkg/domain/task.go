package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperatorAssignment records one operator's coverage of a scheduled task.
type OperatorAssignment struct {
	OperatorID uuid.UUID
	Coverage   OperatorCoverageMode
	// Window is only meaningful when Coverage == CoveragePartial; it is a
	// sub-interval of the task's own window.
	Window TimeWindow
}

// Task is a single step of a Job, bound to one catalogue Operation.
type Task struct {
	ID              uuid.UUID
	JobID           uuid.UUID
	OperationID     uuid.UUID
	SequenceInJob   int
	PlannedDuration Duration
	SetupDuration   Duration
	Status          TaskStatus

	PlannedStart *time.Time
	PlannedEnd   *time.Time
	ActualStart  *time.Time
	ActualEnd    *time.Time

	AssignedMachineID *uuid.UUID
	OperatorAssignments []OperatorAssignment

	IsCriticalPath bool

	// RequiresSameMachineAsSetup resolves the spec's open question about
	// setup_for_task_id back-references: when true, a setup task must run
	// on the same machine as its production task. Defaults to false
	// (separation permitted), matching the source model's permissiveness.
	RequiresSameMachineAsSetup bool
	// SetupForSequence names the SequenceInJob of the production task this
	// task is the dedicated setup step for. Only meaningful together with
	// RequiresSameMachineAsSetup; nil for tasks with no such linkage.
	SetupForSequence *int
}

// NewTask constructs a PENDING task for the given operation.
func NewTask(operationID uuid.UUID, sequenceInJob int, plannedDuration, setupDuration Duration) (*Task, error) {
	if sequenceInJob < 0 {
		return nil, NewValidationError("sequence_in_job", "sequence must be nonnegative")
	}
	return &Task{
		ID:              uuid.New(),
		OperationID:     operationID,
		SequenceInJob:   sequenceInJob,
		PlannedDuration: plannedDuration,
		SetupDuration:   setupDuration,
		Status:          TaskPending,
	}, nil
}

// TransitionTo moves the task to next if the lifecycle table allows it.
func (t *Task) TransitionTo(next TaskStatus) error {
	if !t.Status.CanTransitionTo(next) {
		return NewBusinessRuleViolation("illegal task status transition", map[string]any{
			"from": string(t.Status), "to": string(next), "task_id": t.ID.String(),
		})
	}
	t.Status = next
	return nil
}

// ApplySchedule installs the planned interval and machine chosen by the
// solver, enforcing planned_end = planned_start + setup + processing.
func (t *Task) ApplySchedule(start time.Time, machineID uuid.UUID, operators []OperatorAssignment) {
	total := t.SetupDuration.Add(t.PlannedDuration)
	end := start.Add(time.Duration(total.Minutes()) * time.Minute)
	t.PlannedStart = &start
	t.PlannedEnd = &end
	t.AssignedMachineID = &machineID
	t.OperatorAssignments = operators
}

// Delay returns max(0, actual_start - planned_start) as a Duration, or
// zero if either instant is unset.
func (t *Task) Delay() Duration {
	if t.ActualStart == nil || t.PlannedStart == nil {
		return ZeroDuration
	}
	diff := t.ActualStart.Sub(*t.PlannedStart).Minutes()
	if diff < 0 {
		return ZeroDuration
	}
	return NewDuration(int64(diff))
}

// TotalDuration is the setup plus processing duration.
func (t *Task) TotalDuration() Duration {
	return t.SetupDuration.Add(t.PlannedDuration)
}
