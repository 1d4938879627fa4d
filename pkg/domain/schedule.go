package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScheduleAssignment is the solver's concrete placement of one task on a
// machine (and, for attended tasks, a set of operators).
type ScheduleAssignment struct {
	TaskID              uuid.UUID
	MachineID           uuid.UUID
	OperatorIDs         []uuid.UUID
	StartInstant        time.Time
	EndInstant          time.Time
	SetupDuration       Duration
	ProcessingDuration  Duration
	IsCriticalPath      bool
	RoutingOptionIndex  int
}

// Duration returns end-start as reported by the assignment, which must
// equal SetupDuration+ProcessingDuration (spec invariant 7).
func (a ScheduleAssignment) Duration() Duration {
	return NewDuration(int64(a.EndInstant.Sub(a.StartInstant).Minutes()))
}

// Schedule is the aggregate root owning a version's full set of task
// assignments over a planning horizon.
type Schedule struct {
	ID              uuid.UUID
	Name            string
	Version         int
	Status          ScheduleStatus
	PlanningHorizon TimeWindow
	JobIDs          []uuid.UUID

	assignments map[uuid.UUID]ScheduleAssignment

	Makespan    Duration
	TotalCost   float64
	ActivatedAt *time.Time
	CreatedBy   string

	mu                sync.Mutex
	hasPendingConflict bool
}

// Lock serializes state transitions on this schedule aggregate (spec
// §5's ordering rule: transitions on one schedule are serialized by a
// mutex it owns).
func (s *Schedule) Lock() { s.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (s *Schedule) Unlock() { s.mu.Unlock() }

// MarkResourceConflictPending records that a ResourceConflictDetected
// event is outstanding against this schedule, blocking publish until
// cleared.
func (s *Schedule) MarkResourceConflictPending() { s.hasPendingConflict = true }

// ClearResourceConflictPending resolves any outstanding resource conflict.
func (s *Schedule) ClearResourceConflictPending() { s.hasPendingConflict = false }

// HasPendingResourceConflict reports whether publish is currently
// blocked by an unresolved resource conflict.
func (s *Schedule) HasPendingResourceConflict() bool { return s.hasPendingConflict }

// NewSchedule constructs a DRAFT schedule over the given horizon and job
// set. version starts at 1 and increments monotonically on each
// installed solution (resolving the spec's Open Question on schedule
// versioning: one monotonic counter per schedule, bumped by
// InstallAssignments).
func NewSchedule(name string, horizon TimeWindow, jobIDs []uuid.UUID, createdBy string) (*Schedule, error) {
	if horizon.Kind() != AbsoluteWindow {
		return nil, NewValidationError("planning_horizon", "schedule horizon must be an absolute window")
	}
	return &Schedule{
		ID:              uuid.New(),
		Name:            name,
		Version:         1,
		Status:          ScheduleDraft,
		PlanningHorizon: horizon,
		JobIDs:          append([]uuid.UUID(nil), jobIDs...),
		assignments:     map[uuid.UUID]ScheduleAssignment{},
		CreatedBy:       createdBy,
	}, nil
}

// Assignments returns a copy of the schedule's task_id -> assignment map.
func (s *Schedule) Assignments() map[uuid.UUID]ScheduleAssignment {
	out := make(map[uuid.UUID]ScheduleAssignment, len(s.assignments))
	for k, v := range s.assignments {
		out[k] = v
	}
	return out
}

// AssignmentFor returns the assignment for a task, if any.
func (s *Schedule) AssignmentFor(taskID uuid.UUID) (ScheduleAssignment, bool) {
	a, ok := s.assignments[taskID]
	return a, ok
}

// InstallAssignments replaces the schedule's assignment map, recomputes
// the cached makespan, and bumps the version. Schedule exclusively owns
// its assignment map; jobs are referenced by id only.
func (s *Schedule) InstallAssignments(assignments map[uuid.UUID]ScheduleAssignment, totalCost float64) {
	s.assignments = make(map[uuid.UUID]ScheduleAssignment, len(assignments))
	var makespan time.Time
	first := true
	for id, a := range assignments {
		s.assignments[id] = a
		if first || a.EndInstant.After(makespan) {
			makespan = a.EndInstant
			first = false
		}
	}
	if !first {
		s.Makespan = NewDuration(int64(makespan.Sub(s.PlanningHorizon.Start()).Minutes()))
	}
	s.TotalCost = totalCost
	s.Version++
}

// AssignmentCount reports how many tasks currently have an assignment.
func (s *Schedule) AssignmentCount() int { return len(s.assignments) }
