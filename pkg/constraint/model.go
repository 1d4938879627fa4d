// Package constraint translates a SolveRequest into the model consumed
// by pkg/solver: interval descriptors per task, precedence edges,
// machine/operator eligibility, skill literals, business-hour masks,
// due-date literals, WIP-zone bounds, and a horizon bound (spec §4.1).
//
// The example corpus carries no CP-SAT/OR-Tools Go binding, so the model
// here is a plain Go description of the problem rather than a solver's
// native variable set; pkg/solver consumes it with a constructive +
// local-search engine (see pkg/solver's package doc for the
// stdlib-justification).
package constraint

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/domain"
)

// CandidateInterval is one (task, machine) optional-interval variant: the
// task may bind to this machine, in which case its size is
// setup(t,m) + processing(t,m)/efficiency(m), rounded up to whole
// minutes.
type CandidateInterval struct {
	MachineID          uuid.UUID
	RoutingOptionIndex int
	SetupMinutes       int64
	ProcessingMinutes  int64 // already efficiency-adjusted and rounded up

	// Attended mirrors this candidate's machine's automation level: two
	// candidates of the same task can disagree, since a task's routing
	// options may point at machines of different automation levels
	// (spec §3's Machine.automation_level is machine-keyed, not
	// task-keyed).
	Attended bool
	// EligibleOperators are the operators satisfying both the task's
	// operation-level required skills and this candidate's machine's own
	// required operator skills. Only populated when Attended is true;
	// an unattended candidate needs no continuous operator coverage.
	EligibleOperators []uuid.UUID
}

// SizeMinutes is the total optional-interval size for this candidate.
func (c CandidateInterval) SizeMinutes() int64 { return c.SetupMinutes + c.ProcessingMinutes }

// TaskNode is the model's per-task record: its candidate machine
// intervals, operator eligibility, and skill requirements.
type TaskNode struct {
	TaskID            uuid.UUID
	JobID             uuid.UUID
	JobNumber         string
	OperationID       uuid.UUID
	SequenceInJob     int
	RequiredOperators int
	RequiredSkills    []domain.SkillRequirement
	Candidates        []CandidateInterval
}

// IsOperatorStarved reports whether this task can never be operator-
// covered: it requires operators, every candidate routes to an attended
// machine, and none of those attended candidates has an eligible
// operator. A task with at least one unattended candidate is never
// starved, since it can route around the operator shortage entirely.
func (t *TaskNode) IsOperatorStarved() bool {
	if t.RequiredOperators == 0 {
		return false
	}
	sawAttended := false
	for _, c := range t.Candidates {
		if !c.Attended {
			return false
		}
		sawAttended = true
		if len(c.EligibleOperators) > 0 {
			return false
		}
	}
	return sawAttended
}

// PrecedenceEdge asserts end(From) <= start(To).
type PrecedenceEdge struct {
	From uuid.UUID
	To   uuid.UUID
}

// ZoneBound is the WIP cap for tasks routed to machines in a zone.
type ZoneBound struct {
	ZoneID    uuid.UUID
	Limit     int
	MachineIDs []uuid.UUID
}

// JobDueDate carries a job's tardiness reference point and dispatch
// priority.
type JobDueDate struct {
	JobID         uuid.UUID
	JobNumber     string
	DueMinutes    int64 // minutes from schedule start
	PriorityWeight int
}

// Model is the complete constraint-programming-style problem description
// produced by Builder.Build.
type Model struct {
	ScheduleStart   time.Time
	HorizonMinutes  int64
	MakespanIsHardCap bool

	Tasks       []*TaskNode
	Precedences []PrecedenceEdge
	ZoneBounds  []ZoneBound
	DueDates    []JobDueDate

	BusinessConstraints domain.BusinessConstraints

	Operators map[uuid.UUID]*domain.Operator
	Machines  map[uuid.UUID]*domain.Machine

	// NumVariables/NumConstraints approximate problem size for C5's
	// pattern-table lookup and C11's profiling; counted, not estimated.
	NumVariables   int
	NumConstraints int
}

// HasPrecedence reports whether the model carries any precedence edges.
func (m *Model) HasPrecedence() bool { return len(m.Precedences) > 0 }

// HasResources reports whether the model carries machine or operator
// eligibility constraints (always true for a nonempty model, kept
// explicit for the C5 pattern-table key).
func (m *Model) HasResources() bool { return len(m.Machines) > 0 || len(m.Operators) > 0 }

// HasTimeWindows reports whether business hours are enforced.
func (m *Model) HasTimeWindows() bool { return m.BusinessConstraints.EnforceBusinessHours }

// PriorityWeightFor returns the dispatch priority weight of jobNumber, or
// 1 if the job is unknown.
func (m *Model) PriorityWeightFor(jobNumber string) int {
	for _, dd := range m.DueDates {
		if dd.JobNumber == jobNumber {
			return dd.PriorityWeight
		}
	}
	return 1
}

// DueDateFor returns the due-minute reference for jobNumber and whether
// it was found.
func (m *Model) DueDateFor(jobNumber string) (int64, bool) {
	for _, dd := range m.DueDates {
		if dd.JobNumber == jobNumber {
			return dd.DueMinutes, true
		}
	}
	return 0, false
}

// TaskByID finds a task node by id.
func (m *Model) TaskByID(id uuid.UUID) *TaskNode {
	for _, t := range m.Tasks {
		if t.TaskID == id {
			return t
		}
	}
	return nil
}
