// Package engine exposes the core's principal SolveRequest/SolveResponse
// API (spec §6), orchestrating constraint building, hierarchical
// optimization, resource allocation, and critical-path marking behind one
// call. It is the seam a caller (CLI, a future HTTP surface) drives; the
// schedule-publishing lifecycle (pkg/schedulestate) is a separate,
// optional step layered on top of a solve's result.
package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/domain"
	"github.com/flowforge/jobshop/pkg/solver"
)

// JobRequest is one job within a SolveRequest (spec §6's
// "{job_number, priority, due_date, quantity, task_sequences[]}").
type JobRequest struct {
	JobNumber string
	Priority  domain.Priority
	DueDate   time.Time
	Quantity  int
	Tasks     []constraint.JobTaskSpec
}

// OptimizationParameters carries the hierarchical optimizer's tunable
// weights (spec §4.3). Zero-value fields take the spec's named defaults:
// primary_weight=2, makespan weight=1, cost_optimization_tolerance=0.10.
type OptimizationParameters struct {
	PrimaryWeight             float64
	MakespanWeight            float64
	CostOptimizationTolerance float64
}

func (p OptimizationParameters) withDefaults() OptimizationParameters {
	out := p
	if out.PrimaryWeight <= 0 {
		out.PrimaryWeight = 2
	}
	if out.MakespanWeight <= 0 {
		out.MakespanWeight = 1
	}
	if out.CostOptimizationTolerance <= 0 {
		out.CostOptimizationTolerance = 0.10
	}
	return out
}

// SolveRequest is the core's principal request shape (spec §6).
type SolveRequest struct {
	ProblemName       string
	ScheduleStart     time.Time
	HorizonDays       int
	MakespanIsHardCap bool

	Jobs       []JobRequest
	Operations map[uuid.UUID]*domain.Operation
	Machines   map[uuid.UUID]*domain.Machine
	Operators  map[uuid.UUID]*domain.Operator
	Zones      map[uuid.UUID]*domain.ProductionZone

	// CandidateMachineIDs/CandidateOperatorIDs, when non-empty, restrict
	// the resource pool to this subset before the model is built (spec
	// §6's "optional list of candidate machine and operator ids").
	CandidateMachineIDs  []uuid.UUID
	CandidateOperatorIDs []uuid.UUID

	BusinessConstraints    domain.BusinessConstraints
	OptimizationParameters OptimizationParameters

	// SolverConfig overrides the pattern-table default when non-zero
	// (spec §4.2: "Overrides from the caller's config win").
	SolverConfig solver.Config

	// WarmStart, when set, seeds the solve (spec §4.8/§8's warm-start
	// round-trip law). A nil WarmStart solves cold.
	WarmStart *solver.Solution
}

// TaskAssignment is one task's resolved placement (spec §6's response
// assignment shape).
type TaskAssignment struct {
	TaskID             uuid.UUID
	JobNumber          string
	OperationSequence  int
	Start              time.Time
	End                time.Time
	SetupMinutes       int64
	ProcessingMinutes  int64
	MachineID          uuid.UUID
	OperatorIDs        []uuid.UUID
	RoutingOptionIndex int
	IsCriticalPath     bool
}

// SolutionMetrics is the response's solution-quality summary (spec §6).
type SolutionMetrics struct {
	MakespanMinutes        int64
	TotalTardinessMinutes  int64
	TotalOperatorCost      float64
	MachineUtilizationPct  float64
	OperatorUtilizationPct float64
	JobsOnTime             int
	JobsLate               int
	CriticalPathJobs       []string
	SolveTimeSeconds       float64
	SolverStatus           solver.Status
	GapPct                 float64
}

// SolveResponse is the core's principal response shape (spec §6): a
// populated Assignments/Metrics pair on OPTIMAL/FEASIBLE (and, carrying
// the best incumbent, on TIMEOUT); ErrorCode/ErrorDetails on INFEASIBLE,
// on ERROR, and on a TIMEOUT that found no incumbent.
type SolveResponse struct {
	Status      solver.Status
	Assignments []TaskAssignment
	Metrics     SolutionMetrics
	ErrorCode   domain.ErrorCode
	ErrorDetails map[string]any
	FinalSolution *solver.Solution // carried so a caller can re-solve with WarmStart
}
