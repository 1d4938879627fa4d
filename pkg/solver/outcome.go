package solver

import (
	"time"

	"github.com/google/uuid"
)

// Status is the solver's terminal verdict (spec §4.2).
type Status string

const (
	StatusOptimal     Status = "OPTIMAL"
	StatusFeasible    Status = "FEASIBLE"
	StatusInfeasible  Status = "INFEASIBLE"
	StatusTimeout     Status = "TIMEOUT"
	StatusError       Status = "ERROR"
)

// TaskPlacement is one task's chosen candidate interval and operator set
// in a Solution.
type TaskPlacement struct {
	TaskID             uuid.UUID
	MachineID          uuid.UUID
	RoutingOptionIndex int
	OperatorIDs        []uuid.UUID
	StartMinute        int64 // minutes from schedule start
	SetupMinutes       int64
	ProcessingMinutes  int64
}

// EndMinute is the placement's end offset.
func (p TaskPlacement) EndMinute() int64 { return p.StartMinute + p.SetupMinutes + p.ProcessingMinutes }

// Solution is the solver's variable assignment: one placement per task
// that was successfully scheduled.
type Solution struct {
	Placements map[uuid.UUID]TaskPlacement
	Objective  float64
}

// Statistics accompanies every SolveOutcome (spec §4.2).
type Statistics struct {
	WallTime      time.Duration
	UserTime      time.Duration
	Branches      int64
	Conflicts     int64
	SolutionsFound int
	Gap           float64
	BestBound     float64
}

// ErrorKind distinguishes ERROR outcomes.
type ErrorKind string

const (
	ErrorKindNone     ErrorKind = ""
	ErrorKindInternal ErrorKind = "internal"
	ErrorKindCanceled ErrorKind = "canceled"
)

// Outcome is the solver's terminal result.
type Outcome struct {
	Status     Status
	Solution   *Solution // set for OPTIMAL/FEASIBLE, and for TIMEOUT when an incumbent exists
	Statistics Statistics
	ErrorKind  ErrorKind
	ErrorDetail string
}

// ProgressUpdate is delivered to Callback on every improving solution
// (spec §4.2).
type ProgressUpdate struct {
	ObjectiveValue   float64
	BestBound        float64
	SolutionsFound   int
	WallTimeSeconds  float64
	Branches         int64
	Conflicts        int64
}

// Signal is returned by a Callback to request early termination; the
// solver finalizes at the next cooperative check point (spec §4.2).
type Signal int

const (
	SignalContinue Signal = iota
	SignalStop
)

// Callback is invoked on every improving solution found during search.
type Callback func(ProgressUpdate) Signal
