package criticalpath

import "github.com/google/uuid"

// TaskTiming is one task's forward/backward-pass result.
type TaskTiming struct {
	EarlyStart  int64
	EarlyFinish int64
	LateStart   int64
	LateFinish  int64
	TotalFloat  int64
}

// IsCritical reports whether the task carries zero total float.
func (t TaskTiming) IsCritical() bool { return t.TotalFloat == 0 }

// Report is the complete critical-path analysis of one solved schedule.
type Report struct {
	Timings map[uuid.UUID]TaskTiming

	// CriticalTasks is every zero-float task, sorted by earliest start.
	// This is what marks a ScheduleAssignment.IsCriticalPath (spec §8
	// testable property 8 names the full critical set, not one chain).
	CriticalTasks []uuid.UUID

	// CriticalPath is the single connected chain from a no-predecessor
	// critical task to a no-successor critical task, following only
	// critical edges (spec §4.4 step 6). When more than one such chain
	// exists, the earliest-starting one wins; ties are broken by the
	// lowest sum of task indices along the chain. Nil when no task is
	// critical.
	CriticalPath []uuid.UUID

	Makespan int64
}
