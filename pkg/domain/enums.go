package domain

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobPlanned    JobStatus = "PLANNED"
	JobReleased   JobStatus = "RELEASED"
	JobInProgress JobStatus = "IN_PROGRESS"
	JobCompleted  JobStatus = "COMPLETED"
	JobOnHold     JobStatus = "ON_HOLD"
	JobCancelled  JobStatus = "CANCELLED"
)

var jobTransitions = map[JobStatus][]JobStatus{
	JobPlanned:    {JobReleased, JobOnHold, JobCancelled},
	JobReleased:   {JobInProgress, JobOnHold, JobCancelled},
	JobInProgress: {JobCompleted, JobOnHold, JobCancelled},
	JobOnHold:     {JobPlanned, JobReleased, JobInProgress, JobCancelled},
	JobCompleted:  {},
	JobCancelled:  {},
}

// CanTransitionTo reports whether moving from s to next is a legal Job
// lifecycle transition.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskReady      TaskStatus = "READY"
	TaskScheduled  TaskStatus = "SCHEDULED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskReady, TaskCancelled},
	TaskReady:      {TaskScheduled, TaskCancelled},
	TaskScheduled:  {TaskInProgress, TaskReady, TaskCancelled},
	TaskInProgress: {TaskCompleted, TaskCancelled},
	TaskCompleted:  {},
	TaskCancelled:  {},
}

// CanTransitionTo reports whether moving from s to next is a legal Task
// lifecycle transition.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ScheduleStatus is the lifecycle state of a Schedule.
type ScheduleStatus string

const (
	ScheduleDraft     ScheduleStatus = "DRAFT"
	ScheduleOptimizing ScheduleStatus = "OPTIMIZING"
	SchedulePublished ScheduleStatus = "PUBLISHED"
	ScheduleActive    ScheduleStatus = "ACTIVE"
	ScheduleCompleted ScheduleStatus = "COMPLETED"
	ScheduleArchived  ScheduleStatus = "ARCHIVED"
)

var scheduleTransitions = map[ScheduleStatus][]ScheduleStatus{
	ScheduleDraft:      {ScheduleOptimizing, ScheduleArchived},
	ScheduleOptimizing: {ScheduleDraft, ScheduleArchived},
	SchedulePublished:  {ScheduleActive, ScheduleArchived},
	ScheduleActive:     {ScheduleCompleted, ScheduleArchived},
	ScheduleCompleted:  {ScheduleArchived},
	ScheduleArchived:   {},
}

// CanTransitionTo reports whether moving from s to next is a legal
// Schedule lifecycle transition. Publishing (Draft -> Published) is
// modeled separately in pkg/schedulestate because it carries additional
// preconditions beyond a bare state-table lookup.
func (s ScheduleStatus) CanTransitionTo(next ScheduleStatus) bool {
	if s == ScheduleDraft && next == SchedulePublished {
		return true
	}
	for _, allowed := range scheduleTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// MachineStatus is the operational state of a Machine.
type MachineStatus string

const (
	MachineAvailable  MachineStatus = "AVAILABLE"
	MachineBusy       MachineStatus = "BUSY"
	MachineMaintenance MachineStatus = "MAINTENANCE"
	MachineOffline    MachineStatus = "OFFLINE"
)

var machineTransitions = map[MachineStatus][]MachineStatus{
	MachineAvailable:   {MachineBusy, MachineMaintenance, MachineOffline},
	MachineBusy:        {MachineAvailable, MachineMaintenance, MachineOffline},
	MachineMaintenance: {MachineAvailable, MachineOffline},
	MachineOffline:     {MachineAvailable, MachineMaintenance},
}

// CanTransitionTo reports whether moving from s to next is a legal
// Machine status transition.
func (s MachineStatus) CanTransitionTo(next MachineStatus) bool {
	for _, allowed := range machineTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AutomationLevel distinguishes machines that require continuous operator
// presence from those that do not.
type AutomationLevel string

const (
	Attended   AutomationLevel = "ATTENDED"
	Unattended AutomationLevel = "UNATTENDED"
)

// OperatorCoverageMode describes how much of a task's interval an
// assigned operator must cover.
type OperatorCoverageMode string

const (
	CoverageFullDuration OperatorCoverageMode = "FULL_DURATION"
	CoverageSetupOnly    OperatorCoverageMode = "SETUP_ONLY"
	CoveragePartial      OperatorCoverageMode = "PARTIAL"
)
