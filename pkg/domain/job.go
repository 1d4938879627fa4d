package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Job is a customer work order: a named, prioritized, due-dated unit of
// production work composed of an ordered sequence of Tasks.
type Job struct {
	ID          uuid.UUID
	JobNumber   string
	Priority    Priority
	DueDate     time.Time
	ReleaseDate time.Time
	Status      JobStatus
	Quantity    int
	Customer    string

	tasks []*Task
}

// NewJob constructs a Job in PLANNED status. Quantity must be >= 1.
func NewJob(jobNumber string, priority Priority, releaseDate, dueDate time.Time, quantity int) (*Job, error) {
	if jobNumber == "" {
		return nil, NewValidationError("job_number", "job number must not be empty")
	}
	if quantity < 1 {
		return nil, NewValidationError("quantity", "quantity must be >= 1")
	}
	if !priority.IsValid() {
		return nil, NewValidationError("priority", "unknown priority")
	}
	return &Job{
		ID:          uuid.New(),
		JobNumber:   jobNumber,
		Priority:    priority,
		DueDate:     dueDate,
		ReleaseDate: releaseDate,
		Status:      JobPlanned,
		Quantity:    quantity,
	}, nil
}

// AddTask appends a task to the job, enforcing uniqueness of
// sequence-in-job across the job's tasks.
func (j *Job) AddTask(t *Task) error {
	for _, existing := range j.tasks {
		if existing.SequenceInJob == t.SequenceInJob {
			return NewValidationError("sequence_in_job", "task sequence must be unique within a job")
		}
	}
	t.JobID = j.ID
	j.tasks = append(j.tasks, t)
	sort.Slice(j.tasks, func(a, b int) bool { return j.tasks[a].SequenceInJob < j.tasks[b].SequenceInJob })
	return nil
}

// Tasks returns the job's tasks ordered by SequenceInJob.
func (j *Job) Tasks() []*Task {
	out := make([]*Task, len(j.tasks))
	copy(out, j.tasks)
	return out
}

// TransitionTo moves the job to next if the lifecycle table allows it.
func (j *Job) TransitionTo(next JobStatus) error {
	if !j.Status.CanTransitionTo(next) {
		return NewBusinessRuleViolation("illegal job status transition", map[string]any{
			"from": string(j.Status), "to": string(next), "job_number": j.JobNumber,
		})
	}
	j.Status = next
	return nil
}

// AllTasksCompleted reports whether every task owned by the job is
// COMPLETED. A job with no tasks is vacuously not complete.
func (j *Job) AllTasksCompleted() bool {
	if len(j.tasks) == 0 {
		return false
	}
	for _, t := range j.tasks {
		if t.Status != TaskCompleted {
			return false
		}
	}
	return true
}

// IsLate reports whether asOf is past the job's due date and the job has
// not completed.
func (j *Job) IsLate(asOf time.Time) bool {
	return j.Status != JobCompleted && asOf.After(j.DueDate)
}

// ValidateSetupMachineLinkage enforces every task's RequiresSameMachineAsSetup:
// once both a task and the production task it sets up for have an assigned
// machine, those machines must match. Tasks without an assignment yet are
// not checked, since the solver has not bound them.
func (j *Job) ValidateSetupMachineLinkage() error {
	bySequence := make(map[int]*Task, len(j.tasks))
	for _, t := range j.tasks {
		bySequence[t.SequenceInJob] = t
	}
	for _, t := range j.tasks {
		if !t.RequiresSameMachineAsSetup || t.SetupForSequence == nil {
			continue
		}
		production, ok := bySequence[*t.SetupForSequence]
		if !ok {
			return NewBusinessRuleViolation("setup task references unknown production sequence", map[string]any{
				"job_number": j.JobNumber, "sequence_in_job": t.SequenceInJob,
			})
		}
		if t.AssignedMachineID == nil || production.AssignedMachineID == nil {
			continue
		}
		if *t.AssignedMachineID != *production.AssignedMachineID {
			return NewBusinessRuleViolation("setup task assigned to a different machine than its production task", map[string]any{
				"job_number": j.JobNumber, "sequence_in_job": t.SequenceInJob, "production_sequence": *t.SetupForSequence,
			})
		}
	}
	return nil
}
