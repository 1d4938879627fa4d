// Package schedulestate implements the schedule aggregate's lifecycle
// (spec §4.7): create_schedule, begin_optimization, complete_optimization,
// publish, activate, and cancel. Each operation is atomic with respect to
// its emitted events and serialized per-schedule by the aggregate's own
// mutex (spec §5).
package schedulestate

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/domain"
	"github.com/flowforge/jobshop/pkg/events"
	"github.com/flowforge/jobshop/pkg/repository"
)

// Manager executes schedule lifecycle operations against a
// ScheduleRepository and JobRepository, publishing every resulting
// domain event to a shared Bus.
type Manager struct {
	schedules repository.ScheduleRepository
	jobs      repository.JobRepository
	bus       *events.Bus
	logger    *slog.Logger
}

// New constructs a Manager. A nil logger defaults to slog.Default().
func New(schedules repository.ScheduleRepository, jobs repository.JobRepository, bus *events.Bus, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{schedules: schedules, jobs: jobs, bus: bus, logger: logger}
}

// CreateSchedule starts a new DRAFT schedule over horizon for the given
// job set. It emits no events (spec §4.7: creation is silent).
func (m *Manager) CreateSchedule(ctx context.Context, name string, horizon domain.TimeWindow, jobIDs []uuid.UUID, createdBy string) (*domain.Schedule, error) {
	schedule, err := domain.NewSchedule(name, horizon, jobIDs, createdBy)
	if err != nil {
		return nil, err
	}
	if err := m.schedules.Save(ctx, schedule); err != nil {
		return nil, repository.StorageFailure(err)
	}
	return schedule, nil
}

// BeginOptimization moves schedule from DRAFT to OPTIMIZING. Invalid from
// any other state.
func (m *Manager) BeginOptimization(ctx context.Context, schedule *domain.Schedule) error {
	schedule.Lock()
	defer schedule.Unlock()

	if !schedule.Status.CanTransitionTo(domain.ScheduleOptimizing) {
		return illegalTransition(schedule, domain.ScheduleOptimizing)
	}
	schedule.Status = domain.ScheduleOptimizing
	if err := m.schedules.Save(ctx, schedule); err != nil {
		schedule.Status = domain.ScheduleDraft
		return repository.StorageFailure(err)
	}
	return nil
}

// CompleteOptimization installs the solver's assignments, moves the
// schedule back to DRAFT, and emits one TaskScheduled per assignment
// followed by a single ScheduleUpdated. All state changes and events
// commit together, or none do.
func (m *Manager) CompleteOptimization(ctx context.Context, schedule *domain.Schedule, assignments map[uuid.UUID]domain.ScheduleAssignment, totalCost float64) error {
	schedule.Lock()
	defer schedule.Unlock()

	if !schedule.Status.CanTransitionTo(domain.ScheduleDraft) {
		return illegalTransition(schedule, domain.ScheduleDraft)
	}

	prevStatus := schedule.Status
	prevAssignments, prevCost, prevMakespan, prevVersion := schedule.Assignments(), schedule.TotalCost, schedule.Makespan, schedule.Version
	schedule.InstallAssignments(assignments, totalCost)
	schedule.Status = domain.ScheduleDraft

	if err := m.schedules.Save(ctx, schedule); err != nil {
		schedule.InstallAssignments(prevAssignments, prevCost)
		schedule.Makespan, schedule.Version = prevMakespan, prevVersion
		schedule.Status = prevStatus
		return repository.StorageFailure(err)
	}

	batch := make([]events.Event, 0, len(assignments)+1)
	for taskID, a := range assignments {
		batch = append(batch, events.NewEvent(events.TaskScheduled, taskID, a))
	}
	batch = append(batch, events.NewEvent(events.ScheduleUpdated, schedule.ID, schedule))
	m.bus.PublishBatch(batch)
	return nil
}

// Publish moves schedule from DRAFT to PUBLISHED. It requires, per spec
// §4.7: every referenced job exists and is not CANCELLED, no unresolved
// ResourceConflictDetected is pending against schedule, and at least one
// assignment exists. On success it emits SchedulePublished followed by
// one JobStatusChanged(PLANNED -> RELEASED) per referenced PLANNED job.
func (m *Manager) Publish(ctx context.Context, schedule *domain.Schedule) error {
	schedule.Lock()
	defer schedule.Unlock()

	if schedule.Status != domain.ScheduleDraft {
		return illegalTransition(schedule, domain.SchedulePublished)
	}

	jobs := make([]*domain.Job, 0, len(schedule.JobIDs))
	for _, jobID := range schedule.JobIDs {
		job, err := m.jobs.GetByID(ctx, jobID)
		if err != nil {
			return domain.NewBusinessRuleViolation("publish references a job that does not exist", map[string]any{
				"schedule_id": schedule.ID.String(), "job_id": jobID.String(),
			})
		}
		if job.Status == domain.JobCancelled {
			return domain.NewBusinessRuleViolation("publish references a cancelled job", map[string]any{
				"schedule_id": schedule.ID.String(), "job_id": jobID.String(),
			})
		}
		jobs = append(jobs, job)
	}
	if schedule.HasPendingResourceConflict() {
		return domain.NewResourceConflict("schedule has an unresolved resource conflict pending", map[string]any{
			"schedule_id": schedule.ID.String(),
		})
	}
	if schedule.AssignmentCount() == 0 {
		return domain.NewBusinessRuleViolation("schedule has no assignments to publish", map[string]any{
			"schedule_id": schedule.ID.String(),
		})
	}

	schedule.Status = domain.SchedulePublished
	var releasedJobs []*domain.Job
	for _, job := range jobs {
		if job.Status == domain.JobPlanned {
			if err := job.TransitionTo(domain.JobReleased); err != nil {
				schedule.Status = domain.ScheduleDraft
				return err
			}
			releasedJobs = append(releasedJobs, job)
		}
	}

	if err := m.schedules.Save(ctx, schedule); err != nil {
		schedule.Status = domain.ScheduleDraft
		return repository.StorageFailure(err)
	}
	for _, job := range releasedJobs {
		if err := m.jobs.Save(ctx, job); err != nil {
			return repository.StorageFailure(err)
		}
	}

	batch := []events.Event{events.NewEvent(events.SchedulePublished, schedule.ID, schedule)}
	for _, job := range releasedJobs {
		batch = append(batch, events.NewEvent(events.JobStatusChanged, job.ID, job))
	}
	m.bus.PublishBatch(batch)
	return nil
}

// Activate moves schedule from PUBLISHED to ACTIVE, recording at as the
// activation instant, and emits ScheduleUpdated.
func (m *Manager) Activate(ctx context.Context, schedule *domain.Schedule, at time.Time) error {
	schedule.Lock()
	defer schedule.Unlock()

	if !schedule.Status.CanTransitionTo(domain.ScheduleActive) {
		return illegalTransition(schedule, domain.ScheduleActive)
	}
	prevStatus := schedule.Status
	schedule.Status = domain.ScheduleActive
	schedule.ActivatedAt = &at

	if err := m.schedules.Save(ctx, schedule); err != nil {
		schedule.Status = prevStatus
		schedule.ActivatedAt = nil
		return repository.StorageFailure(err)
	}
	m.bus.Publish(events.NewEvent(events.ScheduleUpdated, schedule.ID, schedule))
	return nil
}

// Cancel moves schedule to ARCHIVED from DRAFT, OPTIMIZING, or PUBLISHED,
// and emits ScheduleUpdated. reason is carried on the event payload only;
// the aggregate itself does not retain it.
func (m *Manager) Cancel(ctx context.Context, schedule *domain.Schedule, reason string) error {
	schedule.Lock()
	defer schedule.Unlock()

	switch schedule.Status {
	case domain.ScheduleDraft, domain.ScheduleOptimizing, domain.SchedulePublished:
	default:
		return illegalTransition(schedule, domain.ScheduleArchived)
	}
	prevStatus := schedule.Status
	schedule.Status = domain.ScheduleArchived

	if err := m.schedules.Save(ctx, schedule); err != nil {
		schedule.Status = prevStatus
		return repository.StorageFailure(err)
	}
	m.bus.Publish(events.NewEvent(events.ScheduleUpdated, schedule.ID, cancellation{Schedule: schedule, Reason: reason}))
	return nil
}

// cancellation is the ScheduleUpdated payload emitted by Cancel, carrying
// the caller's reason alongside the archived schedule.
type cancellation struct {
	Schedule *domain.Schedule
	Reason   string
}

func illegalTransition(schedule *domain.Schedule, to domain.ScheduleStatus) error {
	return domain.NewBusinessRuleViolation("illegal schedule status transition", map[string]any{
		"schedule_id": schedule.ID.String(), "from": string(schedule.Status), "to": string(to),
	})
}
