// Package memory provides in-process repository implementations backing
// the ports in pkg/repository. They exist for tests (pkg/engine takes no
// repositories); a production deployment supplies its own backends
// (spec §1 scopes concrete persistence as an external collaborator).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/domain"
	"github.com/flowforge/jobshop/pkg/repository"
)

// JobRepository is a mutex-guarded in-memory JobRepository.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.Job
}

// NewJobRepository constructs an empty repository.
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: map[uuid.UUID]*domain.Job{}}
}

func (r *JobRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, repository.NotFound("job", id.String())
	}
	return j, nil
}

func (r *JobRepository) GetByJobNumber(_ context.Context, jobNumber string) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, j := range r.jobs {
		if j.JobNumber == jobNumber {
			return j, nil
		}
	}
	return nil, repository.NotFound("job", jobNumber)
}

func (r *JobRepository) FindByStatus(_ context.Context, statuses []domain.JobStatus) ([]*domain.Job, error) {
	set := make(map[domain.JobStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Job
	for _, j := range r.jobs {
		if set[j.Status] {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *JobRepository) FindOverdue(_ context.Context, asOf time.Time) ([]*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Job
	for _, j := range r.jobs {
		if j.IsLate(asOf) {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *JobRepository) FindByCustomer(_ context.Context, customer string) ([]*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Job
	for _, j := range r.jobs {
		if j.Customer == customer {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *JobRepository) Save(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return nil
}

func (r *JobRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	return nil
}

// TaskRepository is a mutex-guarded in-memory TaskRepository.
type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: map[uuid.UUID]*domain.Task{}}
}

func (r *TaskRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, repository.NotFound("task", id.String())
	}
	return t, nil
}

func (r *TaskRepository) FindByJob(_ context.Context, jobID uuid.UUID) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Task
	for _, t := range r.tasks {
		if t.JobID == jobID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TaskRepository) Save(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task
	return nil
}

// MachineRepository is a mutex-guarded in-memory MachineRepository.
type MachineRepository struct {
	mu       sync.RWMutex
	machines map[uuid.UUID]*domain.Machine
	zoneOf   map[uuid.UUID]uuid.UUID
}

func NewMachineRepository() *MachineRepository {
	return &MachineRepository{machines: map[uuid.UUID]*domain.Machine{}, zoneOf: map[uuid.UUID]uuid.UUID{}}
}

func (r *MachineRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.machines[id]
	if !ok {
		return nil, repository.NotFound("machine", id.String())
	}
	return m, nil
}

func (r *MachineRepository) FindAvailable(_ context.Context) ([]*domain.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Machine
	for _, m := range r.machines {
		if m.Status == domain.MachineAvailable {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MachineRepository) FindByZone(_ context.Context, zoneID uuid.UUID) ([]*domain.Machine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Machine
	for id, m := range r.machines {
		if m.ProductionZoneID != nil && *m.ProductionZoneID == zoneID {
			out = append(out, m)
		}
		_ = id
	}
	return out, nil
}

func (r *MachineRepository) Save(_ context.Context, machine *domain.Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machines[machine.ID] = machine
	return nil
}

// OperatorRepository is a mutex-guarded in-memory OperatorRepository.
type OperatorRepository struct {
	mu        sync.RWMutex
	operators map[uuid.UUID]*domain.Operator
}

func NewOperatorRepository() *OperatorRepository {
	return &OperatorRepository{operators: map[uuid.UUID]*domain.Operator{}}
}

func (r *OperatorRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.operators[id]
	if !ok {
		return nil, repository.NotFound("operator", id.String())
	}
	return o, nil
}

func (r *OperatorRepository) FindAvailable(_ context.Context) ([]*domain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Operator
	for _, o := range r.operators {
		if o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OperatorRepository) FindBySkill(_ context.Context, skillCode string, level domain.SkillLevel) ([]*domain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Operator
	for _, o := range r.operators {
		if o.Skills[skillCode] >= level {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OperatorRepository) Save(_ context.Context, operator *domain.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators[operator.ID] = operator
	return nil
}

// ScheduleRepository is a mutex-guarded in-memory ScheduleRepository.
type ScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[uuid.UUID]*domain.Schedule
}

func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{schedules: map[uuid.UUID]*domain.Schedule{}}
}

func (r *ScheduleRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schedules[id]
	if !ok {
		return nil, repository.NotFound("schedule", id.String())
	}
	return s, nil
}

func (r *ScheduleRepository) FindActive(_ context.Context, _ time.Time) ([]*domain.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Schedule
	for _, s := range r.schedules {
		if s.Status == domain.ScheduleActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *ScheduleRepository) FindByStatus(_ context.Context, statuses []domain.ScheduleStatus) ([]*domain.Schedule, error) {
	set := make(map[domain.ScheduleStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Schedule
	for _, s := range r.schedules {
		if set[s.Status] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *ScheduleRepository) Save(_ context.Context, schedule *domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[schedule.ID] = schedule
	return nil
}

func (r *ScheduleRepository) CreateNewVersion(_ context.Context, base *domain.Schedule) (*domain.Schedule, error) {
	clone := *base
	clone.ID = uuid.New()
	clone.Version = base.Version + 1
	clone.Status = domain.ScheduleDraft
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[clone.ID] = &clone
	return &clone, nil
}

func (r *ScheduleRepository) FindConflicting(_ context.Context, start, end time.Time) ([]*domain.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Schedule
	for _, s := range r.schedules {
		if s.PlanningHorizon.Start().Before(end) && start.Before(s.PlanningHorizon.End()) {
			out = append(out, s)
		}
	}
	return out, nil
}

var (
	_ repository.JobRepository      = (*JobRepository)(nil)
	_ repository.TaskRepository     = (*TaskRepository)(nil)
	_ repository.MachineRepository  = (*MachineRepository)(nil)
	_ repository.OperatorRepository = (*OperatorRepository)(nil)
	_ repository.ScheduleRepository = (*ScheduleRepository)(nil)
)
