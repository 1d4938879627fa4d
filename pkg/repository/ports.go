// Package repository declares the abstract fetch/store contracts the
// core consumes for each entity. Concrete storage is an external
// collaborator (spec §1); this package only fixes the interfaces, plus a
// small in-memory implementation for tests and default wiring.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/domain"
)

// JobRepository abstracts Job persistence.
type JobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	GetByJobNumber(ctx context.Context, jobNumber string) (*domain.Job, error)
	FindByStatus(ctx context.Context, statuses []domain.JobStatus) ([]*domain.Job, error)
	FindOverdue(ctx context.Context, asOf time.Time) ([]*domain.Job, error)
	FindByCustomer(ctx context.Context, customer string) ([]*domain.Job, error)
	Save(ctx context.Context, job *domain.Job) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskRepository abstracts Task persistence.
type TaskRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	FindByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.Task, error)
	Save(ctx context.Context, task *domain.Task) error
}

// MachineRepository abstracts Machine persistence.
type MachineRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Machine, error)
	FindAvailable(ctx context.Context) ([]*domain.Machine, error)
	FindByZone(ctx context.Context, zoneID uuid.UUID) ([]*domain.Machine, error)
	Save(ctx context.Context, machine *domain.Machine) error
}

// OperatorRepository abstracts Operator persistence.
type OperatorRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error)
	FindAvailable(ctx context.Context) ([]*domain.Operator, error)
	FindBySkill(ctx context.Context, skillCode string, level domain.SkillLevel) ([]*domain.Operator, error)
	Save(ctx context.Context, operator *domain.Operator) error
}

// ScheduleRepository abstracts Schedule persistence.
type ScheduleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)
	FindActive(ctx context.Context, asOf time.Time) ([]*domain.Schedule, error)
	FindByStatus(ctx context.Context, statuses []domain.ScheduleStatus) ([]*domain.Schedule, error)
	Save(ctx context.Context, schedule *domain.Schedule) error
	CreateNewVersion(ctx context.Context, base *domain.Schedule) (*domain.Schedule, error)
	FindConflicting(ctx context.Context, start, end time.Time) ([]*domain.Schedule, error)
}
