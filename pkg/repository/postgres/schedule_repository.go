// Package postgres backs the ScheduleRepository port with a concrete
// sqlx + lib/pq store, paired with an optional redis.Client read cache,
// mirroring the teacher's pkg/database/repositories.go pattern field for
// field. Only ScheduleRepository is given a real backend: the core
// scopes persistence as an external collaborator (spec §1), so this
// package exists to exercise the stack, not to be a full ORM layer.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/flowforge/jobshop/pkg/domain"
	"github.com/flowforge/jobshop/pkg/repository"
)

// ScheduleRepository is a postgres-backed repository.ScheduleRepository.
type ScheduleRepository struct {
	db     *sqlx.DB
	redis  *redis.Client
	logger *slog.Logger
}

// NewScheduleRepository constructs a repository over an open *sqlx.DB. A
// nil redis client disables caching. A nil logger defaults to
// slog.Default().
func NewScheduleRepository(db *sqlx.DB, rdb *redis.Client, logger *slog.Logger) *ScheduleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleRepository{db: db, redis: rdb, logger: logger}
}

// scheduleRow is the sqlx-mapped row shape; the assignment map and job id
// list are stored as JSONB and decoded on read.
type scheduleRow struct {
	ID              uuid.UUID `db:"id"`
	Name            string    `db:"name"`
	Version         int       `db:"version"`
	Status          string    `db:"status"`
	HorizonStart    time.Time `db:"horizon_start"`
	HorizonEnd      time.Time `db:"horizon_end"`
	JobIDs          []byte    `db:"job_ids"`
	Assignments     []byte    `db:"assignments"`
	MakespanMinutes int64     `db:"makespan_minutes"`
	TotalCost       float64   `db:"total_cost"`
	CreatedBy       string    `db:"created_by"`
}

func (r *ScheduleRepository) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("schedule:%s", id.String())
}

// GetByID fetches a schedule, preferring the redis cache when present.
func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	var row scheduleRow
	if r.redis != nil {
		if cached, err := r.redis.Get(ctx, r.cacheKey(id)).Bytes(); err == nil {
			if jsonErr := json.Unmarshal(cached, &row); jsonErr == nil {
				return rowToSchedule(row)
			}
		}
	}

	const query = `SELECT id, name, version, status, horizon_start, horizon_end, job_ids, assignments,
	                      makespan_minutes, total_cost, created_by
	               FROM schedules WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.NotFound("schedule", id.String())
		}
		return nil, repository.StorageFailure(fmt.Errorf("get schedule %s: %w", id, err))
	}

	schedule, err := rowToSchedule(row)
	if err != nil {
		return nil, repository.StorageFailure(err)
	}

	if r.redis != nil {
		if encoded, err := json.Marshal(row); err == nil {
			if err := r.redis.Set(ctx, r.cacheKey(id), encoded, 10*time.Minute).Err(); err != nil {
				r.logger.Warn("failed to cache schedule in redis", "error", err, "schedule_id", id)
			}
		}
	}

	return schedule, nil
}

// FindActive returns schedules in ACTIVE status whose horizon contains asOf.
func (r *ScheduleRepository) FindActive(ctx context.Context, asOf time.Time) ([]*domain.Schedule, error) {
	const query = `SELECT id, name, version, status, horizon_start, horizon_end, job_ids, assignments,
	                      makespan_minutes, total_cost, created_by
	               FROM schedules WHERE status = $1 AND horizon_start <= $2 AND horizon_end >= $2`
	var rows []scheduleRow
	if err := r.db.SelectContext(ctx, &rows, query, string(domain.ScheduleActive), asOf); err != nil {
		return nil, repository.StorageFailure(fmt.Errorf("find active schedules: %w", err))
	}
	return rowsToSchedules(rows)
}

// FindByStatus returns schedules matching any of the given statuses.
func (r *ScheduleRepository) FindByStatus(ctx context.Context, statuses []domain.ScheduleStatus) ([]*domain.Schedule, error) {
	codes := make([]string, len(statuses))
	for i, s := range statuses {
		codes[i] = string(s)
	}
	const query = `SELECT id, name, version, status, horizon_start, horizon_end, job_ids, assignments,
	                      makespan_minutes, total_cost, created_by
	               FROM schedules WHERE status = ANY($1)`
	var rows []scheduleRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.StringArray(codes)); err != nil {
		return nil, repository.StorageFailure(fmt.Errorf("find schedules by status: %w", err))
	}
	return rowsToSchedules(rows)
}

// Save upserts a schedule by id and invalidates its cache entry.
func (r *ScheduleRepository) Save(ctx context.Context, schedule *domain.Schedule) error {
	row, err := scheduleToRow(schedule)
	if err != nil {
		return repository.StorageFailure(err)
	}

	const query = `INSERT INTO schedules (id, name, version, status, horizon_start, horizon_end, job_ids,
	                      assignments, makespan_minutes, total_cost, created_by)
	               VALUES (:id, :name, :version, :status, :horizon_start, :horizon_end, :job_ids,
	                      :assignments, :makespan_minutes, :total_cost, :created_by)
	               ON CONFLICT (id) DO UPDATE SET
	                      version = EXCLUDED.version, status = EXCLUDED.status,
	                      job_ids = EXCLUDED.job_ids, assignments = EXCLUDED.assignments,
	                      makespan_minutes = EXCLUDED.makespan_minutes, total_cost = EXCLUDED.total_cost`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return repository.StorageFailure(fmt.Errorf("save schedule %s: %w", schedule.ID, err))
	}

	if r.redis != nil {
		if err := r.redis.Del(ctx, r.cacheKey(schedule.ID)).Err(); err != nil {
			r.logger.Warn("failed to invalidate schedule cache", "error", err, "schedule_id", schedule.ID)
		}
	}
	return nil
}

// CreateNewVersion clones base under a new id with an incremented
// version, in DRAFT status, and persists it.
func (r *ScheduleRepository) CreateNewVersion(ctx context.Context, base *domain.Schedule) (*domain.Schedule, error) {
	horizon, err := domain.NewAbsoluteWindow(base.PlanningHorizon.Start(), base.PlanningHorizon.End())
	if err != nil {
		return nil, repository.StorageFailure(err)
	}
	next, err := domain.NewSchedule(base.Name, horizon, base.JobIDs, base.CreatedBy)
	if err != nil {
		return nil, repository.StorageFailure(err)
	}
	next.Version = base.Version + 1
	if err := r.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// FindConflicting returns schedules whose horizon overlaps [start, end).
func (r *ScheduleRepository) FindConflicting(ctx context.Context, start, end time.Time) ([]*domain.Schedule, error) {
	const query = `SELECT id, name, version, status, horizon_start, horizon_end, job_ids, assignments,
	                      makespan_minutes, total_cost, created_by
	               FROM schedules WHERE horizon_start < $2 AND horizon_end > $1`
	var rows []scheduleRow
	if err := r.db.SelectContext(ctx, &rows, query, start, end); err != nil {
		return nil, repository.StorageFailure(fmt.Errorf("find conflicting schedules: %w", err))
	}
	return rowsToSchedules(rows)
}

func rowsToSchedules(rows []scheduleRow) ([]*domain.Schedule, error) {
	out := make([]*domain.Schedule, 0, len(rows))
	for _, row := range rows {
		s, err := rowToSchedule(row)
		if err != nil {
			return nil, repository.StorageFailure(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func rowToSchedule(row scheduleRow) (*domain.Schedule, error) {
	horizon, err := domain.NewAbsoluteWindow(row.HorizonStart, row.HorizonEnd)
	if err != nil {
		return nil, err
	}
	var jobIDs []uuid.UUID
	if len(row.JobIDs) > 0 {
		if err := json.Unmarshal(row.JobIDs, &jobIDs); err != nil {
			return nil, err
		}
	}
	schedule, err := domain.NewSchedule(row.Name, horizon, jobIDs, row.CreatedBy)
	if err != nil {
		return nil, err
	}
	schedule.ID = row.ID
	schedule.Version = row.Version
	schedule.Status = domain.ScheduleStatus(row.Status)
	schedule.Makespan = domain.NewDuration(row.MakespanMinutes)
	schedule.TotalCost = row.TotalCost

	if len(row.Assignments) > 0 {
		var assignments map[uuid.UUID]domain.ScheduleAssignment
		if err := json.Unmarshal(row.Assignments, &assignments); err != nil {
			return nil, err
		}
		schedule.InstallAssignments(assignments, row.TotalCost)
		schedule.Version = row.Version // InstallAssignments bumps the version; restore the stored one
	}
	return schedule, nil
}

func scheduleToRow(s *domain.Schedule) (scheduleRow, error) {
	jobIDs, err := json.Marshal(s.JobIDs)
	if err != nil {
		return scheduleRow{}, err
	}
	assignments, err := json.Marshal(s.Assignments())
	if err != nil {
		return scheduleRow{}, err
	}
	return scheduleRow{
		ID:              s.ID,
		Name:            s.Name,
		Version:         s.Version,
		Status:          string(s.Status),
		HorizonStart:    s.PlanningHorizon.Start(),
		HorizonEnd:      s.PlanningHorizon.End(),
		JobIDs:          jobIDs,
		Assignments:     assignments,
		MakespanMinutes: s.Makespan.Minutes(),
		TotalCost:       s.TotalCost,
		CreatedBy:       s.CreatedBy,
	}, nil
}

var _ repository.ScheduleRepository = (*ScheduleRepository)(nil)
