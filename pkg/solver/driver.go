package solver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/constraint"
)

// Driver runs the constructive-then-LNS search described in this
// package's doc comment against a *constraint.Model.
type Driver struct{}

// NewDriver constructs a Driver. The type carries no state today; it
// exists so callers depend on a concrete type rather than a bare
// function, matching the rest of the pipeline's pkg/<name>.New<Name>
// convention.
func NewDriver() *Driver { return &Driver{} }

// Solve runs the search to completion or until ctx is canceled, config's
// budget elapses, or callback returns SignalStop. A zero-value Config
// (MaxTimeSeconds == 0) is treated as "auto-select": the driver fills it
// in from DefaultConfigFor(model's pattern key). Any other Config is
// taken as fully specified and validated strictly (spec §4.2, §9).
func (d *Driver) Solve(ctx context.Context, model *constraint.Model, objective ObjectiveSpec, cfg Config, warmStart *Solution, callback Callback) Outcome {
	start := time.Now()

	if cfg.MaxTimeSeconds == 0 {
		cfg = DefaultConfigFor(PatternKey{
			Bucket:         BucketFor(model.NumVariables),
			HasPrecedence:  model.HasPrecedence(),
			HasResources:   model.HasResources(),
			HasTimeWindows: model.HasTimeWindows(),
		})
	}
	if err := cfg.Validate(); err != nil {
		return Outcome{
			Status:      StatusError,
			ErrorKind:   ErrorKindInternal,
			ErrorDetail: err.Error(),
			Statistics:  Statistics{WallTime: time.Since(start)},
		}
	}

	deadline := start.Add(cfg.Budget())

	incumbent, unplaced := construct(model, objective)
	if len(unplaced) > 0 && !tryWarmStartRepair(model, objective, cfg, warmStart, incumbent, unplaced) {
		return Outcome{
			Status:     StatusInfeasible,
			Statistics: Statistics{WallTime: time.Since(start), SolutionsFound: 0},
		}
	}
	if cfg.UseWarmStart && warmStart != nil && warmStart.Objective < incumbent.Objective && coversAllTasks(model, warmStart) {
		incumbent = warmStart
	}

	if objective.Kind == ObjectiveFeasibility {
		return Outcome{
			Status:   StatusOptimal,
			Solution: incumbent,
			Statistics: Statistics{
				WallTime:       time.Since(start),
				SolutionsFound: 1,
				BestBound:      incumbent.Objective,
			},
		}
	}

	best, rounds, solutionsFound, canceled := localSearch(ctx, model, objective, cfg, incumbent, start, deadline, callback)
	solutionsFound++ // the constructive solution itself counts as the first found

	status := StatusFeasible
	switch {
	case canceled && ctx.Err() == context.Canceled:
		status = StatusFeasible
	case time.Now().After(deadline) || time.Now().Equal(deadline):
		status = StatusTimeout
	}

	return Outcome{
		Status:   status,
		Solution: best,
		Statistics: Statistics{
			WallTime:       time.Since(start),
			Branches:       rounds,
			SolutionsFound: solutionsFound,
			BestBound:      best.Objective,
			Gap:            0, // heuristic engine carries no provable lower bound
		},
	}
}

// coversAllTasks reports whether sol places every task in model.
func coversAllTasks(model *constraint.Model, sol *Solution) bool {
	if sol == nil {
		return false
	}
	for _, t := range model.Tasks {
		if _, ok := sol.Placements[t.TaskID]; !ok {
			return false
		}
	}
	return true
}

// tryWarmStartRepair reports whether a caller-supplied warm start already
// covers the tasks the fresh constructive pass could not place; this lets
// a model that only became infeasible because of newly-added machine
// downtime fall back to a previously-known-good schedule (spec §4.2's
// warm-start reuse, carried forward from pkg/optimizer's phase chaining).
func tryWarmStartRepair(model *constraint.Model, objective ObjectiveSpec, cfg Config, warmStart *Solution, incumbent *Solution, unplaced []uuid.UUID) bool {
	if !cfg.UseWarmStart || warmStart == nil {
		return false
	}
	for _, id := range unplaced {
		if _, ok := warmStart.Placements[id]; !ok {
			return false
		}
	}
	for id, p := range warmStart.Placements {
		incumbent.Placements[id] = p
	}
	incumbent.Objective = objective.Evaluate(model, incumbent)
	return true
}
