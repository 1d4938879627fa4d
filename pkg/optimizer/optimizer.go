// Package optimizer runs the three-phase hierarchical search described in
// spec §4.3: a fast feasibility pass, a primary pass minimizing weighted
// tardiness and makespan, and a secondary pass minimizing operator labor
// cost subject to the primary objective staying within a tolerance of its
// phase-2 value. Each phase warm-starts from the previous phase's
// solution so later phases refine rather than restart.
package optimizer

import (
	"context"
	"log/slog"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/solver"
)

// phase budget shares of the caller's total time budget (spec §4.3).
const (
	feasibilityShare = 0.10
	primaryShare     = 0.60
	// secondaryShare is the remainder: 1 - feasibilityShare - primaryShare.
)

// Request carries the objective weights and tolerance the hierarchy needs
// beyond what *constraint.Model and solver.Config already describe.
type Request struct {
	TardinessWeight float64
	MakespanWeight  float64
	// PrimaryTolerance is the fraction by which phase 3 may let the
	// phase-2 primary objective degrade while it searches for a
	// cheaper operator assignment (e.g. 0.05 == 5%).
	PrimaryTolerance float64
}

// PhaseResult records one phase's terminal outcome for telemetry and
// diagnostics.
type PhaseResult struct {
	Name    string
	Outcome solver.Outcome
}

// Result is the hierarchy's complete output.
type Result struct {
	Phases        []PhaseResult
	FinalSolution *solver.Solution
	// FinalOutcome is the Outcome the FinalSolution was taken from (the
	// primary phase's, unless the secondary phase ran and kept its
	// improved solution within tolerance; the feasibility phase's, marked
	// FEASIBLE, when the primary phase returned no solution).
	FinalOutcome solver.Outcome
	Feasible     bool
}

// Optimizer drives solver.Driver through the three phases.
type Optimizer struct {
	driver *solver.Driver
	logger *slog.Logger
}

// New constructs an Optimizer. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{driver: solver.NewDriver(), logger: logger}
}

// Optimize runs all three phases against model, honoring cfg's total time
// budget by splitting it 10%/60%/remainder across them (spec §4.3). It
// returns as soon as phase 1 finds no solution. If phase 2 returns no
// solution, phase 1's solution is the FEASIBLE result and phase 3 is
// skipped; otherwise phase 3 runs (within cfg's budget/ctx cancellation).
// warmStart, when non-nil, seeds the feasibility phase (spec §4.8's warm
// start, re-solving with a prior solution as hint); a nil warmStart
// solves cold.
func (o *Optimizer) Optimize(ctx context.Context, model *constraint.Model, req Request, cfg solver.Config, warmStart *solver.Solution, callback solver.Callback) (*Result, error) {
	if cfg.MaxTimeSeconds == 0 {
		cfg = solver.DefaultConfigFor(solver.PatternKey{
			Bucket:         solver.BucketFor(model.NumVariables),
			HasPrecedence:  model.HasPrecedence(),
			HasResources:   model.HasResources(),
			HasTimeWindows: model.HasTimeWindows(),
		})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &Result{}

	feasibilityCfg := withBudget(cfg, feasibilityShare)
	o.logger.Debug("optimizer phase start", "phase", "feasibility", "budget_seconds", feasibilityCfg.MaxTimeSeconds)
	feasibilityOutcome := o.driver.Solve(ctx, model, solver.ObjectiveSpec{Kind: solver.ObjectiveFeasibility}, feasibilityCfg, warmStart, callback)
	result.Phases = append(result.Phases, PhaseResult{Name: "feasibility", Outcome: feasibilityOutcome})
	if feasibilityOutcome.Status == solver.StatusInfeasible || feasibilityOutcome.Status == solver.StatusError || feasibilityOutcome.Solution == nil {
		result.Feasible = false
		return result, nil
	}

	primaryObjective := solver.ObjectiveSpec{Kind: solver.ObjectiveTardinessMakespan, TardinessWeight: req.TardinessWeight, MakespanWeight: req.MakespanWeight}
	primaryCfg := withBudget(cfg, primaryShare)
	o.logger.Debug("optimizer phase start", "phase", "primary", "budget_seconds", primaryCfg.MaxTimeSeconds)
	primaryOutcome := o.driver.Solve(ctx, model, primaryObjective, primaryCfg, feasibilityOutcome.Solution, callback)
	result.Phases = append(result.Phases, PhaseResult{Name: "primary", Outcome: primaryOutcome})
	if primaryOutcome.Solution == nil {
		result.Feasible = true
		result.FinalSolution = feasibilityOutcome.Solution
		result.FinalOutcome = feasibilityOutcome
		result.FinalOutcome.Status = solver.StatusFeasible
		return result, nil
	}
	result.Feasible = true
	result.FinalSolution = primaryOutcome.Solution
	result.FinalOutcome = primaryOutcome

	tolerance := req.PrimaryTolerance
	if tolerance <= 0 {
		tolerance = 0.05
	}
	primaryValue := primaryObjective.Evaluate(model, primaryOutcome.Solution)

	secondaryObjective := solver.ObjectiveSpec{
		Kind:              solver.ObjectiveOperatorCost,
		TardinessWeight:   req.TardinessWeight,
		MakespanWeight:    req.MakespanWeight,
		HasPrimaryCeiling: true,
		PrimaryCeiling:    primaryValue * (1 + tolerance),
	}
	secondaryCfg := withBudget(cfg, 1-feasibilityShare-primaryShare)
	o.logger.Debug("optimizer phase start", "phase", "secondary", "budget_seconds", secondaryCfg.MaxTimeSeconds)
	secondaryOutcome := o.driver.Solve(ctx, model, secondaryObjective, secondaryCfg, primaryOutcome.Solution, callback)
	result.Phases = append(result.Phases, PhaseResult{Name: "secondary", Outcome: secondaryOutcome})

	if secondaryOutcome.Solution != nil && secondaryObjective.SatisfiesCeiling(model, secondaryOutcome.Solution) {
		result.FinalSolution = secondaryOutcome.Solution
		result.FinalOutcome = secondaryOutcome
	}

	return result, nil
}

// withBudget returns cfg with MaxTimeSeconds scaled by share of the
// original budget, clamped to the [10, 3600] range Config.Validate
// requires.
func withBudget(cfg solver.Config, share float64) solver.Config {
	out := cfg
	scaled := int(float64(cfg.MaxTimeSeconds) * share)
	switch {
	case scaled < 10:
		scaled = 10
	case scaled > 3600:
		scaled = 3600
	}
	out.MaxTimeSeconds = scaled
	return out
}
