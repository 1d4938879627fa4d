package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/allocator"
	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/domain"
	"github.com/flowforge/jobshop/pkg/events"
	"github.com/flowforge/jobshop/pkg/optimizer"
	"github.com/flowforge/jobshop/pkg/solver"
	"github.com/flowforge/jobshop/pkg/telemetry"
)

// Engine wires the pipeline spec §6 describes as one call: build the
// constraint model, run the hierarchical optimizer, decode the winning
// solution through the allocator, and shape the result as a
// SolveResponse. The schedule-publishing lifecycle (pkg/schedulestate) is
// driven separately by a caller holding a successful response.
type Engine struct {
	builder   *constraint.Builder
	optimizer *optimizer.Optimizer
	tuner     *telemetry.Tuner
	warmCache *telemetry.WarmStartCache
	bus       *events.Bus
	logger    *slog.Logger
}

// New constructs an Engine. tuner, warmCache, and bus are all optional
// (nil disables pattern-learning, warm-start recall, and event
// publication respectively); logger defaults to slog.Default().
func New(tuner *telemetry.Tuner, warmCache *telemetry.WarmStartCache, bus *events.Bus, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		builder:   constraint.NewBuilder(logger),
		optimizer: optimizer.New(logger),
		tuner:     tuner,
		warmCache: warmCache,
		bus:       bus,
		logger:    logger,
	}
}

// Solve runs the full pipeline against req. A non-nil error indicates
// either that the request itself was malformed (validation or
// configuration failure, propagated from the constraint builder or the
// optimizer's config check; a malformed request never reaches the solver)
// or that the allocator rejected the decoded solution (a ResourceConflict).
// Everything the solver can report — including "no feasible solution",
// timeout, and internal error — comes back as a populated SolveResponse
// with Status/ErrorCode set, not a Go error, matching spec §6's failure
// response shape.
func (e *Engine) Solve(ctx context.Context, req SolveRequest) (*SolveResponse, error) {
	params := req.OptimizationParameters.withDefaults()

	model, err := e.builder.Build(constraint.BuildInput{
		ScheduleStart:       req.ScheduleStart,
		HorizonDays:         req.HorizonDays,
		MakespanIsHardCap:   req.MakespanIsHardCap,
		Jobs:                toJobSpecs(req.Jobs),
		Operations:          req.Operations,
		Machines:            filterMachines(req.Machines, req.CandidateMachineIDs),
		Operators:           filterOperators(req.Operators, req.CandidateOperatorIDs),
		Zones:               req.Zones,
		BusinessConstraints: req.BusinessConstraints,
	})
	if err != nil {
		return nil, err
	}

	pattern := solver.PatternKey{
		Bucket:         solver.BucketFor(model.NumVariables),
		HasPrecedence:  model.HasPrecedence(),
		HasResources:   model.HasResources(),
		HasTimeWindows: model.HasTimeWindows(),
	}
	cfg := req.SolverConfig
	if cfg.MaxTimeSeconds == 0 {
		if e.tuner != nil {
			if tuned, ok := e.tuner.BestConfigFor(ctx, pattern); ok {
				cfg = tuned
			}
		}
		if cfg.MaxTimeSeconds == 0 {
			cfg = solver.DefaultConfigFor(pattern)
		}
	}

	warmStart := req.WarmStart
	if warmStart == nil && cfg.UseWarmStart && e.warmCache != nil {
		if hint, ok := e.warmCache.Hint(ctx, model); ok {
			warmStart = hint
		}
	}

	startedAt := time.Now()
	profile := telemetry.NewProfile(pattern, cfg, startedAt)
	callback := func(u solver.ProgressUpdate) solver.Signal {
		profile.RecordProgress(u)
		return solver.SignalContinue
	}

	optReq := optimizer.Request{
		TardinessWeight:  params.PrimaryWeight,
		MakespanWeight:   params.MakespanWeight,
		PrimaryTolerance: params.CostOptimizationTolerance,
	}
	result, err := e.optimizer.Optimize(ctx, model, optReq, cfg, warmStart, callback)
	endedAt := time.Now()
	solveSeconds := endedAt.Sub(startedAt).Seconds()
	if err != nil {
		return nil, domain.NewConfigurationError(err.Error(), nil)
	}

	var finalOutcome solver.Outcome
	if len(result.Phases) > 0 {
		finalOutcome = result.Phases[len(result.Phases)-1].Outcome
	}
	profile.Finish(endedAt, finalOutcome, 0)
	if e.tuner != nil {
		e.tuner.Consider(ctx, profile)
	}

	if !result.Feasible || result.FinalSolution == nil {
		return e.infeasibleResponse(model, req.HorizonDays, finalOutcome, solveSeconds), nil
	}

	if e.warmCache != nil {
		e.warmCache.Put(ctx, model, result.FinalSolution)
	}

	assignments, totalCost, err := allocator.Allocate(model, result.FinalSolution)
	if err != nil {
		return nil, err
	}

	resp := e.buildResponse(model, req, result.FinalOutcome, assignments, totalCost, solveSeconds)
	resp.FinalSolution = result.FinalSolution
	e.publishAssignmentEvents(resp, model)
	return resp, nil
}

func toJobSpecs(jobs []JobRequest) []constraint.JobSpec {
	out := make([]constraint.JobSpec, len(jobs))
	for i, j := range jobs {
		out[i] = constraint.JobSpec{
			JobNumber: j.JobNumber,
			Priority:  j.Priority,
			DueDate:   j.DueDate,
			Quantity:  j.Quantity,
			Tasks:     j.Tasks,
		}
	}
	return out
}

func filterMachines(all map[uuid.UUID]*domain.Machine, candidates []uuid.UUID) map[uuid.UUID]*domain.Machine {
	if len(candidates) == 0 {
		return all
	}
	out := make(map[uuid.UUID]*domain.Machine, len(candidates))
	for _, id := range candidates {
		if m, ok := all[id]; ok {
			out[id] = m
		}
	}
	return out
}

func filterOperators(all map[uuid.UUID]*domain.Operator, candidates []uuid.UUID) map[uuid.UUID]*domain.Operator {
	if len(candidates) == 0 {
		return all
	}
	out := make(map[uuid.UUID]*domain.Operator, len(candidates))
	for _, id := range candidates {
		if o, ok := all[id]; ok {
			out[id] = o
		}
	}
	return out
}

// infeasibleResponse classifies a failed solve into the specific
// NoFeasibleSolution reason codes spec §8's boundary cases name
// ("no_operators", "no_working_days") when the model itself rules out
// every attended task or every calendar day, and falls back to a bare
// INFEASIBLE/TIMEOUT/ERROR classification otherwise.
func (e *Engine) infeasibleResponse(model *constraint.Model, horizonDays int, outcome solver.Outcome, solveSeconds float64) *SolveResponse {
	if reasonCode, conflictingJobs, suggestions, ok := diagnose(model, horizonDays); ok {
		coreErr := domain.NewNoFeasibleSolution(reasonCode, conflictingJobs, suggestions)
		return &SolveResponse{
			Status:      solver.StatusInfeasible,
			ErrorCode:   coreErr.Code,
			ErrorDetails: coreErr.Details,
			Metrics:     SolutionMetrics{SolveTimeSeconds: solveSeconds, SolverStatus: solver.StatusInfeasible},
		}
	}

	switch outcome.Status {
	case solver.StatusTimeout:
		coreErr := domain.NewOptimizationTimeout("solver exhausted its time budget before finding a feasible solution")
		return &SolveResponse{
			Status:      solver.StatusTimeout,
			ErrorCode:   coreErr.Code,
			ErrorDetails: coreErr.Details,
			Metrics:     SolutionMetrics{SolveTimeSeconds: solveSeconds, SolverStatus: solver.StatusTimeout},
		}
	case solver.StatusError:
		coreErr := domain.NewOptimizationError(nil)
		if outcome.ErrorDetail != "" {
			coreErr.Details["detail"] = outcome.ErrorDetail
		}
		return &SolveResponse{
			Status:      solver.StatusError,
			ErrorCode:   coreErr.Code,
			ErrorDetails: coreErr.Details,
			Metrics:     SolutionMetrics{SolveTimeSeconds: solveSeconds, SolverStatus: solver.StatusError},
		}
	default:
		coreErr := domain.NewNoFeasibleSolution("", nil, nil)
		return &SolveResponse{
			Status:      solver.StatusInfeasible,
			ErrorCode:   coreErr.Code,
			ErrorDetails: coreErr.Details,
			Metrics:     SolutionMetrics{SolveTimeSeconds: solveSeconds, SolverStatus: solver.StatusInfeasible},
		}
	}
}

// diagnose inspects model for the two named structural causes of
// infeasibility spec §8's boundary cases call out, returning the
// matching reason code, the jobs it implicates, and a remediation
// suggestion. ok is false when neither structural cause applies, meaning
// the infeasibility genuinely came from the search itself (e.g. an
// overconstrained due date combined with machine contention).
func diagnose(model *constraint.Model, horizonDays int) (reasonCode string, conflictingJobs []string, suggestions []string, ok bool) {
	if model.BusinessConstraints.EnforceBusinessHours {
		allHolidays := true
		for day := 0; day < horizonDays; day++ {
			if !model.BusinessConstraints.IsHoliday(day) {
				allHolidays = false
				break
			}
		}
		if allHolidays {
			jobs := jobNumbersOf(model)
			return "no_working_days", jobs, []string{domain.RemediationExtendHorizon}, true
		}
	}

	var starvedJobs []string
	seen := map[string]bool{}
	for _, t := range model.Tasks {
		if t.IsOperatorStarved() && !seen[t.JobNumber] {
			seen[t.JobNumber] = true
			starvedJobs = append(starvedJobs, t.JobNumber)
		}
	}
	if len(starvedJobs) > 0 {
		return "no_operators", starvedJobs, []string{domain.RemediationAddOperatorSkill}, true
	}

	return "", nil, nil, false
}

func jobNumbersOf(model *constraint.Model) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range model.Tasks {
		if !seen[t.JobNumber] {
			seen[t.JobNumber] = true
			out = append(out, t.JobNumber)
		}
	}
	return out
}

func (e *Engine) buildResponse(model *constraint.Model, req SolveRequest, outcome solver.Outcome, assignments map[uuid.UUID]domain.ScheduleAssignment, totalCost float64, solveSeconds float64) *SolveResponse {
	taskByID := make(map[uuid.UUID]*constraint.TaskNode, len(model.Tasks))
	for _, t := range model.Tasks {
		taskByID[t.TaskID] = t
	}

	var makespan int64
	var criticalJobs []string
	criticalSeen := map[string]bool{}
	machineBusy := map[uuid.UUID]int64{}
	operatorBusy := map[uuid.UUID]int64{}
	taskAssignments := make([]TaskAssignment, 0, len(assignments))

	for taskID, a := range assignments {
		node := taskByID[taskID]
		if node == nil {
			continue
		}
		endMinutes := int64(a.EndInstant.Sub(model.ScheduleStart).Minutes())
		if endMinutes > makespan {
			makespan = endMinutes
		}
		busy := a.SetupDuration.Minutes() + a.ProcessingDuration.Minutes()
		machineBusy[a.MachineID] += busy
		for _, opID := range a.OperatorIDs {
			operatorBusy[opID] += busy
		}
		if a.IsCriticalPath && !criticalSeen[node.JobNumber] {
			criticalSeen[node.JobNumber] = true
			criticalJobs = append(criticalJobs, node.JobNumber)
		}

		taskAssignments = append(taskAssignments, TaskAssignment{
			TaskID:             taskID,
			JobNumber:          node.JobNumber,
			OperationSequence:  node.SequenceInJob,
			Start:              a.StartInstant,
			End:                a.EndInstant,
			SetupMinutes:       a.SetupDuration.Minutes(),
			ProcessingMinutes:  a.ProcessingDuration.Minutes(),
			MachineID:          a.MachineID,
			OperatorIDs:        a.OperatorIDs,
			RoutingOptionIndex: a.RoutingOptionIndex,
			IsCriticalPath:     a.IsCriticalPath,
		})
	}

	var totalTardiness int64
	jobsOnTime, jobsLate := 0, 0
	for _, dd := range model.DueDates {
		late := jobLatenessMinutes(model, taskByID, assignments, dd)
		if late > 0 {
			totalTardiness += late
			jobsLate++
		} else {
			jobsOnTime++
		}
	}

	machineUtilization := utilizationPct(machineBusy, makespan, len(model.Machines))
	operatorUtilization := utilizationPct(operatorBusy, makespan, len(model.Operators))

	return &SolveResponse{
		Status:      outcome.Status,
		Assignments: taskAssignments,
		Metrics: SolutionMetrics{
			MakespanMinutes:        makespan,
			TotalTardinessMinutes:  totalTardiness,
			TotalOperatorCost:      totalCost,
			MachineUtilizationPct:  machineUtilization,
			OperatorUtilizationPct: operatorUtilization,
			JobsOnTime:             jobsOnTime,
			JobsLate:               jobsLate,
			CriticalPathJobs:       criticalJobs,
			SolveTimeSeconds:       solveSeconds,
			SolverStatus:           outcome.Status,
			GapPct:                 outcome.Statistics.Gap,
		},
	}
}

func jobLatenessMinutes(model *constraint.Model, taskByID map[uuid.UUID]*constraint.TaskNode, assignments map[uuid.UUID]domain.ScheduleAssignment, dd constraint.JobDueDate) int64 {
	var latestEnd int64 = -1
	for _, t := range model.Tasks {
		if t.JobNumber != dd.JobNumber {
			continue
		}
		a, ok := assignments[t.TaskID]
		if !ok {
			continue
		}
		end := int64(a.EndInstant.Sub(model.ScheduleStart).Minutes())
		if end > latestEnd {
			latestEnd = end
		}
	}
	if latestEnd < 0 {
		return 0
	}
	if late := latestEnd - dd.DueMinutes; late > 0 {
		return late
	}
	return 0
}

func utilizationPct(busyByResource map[uuid.UUID]int64, makespan int64, resourceCount int) float64 {
	if makespan <= 0 || resourceCount == 0 {
		return 0
	}
	var busySum int64
	for _, b := range busyByResource {
		busySum += b
	}
	capacity := makespan * int64(resourceCount)
	if capacity <= 0 {
		return 0
	}
	return float64(busySum) / float64(capacity) * 100
}

func (e *Engine) publishAssignmentEvents(resp *SolveResponse, model *constraint.Model) {
	if e.bus == nil {
		return
	}
	var batch []events.Event
	for _, a := range resp.Assignments {
		batch = append(batch, events.NewEvent(events.TaskScheduled, a.TaskID, a))
	}
	for _, jobNumber := range lateJobNumbers(resp, model) {
		batch = append(batch, events.NewEvent(events.DeadlineMissed, uuid.Nil, jobNumber))
	}
	if len(batch) > 0 {
		e.bus.PublishBatch(batch)
	}
}

func lateJobNumbers(resp *SolveResponse, model *constraint.Model) []string {
	if resp.Metrics.JobsLate == 0 {
		return nil
	}
	taskByID := make(map[uuid.UUID]*constraint.TaskNode, len(model.Tasks))
	for _, t := range model.Tasks {
		taskByID[t.TaskID] = t
	}
	endByJob := map[string]int64{}
	for _, a := range resp.Assignments {
		end := int64(a.End.Sub(model.ScheduleStart).Minutes())
		if end > endByJob[a.JobNumber] {
			endByJob[a.JobNumber] = end
		}
	}
	var late []string
	for _, dd := range model.DueDates {
		if end, ok := endByJob[dd.JobNumber]; ok && end > dd.DueMinutes {
			late = append(late, dd.JobNumber)
		}
	}
	return late
}
