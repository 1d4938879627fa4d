// Package telemetry implements C11: per-solve performance profiling,
// profile analysis, a process-wide problem_pattern -> best_known_config
// tuner table, and a warm-start cache keyed by problem fingerprint (spec
// §4.8). It is grounded on the teacher's SolverPerformanceProfile
// recording concept and original_source's SolverOptimizer (history
// deque, parameter_effectiveness, problem_patterns, warm_start_cache).
package telemetry

import (
	"time"

	"github.com/flowforge/jobshop/pkg/solver"
)

// ObjectiveHistoryPoint is one improving-solution sample recorded during
// a solve (spec §4.8).
type ObjectiveHistoryPoint struct {
	WallSeconds    float64
	ObjectiveValue float64
}

// SolverPerformanceProfile records everything C11 needs about one solve:
// its problem-size vector, the config the driver actually ran with, its
// timing, terminal status, objective trajectory, and resource counters.
type SolverPerformanceProfile struct {
	Pattern   solver.PatternKey
	Config    solver.Config
	StartedAt time.Time
	EndedAt   time.Time

	Status    solver.Status
	History   []ObjectiveHistoryPoint
	Branches  int64
	Conflicts int64
	Solutions int
	MemoryPeakMB int
	Gap       float64
}

// NewProfile starts a profile for a solve about to run under key/cfg.
func NewProfile(pattern solver.PatternKey, cfg solver.Config, startedAt time.Time) *SolverPerformanceProfile {
	return &SolverPerformanceProfile{Pattern: pattern, Config: cfg, StartedAt: startedAt}
}

// RecordProgress appends one improving-solution sample, matching the
// fields a solver.Callback receives on every improvement.
func (p *SolverPerformanceProfile) RecordProgress(u solver.ProgressUpdate) {
	p.History = append(p.History, ObjectiveHistoryPoint{WallSeconds: u.WallTimeSeconds, ObjectiveValue: u.ObjectiveValue})
	p.Branches = u.Branches
	p.Conflicts = u.Conflicts
	p.Solutions = u.SolutionsFound
}

// Finish closes out the profile with the solve's terminal outcome.
func (p *SolverPerformanceProfile) Finish(endedAt time.Time, outcome solver.Outcome, memoryPeakMB int) {
	p.EndedAt = endedAt
	p.Status = outcome.Status
	p.Branches = outcome.Statistics.Branches
	p.Conflicts = outcome.Statistics.Conflicts
	p.Solutions = outcome.Statistics.SolutionsFound
	p.Gap = outcome.Statistics.Gap
	p.MemoryPeakMB = memoryPeakMB
}

// WallTime is the profile's total elapsed solve time.
func (p *SolverPerformanceProfile) WallTime() time.Duration { return p.EndedAt.Sub(p.StartedAt) }

// TimeRatio is wall time spent over the configured budget, used by the
// tuner's scoring formula.
func (p *SolverPerformanceProfile) TimeRatio() float64 {
	if p.Config.MaxTimeSeconds <= 0 {
		return 0
	}
	return p.WallTime().Seconds() / float64(p.Config.MaxTimeSeconds)
}

// MemoryRatio is peak memory over the configured ceiling, used by the
// tuner's scoring formula.
func (p *SolverPerformanceProfile) MemoryRatio() float64 {
	if p.Config.MaxMemoryMB <= 0 {
		return 0
	}
	return float64(p.MemoryPeakMB) / float64(p.Config.MaxMemoryMB)
}

// Infeasible reports whether the solve ended in a status the tuner scores
// at the fixed -1000 floor.
func (p *SolverPerformanceProfile) Infeasible() bool {
	return p.Status == solver.StatusInfeasible || p.Status == solver.StatusError
}
