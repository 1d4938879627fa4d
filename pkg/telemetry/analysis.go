package telemetry

import "math"

// Thresholds used to flag a profile as worth operator attention (spec
// §4.8 names the flags but not their cutoffs; these mirror
// original_source's SolverOptimizer defaults).
const (
	longSolveTimeRatio    = 0.9  // wall time / max_time_seconds
	highMemoryRatio       = 0.85 // memory_peak_mb / max_memory_mb
	largeGapThreshold     = 0.05 // achieved gap (Statistics.Gap) above which a solve is "large gap"
	lowIterationsPerSec   = 0.1  // solutions found per wall second
	stagnationWindow      = 10   // trailing history samples considered
	stagnationRelativeImprovement = 0.001 // 0.1%
	stagnationFraction    = 0.8  // fraction of the window below the improvement floor
)

// Analysis is the set of diagnostic flags C11 raises for a completed
// profile, plus the convergence-stagnation fraction they were computed
// from.
type Analysis struct {
	LongSolve            bool
	HighMemory           bool
	LargeGap             bool
	LowIterationRate      bool
	ConvergenceStagnation bool
	StagnationFraction    float64
}

// Analyze flags a completed profile (spec §4.8).
func Analyze(p *SolverPerformanceProfile) Analysis {
	wallSeconds := p.WallTime().Seconds()
	a := Analysis{
		LongSolve:  p.TimeRatio() >= longSolveTimeRatio,
		HighMemory: p.MemoryRatio() >= highMemoryRatio,
		LargeGap:   p.Gap >= largeGapThreshold,
	}
	if wallSeconds > 0 {
		a.LowIterationRate = float64(p.Solutions)/wallSeconds < lowIterationsPerSec
	}
	a.StagnationFraction = stagnationFractionOf(p.History)
	a.ConvergenceStagnation = a.StagnationFraction >= stagnationFraction
	return a
}

// stagnationFractionOf computes the fraction of the trailing
// stagnationWindow objective-history samples whose relative improvement
// over their predecessor is below stagnationRelativeImprovement.
func stagnationFractionOf(history []ObjectiveHistoryPoint) float64 {
	if len(history) < 2 {
		return 0
	}
	start := 0
	if len(history) > stagnationWindow+1 {
		start = len(history) - stagnationWindow - 1
	}
	window := history[start:]

	stagnant := 0
	total := 0
	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1].ObjectiveValue, window[i].ObjectiveValue
		total++
		denom := math.Abs(prev)
		if denom == 0 {
			denom = 1
		}
		if math.Abs(prev-cur)/denom < stagnationRelativeImprovement {
			stagnant++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(stagnant) / float64(total)
}
