// Package solver runs a CP-SAT-style search over a *constraint.Model and
// reports a SolveOutcome (spec §4.2). The retrieved example corpus
// carries no OR-Tools/CP-SAT Go binding, so Driver's internal search is a
// constructive list-scheduler followed by a bounded local-search
// improvement loop; DESIGN.md's pkg/solver entry records the
// stdlib-only justification. The public contract (config fields, callback
// shape, outcome/status vocabulary) matches spec §4.2 exactly so that
// swapping in a true CP-SAT backend later is an implementation detail of
// this package, not a caller-visible change.
package solver

import "time"

// SearchBranching selects the driver's internal search strategy.
type SearchBranching string

const (
	BranchingAutomatic SearchBranching = "AUTOMATIC"
	BranchingFixed     SearchBranching = "FIXED"
	BranchingPortfolio SearchBranching = "PORTFOLIO"
)

// LNSFocus selects the destroy-repair bias of the large-neighborhood
// search loop.
type LNSFocus string

const (
	LNSImprovement  LNSFocus = "IMPROVEMENT"
	LNSQuickRestart LNSFocus = "QUICK_RESTART"
)

// Config is the closed, fully-enumerated set of solver parameters named
// in spec §4.2.
type Config struct {
	MaxTimeSeconds      int // [10, 3600]
	NumSearchWorkers    int // [1, 16]
	SearchBranching     SearchBranching
	UseLNS              bool
	LNSFocus            LNSFocus
	LinearizationLevel  int // {0,1,2}
	ProbingLevel        int // {0,1,2,3}
	SymmetryLevel       int // {0,1,2,3}
	RelativeGapLimit    float64 // [0,1]
	AbsoluteGapLimit    float64 // >= 0
	UseWarmStart        bool
	MaxMemoryMB         int
}

// Validate checks every field's stated range (spec §4.2); out-of-range
// values are a ConfigurationError, not a silent clamp, since solver
// parameters are a closed configuration object (spec §9).
func (c Config) Validate() error {
	if c.MaxTimeSeconds < 10 || c.MaxTimeSeconds > 3600 {
		return configErr("max_time_seconds", "must lie in [10, 3600]")
	}
	if c.NumSearchWorkers < 1 || c.NumSearchWorkers > 16 {
		return configErr("num_search_workers", "must lie in [1, 16]")
	}
	switch c.SearchBranching {
	case BranchingAutomatic, BranchingFixed, BranchingPortfolio:
	default:
		return configErr("search_branching", "unknown branching strategy")
	}
	if c.UseLNS {
		switch c.LNSFocus {
		case LNSImprovement, LNSQuickRestart:
		default:
			return configErr("lns_focus", "unknown LNS focus")
		}
	}
	if c.LinearizationLevel < 0 || c.LinearizationLevel > 2 {
		return configErr("linearization_level", "must lie in {0,1,2}")
	}
	if c.ProbingLevel < 0 || c.ProbingLevel > 3 {
		return configErr("probing_level", "must lie in {0,1,2,3}")
	}
	if c.SymmetryLevel < 0 || c.SymmetryLevel > 3 {
		return configErr("symmetry_level", "must lie in {0,1,2,3}")
	}
	if c.RelativeGapLimit < 0 || c.RelativeGapLimit > 1 {
		return configErr("relative_gap_limit", "must lie in [0,1]")
	}
	if c.AbsoluteGapLimit < 0 {
		return configErr("absolute_gap_limit", "must be >= 0")
	}
	return nil
}

// Budget returns the configured max time as a time.Duration.
func (c Config) Budget() time.Duration { return time.Duration(c.MaxTimeSeconds) * time.Second }

// ProblemSizeBucket classifies a problem by interval-variable count, used
// as part of the pattern-table key (spec §4.2).
type ProblemSizeBucket string

const (
	SizeSmall  ProblemSizeBucket = "small"  // <100 intervals
	SizeMedium ProblemSizeBucket = "medium" // <1000
	SizeLarge  ProblemSizeBucket = "large"  // >=1000
)

// BucketFor classifies a problem's interval-variable count.
func BucketFor(numIntervals int) ProblemSizeBucket {
	switch {
	case numIntervals < 100:
		return SizeSmall
	case numIntervals < 1000:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// PatternKey is the (problem_size_bucket, has_precedence, has_resources,
// has_time_windows) key the driver uses to select a default
// configuration (spec §4.2).
type PatternKey struct {
	Bucket         ProblemSizeBucket
	HasPrecedence  bool
	HasResources   bool
	HasTimeWindows bool
}

// DefaultConfigFor returns the pattern-table default configuration for a
// PatternKey. The table is used only when the caller's Config has
// MaxTimeSeconds == 0, and then replaces that Config whole; a Config with
// MaxTimeSeconds set is used as given, with no per-field fallback (see
// Driver.Solve).
func DefaultConfigFor(key PatternKey) Config {
	var c Config
	switch key.Bucket {
	case SizeSmall:
		c = Config{
			MaxTimeSeconds: 60, NumSearchWorkers: 4, SearchBranching: BranchingFixed,
			UseLNS: false, LinearizationLevel: 1, ProbingLevel: 1, SymmetryLevel: 1,
			RelativeGapLimit: 0, AbsoluteGapLimit: 0, UseWarmStart: true, MaxMemoryMB: 512,
		}
	case SizeMedium:
		c = Config{
			MaxTimeSeconds: 180, NumSearchWorkers: 8, SearchBranching: BranchingAutomatic,
			UseLNS: true, LNSFocus: LNSImprovement, LinearizationLevel: 2, ProbingLevel: 2,
			SymmetryLevel: 2, RelativeGapLimit: 0.01, AbsoluteGapLimit: 1, UseWarmStart: true, MaxMemoryMB: 1024,
		}
	default:
		c = Config{
			MaxTimeSeconds: 300, NumSearchWorkers: 16, SearchBranching: BranchingPortfolio,
			UseLNS: true, LNSFocus: LNSQuickRestart, LinearizationLevel: 2, ProbingLevel: 3,
			SymmetryLevel: 3, RelativeGapLimit: 0.05, AbsoluteGapLimit: 1, UseWarmStart: true, MaxMemoryMB: 2048,
		}
	}
	if key.HasPrecedence {
		c.ProbingLevel = maxInt(c.ProbingLevel, 3)
		c.LinearizationLevel = 2
	}
	if key.HasResources {
		c.SymmetryLevel = maxInt(c.SymmetryLevel, 3)
		c.UseWarmStart = true
	}
	if key.HasTimeWindows {
		c.SearchBranching = BranchingFixed
	}
	return c
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func configErr(field, message string) error {
	return newConfigurationError(field, message)
}
