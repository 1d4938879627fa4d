package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/solver"
	"github.com/flowforge/jobshop/pkg/telemetry"
)

func TestScoreFloorsInfeasibleProfilesAtNegativeThousand(t *testing.T) {
	p := telemetry.NewProfile(solver.PatternKey{Bucket: solver.SizeSmall}, solver.Config{MaxTimeSeconds: 60}, time.Now())
	p.Finish(time.Now(), solver.Outcome{Status: solver.StatusInfeasible}, 0)
	require.Equal(t, -1000.0, telemetry.Score(p))
}

func TestScoreRewardsLowGapAndFastSolve(t *testing.T) {
	cfg := solver.Config{MaxTimeSeconds: 60, MaxMemoryMB: 1024}
	start := time.Now()
	p := telemetry.NewProfile(solver.PatternKey{Bucket: solver.SizeSmall}, cfg, start)
	p.Finish(start.Add(6*time.Second), solver.Outcome{
		Status:     solver.StatusOptimal,
		Statistics: solver.Statistics{Gap: 0, SolutionsFound: 3},
	}, 100)
	require.Greater(t, telemetry.Score(p), 100.0)
}

func TestTunerKeepsOnlyTheBetterScoringConfigPerPattern(t *testing.T) {
	tuner := telemetry.NewTuner(nil, nil)
	pattern := solver.PatternKey{Bucket: solver.SizeMedium, HasPrecedence: true}
	ctx := context.Background()

	worse := telemetry.NewProfile(pattern, solver.Config{MaxTimeSeconds: 180, SearchBranching: solver.BranchingAutomatic}, time.Now())
	worse.Finish(time.Now(), solver.Outcome{Status: solver.StatusFeasible, Statistics: solver.Statistics{Gap: 0.2}}, 0)
	tuner.Consider(ctx, worse)

	better := telemetry.NewProfile(pattern, solver.Config{MaxTimeSeconds: 180, SearchBranching: solver.BranchingPortfolio}, time.Now())
	better.Finish(time.Now(), solver.Outcome{Status: solver.StatusOptimal, Statistics: solver.Statistics{Gap: 0}}, 0)
	tuner.Consider(ctx, better)

	cfg, ok := tuner.BestConfigFor(ctx, pattern)
	require.True(t, ok)
	require.Equal(t, solver.BranchingPortfolio, cfg.SearchBranching)

	tuner.Consider(ctx, worse)
	cfg, ok = tuner.BestConfigFor(ctx, pattern)
	require.True(t, ok)
	require.Equal(t, solver.BranchingPortfolio, cfg.SearchBranching, "a later, worse-scoring profile must not replace the incumbent")
}

func TestAnalyzeFlagsLongSolveAndLargeGap(t *testing.T) {
	cfg := solver.Config{MaxTimeSeconds: 60, MaxMemoryMB: 100}
	start := time.Now()
	p := telemetry.NewProfile(solver.PatternKey{Bucket: solver.SizeLarge}, cfg, start)
	p.Finish(start.Add(58*time.Second), solver.Outcome{
		Status:     solver.StatusFeasible,
		Statistics: solver.Statistics{Gap: 0.2},
	}, 95)

	a := telemetry.Analyze(p)
	require.True(t, a.LongSolve)
	require.True(t, a.HighMemory)
	require.True(t, a.LargeGap)
}

func TestAnalyzeDetectsConvergenceStagnation(t *testing.T) {
	p := telemetry.NewProfile(solver.PatternKey{Bucket: solver.SizeMedium}, solver.Config{MaxTimeSeconds: 60}, time.Now())
	objective := 1000.0
	for i := 0; i < 12; i++ {
		p.RecordProgress(solver.ProgressUpdate{ObjectiveValue: objective, WallTimeSeconds: float64(i), SolutionsFound: i + 1})
	}
	p.Finish(time.Now(), solver.Outcome{Status: solver.StatusFeasible}, 0)

	a := telemetry.Analyze(p)
	require.True(t, a.ConvergenceStagnation)
	require.Equal(t, 1.0, a.StagnationFraction)
}

func TestWarmStartCacheAdaptsKeyedVariablesVerbatimAndDropsStaleTasks(t *testing.T) {
	model := &constraint.Model{
		Tasks: []*constraint.TaskNode{
			{TaskID: uuid.New(), JobNumber: "J-1", SequenceInJob: 0, OperationID: uuid.New()},
		},
	}
	keptTaskID := model.Tasks[0].TaskID
	staleTaskID := uuid.New()

	cached := &solver.Solution{
		Placements: map[uuid.UUID]solver.TaskPlacement{
			keptTaskID:  {TaskID: keptTaskID, StartMinute: 30},
			staleTaskID: {TaskID: staleTaskID, StartMinute: 90},
		},
		Objective: 12,
	}

	cache := telemetry.NewWarmStartCache(4, nil, nil)
	cache.Put(context.Background(), model, cached)

	hint, ok := cache.Hint(context.Background(), model)
	require.True(t, ok)
	require.Len(t, hint.Placements, 1)
	require.Contains(t, hint.Placements, keptTaskID)
	require.NotContains(t, hint.Placements, staleTaskID)
}

func TestWarmStartCacheMissReturnsFalse(t *testing.T) {
	cache := telemetry.NewWarmStartCache(4, nil, nil)
	model := &constraint.Model{}
	_, ok := cache.Hint(context.Background(), model)
	require.False(t, ok)
}
