package solver

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/constraint"
)

// maxDryRounds is the number of consecutive non-improving LNS rounds the
// local-search loop tolerates before declaring convergence and returning
// early, rather than burning the rest of the time budget.
const maxDryRounds = 20

// destroyFraction is the share of placed tasks a single LNS trial removes
// before re-inserting them, varied by LNSFocus: a quick-restart focus
// disturbs more of the schedule per round to escape local optima faster,
// at the cost of a noisier search; an improvement focus disturbs less and
// refines around the incumbent.
func destroyFraction(focus LNSFocus) float64 {
	if focus == LNSQuickRestart {
		return 0.3
	}
	return 0.1
}

// localSearch runs a bounded large-neighborhood-search improvement loop
// over incumbent, starting from the constructive solution, using
// cfg.NumSearchWorkers concurrent trial goroutines per round (spec §4.2's
// num_search_workers). It returns the best solution found and counts of
// rounds/solutions for Statistics.
func localSearch(ctx context.Context, model *constraint.Model, objective ObjectiveSpec, cfg Config, incumbent *Solution, startTime, deadline time.Time, callback Callback) (*Solution, int64, int, bool) {
	if !cfg.UseLNS || len(model.Tasks) == 0 {
		return incumbent, 0, 0, false
	}

	best := incumbent
	bestObjective := incumbent.Objective
	rng := rand.New(rand.NewSource(1))
	var rounds int64
	var solutionsFound int
	dry := 0
	canceled := false

roundLoop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			canceled = true
			break roundLoop
		default:
		}

		seeds := make([]int64, cfg.NumSearchWorkers)
		for i := range seeds {
			seeds[i] = rng.Int63()
		}

		trialResults := make([]*Solution, cfg.NumSearchWorkers)
		var wg sync.WaitGroup
		for i := 0; i < cfg.NumSearchWorkers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				trialResults[i] = lnsTrial(model, objective, cfg, best, rand.New(rand.NewSource(seeds[i])))
			}(i)
		}
		wg.Wait()
		rounds++

		improved := false
		for _, trial := range trialResults {
			if trial == nil {
				continue
			}
			if !objective.SatisfiesCeiling(model, trial) {
				continue
			}
			if trial.Objective < bestObjective {
				best = trial
				bestObjective = trial.Objective
				improved = true
			}
		}

		if improved {
			dry = 0
			solutionsFound++
			if callback != nil {
				signal := callback(ProgressUpdate{
					ObjectiveValue:  bestObjective,
					BestBound:       bestObjective,
					SolutionsFound:  solutionsFound,
					WallTimeSeconds: time.Since(startTime).Seconds(),
					Branches:        rounds,
				})
				if signal == SignalStop {
					break roundLoop
				}
			}
		} else {
			dry++
			if dry >= maxDryRounds {
				break roundLoop
			}
		}
	}

	return best, rounds, solutionsFound, canceled
}

// lnsTrial destroys a random fraction of incumbent's placements and
// reconstructs them in dispatch order, returning the repaired solution
// (which may be worse than incumbent; the caller compares objectives).
func lnsTrial(model *constraint.Model, objective ObjectiveSpec, cfg Config, incumbent *Solution, rng *rand.Rand) *Solution {
	order, acyclic := dispatchOrder(model)
	if !acyclic {
		return nil
	}

	removed := selectDestroySet(order, incumbent, destroyFraction(cfg.LNSFocus), rng)
	state := newConstructionState(model)
	placements := make(map[uuid.UUID]TaskPlacement, len(incumbent.Placements))

	// Re-book every surviving placement first so the destroyed tasks are
	// repaired against the rest of the incumbent schedule, not an empty one.
	for taskID, p := range incumbent.Placements {
		if removed[taskID] {
			continue
		}
		placements[taskID] = p
		state.machines.Book(p.MachineID, p.StartMinute, p.SetupMinutes+p.ProcessingMinutes)
		for _, opID := range p.OperatorIDs {
			state.operators.Book(opID, p.StartMinute, p.SetupMinutes+p.ProcessingMinutes)
		}
		if zt := state.zoneFor(model, p.MachineID); zt != nil {
			zt.Book(p.StartMinute, p.SetupMinutes+p.ProcessingMinutes)
		}
	}

	for _, task := range order {
		if _, already := placements[task.TaskID]; already {
			continue
		}
		floor := predecessorFloor(model, placements, task.TaskID)
		placement, ok := placeTask(model, state, task, floor)
		if !ok {
			return nil // repair failed to restore feasibility this round
		}
		state.machines.Book(placement.MachineID, placement.StartMinute, placement.SetupMinutes+placement.ProcessingMinutes)
		for _, opID := range placement.OperatorIDs {
			state.operators.Book(opID, placement.StartMinute, placement.SetupMinutes+placement.ProcessingMinutes)
		}
		if zt := state.zoneFor(model, placement.MachineID); zt != nil {
			zt.Book(placement.StartMinute, placement.SetupMinutes+placement.ProcessingMinutes)
		}
		placements[task.TaskID] = placement
	}

	sol := &Solution{Placements: placements}
	sol.Objective = objective.Evaluate(model, sol)
	return sol
}

func selectDestroySet(order []*constraint.TaskNode, incumbent *Solution, fraction float64, rng *rand.Rand) map[uuid.UUID]bool {
	count := int(float64(len(order)) * fraction)
	if count < 1 {
		count = 1
	}
	if count > len(order) {
		count = len(order)
	}
	shuffled := append([]*constraint.TaskNode{}, order...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	removed := make(map[uuid.UUID]bool, count)
	picked := 0
	for _, t := range shuffled {
		if picked == count {
			break
		}
		if _, ok := incumbent.Placements[t.TaskID]; ok {
			removed[t.TaskID] = true
			picked++
		}
	}
	return removed
}
