package solver

import (
	"sort"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/domain"
)

// dispatchOrder returns the model's tasks in a precedence-respecting
// order (Kahn's algorithm), breaking ties among ready tasks by job
// priority weight (descending), then due date (ascending), then sequence
// within job. This gives the constructive scheduler a single deterministic
// pass that never violates a precedence edge.
func dispatchOrder(model *constraint.Model) ([]*constraint.TaskNode, bool) {
	indegree := make(map[uuid.UUID]int, len(model.Tasks))
	children := make(map[uuid.UUID][]uuid.UUID, len(model.Tasks))
	byID := make(map[uuid.UUID]*constraint.TaskNode, len(model.Tasks))
	for _, t := range model.Tasks {
		indegree[t.TaskID] = 0
		byID[t.TaskID] = t
	}
	for _, e := range model.Precedences {
		indegree[e.To]++
		children[e.From] = append(children[e.From], e.To)
	}

	var ready []*constraint.TaskNode
	for _, t := range model.Tasks {
		if indegree[t.TaskID] == 0 {
			ready = append(ready, t)
		}
	}

	less := func(a, b *constraint.TaskNode) bool {
		wa, wb := model.PriorityWeightFor(a.JobNumber), model.PriorityWeightFor(b.JobNumber)
		if wa != wb {
			return wa > wb
		}
		da, _ := model.DueDateFor(a.JobNumber)
		db, _ := model.DueDateFor(b.JobNumber)
		if da != db {
			return da < db
		}
		return a.SequenceInJob < b.SequenceInJob
	}

	var order []*constraint.TaskNode
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, childID := range children[next.TaskID] {
			indegree[childID]--
			if indegree[childID] == 0 {
				ready = append(ready, byID[childID])
			}
		}
	}
	return order, len(order) == len(model.Tasks)
}

// predecessorFloor returns the latest end-minute among taskID's
// already-placed predecessors, given the precedence edges.
func predecessorFloor(model *constraint.Model, placements map[uuid.UUID]TaskPlacement, taskID uuid.UUID) int64 {
	var floor int64
	for _, e := range model.Precedences {
		if e.To != taskID {
			continue
		}
		if p, ok := placements[e.From]; ok {
			if end := p.EndMinute(); end > floor {
				floor = end
			}
		}
	}
	return floor
}

// constructionState bundles the mutable resources the constructive
// scheduler and the local-search repair step book against.
type constructionState struct {
	machines *resourceTimeline
	operators *resourceTimeline
	zones     map[uuid.UUID]*zoneTimeline
}

func newConstructionState(model *constraint.Model) *constructionState {
	zones := make(map[uuid.UUID]*zoneTimeline, len(model.ZoneBounds))
	for _, zb := range model.ZoneBounds {
		zones[zb.ZoneID] = newZoneTimeline(zb.Limit)
	}
	return &constructionState{
		machines:  newResourceTimeline(),
		operators: newResourceTimeline(),
		zones:     zones,
	}
}

// zoneFor returns the zoneTimeline bound to machineID, if the machine
// belongs to a WIP-limited production zone.
func (s *constructionState) zoneFor(model *constraint.Model, machineID uuid.UUID) *zoneTimeline {
	machine, ok := model.Machines[machineID]
	if !ok || machine.ProductionZoneID == nil {
		return nil
	}
	return s.zones[*machine.ProductionZoneID]
}

// maxDispatchProbes bounds the constructive search's per-task probing
// loop so an infeasible task fails fast instead of looping to the full
// horizon one minute at a time.
const maxDispatchProbes = 100000

// construct runs the constructive list-scheduler: tasks are visited in
// dispatchOrder and each is bound to the earliest candidate machine slot
// that clears precedence, the machine's own timeline, its production
// zone's WIP bound, business hours (for attended tasks), and operator
// skill/availability (spec §4.1, §4.5). It returns a best-effort Solution
// together with the set of task ids it could not place.
func construct(model *constraint.Model, objective ObjectiveSpec) (*Solution, []uuid.UUID) {
	order, acyclic := dispatchOrder(model)
	sol := &Solution{Placements: make(map[uuid.UUID]TaskPlacement, len(model.Tasks))}
	if !acyclic {
		var all []uuid.UUID
		for _, t := range model.Tasks {
			all = append(all, t.TaskID)
		}
		return sol, all
	}

	state := newConstructionState(model)
	var unplaced []uuid.UUID

	for _, task := range order {
		floor := predecessorFloor(model, sol.Placements, task.TaskID)
		placement, ok := placeTask(model, state, task, floor)
		if !ok {
			unplaced = append(unplaced, task.TaskID)
			continue
		}
		state.machines.Book(placement.MachineID, placement.StartMinute, placement.SetupMinutes+placement.ProcessingMinutes)
		for _, opID := range placement.OperatorIDs {
			state.operators.Book(opID, placement.StartMinute, placement.SetupMinutes+placement.ProcessingMinutes)
		}
		if zt := state.zoneFor(model, placement.MachineID); zt != nil {
			zt.Book(placement.StartMinute, placement.SetupMinutes+placement.ProcessingMinutes)
		}
		sol.Placements[task.TaskID] = placement
	}

	sol.Objective = objective.Evaluate(model, sol)
	return sol, unplaced
}

// placeTask finds the best (earliest-finishing) feasible placement for
// task across all its candidate machines, never starting before floor.
func placeTask(model *constraint.Model, state *constructionState, task *constraint.TaskNode, floor int64) (TaskPlacement, bool) {
	var best *TaskPlacement
	for _, candidate := range task.Candidates {
		start, ops, ok := findFeasibleStart(model, state, task, candidate, floor)
		if !ok {
			continue
		}
		placement := TaskPlacement{
			TaskID:             task.TaskID,
			MachineID:          candidate.MachineID,
			RoutingOptionIndex: candidate.RoutingOptionIndex,
			OperatorIDs:        ops,
			StartMinute:        start,
			SetupMinutes:       candidate.SetupMinutes,
			ProcessingMinutes:  candidate.ProcessingMinutes,
		}
		if best == nil || placement.EndMinute() < best.EndMinute() {
			best = &placement
		}
	}
	if best == nil {
		return TaskPlacement{}, false
	}
	return *best, true
}

// findFeasibleStart searches forward from floor for the earliest start
// minute on candidate.MachineID at which every constraint clears:
// machine availability, horizon, the machine's zone WIP bound, business
// hours (attended tasks only), and operator availability/skill.
func findFeasibleStart(model *constraint.Model, state *constructionState, task *constraint.TaskNode, candidate constraint.CandidateInterval, floor int64) (int64, []uuid.UUID, bool) {
	size := candidate.SizeMinutes()
	start := floor
	zone := state.zoneFor(model, candidate.MachineID)

	for probes := 0; probes < maxDispatchProbes; probes++ {
		if start+size > model.HorizonMinutes {
			return 0, nil, false
		}
		start = state.machines.EarliestFit(candidate.MachineID, start, size)
		if start+size > model.HorizonMinutes {
			return 0, nil, false
		}

		if candidate.Attended && model.BusinessConstraints.EnforceBusinessHours {
			if !constraint.FitsWithinWorkingHours(model.BusinessConstraints, start, start+size) {
				next, ok := constraint.NextWorkingInstant(model.BusinessConstraints, start, model.HorizonMinutes/1440+1)
				if !ok {
					return 0, nil, false
				}
				start = next
				continue
			}
		}

		if zone != nil && !zone.Fits(start, size) {
			start++
			continue
		}

		var ops []uuid.UUID
		if candidate.Attended && task.RequiredOperators > 0 {
			assigned, ok := assignOperators(model, state, task, candidate, start, size)
			if !ok {
				start++
				continue
			}
			ops = assigned
		}

		return start, ops, true
	}
	return 0, nil, false
}

// assignOperators picks RequiredOperators eligible operators free and
// on-shift for [start, start+size), drawing from candidate's own
// eligible-operator pool (which already merges the task's operation-level
// skill requirements with the candidate machine's own required skills).
func assignOperators(model *constraint.Model, state *constructionState, task *constraint.TaskNode, candidate constraint.CandidateInterval, start, size int64) ([]uuid.UUID, bool) {
	startMOD := int(start % 1440)
	endMOD := startMOD + int(size)

	var picked []uuid.UUID
	for _, opID := range candidate.EligibleOperators {
		op, ok := model.Operators[opID]
		if !ok || !op.Active {
			continue
		}
		if !operatorOnShift(op.ShiftWindow, op.LunchWindow, startMOD, endMOD) {
			continue
		}
		if !state.operators.Fits(opID, start, size) {
			continue
		}
		picked = append(picked, opID)
		if len(picked) == task.RequiredOperators {
			return picked, true
		}
	}
	return nil, false
}

func operatorOnShift(shift, lunch domain.TimeWindow, startMOD, endMOD int) bool {
	if startMOD < shift.StartMinuteOfDay() || endMOD > shift.EndMinuteOfDay() {
		return false
	}
	if startMOD < lunch.EndMinuteOfDay() && lunch.StartMinuteOfDay() < endMOD {
		return false
	}
	return true
}
