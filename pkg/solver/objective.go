package solver

import (
	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/domain"
)

// ObjectiveKind selects which of the hierarchical optimizer's three phases
// (spec §4.3) the solver is being asked to minimize.
type ObjectiveKind string

const (
	// ObjectiveFeasibility asks only for any placement of every task;
	// Evaluate always returns 0 for this kind.
	ObjectiveFeasibility ObjectiveKind = "FEASIBILITY"
	// ObjectiveTardinessMakespan is the primary objective: a weighted sum
	// of total job tardiness and overall makespan.
	ObjectiveTardinessMakespan ObjectiveKind = "TARDINESS_MAKESPAN"
	// ObjectiveOperatorCost is the secondary objective: total operator
	// labor cost, minimized subject to PrimaryCeiling.
	ObjectiveOperatorCost ObjectiveKind = "OPERATOR_COST"
)

// ObjectiveSpec is the objective function the driver optimizes against,
// supplied by pkg/optimizer for each of its three phases (spec §4.3).
type ObjectiveSpec struct {
	Kind              ObjectiveKind
	TardinessWeight   float64
	MakespanWeight    float64
	HasPrimaryCeiling bool
	PrimaryCeiling    float64 // phase 3 only: primary objective must not exceed this
}

// Evaluate scores a Solution under this spec; lower is better.
func (s ObjectiveSpec) Evaluate(model *constraint.Model, sol *Solution) float64 {
	switch s.Kind {
	case ObjectiveFeasibility:
		return 0
	case ObjectiveOperatorCost:
		return operatorCost(model, sol)
	default:
		return primaryObjective(model, sol, s.TardinessWeight, s.MakespanWeight)
	}
}

// SatisfiesCeiling reports whether sol's primary objective (using this
// spec's own TardinessWeight/MakespanWeight) stays at or under
// PrimaryCeiling. Always true when HasPrimaryCeiling is false.
func (s ObjectiveSpec) SatisfiesCeiling(model *constraint.Model, sol *Solution) bool {
	if !s.HasPrimaryCeiling {
		return true
	}
	return primaryObjective(model, sol, s.TardinessWeight, s.MakespanWeight) <= s.PrimaryCeiling
}

func primaryObjective(model *constraint.Model, sol *Solution, tardinessWeight, makespanWeight float64) float64 {
	return tardinessWeight*totalTardiness(model, sol) + makespanWeight*float64(makespan(sol))
}

// jobCompletionMinutes maps job number to the end-minute of its
// last-placed task.
func jobCompletionMinutes(model *constraint.Model, sol *Solution) map[string]int64 {
	completion := make(map[string]int64, len(model.DueDates))
	for _, task := range model.Tasks {
		placement, ok := sol.Placements[task.TaskID]
		if !ok {
			continue
		}
		if end := placement.EndMinute(); end > completion[task.JobNumber] {
			completion[task.JobNumber] = end
		}
	}
	return completion
}

func totalTardiness(model *constraint.Model, sol *Solution) float64 {
	completion := jobCompletionMinutes(model, sol)
	var total float64
	for _, dd := range model.DueDates {
		if late := completion[dd.JobNumber] - dd.DueMinutes; late > 0 {
			total += float64(late)
		}
	}
	return total
}

func makespan(sol *Solution) int64 {
	var max int64
	for _, p := range sol.Placements {
		if end := p.EndMinute(); end > max {
			max = end
		}
	}
	return max
}

func operatorCost(model *constraint.Model, sol *Solution) float64 {
	var total float64
	for _, p := range sol.Placements {
		assigned := domain.NewDuration(p.SetupMinutes + p.ProcessingMinutes)
		for _, opID := range p.OperatorIDs {
			if op, ok := model.Operators[opID]; ok {
				total += op.CostFor(assigned)
			}
		}
	}
	return total
}
