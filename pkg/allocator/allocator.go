// Package allocator decodes a solver.Solution's minute-offset placements
// into domain.ScheduleAssignment values anchored to wall-clock instants,
// and confirms the postconditions spec §4.5 requires of that decoding: a
// total map (every solved task has exactly one assignment), conflict-free
// resource bookings, and an assignment count equal to the number of
// placed solver variables.
package allocator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/criticalpath"
	"github.com/flowforge/jobshop/pkg/domain"
	"github.com/flowforge/jobshop/pkg/solver"
)

// Allocate converts sol into a task_id -> ScheduleAssignment map, marking
// the tasks the critical-path analysis reports as zero-float, and
// returns the total operator labor cost across every assignment.
func Allocate(model *constraint.Model, sol *solver.Solution) (map[uuid.UUID]domain.ScheduleAssignment, float64, error) {
	if criticalpath.HasResourceConflict(sol) {
		return nil, 0, domain.NewResourceConflict("solution contains overlapping resource bookings", nil)
	}

	report := criticalpath.Analyze(model, sol)
	critical := make(map[uuid.UUID]bool, len(report.CriticalTasks))
	for _, id := range report.CriticalTasks {
		critical[id] = true
	}

	assignments := make(map[uuid.UUID]domain.ScheduleAssignment, len(sol.Placements))
	var totalCost float64
	for taskID, placement := range sol.Placements {
		assignment, cost, err := decode(model, placement, critical[taskID])
		if err != nil {
			return nil, 0, err
		}
		assignments[taskID] = assignment
		totalCost += cost
	}

	if len(assignments) != len(sol.Placements) {
		return nil, 0, fmt.Errorf("allocator: decoded %d assignments from %d placements", len(assignments), len(sol.Placements))
	}

	return assignments, totalCost, nil
}

func decode(model *constraint.Model, placement solver.TaskPlacement, isCritical bool) (domain.ScheduleAssignment, float64, error) {
	start := model.ScheduleStart.Add(minutes(placement.StartMinute))
	setupEnd := start.Add(minutes(placement.SetupMinutes))
	end := setupEnd.Add(minutes(placement.ProcessingMinutes))

	var cost float64
	for _, opID := range placement.OperatorIDs {
		if op, ok := model.Operators[opID]; ok {
			cost += op.CostFor(domain.NewDuration(placement.SetupMinutes + placement.ProcessingMinutes))
		}
	}

	return domain.ScheduleAssignment{
		TaskID:             placement.TaskID,
		MachineID:          placement.MachineID,
		OperatorIDs:        append([]uuid.UUID(nil), placement.OperatorIDs...),
		StartInstant:       start,
		EndInstant:         end,
		SetupDuration:      domain.NewDuration(placement.SetupMinutes),
		ProcessingDuration: domain.NewDuration(placement.ProcessingMinutes),
		IsCriticalPath:     isCritical,
		RoutingOptionIndex: placement.RoutingOptionIndex,
	}, cost, nil
}

func minutes(m int64) time.Duration { return time.Duration(m) * time.Minute }
