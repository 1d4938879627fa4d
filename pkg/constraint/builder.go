package constraint

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/domain"
)

// JobTaskSpec is one task within a requested job, as named in spec §6's
// SolveRequest ("task_sequences[]"). Whether a task's processing needs
// continuous operator presence is a property of the machine it ends up
// routed to (Machine.AutomationLevel), not of the task itself — see
// CandidateInterval.Attended.
type JobTaskSpec struct {
	OperationID     uuid.UUID
	SequenceInJob   int
	PlannedDuration domain.Duration
	SetupDuration   domain.Duration

	// RequiresSameMachineAsSetup resolves the spec's open question about
	// setup_for_task_id back-references (domain.Task's field of the same
	// name): when true, this task must land on the same machine as the
	// task named by SetupForSequence within the same job.
	RequiresSameMachineAsSetup bool
	SetupForSequence           *int
}

// JobSpec is one job within a SolveRequest.
type JobSpec struct {
	JobNumber string
	Priority  domain.Priority
	DueDate   time.Time
	Quantity  int
	Tasks     []JobTaskSpec
}

// BuildInput is everything the builder needs to assemble a Model: the
// decomposed fields of a SolveRequest (spec §6), kept separate from
// pkg/engine's request/response types to avoid a package cycle (engine
// orchestrates constraint -> solver -> optimizer -> allocator).
type BuildInput struct {
	ScheduleStart       time.Time
	HorizonDays         int
	MakespanIsHardCap   bool
	Jobs                []JobSpec
	Operations          map[uuid.UUID]*domain.Operation
	Machines            map[uuid.UUID]*domain.Machine
	Operators           map[uuid.UUID]*domain.Operator
	Zones               map[uuid.UUID]*domain.ProductionZone
	BusinessConstraints domain.BusinessConstraints
}

// Builder translates a BuildInput into a Model.
type Builder struct {
	logger *slog.Logger
}

// NewBuilder constructs a Builder. A nil logger defaults to slog.Default().
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger}
}

// Build validates the input and assembles the Model, or returns one of
// the error conditions named in spec §4.1: empty job list, unknown
// operation reference, a task whose operation has no feasible candidate
// machine, a due date before the schedule start, or a holiday outside
// the horizon.
func (b *Builder) Build(in BuildInput) (*Model, error) {
	if len(in.Jobs) == 0 {
		return nil, domain.NewValidationError("jobs", "solve request must include at least one job")
	}
	if in.HorizonDays <= 0 {
		return nil, domain.NewValidationError("horizon_days", "horizon must be positive")
	}
	horizonMinutes := int64(in.HorizonDays) * 1440

	if err := in.BusinessConstraints.Validate(in.HorizonDays); err != nil {
		return nil, err
	}

	model := &Model{
		ScheduleStart:       in.ScheduleStart,
		HorizonMinutes:      horizonMinutes,
		MakespanIsHardCap:   in.MakespanIsHardCap,
		BusinessConstraints: in.BusinessConstraints,
		Operators:           in.Operators,
		Machines:            in.Machines,
	}

	for _, job := range in.Jobs {
		dueMinutes := int64(job.DueDate.Sub(in.ScheduleStart).Minutes())
		if dueMinutes < 0 {
			return nil, domain.NewValidationError("due_date", "due date before schedule start for job "+job.JobNumber)
		}

		for _, taskSpec := range job.Tasks {
			op, ok := in.Operations[taskSpec.OperationID]
			if !ok {
				return nil, domain.NewValidationError("operation_id", "task references unknown operation "+taskSpec.OperationID.String())
			}

			node := &TaskNode{
				TaskID:            uuid.New(),
				JobNumber:         job.JobNumber,
				OperationID:       taskSpec.OperationID,
				SequenceInJob:     taskSpec.SequenceInJob,
				RequiredOperators: op.RequiredOperators,
				RequiredSkills:    op.RequiredSkills,
			}

			for idx, routing := range op.RoutingOptions {
				machine, ok := in.Machines[routing.MachineID]
				if !ok || machine.Status == domain.MachineOffline {
					continue
				}
				setup := routing.SetupTime.Minutes()
				if !taskSpec.SetupDuration.IsZero() {
					setup = taskSpec.SetupDuration.Minutes()
				}
				processingBase := routing.ProcessingTime
				if !taskSpec.PlannedDuration.IsZero() {
					processingBase = taskSpec.PlannedDuration
				}
				candidate := CandidateInterval{
					MachineID:          routing.MachineID,
					RoutingOptionIndex: idx,
					SetupMinutes:       setup,
					ProcessingMinutes:  machine.EffectiveProcessingMinutes(processingBase),
					Attended:           machine.IsAttended(),
				}
				if candidate.Attended {
					required := append(append([]domain.SkillRequirement{}, op.RequiredSkills...), machine.RequiredOperatorSkills...)
					for id, operator := range in.Operators {
						if operator.Active && operator.HasSkills(required) {
							candidate.EligibleOperators = append(candidate.EligibleOperators, id)
						}
					}
				}
				node.Candidates = append(node.Candidates, candidate)
			}
			if len(node.Candidates) == 0 {
				return nil, domain.NewValidationError("operation_id", "operation "+op.Code+" has no candidate machine satisfying the current resource pool")
			}

			model.Tasks = append(model.Tasks, node)
			model.NumVariables += len(node.Candidates)
			model.NumConstraints += len(node.Candidates) + 1
		}

		model.DueDates = append(model.DueDates, JobDueDate{
			JobNumber:      job.JobNumber,
			DueMinutes:     dueMinutes,
			PriorityWeight: job.Priority.Weight(),
		})

		// Precedence: consecutive tasks by SequenceInJob within the job.
		jobTasks := model.tasksForJob(job.JobNumber)
		for i := 0; i+1 < len(jobTasks); i++ {
			model.Precedences = append(model.Precedences, PrecedenceEdge{From: jobTasks[i].TaskID, To: jobTasks[i+1].TaskID})
		}

		if err := enforceSameMachineAsSetup(job, jobTasks); err != nil {
			return nil, err
		}
	}

	for zoneID, zone := range in.Zones {
		var zoneMachines []uuid.UUID
		for id, m := range in.Machines {
			if m.ProductionZoneID != nil && *m.ProductionZoneID == zoneID {
				zoneMachines = append(zoneMachines, id)
			}
		}
		if len(zoneMachines) > 0 {
			model.ZoneBounds = append(model.ZoneBounds, ZoneBound{ZoneID: zoneID, Limit: zone.WIPLimit, MachineIDs: zoneMachines})
		}
	}

	for _, holiday := range in.BusinessConstraints.HolidayDays {
		if holiday < 0 || holiday >= in.HorizonDays {
			return nil, domain.NewValidationError("holiday_days", "holiday day lies outside the horizon")
		}
	}

	b.logger.Debug("built constraint model", "tasks", len(model.Tasks), "variables", model.NumVariables, "constraints", model.NumConstraints)
	return model, nil
}

func (m *Model) tasksForJob(jobNumber string) []*TaskNode {
	var out []*TaskNode
	for _, t := range m.Tasks {
		if t.JobNumber == jobNumber {
			out = append(out, t)
		}
	}
	// Stable sort by sequence; jobs rarely exceed a few dozen tasks so an
	// insertion sort keeps this allocation-free and simple.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].SequenceInJob > out[j].SequenceInJob; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func taskNodeBySequence(jobTasks []*TaskNode, sequenceInJob int) *TaskNode {
	for _, t := range jobTasks {
		if t.SequenceInJob == sequenceInJob {
			return t
		}
	}
	return nil
}

// enforceSameMachineAsSetup restricts the candidates of every setup task
// in job whose spec sets RequiresSameMachineAsSetup, and of the production
// task its SetupForSequence names, to the machines they have in common
// (the same direction as domain.Task's fields). This is the active
// enforcement of domain.Task.RequiresSameMachineAsSetup: it prunes
// CandidateInterval entries rather than adding a separate constraint, so
// the solver can never place the two tasks on different machines.
func enforceSameMachineAsSetup(job JobSpec, jobTasks []*TaskNode) error {
	for _, taskSpec := range job.Tasks {
		if !taskSpec.RequiresSameMachineAsSetup || taskSpec.SetupForSequence == nil {
			continue
		}
		setup := taskNodeBySequence(jobTasks, taskSpec.SequenceInJob)
		production := taskNodeBySequence(jobTasks, *taskSpec.SetupForSequence)
		if production == nil || setup == nil {
			return domain.NewValidationError("setup_for_sequence", "job "+job.JobNumber+" references an unknown production task sequence")
		}

		common := map[uuid.UUID]bool{}
		for _, c := range setup.Candidates {
			common[c.MachineID] = true
		}
		production.Candidates = filterCandidatesByMachine(production.Candidates, common)
		setupMachines := map[uuid.UUID]bool{}
		for _, c := range production.Candidates {
			setupMachines[c.MachineID] = true
		}
		setup.Candidates = filterCandidatesByMachine(setup.Candidates, setupMachines)

		if len(production.Candidates) == 0 || len(setup.Candidates) == 0 {
			return domain.NewValidationError("setup_for_sequence", "job "+job.JobNumber+" has no machine common to both its setup and production task")
		}
	}
	return nil
}

func filterCandidatesByMachine(candidates []CandidateInterval, keep map[uuid.UUID]bool) []CandidateInterval {
	out := candidates[:0:0]
	for _, c := range candidates {
		if keep[c.MachineID] {
			out = append(out, c)
		}
	}
	return out
}
