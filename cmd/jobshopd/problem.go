package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/flowforge/jobshop/pkg/constraint"
	"github.com/flowforge/jobshop/pkg/domain"
	"github.com/flowforge/jobshop/pkg/engine"
	"github.com/flowforge/jobshop/pkg/solver"
)

// problemFile is the on-disk JSON shape a "solve" invocation reads: a
// complete SolveRequest expressed in human-editable codes (machine code,
// operation code, operator name) rather than the uuid.UUIDs the engine
// keys its maps by. loadProblem resolves codes to ids as it builds the
// domain objects.
type problemFile struct {
	ProblemName       string             `json:"problem_name"`
	ScheduleStart     time.Time          `json:"schedule_start"`
	HorizonDays       int                `json:"horizon_days"`
	MakespanIsHardCap bool               `json:"makespan_is_hard_cap"`

	Machines   []machineDTO   `json:"machines"`
	Operations []operationDTO `json:"operations"`
	Operators  []operatorDTO  `json:"operators"`
	Zones      []zoneDTO      `json:"zones"`
	Jobs       []jobDTO       `json:"jobs"`

	CandidateMachineCodes  []string `json:"candidate_machine_codes"`
	CandidateOperatorNames []string `json:"candidate_operator_names"`

	BusinessConstraints    businessConstraintsDTO `json:"business_constraints"`
	OptimizationParameters optimizationParamsDTO  `json:"optimization_parameters"`
	SolverConfig           *solver.Config         `json:"solver_config"`
}

type machineDTO struct {
	Code             string  `json:"code"`
	Automation       string  `json:"automation"` // "ATTENDED" | "UNATTENDED"
	EfficiencyFactor float64 `json:"efficiency_factor"`
	ZoneCode         string  `json:"zone_code"`
}

type routingOptionDTO struct {
	MachineCode       string `json:"machine_code"`
	ProcessingMinutes int64  `json:"processing_minutes"`
	SetupMinutes      int64  `json:"setup_minutes"`
}

type skillRequirementDTO struct {
	SkillCode    string `json:"skill_code"`
	MinimumLevel int    `json:"minimum_level"`
}

type operationDTO struct {
	Code              string                `json:"code"`
	RoutingOptions    []routingOptionDTO    `json:"routing_options"`
	RequiredSkills    []skillRequirementDTO `json:"required_skills"`
	RequiredOperators int                   `json:"required_operators"`
}

type operatorDTO struct {
	Name              string         `json:"name"`
	Skills            map[string]int `json:"skills"`
	ShiftStartMinute  int            `json:"shift_start_minute"`
	ShiftEndMinute    int            `json:"shift_end_minute"`
	LunchStartMinute  int            `json:"lunch_start_minute"`
	LunchEndMinute    int            `json:"lunch_end_minute"`
	HourlyRate        float64        `json:"hourly_rate"`
}

type zoneDTO struct {
	Code     string `json:"code"`
	WIPLimit int    `json:"wip_limit"`
}

type taskDTO struct {
	OperationCode              string `json:"operation_code"`
	SequenceInJob              int    `json:"sequence_in_job"`
	PlannedDurationMinutes     int64  `json:"planned_duration_minutes"`
	SetupDurationMinutes       int64  `json:"setup_duration_minutes"`
	RequiresSameMachineAsSetup bool   `json:"requires_same_machine_as_setup"`
	SetupForSequence           *int   `json:"setup_for_sequence,omitempty"`
}

type jobDTO struct {
	JobNumber string    `json:"job_number"`
	Priority  string    `json:"priority"` // LOW | NORMAL | HIGH | URGENT
	DueDate   time.Time `json:"due_date"`
	Quantity  int       `json:"quantity"`
	Tasks     []taskDTO `json:"tasks"`
}

type businessConstraintsDTO struct {
	WorkStartHour        int     `json:"work_start_hour"`
	WorkEndHour          int     `json:"work_end_hour"`
	LunchStartHour       float64 `json:"lunch_start_hour"`
	LunchDurationMinutes int     `json:"lunch_duration_minutes"`
	HolidayDays          []int   `json:"holiday_days"`
	EnforceBusinessHours bool    `json:"enforce_business_hours"`
}

type optimizationParamsDTO struct {
	PrimaryWeight             float64 `json:"primary_weight"`
	MakespanWeight            float64 `json:"makespan_weight"`
	CostOptimizationTolerance float64 `json:"cost_optimization_tolerance"`
}

func priorityFromString(s string) domain.Priority {
	switch s {
	case "LOW":
		return domain.PriorityLow
	case "HIGH":
		return domain.PriorityHigh
	case "URGENT":
		return domain.PriorityUrgent
	default:
		return domain.PriorityNormal
	}
}

// loadProblem reads and resolves a problemFile at path into an
// engine.SolveRequest.
func loadProblem(path string) (engine.SolveRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return engine.SolveRequest{}, fmt.Errorf("reading problem file: %w", err)
	}
	var pf problemFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return engine.SolveRequest{}, fmt.Errorf("parsing problem file: %w", err)
	}
	return pf.resolve()
}

func (pf problemFile) resolve() (engine.SolveRequest, error) {
	zonesByCode := map[string]uuid.UUID{}
	zones := map[uuid.UUID]*domain.ProductionZone{}
	for _, z := range pf.Zones {
		zone, err := domain.NewProductionZone(z.Code, z.WIPLimit)
		if err != nil {
			return engine.SolveRequest{}, err
		}
		zonesByCode[z.Code] = zone.ID
		zones[zone.ID] = zone
	}

	machinesByCode := map[string]uuid.UUID{}
	machines := map[uuid.UUID]*domain.Machine{}
	for _, m := range pf.Machines {
		automation := domain.Unattended
		if m.Automation == "ATTENDED" {
			automation = domain.Attended
		}
		machine, err := domain.NewMachine(m.Code, automation, m.EfficiencyFactor)
		if err != nil {
			return engine.SolveRequest{}, err
		}
		if m.ZoneCode != "" {
			if zoneID, ok := zonesByCode[m.ZoneCode]; ok {
				machine.ProductionZoneID = &zoneID
			}
		}
		machinesByCode[m.Code] = machine.ID
		machines[machine.ID] = machine
	}

	operationsByCode := map[string]uuid.UUID{}
	operations := map[uuid.UUID]*domain.Operation{}
	for _, o := range pf.Operations {
		var routingOptions []domain.RoutingOption
		for _, r := range o.RoutingOptions {
			machineID, ok := machinesByCode[r.MachineCode]
			if !ok {
				return engine.SolveRequest{}, fmt.Errorf("operation %s references unknown machine %s", o.Code, r.MachineCode)
			}
			routingOptions = append(routingOptions, domain.RoutingOption{
				MachineID:      machineID,
				ProcessingTime: domain.NewDuration(r.ProcessingMinutes),
				SetupTime:      domain.NewDuration(r.SetupMinutes),
			})
		}
		var requiredSkills []domain.SkillRequirement
		for _, s := range o.RequiredSkills {
			requiredSkills = append(requiredSkills, domain.SkillRequirement{SkillCode: s.SkillCode, MinimumLevel: domain.SkillLevel(s.MinimumLevel)})
		}
		operation, err := domain.NewOperation(o.Code, routingOptions, requiredSkills)
		if err != nil {
			return engine.SolveRequest{}, err
		}
		if o.RequiredOperators > 0 {
			operation.RequiredOperators = o.RequiredOperators
		}
		operationsByCode[o.Code] = operation.ID
		operations[operation.ID] = operation
	}

	operatorsByName := map[string]uuid.UUID{}
	operators := map[uuid.UUID]*domain.Operator{}
	for _, op := range pf.Operators {
		skills := domain.SkillSet{}
		for code, level := range op.Skills {
			skills[code] = domain.SkillLevel(level)
		}
		shiftWindow, err := domain.NewRelativeWindow(op.ShiftStartMinute, op.ShiftEndMinute)
		if err != nil {
			return engine.SolveRequest{}, err
		}
		lunchWindow, err := domain.NewRelativeWindow(op.LunchStartMinute, op.LunchEndMinute)
		if err != nil {
			return engine.SolveRequest{}, err
		}
		operator, err := domain.NewOperator(op.Name, skills, shiftWindow, lunchWindow, op.HourlyRate)
		if err != nil {
			return engine.SolveRequest{}, err
		}
		operatorsByName[op.Name] = operator.ID
		operators[operator.ID] = operator
	}

	var jobs []engine.JobRequest
	for _, j := range pf.Jobs {
		var tasks []constraint.JobTaskSpec
		for _, t := range j.Tasks {
			operationID, ok := operationsByCode[t.OperationCode]
			if !ok {
				return engine.SolveRequest{}, fmt.Errorf("job %s references unknown operation %s", j.JobNumber, t.OperationCode)
			}
			tasks = append(tasks, constraint.JobTaskSpec{
				OperationID:                operationID,
				SequenceInJob:              t.SequenceInJob,
				PlannedDuration:            domain.NewDuration(t.PlannedDurationMinutes),
				SetupDuration:              domain.NewDuration(t.SetupDurationMinutes),
				RequiresSameMachineAsSetup: t.RequiresSameMachineAsSetup,
				SetupForSequence:           t.SetupForSequence,
			})
		}
		jobs = append(jobs, engine.JobRequest{
			JobNumber: j.JobNumber,
			Priority:  priorityFromString(j.Priority),
			DueDate:   j.DueDate,
			Quantity:  j.Quantity,
			Tasks:     tasks,
		})
	}

	var candidateMachines []uuid.UUID
	for _, code := range pf.CandidateMachineCodes {
		if id, ok := machinesByCode[code]; ok {
			candidateMachines = append(candidateMachines, id)
		}
	}
	var candidateOperators []uuid.UUID
	for _, name := range pf.CandidateOperatorNames {
		if id, ok := operatorsByName[name]; ok {
			candidateOperators = append(candidateOperators, id)
		}
	}

	req := engine.SolveRequest{
		ProblemName:       pf.ProblemName,
		ScheduleStart:     pf.ScheduleStart,
		HorizonDays:       pf.HorizonDays,
		MakespanIsHardCap: pf.MakespanIsHardCap,
		Jobs:              jobs,
		Operations:        operations,
		Machines:          machines,
		Operators:         operators,
		Zones:             zones,
		CandidateMachineIDs:  candidateMachines,
		CandidateOperatorIDs: candidateOperators,
		BusinessConstraints: domain.BusinessConstraints{
			WorkStartHour:        pf.BusinessConstraints.WorkStartHour,
			WorkEndHour:          pf.BusinessConstraints.WorkEndHour,
			LunchStartHour:       pf.BusinessConstraints.LunchStartHour,
			LunchDurationMinutes: pf.BusinessConstraints.LunchDurationMinutes,
			HolidayDays:          pf.BusinessConstraints.HolidayDays,
			EnforceBusinessHours: pf.BusinessConstraints.EnforceBusinessHours,
		},
		OptimizationParameters: engine.OptimizationParameters{
			PrimaryWeight:             pf.OptimizationParameters.PrimaryWeight,
			MakespanWeight:            pf.OptimizationParameters.MakespanWeight,
			CostOptimizationTolerance: pf.OptimizationParameters.CostOptimizationTolerance,
		},
	}
	if pf.SolverConfig != nil {
		req.SolverConfig = *pf.SolverConfig
	}
	return req, nil
}
