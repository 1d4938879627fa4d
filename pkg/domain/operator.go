package domain

import "github.com/google/uuid"

// Operator is a person who may be assigned to attended tasks.
type Operator struct {
	ID           uuid.UUID
	Name         string
	Skills       SkillSet
	ShiftWindow  TimeWindow // relative window, e.g. 08:00-16:00
	LunchWindow  TimeWindow // relative window within the shift
	HourlyRate   float64
	Active       bool
}

// NewOperator constructs an active Operator with the given shift and
// lunch windows (both must be relative windows).
func NewOperator(name string, skills SkillSet, shiftWindow, lunchWindow TimeWindow, hourlyRate float64) (*Operator, error) {
	if name == "" {
		return nil, NewValidationError("name", "operator name must not be empty")
	}
	if shiftWindow.Kind() != RelativeWindow || lunchWindow.Kind() != RelativeWindow {
		return nil, NewValidationError("shift_window", "operator shift and lunch windows must be relative")
	}
	if hourlyRate < 0 {
		return nil, NewValidationError("hourly_rate", "hourly rate must be nonnegative")
	}
	if skills == nil {
		skills = SkillSet{}
	}
	return &Operator{
		ID:          uuid.New(),
		Name:        name,
		Skills:      skills,
		ShiftWindow: shiftWindow,
		LunchWindow: lunchWindow,
		HourlyRate:  hourlyRate,
		Active:      true,
	}, nil
}

// HasSkills reports whether the operator satisfies every requirement.
func (o *Operator) HasSkills(requirements []SkillRequirement) bool {
	return o.Skills.Meets(requirements)
}

// CostFor bills hourly rate against an assigned duration.
func (o *Operator) CostFor(assigned Duration) float64 {
	return o.HourlyRate * assigned.Hours()
}
