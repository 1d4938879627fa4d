package domain

import "github.com/google/uuid"

// Machine is a physical or logical production resource.
type Machine struct {
	ID                uuid.UUID
	Code              string
	AutomationLevel   AutomationLevel
	EfficiencyFactor  float64
	ProductionZoneID  *uuid.UUID
	RequiredOperatorSkills []SkillRequirement
	Status            MachineStatus
	Capacity          int // concurrent task slots; 1 unless multi-slot
}

// NewMachine constructs an AVAILABLE machine. EfficiencyFactor must lie in
// [0.1, 2.0].
func NewMachine(code string, automationLevel AutomationLevel, efficiencyFactor float64) (*Machine, error) {
	if code == "" {
		return nil, NewValidationError("code", "machine code must not be empty")
	}
	if efficiencyFactor < 0.1 || efficiencyFactor > 2.0 {
		return nil, NewValidationError("efficiency_factor", "efficiency factor must lie in [0.1, 2.0]")
	}
	return &Machine{
		ID:               uuid.New(),
		Code:             code,
		AutomationLevel:  automationLevel,
		EfficiencyFactor: efficiencyFactor,
		Status:           MachineAvailable,
		Capacity:         1,
	}, nil
}

// IsAttended reports whether tasks on this machine require continuous
// operator presence.
func (m *Machine) IsAttended() bool { return m.AutomationLevel == Attended }

// TransitionTo moves the machine to next if the lifecycle table allows it.
func (m *Machine) TransitionTo(next MachineStatus) error {
	if !m.Status.CanTransitionTo(next) {
		return NewBusinessRuleViolation("illegal machine status transition", map[string]any{
			"from": string(m.Status), "to": string(next), "machine_code": m.Code,
		})
	}
	m.Status = next
	return nil
}

// EffectiveProcessingMinutes rounds processing/efficiency up to the next
// whole minute, as required by the interval-variable size formula
// (spec §4.1).
func (m *Machine) EffectiveProcessingMinutes(base Duration) int64 {
	if m.EfficiencyFactor <= 0 {
		return base.Minutes()
	}
	scaled := float64(base.Minutes()) / m.EfficiencyFactor
	whole := int64(scaled)
	if float64(whole) < scaled {
		whole++
	}
	return whole
}
