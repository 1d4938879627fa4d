package domain

import "github.com/google/uuid"

// RoutingOption is one candidate machine an Operation may run on, with
// its own processing and setup times.
type RoutingOption struct {
	MachineID      uuid.UUID
	ProcessingTime Duration
	SetupTime      Duration
}

// Operation is a reusable catalogue entry describing a type of
// manufacturing step: its candidate machines (routing options) and the
// skills an operator must hold to run it.
type Operation struct {
	ID              uuid.UUID
	Code            string
	Description     string
	RoutingOptions  []RoutingOption
	RequiredSkills  []SkillRequirement
	RequiredOperators int // number of concurrent operators an attended task needs
}

// NewOperation constructs an Operation needing one operator. It checks
// only that code is non-empty; routingOptions may be empty, but such an
// operation can never be scheduled (the builder rejects requests whose
// tasks reference it, spec §4.1).
func NewOperation(code string, routingOptions []RoutingOption, requiredSkills []SkillRequirement) (*Operation, error) {
	if code == "" {
		return nil, NewValidationError("code", "operation code must not be empty")
	}
	return &Operation{
		ID:                uuid.New(),
		Code:              code,
		RoutingOptions:    routingOptions,
		RequiredSkills:    requiredSkills,
		RequiredOperators: 1,
	}, nil
}

// RoutingOptionFor returns the routing option bound to machineID and its
// index in RoutingOptions (used as routing_option_index), or false if the
// machine is not a candidate for this operation.
func (o *Operation) RoutingOptionFor(machineID uuid.UUID) (RoutingOption, int, bool) {
	for i, opt := range o.RoutingOptions {
		if opt.MachineID == machineID {
			return opt, i, true
		}
	}
	return RoutingOption{}, -1, false
}
