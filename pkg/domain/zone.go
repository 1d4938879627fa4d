package domain

import "github.com/google/uuid"

// ProductionZone groups machines under a shared work-in-progress limit.
// The WIP counter is maintained by an external system; the solver only
// reads it as an upper bound on simultaneously-active tasks.
type ProductionZone struct {
	ID       uuid.UUID
	Code     string
	WIPLimit int
	CurrentWIP int
}

// NewProductionZone constructs a zone. WIPLimit must be >= 1.
func NewProductionZone(code string, wipLimit int) (*ProductionZone, error) {
	if code == "" {
		return nil, NewValidationError("code", "zone code must not be empty")
	}
	if wipLimit < 1 {
		return nil, NewValidationError("wip_limit", "WIP limit must be >= 1")
	}
	return &ProductionZone{ID: uuid.New(), Code: code, WIPLimit: wipLimit}, nil
}

// HasHeadroom reports whether the zone can accept another active task.
func (z *ProductionZone) HasHeadroom() bool { return z.CurrentWIP < z.WIPLimit }
