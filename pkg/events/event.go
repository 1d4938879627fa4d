// Package events implements the domain event bus (spec §4.6): typed
// events with synchronous and concurrent publish, handler registration
// coalesced by reference equality, and a bounded ring buffer for
// diagnostic replay.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind enumerates every event the domain layer may emit (spec §4.6).
type Kind string

const (
	JobCreated              Kind = "JobCreated"
	JobStatusChanged        Kind = "JobStatusChanged"
	JobCompleted            Kind = "JobCompleted"
	JobDelayed              Kind = "JobDelayed"
	TaskScheduled           Kind = "TaskScheduled"
	TaskStarted             Kind = "TaskStarted"
	TaskCompleted           Kind = "TaskCompleted"
	TaskDelayed             Kind = "TaskDelayed"
	TaskStatusChanged       Kind = "TaskStatusChanged"
	TaskAssignmentChanged   Kind = "TaskAssignmentChanged"
	MachineAllocated        Kind = "MachineAllocated"
	MachineReleased         Kind = "MachineReleased"
	MachineStatusChanged    Kind = "MachineStatusChanged"
	OperatorAssigned        Kind = "OperatorAssigned"
	OperatorReleased        Kind = "OperatorReleased"
	SchedulePublished       Kind = "SchedulePublished"
	ScheduleUpdated         Kind = "ScheduleUpdated"
	ResourceConflictDetected Kind = "ResourceConflictDetected"
	CriticalPathChanged     Kind = "CriticalPathChanged"
	ConstraintViolated      Kind = "ConstraintViolated"
	DeadlineMissed          Kind = "DeadlineMissed"
	SkillRequirementNotMet  Kind = "SkillRequirementNotMet"
	MaintenanceScheduled    Kind = "MaintenanceScheduled"
	PriorityChanged         Kind = "PriorityChanged"
)

// Event is one immutable record on the bus. Payload carries kind-specific
// data (e.g. a TaskScheduled event's assignment); callers type-assert it
// against the kind they subscribed to.
type Event struct {
	EventID     uuid.UUID
	Kind        Kind
	OccurredAt  time.Time
	AggregateID uuid.UUID
	Payload     any
}

// NewEvent constructs an Event with a fresh id and the current monotonic
// instant.
func NewEvent(kind Kind, aggregateID uuid.UUID, payload any) Event {
	return Event{
		EventID:     uuid.New(),
		Kind:        kind,
		OccurredAt:  time.Now(),
		AggregateID: aggregateID,
		Payload:     payload,
	}
}
