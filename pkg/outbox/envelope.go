package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	EmployeeID *uuid.UUID `json:"employeeId,omitempty"`
	StoreID    *uuid.UUID `json:"storeId,omitempty"`
	Source     string     `json:"source,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// SchedulerActor tags events produced by background jobs.
func SchedulerActor() *ActorRef {
	return &ActorRef{Source: "scheduler"}
}

// StoreActor tags events produced on behalf of a store, optionally by an employee.
func StoreActor(storeID uuid.UUID, employeeID *uuid.UUID) *ActorRef {
	store := storeID
	return &ActorRef{StoreID: &store, EmployeeID: employeeID, Source: "api"}
}
