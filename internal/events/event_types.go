package events

import (
	"time"

	"github.com/spec-kit/incident-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIncidentCreated       EventType = "incident_created"
	EventIncidentAssigned      EventType = "incident_assigned"
	EventIncidentStatusChanged EventType = "incident_status_changed"
	EventMembershipAdded       EventType = "membership_added"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID int64           `json:"user_id"`
	Email  string          `json:"email"`
	Role   domain.UserRole `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	IncidentID int64       `json:"incident_id,omitempty"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// IncidentCreatedPayload payload.
type IncidentCreatedPayload struct {
	GroupName       string   `json:"group_name"`
	Title           string   `json:"title"`
	ProjectedHours  *float64 `json:"projected_hours,omitempty"`
	DerivedCategory string   `json:"derived_category"`
}

// IncidentAssignedPayload payload.
type IncidentAssignedPayload struct {
	HandlerID    int64  `json:"handler_id"`
	HandlerEmail string `json:"handler_email"`
	PrevHandler  *int64 `json:"prev_handler_id,omitempty"`
	GroupName    string `json:"group_name"`
}

// IncidentStatusChangedPayload payload.
type IncidentStatusChangedPayload struct {
	OldStatus domain.IncidentStatus `json:"old_status"`
	NewStatus domain.IncidentStatus `json:"new_status"`
	Comment   string                `json:"comment,omitempty"`
}

// MembershipAddedPayload payload.
type MembershipAddedPayload struct {
	GroupName string `json:"group_name"`
}
