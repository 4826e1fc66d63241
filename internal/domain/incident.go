package domain

import "time"

// IncidentStatus enumerates lifecycle states for incidents.
type IncidentStatus string

const (
	StatusOpen       IncidentStatus = "open"
	StatusAssigned   IncidentStatus = "assigned"
	StatusInProgress IncidentStatus = "in-progress"
	StatusResolved   IncidentStatus = "resolved"
	StatusClosed     IncidentStatus = "closed"
)

// updateTargets is the set of statuses an explicit update may set. Once an
// incident leaves "open" it can never re-enter it.
var updateTargets = map[IncidentStatus]struct{}{
	StatusAssigned:   {},
	StatusInProgress: {},
	StatusResolved:   {},
	StatusClosed:     {},
}

// IsUpdateTarget reports whether s is a legal target of updateStatus.
func (s IncidentStatus) IsUpdateTarget() bool {
	_, ok := updateTargets[s]
	return ok
}

// IsTerminal reports whether s has no outgoing transitions.
func (s IncidentStatus) IsTerminal() bool {
	return s == StatusClosed
}

// Incident is the central tracked entity. Title, description, requester and
// group are fixed at creation; status, handler and timestamps mutate only
// through the lifecycle service.
type Incident struct {
	ID                int64
	Title             string
	Description       string
	Status            IncidentStatus
	RequesterID       int64
	AssignedGroupID   int64
	AssignedHandlerID *int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ClosedAt          *time.Time

	// Denormalized for read views; populated by repository joins.
	GroupName    string
	HandlerEmail *string
}
