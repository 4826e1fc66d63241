package domain

import "time"

// JournalEntry is an immutable, append-only record tied to one incident.
// Status is nil for pure comments; when set it records the incident status
// in effect at the time of writing, so ordered entries filtered to non-nil
// statuses reproduce the incident's status history.
type JournalEntry struct {
	ID         int64
	IncidentID int64
	AuthorID   int64
	Comment    string
	Status     *IncidentStatus
	CreatedAt  time.Time

	// Denormalized for read views.
	AuthorEmail string
}
