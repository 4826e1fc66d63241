package domain

import "time"

// Group is a named routing bucket. Every incident is routed to exactly one
// group at creation.
type Group struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Membership links a handler to a group. Only active memberships authorize
// assignment.
type Membership struct {
	ID        int64
	UserID    int64
	GroupID   int64
	IsActive  bool
	CreatedAt time.Time
}
