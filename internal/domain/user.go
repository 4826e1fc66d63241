package domain

import "time"

// UserRole tags what a user may do. Handlers are the only role permitted
// to join groups and be assigned incidents.
type UserRole string

const (
	RoleRequester UserRole = "requester"
	RoleHandler   UserRole = "handler"
)

// User is an identity keyed by email.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
