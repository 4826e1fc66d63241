package dto

import "time"

// CreateGroupRequest payload.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// GroupResponse describes a routing group.
type GroupResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AddMemberRequest payload for joining a handler to a group.
type AddMemberRequest struct {
	HandlerEmail string `json:"handler_email"`
	GroupName    string `json:"group_name"`
}

// MembershipResponse describes a membership.
type MembershipResponse struct {
	ID       int64 `json:"id"`
	UserID   int64 `json:"user_id"`
	GroupID  int64 `json:"group_id"`
	IsActive bool  `json:"is_active"`
}
