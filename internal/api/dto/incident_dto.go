package dto

import (
	"time"

	"github.com/spec-kit/incident-service/internal/domain"
)

// CreateIncidentRequest payload. All fields are required.
type CreateIncidentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	GroupName   string `json:"group_name"`
}

// AssignRequest payload.
type AssignRequest struct {
	HandlerEmail string `json:"handler_email"`
}

// UpdateStatusRequest payload. Comment is required but may be empty; a
// pointer distinguishes empty from absent.
type UpdateStatusRequest struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment"`
}

// PredictRequest payload for direct estimation.
type PredictRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	GroupName   string `json:"group_name"`
}

// IncidentSummary response.
type IncidentSummary struct {
	ID          int64                 `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.IncidentStatus `json:"status"`
	GroupName   string                `json:"group"`
	AssignedTo  *string               `json:"assigned_to"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	ClosedAt    *time.Time            `json:"closed_at"`
}

// CreateIncidentResponse returns the incident plus the best-effort estimate.
type CreateIncidentResponse struct {
	Incident       IncidentSummary `json:"incident"`
	PredictedHours *float64        `json:"predicted_hours"`
}

// JournalEntryResponse describes one audit-log entry.
type JournalEntryResponse struct {
	ID        int64                  `json:"id"`
	Author    string                 `json:"author"`
	Comment   string                 `json:"comment"`
	Status    *domain.IncidentStatus `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
}

// IncidentDetailResponse composes an incident with its journal.
type IncidentDetailResponse struct {
	Incident IncidentSummary        `json:"incident"`
	Journal  []JournalEntryResponse `json:"journals"`
}

// DashboardSummaryResponse is the requester's stats card.
type DashboardSummaryResponse struct {
	OpenIncidents        int      `json:"open_incidents"`
	LatestProjectedHours *float64 `json:"latest_projected_hours"`
}

// PredictResponse carries a direct estimation result.
type PredictResponse struct {
	PredictedResolutionHours float64 `json:"predicted_resolution_hours"`
}
