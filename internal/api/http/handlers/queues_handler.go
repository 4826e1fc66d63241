package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/dto"
	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/service"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

// QueuesHandler serves the read-only incident projections.
type QueuesHandler struct {
	queues *service.QueueService
}

// NewQueuesHandler constructs handler.
func NewQueuesHandler(queues *service.QueueService) *QueuesHandler {
	return &QueuesHandler{queues: queues}
}

// MyIncidents GET /incidents/my.
func (h *QueuesHandler) MyIncidents(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	incidents, err := h.queues.MyIncidents(c.Context(), principal.User.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incidentSummaries(incidents)})
}

// GroupQueue GET /incidents/queue?group=<name>.
func (h *QueuesHandler) GroupQueue(c *fiber.Ctx) error {
	groupName := strings.TrimSpace(c.Query("group"))
	if groupName == "" {
		return apperrors.NewValidationError("group query parameter required", nil)
	}
	incidents, err := h.queues.GroupQueue(c.Context(), groupName)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incidentSummaries(incidents)})
}

// AssignedToMe GET /incidents/assigned.
func (h *QueuesHandler) AssignedToMe(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	incidents, err := h.queues.AssignedTo(c.Context(), principal.User.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incidentSummaries(incidents)})
}

// Summary GET /dashboard/summary.
func (h *QueuesHandler) Summary(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	summary, err := h.queues.Summary(c.Context(), principal.User.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardSummaryResponse{
		OpenIncidents:        summary.OpenCount,
		LatestProjectedHours: summary.LatestProjectedHours,
	}})
}

func incidentSummaries(incidents []domain.Incident) []dto.IncidentSummary {
	items := make([]dto.IncidentSummary, 0, len(incidents))
	for i := range incidents {
		items = append(items, incidentSummary(&incidents[i]))
	}
	return items
}
