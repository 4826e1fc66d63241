package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/dto"
	"github.com/spec-kit/incident-service/internal/auth"
	"github.com/spec-kit/incident-service/internal/domain"
	"github.com/spec-kit/incident-service/internal/service"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

// IncidentsHandler manages incident lifecycle endpoints.
type IncidentsHandler struct {
	lifecycle *service.LifecycleService
}

// NewIncidentsHandler constructs handler.
func NewIncidentsHandler(lifecycle *service.LifecycleService) *IncidentsHandler {
	return &IncidentsHandler{lifecycle: lifecycle}
}

// Create POST /incidents.
func (h *IncidentsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateIncidentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.GroupName) == "" {
		return apperrors.NewValidationError("title, description, group_name required", nil)
	}

	incident, predicted, err := h.lifecycle.CreateIncident(c.Context(), principal.User.Email, service.CreateIncidentInput{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		GroupName:   strings.TrimSpace(req.GroupName),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CreateIncidentResponse{
		Incident:       incidentSummary(incident),
		PredictedHours: predicted,
	}})
}

// Get GET /incidents/:id.
func (h *IncidentsHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	incident, journal, err := h.lifecycle.GetDetail(c.Context(), id)
	if err != nil {
		return err
	}
	entries := make([]dto.JournalEntryResponse, 0, len(journal))
	for i := range journal {
		entries = append(entries, journalEntryResponse(&journal[i]))
	}
	return c.JSON(fiber.Map{"data": dto.IncidentDetailResponse{
		Incident: incidentSummary(incident),
		Journal:  entries,
	}})
}

// Assign POST /incidents/:id/assign.
func (h *IncidentsHandler) Assign(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.HandlerEmail) == "" {
		return apperrors.NewValidationError("handler_email required", nil)
	}

	incident, err := h.lifecycle.Assign(c.Context(), id, req.HandlerEmail)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incidentSummary(incident)})
}

// UpdateStatus POST /incidents/:id/status.
func (h *IncidentsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	if req.Comment == nil {
		return apperrors.NewValidationError("comment required (may be empty)", nil)
	}

	incident, err := h.lifecycle.UpdateStatus(c.Context(), id, principal.User.Email,
		domain.IncidentStatus(req.Status), *req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": incidentSummary(incident)})
}

// Predict POST /predict.
func (h *IncidentsHandler) Predict(c *fiber.Ctx) error {
	var req dto.PredictRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("title or description required", nil)
	}

	hours, err := h.lifecycle.Predict(c.Context(), req.Title, req.Description, req.GroupName)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PredictResponse{PredictedResolutionHours: hours}})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid incident id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func incidentSummary(incident *domain.Incident) dto.IncidentSummary {
	return dto.IncidentSummary{
		ID:          incident.ID,
		Title:       incident.Title,
		Description: incident.Description,
		Status:      incident.Status,
		GroupName:   incident.GroupName,
		AssignedTo:  incident.HandlerEmail,
		CreatedAt:   incident.CreatedAt,
		UpdatedAt:   incident.UpdatedAt,
		ClosedAt:    incident.ClosedAt,
	}
}

func journalEntryResponse(entry *domain.JournalEntry) dto.JournalEntryResponse {
	return dto.JournalEntryResponse{
		ID:        entry.ID,
		Author:    entry.AuthorEmail,
		Comment:   entry.Comment,
		Status:    entry.Status,
		CreatedAt: entry.CreatedAt,
	}
}
