package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/dto"
	"github.com/spec-kit/incident-service/internal/service"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

// GroupsHandler manages group and membership endpoints.
type GroupsHandler struct {
	directory *service.DirectoryService
}

// NewGroupsHandler constructs handler.
func NewGroupsHandler(directory *service.DirectoryService) *GroupsHandler {
	return &GroupsHandler{directory: directory}
}

// EnsureGroup POST /groups.
func (h *GroupsHandler) EnsureGroup(c *fiber.Ctx) error {
	var req dto.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}

	group, err := h.directory.EnsureGroup(c.Context(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.GroupResponse{
		ID:        group.ID,
		Name:      group.Name,
		CreatedAt: group.CreatedAt,
	}})
}

// AddMember POST /groups/members.
func (h *GroupsHandler) AddMember(c *fiber.Ctx) error {
	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.HandlerEmail) == "" || strings.TrimSpace(req.GroupName) == "" {
		return apperrors.NewValidationError("handler_email, group_name required", nil)
	}

	membership, err := h.directory.AddMembership(c.Context(), req.HandlerEmail, req.GroupName)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.MembershipResponse{
		ID:       membership.ID,
		UserID:   membership.UserID,
		GroupID:  membership.GroupID,
		IsActive: membership.IsActive,
	}})
}
