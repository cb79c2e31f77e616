package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-activity/internal/api/dto"
	"github.com/spec-kit/ticket-activity/internal/service"
	apperrors "github.com/spec-kit/ticket-activity/pkg/util/errorutil"
)

// AssigneeHandler syncs ticket assignees.
type AssigneeHandler struct {
	service *service.AssignmentService
}

// NewAssigneeHandler constructs handler.
func NewAssigneeHandler(assignmentService *service.AssignmentService) *AssigneeHandler {
	return &AssigneeHandler{service: assignmentService}
}

// Ensure POST /tickets/:ticketId/assignees.
func (h *AssigneeHandler) Ensure(c *fiber.Ctx) error {
	ticketID, err := positiveParam(c, "ticketId")
	if err != nil {
		return err
	}
	var req dto.EnsureAssigneeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.EnsureAssignee(c.UserContext(), ticketID, req.UserID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
