package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-activity/internal/api/dto"
	"github.com/spec-kit/ticket-activity/internal/domain"
	"github.com/spec-kit/ticket-activity/internal/service"
	apperrors "github.com/spec-kit/ticket-activity/pkg/util/errorutil"
)

// ActivityHandler exposes the activity log.
type ActivityHandler struct {
	service *service.ActivityLogService
}

// NewActivityHandler constructs handler.
func NewActivityHandler(activityService *service.ActivityLogService) *ActivityHandler {
	return &ActivityHandler{service: activityService}
}

// ListByTicket GET /tickets/:ticketId/activity.
func (h *ActivityHandler) ListByTicket(c *fiber.Ctx) error {
	ticketID, err := positiveParam(c, "ticketId")
	if err != nil {
		return err
	}
	entries, err := h.service.ListByTicket(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewActivityLogEntryResponses(entries)})
}

// Lookup POST /activity/lookup.
func (h *ActivityHandler) Lookup(c *fiber.Ctx) error {
	var req dto.LookupActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entries, err := h.service.ListByIDs(c.UserContext(), req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewActivityLogEntryResponses(entries)})
}

// Record POST /tickets/:ticketId/activity. Accepted work is persisted and broadcast later.
func (h *ActivityHandler) Record(c *fiber.Ctx) error {
	ticketID, err := positiveParam(c, "ticketId")
	if err != nil {
		return err
	}
	var req dto.RecordActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID <= 0 || req.FormType == "" || req.Next == nil {
		return apperrors.NewValidationError("user_id, form_type, next required", nil)
	}

	err = h.service.RecordFormActivity(c.UserContext(), service.FormActivity{
		TicketID:       ticketID,
		UserID:         req.UserID,
		FormType:       req.FormType,
		IsUpdate:       req.IsUpdate,
		IsNewSubRecord: req.IsNewSubRecord,
		Prior:          domain.Snapshot(req.Prior),
		Next:           domain.Snapshot(req.Next),
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}
