package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-activity/internal/api/dto"
	"github.com/spec-kit/ticket-activity/internal/events"
	"github.com/spec-kit/ticket-activity/internal/service"
	apperrors "github.com/spec-kit/ticket-activity/pkg/util/errorutil"
)

// NotificationHandler accepts ad-hoc and team-scoped events.
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler constructs handler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: notificationService}
}

// Publish POST /rooms/publish.
func (h *NotificationHandler) Publish(c *fiber.Ctx) error {
	var req dto.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.PublishToRoom(req.Room, events.Name(req.Event), req.Payload); err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

// BookmarkCreated POST /teams/:teamId/bookmarks/created.
func (h *NotificationHandler) BookmarkCreated(c *fiber.Ctx) error {
	teamID, err := positiveParam(c, "teamId")
	if err != nil {
		return err
	}
	var req dto.BookmarkCreatedRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	n, err := h.service.BookmarkCreated(c.UserContext(), teamID, events.BookmarkSummary{
		ID:        req.ID,
		Name:      req.Name,
		CreatedBy: req.CreatedBy,
		Filters:   req.Filters,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NotifyResponse{Recipients: n}})
}

// BookmarkDeleted POST /teams/:teamId/bookmarks/deleted.
func (h *NotificationHandler) BookmarkDeleted(c *fiber.Ctx) error {
	teamID, err := positiveParam(c, "teamId")
	if err != nil {
		return err
	}
	var req dto.BookmarkDeletedRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	n, err := h.service.BookmarkDeleted(c.UserContext(), teamID, req.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NotifyResponse{Recipients: n}})
}
