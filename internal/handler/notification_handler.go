package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/service"
	"github.com/openlearn-vn/openlearn-api/internal/utils"
)

// NotificationHandler manages the per-user inbox endpoints.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler builds a notification handler instance.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. broadcasting
// guards the course-wide announcement endpoint.
func (h *NotificationHandler) Register(router fiber.Router, broadcasting fiber.Handler) {
	router.Get("", h.list)
	router.Get("/unread-count", h.unreadCount)
	router.Post("/read-all", h.markAllRead)
	router.Post("/broadcast", broadcasting, h.broadcast)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	notifications, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "notifications retrieved", notifications)
}

func (h *NotificationHandler) unreadCount(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	count, err := h.service.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "unread count retrieved", fiber.Map{"unread": count})
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	if err := h.service.MarkAllRead(c.UserContext(), userID); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "notifications marked read", nil)
}

func (h *NotificationHandler) broadcast(c *fiber.Ctx) error {
	var payload dto.BroadcastRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	recipients, err := h.service.Broadcast(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "broadcast delivered", fiber.Map{"recipients": recipients})
}

func (h *NotificationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return utils.SendError(c, fiber.StatusBadRequest, "message empty after sanitization")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
