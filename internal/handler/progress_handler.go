package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openlearn-vn/openlearn-api/internal/middleware"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
	"github.com/openlearn-vn/openlearn-api/internal/service"
	"github.com/openlearn-vn/openlearn-api/internal/utils"
)

// ProgressHandler serves the student dashboard, both for the student's own
// view and for parents monitoring their children.
type ProgressHandler struct {
	service  service.ProgressService
	students repository.StudentRepository
	parents  repository.ParentRepository
	logger   zerolog.Logger
}

// NewProgressHandler builds a progress handler instance.
func NewProgressHandler(service service.ProgressService, students repository.StudentRepository, parents repository.ParentRepository, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service:  service,
		students: students,
		parents:  parents,
		logger:   logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/progress", h.ownProgress)
	router.Get("/students/:id/progress", h.studentProgress)
}

func (h *ProgressHandler) ownProgress(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	student, err := h.students.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return utils.SendError(c, fiber.StatusForbidden, "student profile required")
	}

	progress, err := h.service.GetStudentProgress(c.UserContext(), student.ID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}

// studentProgress permits teachers, managers and admins, plus parents whose
// children include the requested student.
func (h *ProgressHandler) studentProgress(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}

	if !h.mayView(c, studentID) {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	progress, err := h.service.GetStudentProgress(c.UserContext(), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "progress retrieved", progress)
}

func (h *ProgressHandler) mayView(c *fiber.Ctx, studentID uint) bool {
	switch middleware.RoleFromContext(c) {
	case models.RoleAdmin, models.RoleManager, models.RoleTeacher:
		return true
	case models.RoleParent:
		return h.isParentOf(c, studentID)
	default:
		return false
	}
}

func (h *ProgressHandler) isParentOf(c *fiber.Ctx, studentID uint) bool {
	userID := userIDFromContext(c)
	if userID == 0 {
		return false
	}

	parent, err := h.parents.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return false
	}

	for _, child := range parent.Children {
		if child.ID == studentID {
			return true
		}
	}
	return false
}

func (h *ProgressHandler) handleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrSubmissionNotFound) {
		return utils.SendError(c, fiber.StatusNotFound, "not found")
	}
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
