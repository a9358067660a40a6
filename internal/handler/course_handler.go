package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/openlearn-vn/openlearn-api/internal/dto"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
	"github.com/openlearn-vn/openlearn-api/internal/service"
	"github.com/openlearn-vn/openlearn-api/internal/utils"
)

// CourseHandler manages the catalog and enrollment endpoints.
type CourseHandler struct {
	service  service.CourseService
	students repository.StudentRepository
	logger   zerolog.Logger
}

// NewCourseHandler builds a course handler instance.
func NewCourseHandler(service service.CourseService, students repository.StudentRepository, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		service:  service,
		students: students,
		logger:   logger.With().Str("component", "course_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. managing is
// applied to catalog mutations.
func (h *CourseHandler) Register(router fiber.Router, managing fiber.Handler) {
	router.Get("", h.list)
	router.Get("/enrollments", h.listEnrollments)
	router.Get("/:id", h.get)
	router.Post("", managing, h.create)
	router.Post("/:id/lessons", managing, h.addLesson)
	router.Post("/:id/enroll", h.enroll)
}

func (h *CourseHandler) list(c *fiber.Ctx) error {
	courses, err := h.service.List(c.UserContext())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CourseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	course, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "course retrieved", course)
}

func (h *CourseHandler) create(c *fiber.Ctx) error {
	var payload dto.CourseCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "course created", course)
}

func (h *CourseHandler) addLesson(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	var payload dto.LessonCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	course, err := h.service.AddLesson(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson added", course)
}

func (h *CourseHandler) enroll(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}

	studentID, err := h.actingStudent(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusForbidden, "student profile required")
	}

	enrollment, err := h.service.Enroll(c.UserContext(), id, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "enrolled", enrollment)
}

func (h *CourseHandler) listEnrollments(c *fiber.Ctx) error {
	studentID, err := h.actingStudent(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusForbidden, "student profile required")
	}

	enrollments, err := h.service.ListEnrollments(c.UserContext(), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "enrollments retrieved", enrollments)
}

func (h *CourseHandler) actingStudent(c *fiber.Ctx) (uint, error) {
	userID := userIDFromContext(c)
	if userID == 0 {
		return 0, errors.New("no authenticated user")
	}

	student, err := h.students.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return 0, err
	}

	return student.ID, nil
}

func (h *CourseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "course not found")
	case errors.Is(err, service.ErrCourseArchived):
		return utils.SendError(c, fiber.StatusConflict, "course is archived")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return utils.SendError(c, fiber.StatusConflict, "already enrolled")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
