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

// SubmissionHandler manages free-text submission endpoints, including the
// teacher grade override.
type SubmissionHandler struct {
	submissions service.SubmissionService
	grading     service.GradingService
	students    repository.StudentRepository
	logger      zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(submissions service.SubmissionService, grading service.GradingService, students repository.StudentRepository, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		grading:     grading,
		students:    students,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterAssignmentRoutes attaches the submit/read routes nested under
// assignments. reviewing is applied to teacher-facing listing.
func (h *SubmissionHandler) RegisterAssignmentRoutes(router fiber.Router, reviewing fiber.Handler) {
	router.Post("/:id/submit", h.submit)
	router.Get("/:id/submission", h.getOwn)
	router.Get("/:id/submissions", reviewing, h.listByAssignment)
}

// Register attaches the direct submission routes. reviewing guards the
// teacher grade override.
func (h *SubmissionHandler) Register(router fiber.Router, reviewing fiber.Handler) {
	router.Get("/:id", h.get)
	router.Post("/:id/grade", reviewing, h.grade)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	studentID, err := h.actingStudent(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusForbidden, "student profile required")
	}

	var payload dto.AssignmentSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.Submit(c.UserContext(), assignmentID, studentID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	// Grading happens out of band; the submission is acknowledged before a
	// score exists.
	return utils.SendAccepted(c, "submission accepted, grading in progress", submission)
}

func (h *SubmissionHandler) getOwn(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	studentID, err := h.actingStudent(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusForbidden, "student profile required")
	}

	submission, err := h.submissions.GetForStudent(c.UserContext(), assignmentID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) listByAssignment(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	submissions, err := h.submissions.ListByAssignment(c.UserContext(), assignmentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	submission, err := h.submissions.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) grade(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	var payload dto.TeacherGradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.grading.Override(c.UserContext(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grade applied", submission)
}

func (h *SubmissionHandler) actingStudent(c *fiber.Ctx) (uint, error) {
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

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrNotEnrolled):
		return utils.SendError(c, fiber.StatusForbidden, "not enrolled in this course")
	case errors.Is(err, service.ErrScoreExceedsMax):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "score exceeds assignment max")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
