package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/openlearn-vn/openlearn-api/internal/config"
	"github.com/openlearn-vn/openlearn-api/internal/handler"
	"github.com/openlearn-vn/openlearn-api/internal/middleware"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler       *handler.CourseHandler
	QuizHandler         *handler.QuizHandler
	AssignmentHandler   *handler.AssignmentHandler
	SubmissionHandler   *handler.SubmissionHandler
	NotificationHandler *handler.NotificationHandler
	ProgressHandler     *handler.ProgressHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	teaching := middleware.RequireRole(models.RoleTeacher, models.RoleManager, models.RoleAdmin)
	managing := middleware.RequireRole(models.RoleManager, models.RoleAdmin)

	if deps.CourseHandler != nil {
		courses := api.Group("/courses", jwtMiddleware)
		deps.CourseHandler.Register(courses, managing)
	}

	if deps.QuizHandler != nil {
		quizzes := api.Group("/quizzes", jwtMiddleware)
		deps.QuizHandler.Register(quizzes, teaching)
	}

	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments, teaching)

		if deps.SubmissionHandler != nil {
			deps.SubmissionHandler.RegisterAssignmentRoutes(assignments, teaching)

			submissions := api.Group("/submissions", jwtMiddleware)
			deps.SubmissionHandler.Register(submissions, teaching)
		}
	}

	if deps.NotificationHandler != nil {
		notifications := api.Group("/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications, teaching)
	}

	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(api.Group("", jwtMiddleware))
	}
}
