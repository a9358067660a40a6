package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/openlearn-vn/openlearn-api/internal/config"
	"github.com/openlearn-vn/openlearn-api/internal/database"
	"github.com/openlearn-vn/openlearn-api/internal/handler"
	"github.com/openlearn-vn/openlearn-api/internal/middleware"
	"github.com/openlearn-vn/openlearn-api/internal/models"
	"github.com/openlearn-vn/openlearn-api/internal/repository"
	"github.com/openlearn-vn/openlearn-api/internal/router"
	"github.com/openlearn-vn/openlearn-api/internal/service"
	"github.com/openlearn-vn/openlearn-api/pkg/ai"
	cloud "github.com/openlearn-vn/openlearn-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{}, &models.Student{}, &models.Teacher{}, &models.Parent{},
		&models.Course{}, &models.Lesson{}, &models.Enrollment{},
		&models.Quiz{}, &models.Question{}, &models.QuizSubmission{}, &models.QuizAnswer{},
		&models.Assignment{}, &models.Submission{}, &models.Notification{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer natsConn.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	quizSubmissionRepo := repository.NewQuizSubmissionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	parentRepo := repository.NewParentRepository(db)

	grader, err := ai.NewOpenAIGrader(ai.OpenAIConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai grader: %v", err)
	}

	notificationService := service.NewNotificationService(notificationRepo, enrollmentRepo, redisClient, cfg.NotificationChannel, natsConn, validate, logger)
	gradingService := service.NewGradingService(grader, func() *gorm.DB { return db.Session(&gorm.Session{NewDB: true}) }, submissionRepo, notificationService, validate, logger, service.GradingConfig{
		Workers:    cfg.GradingWorkers,
		QueueSize:  cfg.GradingQueueSize,
		JobTimeout: cfg.GradingJobTimeout,
	})

	courseService := service.NewCourseService(courseRepo, enrollmentRepo, validate, logger)
	quizService := service.NewQuizService(quizRepo, quizSubmissionRepo, enrollmentRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, uploader, cfg.AttachmentMaxMB, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, studentRepo, enrollmentRepo, gradingService, validate, logger)
	progressService := service.NewProgressService(enrollmentRepo, assignmentRepo, submissionRepo, quizSubmissionRepo, redisClient, cfg.ProgressCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:       handler.NewCourseHandler(courseService, studentRepo, logger),
		QuizHandler:         handler.NewQuizHandler(quizService, studentRepo, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, gradingService, studentRepo, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		ProgressHandler:     handler.NewProgressHandler(progressService, studentRepo, parentRepo, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, gradingService, logger)
}

// waitForShutdown stops the HTTP server first, then drains the grading
// queue so accepted submissions are not lost on deploy.
func waitForShutdown(app *fiber.App, grading service.GradingService, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if err := grading.Stop(ctx); err != nil {
		logger.Error().Err(err).Msg("grading queue did not drain before timeout")
	}

	logger.Info().Msg("server stopped")
}
