package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/acepass/acepass/internal/admin"
	"github.com/acepass/acepass/internal/auth"
	"github.com/acepass/acepass/internal/config"
	"github.com/acepass/acepass/internal/credential"
	"github.com/acepass/acepass/internal/exam"
	"github.com/acepass/acepass/internal/middleware"
	"github.com/acepass/acepass/internal/notification"
	"github.com/acepass/acepass/internal/payment"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Verifier payment.Verifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Repositories: Postgres when available, in-memory in dev mode.
	var credRepo credential.Repository
	var examRepo exam.Repository
	var adminRepo admin.Repository
	if d.DB != nil {
		credRepo = credential.NewPostgresRepository(d.DB)
		examRepo = exam.NewPostgresRepository(d.DB)
		adminRepo = admin.NewPostgresRepository(d.DB)
	} else {
		credRepo = credential.NewMemoryRepository()
		examRepo = exam.NewMemoryRepository()
		adminRepo = admin.NewMemoryRepository()
	}

	// Services
	notifier := notification.NewLoggerNotifier(d.Logger)
	credSvc := credential.NewService(credRepo, notifier, d.Cfg.CodeValidity)
	paymentSvc := payment.NewService(credSvc, credRepo, d.Verifier, notifier, d.Cfg.ExamFeeMinor)
	examSvc := exam.NewService(examRepo)
	adminSvc := admin.NewService(adminRepo, d.Cfg.BootstrapAdminMaxUses)
	tokenSvc := auth.NewService(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL)

	if err := adminSvc.Seed(context.Background(), d.Cfg.BootstrapAdminUsername, d.Cfg.BootstrapAdminPassword); err != nil {
		return fmt.Errorf("seed bootstrap admin: %w", err)
	}

	paymentHandler := payment.NewHandler(paymentSvc)
	examHandler := exam.NewHandler(examSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.AuthorizeRateLimit(d.Cache, d.Cfg.AuthorizeMaxPerMin)
	RegisterCredentialRoutes(api, credSvc, rateLimiter)
	RegisterPaymentRoutes(api, paymentHandler, d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	api.Get("/subjects", examHandler.ListSubjects)
	api.Get("/subjects/:id/questions/count", examHandler.CountQuestions)

	// Exam routes behind the session gate
	gated := api.Group("/exams", middleware.SessionGate(credSvc))
	RegisterExamRoutes(gated, examHandler)

	// Admin routes
	RegisterAdminRoutes(api, AdminDeps{
		Admins:      adminSvc,
		AdminRepo:   adminRepo,
		Tokens:      tokenSvc,
		Credentials: credSvc,
		Exams:       examHandler,
	})

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
