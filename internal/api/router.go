package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/voiceguard/biometric-system/internal/api/handler"
	"github.com/voiceguard/biometric-system/internal/api/middleware"
	"github.com/voiceguard/biometric-system/internal/core/domain"
	"github.com/voiceguard/biometric-system/internal/core/ports"
	"github.com/voiceguard/biometric-system/internal/core/service"
	mongorepo "github.com/voiceguard/biometric-system/internal/infrastructure/db/mongo"
)

// RouterDeps carries the services the router exposes over HTTP. They are
// constructed in main so the router stays free of adapter wiring.
type RouterDeps struct {
	Challenges   ports.ChallengeService
	Enrollment   ports.EnrollmentService
	Verification ports.VerificationService
	Audit        ports.AuditService
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, jwtSecret string, deps RouterDeps, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("voiceguard"))

	// --- Operator auth ---
	operatorRepo := mongorepo.NewOperatorRepository(db)
	authService := service.NewAuthService(operatorRepo, jwtSecret, 24*time.Hour)
	authHandler := handler.NewAuthHandler(authService)
	authMiddleware := middleware.Auth(jwtSecret)

	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Enrollment routes ---
	enrollmentHandler := handler.NewEnrollmentHandler(deps.Enrollment)
	enrollment := e.Group("/v1/enrollment", authMiddleware, middleware.RBAC(domain.RoleService, domain.RoleAdmin))
	enrollment.POST("/start", enrollmentHandler.Start)
	enrollment.POST("/:session_id/samples", enrollmentHandler.AddSample)
	enrollment.POST("/:session_id/complete", enrollmentHandler.Complete)
	enrollment.DELETE("/:session_id", enrollmentHandler.Cancel)

	// --- Verification routes ---
	verificationHandler := handler.NewVerificationHandler(deps.Challenges, deps.Verification)
	verification := e.Group("/v1/verification", authMiddleware, middleware.RBAC(domain.RoleService, domain.RoleAdmin))
	verification.POST("/start", verificationHandler.Start)
	verification.POST("/verify", verificationHandler.Verify)

	// --- Audit routes ---
	auditHandler := handler.NewAuditHandler(deps.Audit)
	audit := e.Group("/v1/audit", authMiddleware, middleware.RBAC(domain.RoleAuditor, domain.RoleAdmin))
	audit.GET("/attempts", auditHandler.List)

	return e
}
