// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"time"

	"fellowship/internal/bootstrap"
	"fellowship/internal/config"
	"fellowship/internal/consistency"
	"fellowship/internal/featureflags"
	"fellowship/internal/middleware"
	"fellowship/internal/models"
	"fellowship/internal/repository"
	"fellowship/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Per-user limits on write endpoints. They fail open when Redis is down.
const (
	writeLimit    = 30
	writeWindow   = time.Minute
	commentLimit  = 10
	commentWindow = time.Minute
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	engine         *consistency.Engine
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	featureFlags   *featureflags.Manager
	flagStore      *featureflags.Store
	postService    *service.PostService
	commentService *service.CommentService
	prayerService  *service.PrayerService
	xpService      *service.XpService
	adminService   *service.AdminService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; rate limits then fail open.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	engine := bootstrap.NewEngine(cfg, db)

	userRepo := repository.NewUserRepository(db, engine)
	postRepo := repository.NewPostRepository(db, engine)
	commentRepo := repository.NewCommentRepository(db, engine)
	reactionRepo := repository.NewReactionRepository(db, engine)
	prayerRepo := repository.NewPrayerRepository(db, engine)
	xpRepo := repository.NewXpRepository(db, engine)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("fellowship-api"),
		engine:         engine,
		userRepo:       userRepo,
		postRepo:       postRepo,
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		flagStore:      featureflags.NewStore(db),
	}

	rewards := service.NewRewarder(xpRepo, server.flagStore, server.featureFlags)
	server.postService = service.NewPostService(postRepo, reactionRepo, server.isAdminByUserID)
	server.commentService = service.NewCommentService(commentRepo, server.isAdminByUserID, rewards)
	server.prayerService = service.NewPrayerService(prayerRepo, server.isAdminByUserID, rewards)
	server.xpService = service.NewXpService(xpRepo)
	server.adminService = service.NewAdminService(userRepo, postRepo, prayerRepo, xpRepo, engine, server.flagStore)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// limiter returns the Redis client as a Cmdable, nil when Redis is absent.
func (s *Server) limiter() redis.Cmdable {
	if s.redis == nil {
		return nil
	}
	return s.redis
}

func (s *Server) writeLimit(resource string) fiber.Handler {
	return middleware.RateLimit(s.limiter(), resource, writeLimit, writeWindow, middleware.FailOpen)
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	// Public reads
	api.Get("/posts", s.GetPosts)
	api.Get("/posts/:id/comments", s.GetComments)
	api.Get("/posts/:id/reactions", s.GetReactionCounts)
	api.Get("/posts/:id", s.GetPost)
	api.Get("/prayers", s.GetPrayers)
	api.Get("/prayers/:id/commits", s.GetPrayerCommits)
	api.Get("/prayers/:id", s.GetPrayer)
	api.Get("/users/:id/xp", s.GetUserXp)

	protected := api.Group("", middleware.AuthRequired)

	protected.Get("/feature-flags", s.GetFeatureFlags)
	protected.Get("/me/xp", s.GetMyXp)
	protected.Get("/me/xp/events", s.GetMyXpEvents)

	posts := protected.Group("/posts")
	posts.Post("/", s.writeLimit("create_post"), s.CreatePost)
	// Specific /:id/:resource routes before generic /:id
	posts.Post("/:id/restore", s.RestorePost)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.limiter(), "create_comment", commentLimit, commentWindow, middleware.FailOpen), s.CreateComment)
	posts.Post("/:id/reactions", s.writeLimit("react"), s.AddReaction)
	posts.Delete("/:id/reactions/:type", s.RemoveReaction)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	comments := protected.Group("/comments")
	comments.Post("/:id/restore", s.RestoreComment)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	prayers := protected.Group("/prayers")
	prayers.Post("/", s.writeLimit("create_prayer"), s.CreatePrayer)
	prayers.Post("/:id/restore", s.RestorePrayer)
	prayers.Post("/:id/commits", s.writeLimit("commit_prayer"), s.CommitPrayer)
	prayers.Put("/:id/status", s.UpdatePrayerStatus)
	prayers.Delete("/:id", s.DeletePrayer)
	protected.Delete("/prayer-commits/:id", s.DeletePrayerCommit)

	admin := protected.Group("/admin", middleware.AdminRequired(s.isAdminByUserID))
	admin.Get("/policies", s.GetPolicies)
	admin.Delete("/entities/:kind/:id", s.DeleteEntity)
	admin.Delete("/comments/:id", s.PurgeComment)
	admin.Post("/xp/events", s.RecordXpEvent)
	admin.Post("/xp/recompute", s.RecomputeAllXp)
	admin.Post("/xp/recompute/:id", s.RecomputeXp)
	admin.Post("/posts/:id/recount", s.RecountPost)
	admin.Post("/prayers/:id/recount", s.RecountPrayer)
	admin.Get("/admins", s.GetAdmins)
	admin.Post("/users/:id/promote-admin", s.PromoteToAdmin)
	admin.Post("/users/:id/demote-admin", s.DemoteFromAdmin)
	admin.Get("/feature-flags", s.GetStoredFeatureFlags)
	admin.Put("/feature-flags/:key", s.PutFeatureFlag)
	admin.Delete("/feature-flags/:key", s.DeleteFeatureFlag)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional; only
// the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Fellowship API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, models.NewValidationError(fe.Message))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.App()
	middleware.Logger.Info("server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
