// Package server wires the blog's HTTP surface: middleware, routes, handlers and the
// health checks.
package server

import (
	"context"
	"fmt"
	"time"

	"quill/internal/auth"
	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/mailer"
	"quill/internal/middleware"
	"quill/internal/repository"
	"quill/internal/service"
	"quill/internal/view"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "quill"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	views          *view.Engine
	sessions       *auth.Manager
	mailer         mailer.Sender
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	authService    *service.AuthService
	postService    *service.PostService
	commentService *service.CommentService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redisClient selects the in-process session store.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	views := view.New()
	if err := views.Load(); err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	var store auth.Store
	if redisClient != nil {
		store = auth.NewRedisStore(redisClient)
	} else {
		middleware.Logger.Warn("Redis unavailable: sessions are kept in process memory")
		store = auth.NewMemoryStore()
	}
	sessions := auth.NewManager(store, cfg.SecretKey, cfg.SessionTTL, cfg.RememberTTL)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics(serviceName),
		views:          views,
		sessions:       sessions,
		mailer:         mailer.NewSMTPMailer(mailer.ConfigFrom(cfg)),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
	}

	hasher := auth.NewHasher(cfg.PasswordHasher, cfg.PasswordIterations)
	s.authService = service.NewAuthService(s.userRepo, hasher, sessions)
	s.postService = service.NewPostService(s.postRepo, cfg.ReassignAuthorOnEdit)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)

	return s, nil
}

// SetMailer replaces the contact-form sender.
func (s *Server) SetMailer(m mailer.Sender) {
	s.mailer = m
}

// NewApp builds the fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Quill",
		Views:        s.views,
		ErrorHandler: s.errorHandler,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
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

	app.Use(helmet.New(helmet.Config{
		// Post images, gravatars and the stylesheet are cross-origin.
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/metrics" || p == "/health" || p == "/health/live" || p == "/health/ready"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		},
	}))

	app.Use(s.LoadSession())

	if s.config.CSRFEnabled {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:" + csrfFormField,
			CookieName:     "quill_csrf",
			CookieSameSite: "Lax",
			CookieSecure:   s.config.CookieSecure,
			CookieHTTPOnly: true,
			Expiration:     2 * time.Hour,
			ContextKey:     csrfContextKey,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				middleware.Logger.WarnContext(c.UserContext(), "csrf check failed", "error", err)
				return s.renderError(c, fiber.StatusForbidden, "Your form has expired. Please go back, reload and try again.")
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/admin/monitor", s.AdminRequired(), monitor.New(monitor.Config{
		Title: "Quill Metrics Dashboard",
	}))

	if s.config.StaticDir != "" {
		app.Static("/static", s.config.StaticDir)
	}

	limited := s.config.RateLimitEnabled()
	if limited && s.redis == nil {
		middleware.Logger.Warn("Redis unavailable: form rate limiting is off")
		limited = false
	}
	// Sessions live in the same Redis, so sign-in cannot work while it is down anyway.
	authLimit := middleware.RateLimit(s.redis, middleware.RateLimitConfig{
		Enabled:  limited,
		Resource: "auth",
		Limit:    10,
		Window:   time.Minute,
		Policy:   middleware.FailClosed,
	})
	app.Get("/register", s.RegisterPage)
	app.Post("/register", authLimit, s.Register)
	app.Get("/login", s.LoginPage)
	app.Post("/login", authLimit, s.Login)
	app.Get("/logout", s.Logout)

	app.Get("/", s.Index)
	app.Get("/post/:id", s.ShowPost)
	app.Post("/post/:id", s.AuthRequired(commentLoginMessage), s.AddComment)

	app.Get("/new-post", s.AdminRequired(), s.NewPostPage)
	app.Post("/new-post", s.AdminRequired(), s.CreatePost)
	app.Get("/edit-post/:id", s.AdminRequired(), s.EditPostPage)
	app.Post("/edit-post/:id", s.AdminRequired(), s.UpdatePost)
	app.Get("/delete/:id", s.AdminRequired(), s.DeletePost)

	app.Get("/deleteComment/:post/:comment/:author", s.DeleteComment)

	app.Get("/about", s.About)
	app.Get("/contact", s.ContactPage)
	app.Post("/contact", middleware.RateLimit(s.redis, middleware.RateLimitConfig{
		Enabled:  limited,
		Resource: "contact",
		Limit:    5,
		Window:   time.Minute,
		Policy:   middleware.FailOpen,
	}), s.Contact)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", "port", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the HTTP server and releases the database and Redis.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing sql DB", "error", err)
	}

	if s.redis != nil {
		var err error
		if s.redis == cache.GetClient() {
			err = cache.Close()
		} else {
			err = s.redis.Close()
		}
		if err != nil {
			middleware.Logger.Error("error closing redis", "error", err)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
