package server

import (
	"context"
	"time"

	"quill/internal/database"
	"quill/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "up",
		"timestamp": time.Now().Unix(),
	})
}

// ReadinessCheck reports whether the database answers. Redis is optional: without it
// sessions fall back to process memory and rate limiting is skipped.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	health := fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   serviceName,
		"checks":    fiber.Map{},
	}
	checks := health["checks"].(fiber.Map)

	if err := database.Ping(ctx, s.db); err != nil {
		middleware.Logger.ErrorContext(ctx, "database health check failed", "error", err)
		checks["database"] = "unhealthy"
		health["status"] = "unhealthy"
	} else {
		checks["database"] = "healthy"
	}

	switch {
	case s.redis == nil:
		checks["redis"] = "disabled"
	case s.redis.Ping(ctx).Err() != nil:
		checks["redis"] = "unhealthy"
		health["status"] = "degraded"
	default:
		checks["redis"] = "healthy"
	}

	status := fiber.StatusOK
	if health["status"] == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(health)
}
