package server

import (
	"quill/internal/auth"
	"quill/internal/middleware"
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

const commentLoginMessage = "You need to login or register to comment."

// LoadSession resolves the session cookie into the current user. A missing, expired
// or tampered cookie leaves the request anonymous.
func (s *Server) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(auth.CookieName)
		if token == "" {
			return c.Next()
		}

		user, err := s.authService.CurrentUser(c.UserContext(), token)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "session lookup failed", "error", err)
			return c.Next()
		}
		if user == nil {
			s.clearSessionCookie(c)
			return c.Next()
		}

		c.Locals(localUser, user)
		c.Locals(middleware.LocalUserID, user.ID)
		middleware.RefreshContext(c)
		return c.Next()
	}
}

// AuthRequired sends anonymous visitors to the login page with message.
func (s *Server) AuthRequired(message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			s.setFlash(c, message)
			return c.Redirect("/login", fiber.StatusFound)
		}
		return c.Next()
	}
}

// AdminRequired middleware checks if the authenticated user is an admin
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !auth.IsAdmin(currentUser(c)) {
			return models.NewForbiddenError("admin access required")
		}
		return c.Next()
	}
}
