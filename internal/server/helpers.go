package server

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"quill/internal/auth"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	localUser      = "user"
	csrfContextKey = "csrf"
	csrfFormField  = "_csrf"
	flashCookie    = "quill_flash"
)

// parseID reads a numeric route parameter. Anything else is reported as a missing page.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError(humanizeParam(name), raw)
	}
	return uint(id), nil
}

func humanizeParam(name string) string {
	switch name {
	case "id", "post":
		return "Post"
	case "comment":
		return "Comment"
	case "author":
		return "User"
	default:
		return "Resource"
	}
}

// currentUser returns the signed-in user loaded by LoadSession, or nil.
func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localUser).(*models.User)
	return u
}

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals(csrfContextKey).(string)
	return token
}

// render executes a page with the values every template expects, overlaid with data.
func (s *Server) render(c *fiber.Ctx, status int, page string, data fiber.Map) error {
	user := currentUser(c)
	bind := fiber.Map{
		"Title":   "",
		"User":    user,
		"IsAdmin": auth.IsAdmin(user),
		"Flash":   s.popFlash(c),
		"Year":    time.Now().Year(),
		"CSRF":    csrfToken(c),
		"Errors":  validation.FieldErrors(nil),
	}
	for k, v := range data {
		bind[k] = v
	}
	return c.Status(status).Render(page, bind)
}

func (s *Server) renderError(c *fiber.Ctx, status int, message string) error {
	return s.render(c, status, "error", fiber.Map{
		"Title":   strconv.Itoa(status),
		"Status":  status,
		"Message": message,
	})
}

// errorHandler renders every unhandled error as an HTML error page.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Something went wrong on our end. Please try again later."

	var fe *fiber.Error
	var appErr *models.AppError
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		message = fe.Message
		if status == fiber.StatusNotFound {
			message = "The page you were looking for doesn't exist."
		}
	case errors.As(err, &appErr):
		status = models.HTTPStatus(appErr)
		switch appErr.Code {
		case models.CodeNotFound:
			message = "The page you were looking for doesn't exist."
		case models.CodeForbidden:
			message = "You don't have permission to do that."
		case models.CodeInternal:
			// keep the generic message
		default:
			message = appErr.Message
		}
	}

	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error", "error", err, "path", c.Path())
	}

	if rerr := s.renderError(c, status, message); rerr != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "failed to render error page", "error", rerr)
		return c.Status(status).SendString(message)
	}
	return nil
}

// setFlash stores a one-shot message shown on the next rendered page.
func (s *Server) setFlash(c *fiber.Ctx, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) popFlash(c *fiber.Ctx) string {
	raw := c.Cookies(flashCookie)
	if raw == "" {
		return ""
	}
	c.ClearCookie(flashCookie)
	message, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return message
}

func (s *Server) setSessionCookie(c *fiber.Ctx, sess *auth.Session, token string) {
	cookie := &fiber.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	// Without remember-me the cookie lives for the browser session only.
	if sess.Persistent {
		cookie.Expires = sess.ExpiresAt
		cookie.MaxAge = int(time.Until(sess.ExpiresAt).Seconds())
	}
	c.Cookie(cookie)
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
