package server

import (
	"errors"

	"quill/internal/auth"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/service"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

func formChecked(c *fiber.Ctx, name string) bool {
	return c.FormValue(name) != ""
}

func (s *Server) RegisterPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "register", fiber.Map{
		"Title": "Register",
		"Form":  validation.RegisterForm{},
	})
}

// Register creates an account and signs it in. An email already on file is sent to
// the login page with a flash.
func (s *Server) Register(c *fiber.Ctx) error {
	form := validation.RegisterForm{
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
		Name:            c.FormValue("name"),
		Remember:        formChecked(c, "remember"),
	}
	form.Normalize()

	if errs := validation.Validate(&form); errs != nil {
		return s.render(c, fiber.StatusBadRequest, "register", fiber.Map{
			"Title":  "Register",
			"Form":   form,
			"Errors": errs,
		})
	}

	signed, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Email:    form.Email,
		Password: form.Password,
		Name:     form.Name,
		Remember: form.Remember,
	})
	if err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			s.setFlash(c, models.NewDuplicateEmailError().Message)
			return c.Redirect("/login", fiber.StatusFound)
		}
		return err
	}

	s.setSessionCookie(c, signed.Session, signed.Token)
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) LoginPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "login", fiber.Map{
		"Title": "Log In",
		"Form":  validation.LoginForm{},
	})
}

// Login signs a user in. Unknown emails and wrong passwords re-render the form with
// their own message.
func (s *Server) Login(c *fiber.Ctx) error {
	form := validation.LoginForm{
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		Remember: formChecked(c, "remember"),
	}
	form.Normalize()

	if errs := validation.Validate(&form); errs != nil {
		return s.render(c, fiber.StatusBadRequest, "login", fiber.Map{
			"Title":  "Log In",
			"Form":   form,
			"Errors": errs,
		})
	}

	signed, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Email:    form.Email,
		Password: form.Password,
		Remember: form.Remember,
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && (appErr.Code == models.CodeUnknownEmail || appErr.Code == models.CodeInvalidPassword) {
			form.Password = ""
			return s.render(c, models.HTTPStatus(appErr), "login", fiber.Map{
				"Title":     "Log In",
				"Form":      form,
				"FormError": appErr.Message,
			})
		}
		return err
	}

	middleware.Logger.InfoContext(c.UserContext(), "user logged in", "user_id", signed.User.ID)
	s.setSessionCookie(c, signed.Session, signed.Token)
	return c.Redirect("/", fiber.StatusFound)
}

// Logout ends the session, if any, and returns to the index.
func (s *Server) Logout(c *fiber.Ctx) error {
	if token := c.Cookies(auth.CookieName); token != "" {
		if err := s.authService.Logout(c.UserContext(), token); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to revoke session", "error", err)
		}
	}
	s.clearSessionCookie(c)
	return c.Redirect("/", fiber.StatusFound)
}
