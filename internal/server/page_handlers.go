package server

import (
	"errors"

	"quill/internal/mailer"
	"quill/internal/models"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	contactHeader     = "Contact Me"
	contactSentHeader = "Successfully sent your message"
)

func (s *Server) About(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "about", fiber.Map{"Title": "About Me"})
}

func (s *Server) ContactPage(c *fiber.Ctx) error {
	return s.renderContact(c, fiber.StatusOK, contactHeader, validation.ContactForm{}, nil, "")
}

// Contact relays the form to the site owner by email.
func (s *Server) Contact(c *fiber.Ctx) error {
	form := validation.ContactForm{
		Name:    c.FormValue("name"),
		Email:   c.FormValue("email"),
		Phone:   c.FormValue("phone"),
		Message: c.FormValue("message"),
	}
	form.Normalize()

	if errs := validation.Validate(&form); errs != nil {
		return s.renderContact(c, fiber.StatusBadRequest, contactHeader, form, errs, "")
	}

	err := s.mailer.SendContactMessage(c.UserContext(), mailer.ContactMessage{
		Name:    form.Name,
		Email:   form.Email,
		Phone:   form.Phone,
		Message: form.Message,
	})
	if err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			appErr = models.NewDeliveryError(err)
		}
		return s.renderContact(c, models.HTTPStatus(appErr), contactHeader, form, nil, appErr.Message)
	}

	return s.renderContact(c, fiber.StatusOK, contactSentHeader, validation.ContactForm{}, nil, "")
}

func (s *Server) renderContact(c *fiber.Ctx, status int, header string, form validation.ContactForm, errs validation.FieldErrors, formErr string) error {
	return s.render(c, status, "contact", fiber.Map{
		"Title":     "Contact",
		"Header":    header,
		"Form":      form,
		"Errors":    errs,
		"FormError": formErr,
	})
}
