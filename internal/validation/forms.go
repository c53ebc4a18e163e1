// Package validation declares the blog's form types and checks them with
// go-playground/validator before anything reaches a service.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// PostForm is submitted by the admin to create or edit a post.
type PostForm struct {
	Title    string `form:"title" validate:"notblank,max=250"`
	Subtitle string `form:"subtitle" validate:"notblank,max=250"`
	ImgURL   string `form:"img_url" validate:"notblank,max=250,url"`
	Body     string `form:"body" validate:"notblank"`
}

// RegisterForm creates an account.
type RegisterForm struct {
	Email           string `form:"email" validate:"notblank,email,max=250"`
	Password        string `form:"password" validate:"notblank"`
	ConfirmPassword string `form:"confirm_password" validate:"notblank,eqfield=Password"`
	Name            string `form:"name" validate:"notblank,max=250"`
	Remember        bool   `form:"remember"`
}

// LoginForm starts a session.
type LoginForm struct {
	Email    string `form:"email" validate:"notblank,email"`
	Password string `form:"password" validate:"notblank"`
	Remember bool   `form:"remember"`
}

// CommentForm adds a comment under a post.
type CommentForm struct {
	Comment string `form:"comment" validate:"notblank"`
}

// ContactForm is relayed to the site owner by email.
type ContactForm struct {
	Name    string `form:"name" validate:"notblank,max=250"`
	Email   string `form:"email" validate:"notblank,email"`
	Phone   string `form:"phone" validate:"max=50"`
	Message string `form:"message" validate:"notblank"`
}

// Normalize trims the text fields. Body HTML is kept as written.
func (f *PostForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Subtitle = strings.TrimSpace(f.Subtitle)
	f.ImgURL = strings.TrimSpace(f.ImgURL)
}

// Normalize lower-cases the email and trims the name. Passwords are left untouched.
func (f *RegisterForm) Normalize() {
	f.Email = NormalizeEmail(f.Email)
	f.Name = strings.TrimSpace(f.Name)
}

// Normalize lower-cases the email.
func (f *LoginForm) Normalize() {
	f.Email = NormalizeEmail(f.Email)
}

// Normalize trims the single-line fields.
func (f *ContactForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FieldErrors maps a form field name to the message shown beside it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validate = v
	})
	return validate
}

// Validate checks form and returns nil or the per-field messages.
func Validate(form interface{}) FieldErrors {
	err := instance().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"form": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "url":
		return "Invalid URL."
	case "eqfield":
		return "Passwords must match."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}
