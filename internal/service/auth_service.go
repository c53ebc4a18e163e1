// Package service holds the blog's use cases: accounts and sessions, posts and comments.
// Services repeat the access checks made by route guards so a missed guard cannot
// reach the store.
package service

import (
	"context"
	"errors"

	"quill/internal/auth"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"
)

// AuthService registers users and manages their sessions.
type AuthService struct {
	users    repository.UserRepository
	hasher   auth.Hasher
	sessions *auth.Manager
}

// RegisterInput is a validated registration form.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Remember bool
}

// LoginInput is a validated login form.
type LoginInput struct {
	Email    string
	Password string
	Remember bool
}

// SignedIn is the outcome of a successful register or login.
type SignedIn struct {
	User    *models.User
	Session *auth.Session
	Token   string
}

func NewAuthService(users repository.UserRepository, hasher auth.Hasher, sessions *auth.Manager) *AuthService {
	return &AuthService{users: users, hasher: hasher, sessions: sessions}
}

// Register stores a new account and signs it in. An email already on file yields
// a DuplicateEmail error and no new row.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*SignedIn, error) {
	email := validation.NormalizeEmail(in.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		middleware.AuthEvents.WithLabelValues("register", "duplicate").Inc()
		return nil, models.NewDuplicateEmailError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Email: email, Password: hash, Name: in.Name}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			middleware.AuthEvents.WithLabelValues("register", "duplicate").Inc()
		}
		return nil, err
	}

	out, err := s.begin(ctx, user, in.Remember)
	if err != nil {
		return nil, err
	}
	middleware.AuthEvents.WithLabelValues("register", "success").Inc()
	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return out, nil
}

// Login checks the credentials and signs the user in. There is no lockout: a failed
// attempt never affects a later correct one.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*SignedIn, error) {
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		middleware.AuthEvents.WithLabelValues("login", "unknown_email").Inc()
		return nil, models.NewUnknownEmailError()
	}
	if !auth.VerifyPassword(user.Password, in.Password) {
		middleware.AuthEvents.WithLabelValues("login", "invalid_password").Inc()
		return nil, models.NewInvalidPasswordError()
	}

	out, err := s.begin(ctx, user, in.Remember)
	if err != nil {
		return nil, err
	}
	middleware.AuthEvents.WithLabelValues("login", "success").Inc()
	return out, nil
}

// Logout revokes the session behind token. It never fails for a bad token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	middleware.AuthEvents.WithLabelValues("logout", "success").Inc()
	return s.sessions.End(ctx, token)
}

// CurrentUser resolves token to its user. Anonymous requests get nil, nil.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSession) {
			return nil, nil
		}
		return nil, err
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) begin(ctx context.Context, user *models.User, remember bool) (*SignedIn, error) {
	sess, token, err := s.sessions.Begin(ctx, user.ID, remember)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &SignedIn{User: user, Session: sess, Token: token}, nil
}
