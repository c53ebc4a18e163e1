package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// CookieName is the browser cookie carrying the signed session token.
	CookieName = "quill_session"

	tokenIssuer = "quill"
)

// ErrInvalidSession covers tampered, expired or revoked session tokens.
var ErrInvalidSession = errors.New("invalid session")

// Session is a signed-in browser.
type Session struct {
	ID         string
	UserID     uint
	ExpiresAt  time.Time
	Persistent bool
}

// Manager issues, resolves and revokes sessions.
type Manager struct {
	store       Store
	secret      []byte
	sessionTTL  time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

// NewManager returns a Manager signing tokens with secret.
func NewManager(store Store, secret string, sessionTTL, rememberTTL time.Duration) *Manager {
	return &Manager{
		store:       store,
		secret:      []byte(secret),
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		now:         time.Now,
	}
}

// Begin records a new session for userID and returns it with its signed token.
// remember selects the long-lived lifetime.
func (m *Manager) Begin(ctx context.Context, userID uint, remember bool) (*Session, string, error) {
	ttl := m.sessionTTL
	if remember {
		ttl = m.rememberTTL
	}
	now := m.now()
	sess := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		ExpiresAt:  now.Add(ttl),
		Persistent: remember,
	}

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ID:        sess.ID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}

	if err := m.store.Save(ctx, sess.ID, userID, ttl); err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Resolve verifies token and checks that its session is still live and belongs to
// the same user.
func (m *Manager) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrInvalidSession
	}

	stored, err := m.store.Lookup(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if stored != uint(uid) {
		return nil, ErrInvalidSession
	}

	sess := &Session{ID: claims.ID, UserID: stored}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// End revokes the session named by token. Unknown or invalid tokens are ignored.
func (m *Manager) End(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, claims.ID)
}

func (m *Manager) parse(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
