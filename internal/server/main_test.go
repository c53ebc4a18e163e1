package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"quill/internal/auth"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/mailer"
	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type stubMailer struct {
	mu   sync.Mutex
	sent []mailer.ContactMessage
	err  error
}

func (m *stubMailer) SendContactMessage(_ context.Context, msg mailer.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *stubMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testEnv struct {
	srv    *Server
	app    *fiber.App
	db     *gorm.DB
	mailer *stubMailer
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                "test",
		Port:               "0",
		SecretKey:          "test-secret-key-with-at-least-32-characters",
		DatabaseURL:        ":memory:",
		SessionTTL:         time.Hour,
		RememberTTL:        24 * time.Hour,
		PasswordHasher:     "pbkdf2",
		PasswordIterations: 1000,
	}
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	return newTestEnvWithRedis(t, nil, mutate...)
}

func newTestEnvWithRedis(t *testing.T, rdb *redis.Client, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, fn := range mutate {
		fn(cfg)
	}

	db, err := database.Open(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	m := &stubMailer{}
	srv.SetMailer(m)

	return &testEnv{srv: srv, app: srv.NewApp(), db: db, mailer: m}
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	for _, ck := range cookies {
		if ck != nil {
			req.AddCookie(ck)
		}
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req, cookies...)
}

// signUp registers an account and returns its session cookie. The first account on a
// fresh database is the admin.
func (e *testEnv) signUp(t *testing.T, email, name string) *http.Cookie {
	t.Helper()
	resp := e.post(t, "/register", url.Values{
		"email":            {email},
		"password":         {"secret-pass"},
		"confirm_password": {"secret-pass"},
		"name":             {name},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	ck := findCookie(resp, auth.CookieName)
	require.NotNil(t, ck)
	return ck
}

func (e *testEnv) seedPost(t *testing.T, authorID uint, title string) *models.Post {
	t.Helper()
	p := &models.Post{
		AuthorID: authorID,
		Title:    title,
		Subtitle: "A subtitle",
		Date:     "August 24, 2024",
		Body:     "<p>Hello</p>",
		ImgURL:   "https://example.com/img.png",
	}
	require.NoError(t, e.db.Omit(clause.Associations).Create(p).Error)
	return p
}

func (e *testEnv) seedComment(t *testing.T, postID, authorID uint, text string) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: postID, AuthorID: authorID, Text: text}
	require.NoError(t, e.db.Omit(clause.Associations).Create(c).Error)
	return c
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
