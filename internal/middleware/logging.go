// Package middleware provides the fiber middleware shared by every route: structured
// request logging, request-scoped context values, tracing, metrics and rate limiting.
package middleware

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger writes every application log line. Records logged with a request context
// carry that request's ids.
var Logger *slog.Logger

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// Fiber locals shared between middleware and handlers.
const (
	LocalRequestID = "requestid"
	LocalUserID    = "userID"
	LocalTraceID   = "traceID"
)

// requestFields pairs each context key with the fiber local it is copied from.
var requestFields = []struct {
	key   contextKey
	local string
}{
	{RequestIDKey, LocalRequestID},
	{UserIDKey, LocalUserID},
	{TraceIDKey, LocalTraceID},
}

type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, f := range requestFields {
		switch v := ctx.Value(f.key).(type) {
		case string:
			r.AddAttrs(slog.String(string(f.key), v))
		case uint:
			r.AddAttrs(slog.Uint64(string(f.key), uint64(v)))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func newHandler(env string) slog.Handler {
	switch env {
	case "production", "prod":
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "test":
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})
	default:
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
}

func init() {
	Logger = slog.New(&ctxHandler{newHandler(os.Getenv("APP_ENV"))})
}

// ContextMiddleware copies the request ID, user ID and trace ID from fiber locals into
// the request context so the context-aware logger sees them in deeper layers.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(withLocals(c))
		return c.Next()
	}
}

// RefreshContext re-reads the locals into the request context. The session loader calls
// it once the user is known.
func RefreshContext(c *fiber.Ctx) {
	c.SetUserContext(withLocals(c))
}

func withLocals(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	for _, f := range requestFields {
		switch v := c.Locals(f.local).(type) {
		case string, uint:
			ctx = context.WithValue(ctx, f.key, v)
		}
	}
	return ctx
}

// StructuredLogger writes one line per request. Handler errors and 5xx responses log at
// error level, other 4xx at warn.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		began := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(began)),
			slog.String("ip", c.IP()),
			slog.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}

		level, msg := slog.LevelInfo, "request"
		switch {
		case err != nil:
			attrs = append(attrs, slog.String("error", err.Error()))
			level, msg = slog.LevelError, "request failed"
		case status >= fiber.StatusInternalServerError:
			level = slog.LevelError
		case status >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		}
		Logger.LogAttrs(c.UserContext(), level, msg, attrs...)

		return err
	}
}
