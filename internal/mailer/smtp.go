// Package mailer relays contact-form messages to the site owner over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"quill/internal/config"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// ContactMessage is what a visitor typed into the contact form.
type ContactMessage struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// Sender delivers contact messages.
type Sender interface {
	SendContactMessage(ctx context.Context, msg ContactMessage) error
}

// Config names the relay and the account used to send.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Recipient string
	Timeout   time.Duration
}

// ConfigFrom extracts the mailer settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		Recipient: cfg.ContactRecipient,
		Timeout:   15 * time.Second,
	}
}

type deliverFunc func(ctx context.Context, cfg Config, from string, to []string, body []byte) error

// SMTPMailer sends through an SMTP relay with STARTTLS and PLAIN auth.
type SMTPMailer struct {
	cfg     Config
	deliver deliverFunc
}

// NewSMTPMailer returns a mailer for cfg. An empty recipient means the sending account.
func NewSMTPMailer(cfg Config) *SMTPMailer {
	if cfg.Recipient == "" {
		cfg.Recipient = cfg.Username
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPMailer{cfg: cfg, deliver: deliverSMTP}
}

// SendContactMessage formats msg and sends it. Any failure is returned as a
// DeliveryError.
func (m *SMTPMailer) SendContactMessage(ctx context.Context, msg ContactMessage) error {
	span, ctx := observability.NewClientSpan(ctx, "mailer.SendContactMessage",
		attribute.String("smtp.host", m.cfg.Host),
		attribute.Int("smtp.port", m.cfg.Port),
	)
	defer span.End()

	if m.cfg.Username == "" || m.cfg.Recipient == "" {
		err := models.NewDeliveryError(errors.New("smtp account not configured"))
		span.SetError(err)
		middleware.MailDeliveries.WithLabelValues("failed").Inc()
		return err
	}

	body := BuildMessage(msg)
	if err := m.deliver(ctx, m.cfg, m.cfg.Username, []string{m.cfg.Recipient}, body); err != nil {
		span.SetError(err)
		middleware.MailDeliveries.WithLabelValues("failed").Inc()
		middleware.Logger.ErrorContext(ctx, "contact message delivery failed", "error", err)
		return models.NewDeliveryError(err)
	}

	middleware.MailDeliveries.WithLabelValues("sent").Inc()
	middleware.Logger.InfoContext(ctx, "contact message sent")
	return nil
}

// BuildMessage renders the fixed plaintext layout. Single-line fields lose any CR or
// LF so they cannot inject headers.
func BuildMessage(msg ContactMessage) []byte {
	var b strings.Builder
	b.WriteString("Subject: New Message\n\n")
	fmt.Fprintf(&b, "Name: %s\n", singleLine(msg.Name))
	fmt.Fprintf(&b, "Email: %s\n", singleLine(msg.Email))
	fmt.Fprintf(&b, "Phone: %s\n", singleLine(msg.Phone))
	fmt.Fprintf(&b, "Message: %s", msg.Message)
	return []byte(b.String())
}

func singleLine(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

var (
	errNoStartTLS = errors.New("smtp relay does not offer STARTTLS")
	errNoAuth     = errors.New("smtp relay does not offer AUTH")
)

func deliverSMTP(ctx context.Context, cfg Config, from string, to []string, body []byte) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return errNoStartTLS
	}
	if err := c.StartTLS(&tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
		return fmt.Errorf("starttls: %w", err)
	}
	if ok, _ := c.Extension("AUTH"); !ok {
		return errNoAuth
	}
	if err := c.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish body: %w", err)
	}
	return c.Quit()
}
