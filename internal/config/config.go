// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultSecretKey = "change-me-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env                  string        `mapstructure:"APP_ENV"`
	Port                 string        `mapstructure:"PORT"`
	SecretKey            string        `mapstructure:"SECRET_KEY"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	SMTPHost             string        `mapstructure:"SMTP_HOST"`
	SMTPPort             int           `mapstructure:"SMTP_PORT"`
	SMTPUsername         string        `mapstructure:"SMTP_USERNAME"`
	SMTPPassword         string        `mapstructure:"SMTP_PASSWORD"`
	ContactRecipient     string        `mapstructure:"CONTACT_RECIPIENT"`
	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`
	RememberTTL          time.Duration `mapstructure:"REMEMBER_TTL"`
	CookieSecure         bool          `mapstructure:"COOKIE_SECURE"`
	CSRFEnabled          bool          `mapstructure:"CSRF_ENABLED"`
	PasswordHasher       string        `mapstructure:"PASSWORD_HASHER"`
	PasswordIterations   int           `mapstructure:"PASSWORD_HASH_ITERATIONS"`
	AdminEmail           string        `mapstructure:"ADMIN_EMAIL"`
	AdminPassword        string        `mapstructure:"ADMIN_PASSWORD"`
	AdminName            string        `mapstructure:"ADMIN_NAME"`
	ReassignAuthorOnEdit bool          `mapstructure:"REASSIGN_AUTHOR_ON_EDIT"`
	StaticDir            string        `mapstructure:"STATIC_DIR"`
	TracingEnabled       bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter      string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint         string        `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio   float64       `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// aliases maps a config key to the legacy environment variable names that also set it.
var aliases = map[string][]string{
	"SECRET_KEY":    {"FLASK_KEY"},
	"DATABASE_URL":  {"DB_URI"},
	"SMTP_USERNAME": {"EMAIL"},
	"SMTP_PASSWORD": {"PASSWORD"},
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	for key, legacy := range aliases {
		if err := v.BindEnv(append([]string{key, key}, legacy...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	// The base config file is optional.
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env != "" && env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config.%s.yml: %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("SECRET_KEY", defaultSecretKey)
	v.SetDefault("DATABASE_URL", "posts.db")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("CONTACT_RECIPIENT", "")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("REMEMBER_TTL", "8760h")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("CSRF_ENABLED", true)
	v.SetDefault("PASSWORD_HASHER", "pbkdf2")
	v.SetDefault("PASSWORD_HASH_ITERATIONS", 600000)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_NAME", "Admin")
	v.SetDefault("REASSIGN_AUTHOR_ON_EDIT", false)
	v.SetDefault("STATIC_DIR", "static")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.PasswordHasher = strings.ToLower(strings.TrimSpace(c.PasswordHasher))
	c.AdminEmail = strings.ToLower(strings.TrimSpace(c.AdminEmail))
	if c.ContactRecipient == "" {
		c.ContactRecipient = c.SMTPUsername
	}
}

// IsProduction reports whether the app runs with a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// RateLimitEnabled reports whether form submissions are rate limited. Development and
// test profiles run without limits.
func (c *Config) RateLimitEnabled() bool {
	switch c.Env {
	case "", "development", "dev", "test":
		return false
	}
	return true
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.SessionTTL <= 0 || c.RememberTTL <= 0 {
		return errors.New("SESSION_TTL and REMEMBER_TTL must be positive durations")
	}
	switch c.PasswordHasher {
	case "pbkdf2", "bcrypt":
	default:
		return fmt.Errorf("PASSWORD_HASHER must be pbkdf2 or bcrypt, got %q", c.PasswordHasher)
	}
	if c.PasswordHasher == "pbkdf2" && c.PasswordIterations < 1 {
		return errors.New("PASSWORD_HASH_ITERATIONS must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if c.IsProduction() {
		if c.SecretKey == defaultSecretKey {
			return errors.New("SECRET_KEY must be changed from the default value in production")
		}
		if len(c.SecretKey) < 32 {
			return errors.New("SECRET_KEY must be at least 32 characters in production")
		}
		if !c.CookieSecure {
			log.Println("WARNING: COOKIE_SECURE is false in production. Session cookies will be sent over plain HTTP.")
		}
	} else if len(c.SecretKey) < 32 {
		log.Println("WARNING: SECRET_KEY is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	if c.SMTPUsername == "" || c.SMTPPassword == "" {
		log.Println("WARNING: SMTP_USERNAME/SMTP_PASSWORD not set. The contact form will fail to deliver.")
	}

	return nil
}
