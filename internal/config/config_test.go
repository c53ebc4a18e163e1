package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                "development",
		Port:               "8080",
		SecretKey:          "secure-secret-at-least-32-chars-long",
		DatabaseURL:        "posts.db",
		SessionTTL:         time.Hour,
		RememberTTL:        24 * time.Hour,
		PasswordHasher:     "pbkdf2",
		PasswordIterations: 600000,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid development config", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.SecretKey = "" }, true},
		{"missing database", func(c *Config) { c.DatabaseURL = "" }, true},
		{"zero session ttl", func(c *Config) { c.SessionTTL = 0 }, true},
		{"unknown hasher", func(c *Config) { c.PasswordHasher = "md5" }, true},
		{"bcrypt ignores iterations", func(c *Config) { c.PasswordHasher = "bcrypt"; c.PasswordIterations = 0 }, false},
		{"pbkdf2 needs iterations", func(c *Config) { c.PasswordIterations = 0 }, true},
		{"admin email without password", func(c *Config) { c.AdminEmail = "a@example.com" }, true},
		{"admin email with password", func(c *Config) { c.AdminEmail = "a@example.com"; c.AdminPassword = "pw" }, false},
		{"short secret allowed outside production", func(c *Config) { c.SecretKey = "short" }, false},
		{"production with default secret", func(c *Config) { c.Env = "production"; c.SecretKey = defaultSecretKey }, true},
		{"production with short secret", func(c *Config) { c.Env = "prod"; c.SecretKey = "short" }, true},
		{"production with strong secret", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "posts.db", c.DatabaseURL)
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, 8760*time.Hour, c.RememberTTL)
	assert.True(t, c.CSRFEnabled)
	assert.False(t, c.ReassignAuthorOnEdit)
	assert.Equal(t, "pbkdf2", c.PasswordHasher)
	assert.Equal(t, 600000, c.PasswordIterations)
	assert.Equal(t, 587, c.SMTPPort)
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_LegacyVariableNames(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("FLASK_KEY", "legacy-secret-key-that-is-long-enough")
	t.Setenv("DB_URI", "sqlite://legacy.db")
	t.Setenv("EMAIL", "owner@example.com")
	t.Setenv("PASSWORD", "app-password")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "legacy-secret-key-that-is-long-enough", c.SecretKey)
	assert.Equal(t, "sqlite://legacy.db", c.DatabaseURL)
	assert.Equal(t, "owner@example.com", c.SMTPUsername)
	assert.Equal(t, "app-password", c.SMTPPassword)
	assert.Equal(t, "owner@example.com", c.ContactRecipient)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SECRET_KEY", "new-name-wins-over-the-legacy-one-xx")
	t.Setenv("FLASK_KEY", "legacy-secret-key-that-is-long-enough")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("PASSWORD_HASHER", " BCRYPT ")
	t.Setenv("REASSIGN_AUTHOR_ON_EDIT", "true")
	t.Setenv("ADMIN_EMAIL", " Boss@Example.com ")
	t.Setenv("ADMIN_PASSWORD", "pw")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "new-name-wins-over-the-legacy-one-xx", c.SecretKey)
	assert.Equal(t, 2*time.Hour, c.SessionTTL)
	assert.Equal(t, "bcrypt", c.PasswordHasher)
	assert.True(t, c.ReassignAuthorOnEdit)
	assert.Equal(t, "boss@example.com", c.AdminEmail)
}

func TestConfig_RateLimitEnabled(t *testing.T) {
	cases := map[string]bool{
		"":            false,
		"development": false,
		"test":        false,
		"staging":     true,
		"production":  true,
	}
	for env, want := range cases {
		t.Run(env, func(t *testing.T) {
			c := validConfig()
			c.Env = env
			assert.Equal(t, want, c.RateLimitEnabled())
		})
	}
}
