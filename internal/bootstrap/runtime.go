// Package bootstrap prepares the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"quill/internal/auth"
	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/models"
	"quill/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and ensures the configured admin
// account exists. The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := EnsureAdmin(context.Background(), cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	return db, r, nil
}

// EnsureAdmin creates the ADMIN_EMAIL account with the admin role, or promotes it if
// it already exists. Existing passwords are left alone. Without ADMIN_EMAIL it does
// nothing and the first registered user stays the administrator.
func EnsureAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.AdminEmail == "" {
		return nil
	}

	users := repository.NewUserRepository(db)
	existing, err := users.GetByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.IsAdmin() {
			return nil
		}
		existing.Role = models.RoleAdmin
		if err := users.Update(ctx, existing); err != nil {
			return err
		}
		log.Printf("promoted %s to admin", existing.Email)
		return nil
	}

	hash, err := auth.NewHasher(cfg.PasswordHasher, cfg.PasswordIterations).Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	name := cfg.AdminName
	if name == "" {
		name = "Admin"
	}
	admin := &models.User{
		Email:    cfg.AdminEmail,
		Password: hash,
		Name:     name,
		Role:     models.RoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("admin account ensured for %s (ID %d)", admin.Email, admin.ID)
	return nil
}
