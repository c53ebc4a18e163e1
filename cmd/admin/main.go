// Command admin promotes, demotes and lists administrator accounts.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  admin promote <email>   - Give the account the admin role")
		fmt.Println("  admin demote <email>    - Make the account a member")
		fmt.Println("  admin list              - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	ctx := context.Background()

	switch cmd := os.Args[1]; cmd {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: admin %s <email>\n", cmd)
			os.Exit(1)
		}
		role := models.RoleAdmin
		if cmd == "demote" {
			role = models.RoleMember
		}
		if err := setRole(ctx, db, os.Args[2], role); err != nil {
			log.Fatalf("%s failed: %v", cmd, err)
		}
	case "list":
		if err := listAdmins(ctx, db); err != nil {
			log.Fatalf("list failed: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		os.Exit(1)
	}
}

func setRole(ctx context.Context, db *gorm.DB, email string, role models.Role) error {
	users := repository.NewUserRepository(db)
	user, err := users.GetByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("no user with that email")
	}
	if user.Role == role {
		fmt.Printf("%s (ID: %d) already has role %s\n", user.Email, user.ID, role)
		return nil
	}
	user.Role = role
	if err := users.Update(ctx, user); err != nil {
		return err
	}
	fmt.Printf("%s (ID: %d) is now %s\n", user.Email, user.ID, role)
	return nil
}

func listAdmins(ctx context.Context, db *gorm.DB) error {
	var admins []models.User
	if err := db.WithContext(ctx).Where("role = ?", models.RoleAdmin).Order("id").Find(&admins).Error; err != nil {
		return err
	}
	total, err := repository.NewUserRepository(db).Count(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		fmt.Printf("No admins found among %d user(s)\n", total)
		return nil
	}
	fmt.Printf("Found %d admin(s) among %d user(s):\n", len(admins), total)
	for _, a := range admins {
		fmt.Printf("  ID: %d, Name: %s, Email: %s\n", a.ID, a.Name, a.Email)
	}
	return nil
}
