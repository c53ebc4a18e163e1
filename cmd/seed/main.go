// Command seed fills the configured database with demo content.
package main

import (
	"context"
	"flag"
	"log"

	"quill/internal/auth"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create")
	numPosts := flag.Int("posts", 12, "Number of posts to create")
	comments := flag.Int("comments", 3, "Comments per post")
	shouldClean := flag.Bool("clean", false, "Delete existing users, posts and comments first")
	flag.Parse()

	log.Printf("Seeding %d users, %d posts, %d comments per post (clean=%v)", *numUsers, *numPosts, *comments, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	err = seed.Seed(context.Background(), db, seed.Options{
		NumUsers:        *numUsers,
		NumPosts:        *numPosts,
		CommentsPerPost: *comments,
		ShouldClean:     *shouldClean,
		Hasher:          auth.NewHasher(cfg.PasswordHasher, cfg.PasswordIterations),
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done. Every demo account uses the password %q", seed.DemoPassword)
}
