// Package seed fills a database with demo accounts, posts and comments for local
// development.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"quill/internal/auth"
	"quill/internal/models"
	"quill/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
	ShouldClean     bool
	Hasher          auth.Hasher
}

// Factory builds blog entities and persists them.
type Factory struct {
	db       *gorm.DB
	users    repository.UserRepository
	rng      *rand.Rand
	password string
	titles   map[string]bool
	emails   map[string]bool
}

// NewFactory returns a factory whose accounts all share one hash of DemoPassword.
func NewFactory(db *gorm.DB, hasher auth.Hasher, seed int64) (*Factory, error) {
	if hasher == nil {
		hasher = auth.BcryptHasher{}
	}
	hash, err := hasher.Hash(DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	gofakeit.Seed(seed)
	return &Factory{
		db:       db,
		users:    repository.NewUserRepository(db),
		rng:      rand.New(rand.NewSource(seed)),
		password: hash,
		titles:   make(map[string]bool),
		emails:   make(map[string]bool),
	}, nil
}

// CreateUser stores a fake user. The first user in an empty database becomes the admin.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	u := &models.User{
		Email:    f.uniqueEmail(),
		Password: f.password,
		Name:     gofakeit.Name(),
	}
	for _, o := range overrides {
		o(u)
	}
	if err := f.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreatePost stores a fake post by author. Titles are unique per factory.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	p := &models.Post{
		AuthorID: author.ID,
		Title:    f.uniqueTitle(),
		Subtitle: strings.TrimSuffix(gofakeit.Sentence(8), "."),
		Date:     time.Now().AddDate(0, 0, -f.rng.Intn(365)).Format(models.PostDateLayout),
		Body:     htmlParagraphs(f.rng.Intn(3) + 2),
		ImgURL:   fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", gofakeit.UUID()),
	}
	for _, o := range overrides {
		o(p)
	}
	if err := f.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// CreateComment stores a fake comment by author under post.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	c := &models.Comment{
		Text:     gofakeit.Paragraph(1, f.rng.Intn(3)+1, 12, "\n"),
		AuthorID: author.ID,
		PostID:   post.ID,
	}
	for _, o := range overrides {
		o(c)
	}
	if err := f.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (f *Factory) uniqueTitle() string {
	for {
		title := strings.TrimSuffix(gofakeit.Sentence(f.rng.Intn(4)+3), ".")
		if !f.titles[title] {
			f.titles[title] = true
			return title
		}
	}
}

func (f *Factory) uniqueEmail() string {
	for {
		email := strings.ToLower(gofakeit.Email())
		if !f.emails[email] {
			f.emails[email] = true
			return email
		}
	}
}

func htmlParagraphs(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("<p>")
		b.WriteString(gofakeit.Paragraph(1, 4, 14, " "))
		b.WriteString("</p>")
	}
	return b.String()
}

// Seed populates db. Posts are written by the administrator, who is the first user
// created when the database starts empty.
func Seed(ctx context.Context, db *gorm.DB, opts Options) error {
	if opts.ShouldClean {
		if err := ClearAll(ctx, db); err != nil {
			return err
		}
	}
	if opts.NumUsers < 1 {
		opts.NumUsers = 1
	}

	f, err := NewFactory(db, opts.Hasher, time.Now().UnixNano())
	if err != nil {
		return err
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, u)
	}
	log.Printf("created %d users", len(users))

	var admin models.User
	if err := db.WithContext(ctx).Where("role = ?", models.RoleAdmin).Order("id").First(&admin).Error; err != nil {
		return fmt.Errorf("find admin: %w", err)
	}

	comments := 0
	for i := 0; i < opts.NumPosts; i++ {
		post, err := f.CreatePost(ctx, &admin)
		if err != nil {
			return fmt.Errorf("create post %d: %w", i, err)
		}
		for j := 0; j < opts.CommentsPerPost; j++ {
			author := users[f.rng.Intn(len(users))]
			if _, err := f.CreateComment(ctx, author, post); err != nil {
				return fmt.Errorf("create comment: %w", err)
			}
			comments++
		}
	}
	log.Printf("created %d posts and %d comments", opts.NumPosts, comments)
	return nil
}

// ClearAll deletes every comment, post and user.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Comment{}, &models.Post{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
