package service

import (
	"context"
	"testing"
	"time"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_WritesRequireAdmin(t *testing.T) {
	t.Parallel()

	touched := false
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, _ *models.Post) error { touched = true; return nil }
	repo.updateFn = func(_ context.Context, _ *models.Post) error { touched = true; return nil }
	repo.deleteFn = func(_ context.Context, _ uint) error { touched = true; return nil }
	repo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) { touched = true; return &models.Post{}, nil }

	svc := NewPostService(repo, false)
	ctx := context.Background()
	in := PostInput{Title: "T", Subtitle: "S", Body: "B", ImgURL: "https://x/y.png"}

	for _, actor := range []*models.User{nil, memberUser} {
		_, err := svc.CreatePost(ctx, actor, in)
		assertAppErrorCode(t, err, models.CodeForbidden)

		_, err = svc.UpdatePost(ctx, actor, 1, in)
		assertAppErrorCode(t, err, models.CodeForbidden)

		err = svc.DeletePost(ctx, actor, 1)
		assertAppErrorCode(t, err, models.CodeForbidden)

		_, err = svc.GetPostForEdit(ctx, actor, 1)
		assertAppErrorCode(t, err, models.CodeForbidden)
	}
	assert.False(t, touched)
}

func TestPostService_CreatePost(t *testing.T) {
	t.Parallel()

	var stored *models.Post
	repo := noopPostRepo()
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 10
		stored = p
		return nil
	}

	svc := NewPostService(repo, false)
	svc.now = func() time.Time { return time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC) }

	post, err := svc.CreatePost(context.Background(), adminUser, PostInput{Title: "T", Subtitle: "S", Body: "B", ImgURL: "https://x/y.png"})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.EqualValues(t, 10, post.ID)
	assert.Equal(t, adminUser.ID, stored.AuthorID)
	assert.Equal(t, "March 05, 2024", stored.Date)
	assert.Equal(t, "Admin", post.Author.Name)
}

func TestPostService_UpdatePostAuthorPolicy(t *testing.T) {
	t.Parallel()

	secondAdmin := &models.User{ID: 5, Name: "Second", Role: models.RoleAdmin}

	tests := []struct {
		name       string
		reassign   bool
		wantAuthor uint
	}{
		{"keeps original author", false, adminUser.ID},
		{"editor becomes author", true, secondAdmin.ID},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var updated *models.Post
			repo := noopPostRepo()
			repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
				return &models.Post{ID: id, AuthorID: adminUser.ID, Title: "Old", Date: "January 01, 2024"}, nil
			}
			repo.updateFn = func(_ context.Context, p *models.Post) error { updated = p; return nil }

			svc := NewPostService(repo, tt.reassign)
			_, err := svc.UpdatePost(context.Background(), secondAdmin, 3, PostInput{Title: "New", Subtitle: "S", Body: "B", ImgURL: "u"})
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.Equal(t, "New", updated.Title)
			assert.Equal(t, "January 01, 2024", updated.Date)
			assert.Equal(t, tt.wantAuthor, updated.AuthorID)
		})
	}
}

func TestPostService_UpdateMissingPost(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post", id)
	}
	_, err := NewPostService(repo, false).UpdatePost(context.Background(), adminUser, 9, PostInput{})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPostService_DeletePropagatesNotFound(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.deleteFn = func(_ context.Context, id uint) error { return models.NewNotFoundError("Post", id) }

	err := NewPostService(repo, false).DeletePost(context.Background(), adminUser, 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
