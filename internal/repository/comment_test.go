package repository

import (
	"context"
	"errors"
	"testing"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com")
	reader := seedUser(t, db, "reader@example.com")
	p := seedPost(t, db, admin, "Post")

	c := &models.Comment{Text: "<p>nice</p>", AuthorID: reader.ID, PostID: p.ID}
	require.NoError(t, repo.Create(ctx, c))
	require.NotZero(t, c.ID)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, reader.ID, got.AuthorID)
	assert.Equal(t, reader.Email, got.Author.Email)
	assert.Equal(t, p.ID, got.PostID)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.GetByID(ctx, c.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	err = repo.Delete(ctx, c.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
