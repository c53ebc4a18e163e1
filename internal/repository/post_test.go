package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"quill/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_CreateSQLShape(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{AuthorID: 1, Title: "Test Post", Subtitle: "Sub", Date: "May 01, 2024", Body: "Body", ImgURL: "https://x/y.png"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "blog_posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CreateDuplicateTitleFromDriver(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "blog_posts"`)).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_blog_posts_title" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Post{AuthorID: 1, Title: "Taken"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConstraintViolation))

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, DuplicateTitleMessage, appErr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "admin@example.com")
	created := seedPost(t, db, author, "T")

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, created.ID, posts[0].ID)
	assert.Equal(t, "T", posts[0].Title)
	assert.Equal(t, author.Name, posts[0].Author.Name)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/img.png", got.ImgURL)
	assert.Equal(t, author.ID, got.Author.ID)
}

func TestPostRepository_ListOrderedByID(t *testing.T) {
	db := setupTestDB(t)
	author := seedUser(t, db, "admin@example.com")
	a := seedPost(t, db, author, "A")
	b := seedPost(t, db, author, "B")
	c := seedPost(t, db, author, "C")

	posts, err := NewPostRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []uint{a.ID, b.ID, c.ID}, []uint{posts[0].ID, posts[1].ID, posts[2].ID})
}

func TestPostRepository_DuplicateTitle(t *testing.T) {
	db := setupTestDB(t)
	author := seedUser(t, db, "admin@example.com")
	seedPost(t, db, author, "Same")

	err := NewPostRepository(db).Create(context.Background(), &models.Post{
		AuthorID: author.ID, Title: "Same", Subtitle: "s", Date: "d", Body: "b", ImgURL: "u",
	})
	assert.True(t, errors.Is(err, models.ErrConstraintViolation))
}

func TestPostRepository_UpdateEditableFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "admin@example.com")
	p := seedPost(t, db, author, "Old")
	originalDate := p.Date

	err := repo.Update(ctx, &models.Post{
		ID: p.ID, AuthorID: author.ID, Title: "New", Subtitle: "New sub",
		Body: "<p>new</p>", ImgURL: "https://example.com/new.png", Date: "ignored",
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "New sub", got.Subtitle)
	assert.Equal(t, "<p>new</p>", got.Body)
	assert.Equal(t, originalDate, got.Date)

	err = repo.Update(ctx, &models.Post{ID: 999, AuthorID: author.ID, Title: "x"})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestPostRepository_DeleteCascadesComments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	author := seedUser(t, db, "admin@example.com")
	p := seedPost(t, db, author, "Doomed")
	require.NoError(t, comments.Create(ctx, &models.Comment{Text: "one", AuthorID: author.ID, PostID: p.ID}))
	require.NoError(t, comments.Create(ctx, &models.Comment{Text: "two", AuthorID: author.ID, PostID: p.ID}))

	require.NoError(t, repo.Delete(ctx, p.ID))

	_, err := repo.GetByID(ctx, p.ID)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	var remaining int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestPostRepository_DeleteMissingIsNotFoundTwice(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	author := seedUser(t, db, "admin@example.com")
	seedPost(t, db, author, "Keep")

	for i := 0; i < 2; i++ {
		err := repo.Delete(context.Background(), 999)
		assert.True(t, errors.Is(err, models.ErrNotFound))
	}

	posts, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestPostRepository_GetWithCommentsOrdered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	comments := NewCommentRepository(db)
	ctx := context.Background()

	admin := seedUser(t, db, "admin@example.com")
	reader := seedUser(t, db, "reader@example.com")
	p := seedPost(t, db, admin, "Talk")
	require.NoError(t, comments.Create(ctx, &models.Comment{Text: "first", AuthorID: reader.ID, PostID: p.ID}))
	require.NoError(t, comments.Create(ctx, &models.Comment{Text: "second", AuthorID: admin.ID, PostID: p.ID}))

	got, err := repo.GetWithComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "first", got.Comments[0].Text)
	assert.Equal(t, reader.Email, got.Comments[0].Author.Email)
	assert.Equal(t, "second", got.Comments[1].Text)

	_, err = repo.GetWithComments(ctx, 12345)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
