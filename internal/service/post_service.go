package service

import (
	"context"
	"time"

	"quill/internal/auth"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"
)

// PostService manages blog posts. Writes are restricted to the administrator.
type PostService struct {
	postRepo             repository.PostRepository
	reassignAuthorOnEdit bool
	now                  func() time.Time
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

// NewPostService returns a PostService. With reassignAuthorOnEdit the editor becomes
// the author of every post they edit.
func NewPostService(postRepo repository.PostRepository, reassignAuthorOnEdit bool) *PostService {
	return &PostService{
		postRepo:             postRepo,
		reassignAuthorOnEdit: reassignAuthorOnEdit,
		now:                  time.Now,
	}
}

func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	return s.postRepo.List(ctx)
}

// GetPost returns the post with its comments and their authors.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetWithComments(ctx, id)
}

// GetPostForEdit returns the post for the pre-filled edit form.
func (s *PostService) GetPostForEdit(ctx context.Context, actor *models.User, id uint) (*models.Post, error) {
	if !auth.IsAdmin(actor) {
		return nil, models.NewForbiddenError("Only the administrator can edit posts")
	}
	return s.postRepo.GetByID(ctx, id)
}

func (s *PostService) CreatePost(ctx context.Context, actor *models.User, in PostInput) (*models.Post, error) {
	if !auth.IsAdmin(actor) {
		return nil, models.NewForbiddenError("Only the administrator can create posts")
	}

	post := &models.Post{
		AuthorID: actor.ID,
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Body:     in.Body,
		ImgURL:   in.ImgURL,
		Date:     s.now().Format(models.PostDateLayout),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = *actor

	middleware.Logger.InfoContext(ctx, "post created", "post_id", post.ID)
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, actor *models.User, id uint, in PostInput) (*models.Post, error) {
	if !auth.IsAdmin(actor) {
		return nil, models.NewForbiddenError("Only the administrator can edit posts")
	}

	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.Body = in.Body
	post.ImgURL = in.ImgURL
	if s.reassignAuthorOnEdit {
		post.AuthorID = actor.ID
		post.Author = *actor
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, actor *models.User, id uint) error {
	if !auth.IsAdmin(actor) {
		return models.NewForbiddenError("Only the administrator can delete posts")
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "post deleted", "post_id", id)
	return nil
}
