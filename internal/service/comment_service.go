package service

import (
	"context"

	"quill/internal/auth"
	"quill/internal/models"
	"quill/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	PostID uint
	Text   string
}

type DeleteCommentInput struct {
	PostID    uint
	CommentID uint
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// CreateComment adds a comment by actor under the post. Anonymous callers are rejected
// before the post is looked up.
func (s *CommentService) CreateComment(ctx context.Context, actor *models.User, in CreateCommentInput) (*models.Comment, error) {
	if actor == nil {
		return nil, models.NewUnauthorizedError("You need to login or register to comment.")
	}
	if in.Text == "" {
		return nil, models.NewValidationError("Comment is required")
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:     in.Text,
		AuthorID: actor.ID,
		PostID:   in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = *actor
	return comment, nil
}

// DeleteComment removes a comment when actor wrote it or is the administrator. The
// stored author decides; a comment under a different post is reported as not found.
func (s *CommentService) DeleteComment(ctx context.Context, actor *models.User, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.PostID != in.PostID {
		return models.NewNotFoundError("Comment", in.CommentID)
	}
	if !auth.IsCommentOwnerOrAdmin(actor, comment.AuthorID) {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, in.CommentID)
}
