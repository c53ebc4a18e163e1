package server

import (
	"fmt"

	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// DeleteComment removes a comment for its author or the admin. The author segment of
// the path must be numeric but the stored author decides.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil {
		return models.NewForbiddenError("login required to delete comments")
	}

	postID, err := parseID(c, "post")
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "comment")
	if err != nil {
		return err
	}
	if _, err := parseID(c, "author"); err != nil {
		return err
	}

	err = s.commentService.DeleteComment(c.UserContext(), user, service.DeleteCommentInput{
		PostID:    postID,
		CommentID: commentID,
	})
	if err != nil {
		return err
	}

	return c.Redirect(fmt.Sprintf("/post/%d#comment_form", postID), fiber.StatusFound)
}
