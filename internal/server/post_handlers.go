package server

import (
	"errors"
	"fmt"

	"quill/internal/models"
	"quill/internal/service"
	"quill/internal/validation"

	"github.com/gofiber/fiber/v2"
)

func postFormFrom(c *fiber.Ctx) validation.PostForm {
	form := validation.PostForm{
		Title:    c.FormValue("title"),
		Subtitle: c.FormValue("subtitle"),
		ImgURL:   c.FormValue("img_url"),
		Body:     c.FormValue("body"),
	}
	form.Normalize()
	return form
}

func postInput(f validation.PostForm) service.PostInput {
	return service.PostInput{
		Title:    f.Title,
		Subtitle: f.Subtitle,
		Body:     f.Body,
		ImgURL:   f.ImgURL,
	}
}

// Index lists every post, oldest first.
func (s *Server) Index(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext())
	if err != nil {
		return err
	}
	return s.render(c, fiber.StatusOK, "index", fiber.Map{
		"Posts": posts,
	})
}

// ShowPost renders a post with its comments and the comment form.
func (s *Server) ShowPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	return s.renderPost(c, fiber.StatusOK, id, validation.CommentForm{}, nil)
}

func (s *Server) renderPost(c *fiber.Ctx, status int, id uint, form validation.CommentForm, errs validation.FieldErrors) error {
	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return err
	}
	return s.render(c, status, "post", fiber.Map{
		"Title":  post.Title,
		"Post":   post,
		"Form":   form,
		"Errors": errs,
	})
}

// AddComment posts the signed-in user's comment and returns to the comment form.
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	form := validation.CommentForm{Comment: c.FormValue("comment")}
	if errs := validation.Validate(&form); errs != nil {
		return s.renderPost(c, fiber.StatusBadRequest, id, form, errs)
	}

	_, err = s.commentService.CreateComment(c.UserContext(), currentUser(c), service.CreateCommentInput{
		PostID: id,
		Text:   form.Comment,
	})
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			s.setFlash(c, commentLoginMessage)
			return c.Redirect("/login", fiber.StatusFound)
		}
		return err
	}

	return c.Redirect(fmt.Sprintf("/post/%d#comment_form", id), fiber.StatusFound)
}

func (s *Server) NewPostPage(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "make-post", fiber.Map{
		"Title": "New Post",
		"Form":  validation.PostForm{},
	})
}

// CreatePost stores a new post authored by the admin.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form := postFormFrom(c)
	if errs := validation.Validate(&form); errs != nil {
		return s.renderPostForm(c, fiber.StatusBadRequest, form, 0, errs, "")
	}

	_, err := s.postService.CreatePost(c.UserContext(), currentUser(c), postInput(form))
	if err != nil {
		if errors.Is(err, models.ErrConstraintViolation) {
			return s.renderPostForm(c, models.HTTPStatus(err), form, 0, nil, constraintMessage(err))
		}
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// EditPostPage shows the post form pre-filled with the stored values.
func (s *Server) EditPostPage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	post, err := s.postService.GetPostForEdit(c.UserContext(), currentUser(c), id)
	if err != nil {
		return err
	}
	form := validation.PostForm{
		Title:    post.Title,
		Subtitle: post.Subtitle,
		ImgURL:   post.ImgURL,
		Body:     post.Body,
	}
	return s.renderPostForm(c, fiber.StatusOK, form, id, nil, "")
}

// UpdatePost saves the edited fields. Date is kept.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	form := postFormFrom(c)
	if errs := validation.Validate(&form); errs != nil {
		return s.renderPostForm(c, fiber.StatusBadRequest, form, id, errs, "")
	}

	_, err = s.postService.UpdatePost(c.UserContext(), currentUser(c), id, postInput(form))
	if err != nil {
		if errors.Is(err, models.ErrConstraintViolation) {
			return s.renderPostForm(c, models.HTTPStatus(err), form, id, nil, constraintMessage(err))
		}
		return err
	}
	return c.Redirect(fmt.Sprintf("/post/%d", id), fiber.StatusFound)
}

// DeletePost removes a post and its comments.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := s.postService.DeletePost(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

func (s *Server) renderPostForm(c *fiber.Ctx, status int, form validation.PostForm, id uint, errs validation.FieldErrors, formErr string) error {
	title := "New Post"
	if id != 0 {
		title = "Edit Post"
	}
	return s.render(c, status, "make-post", fiber.Map{
		"Title":     title,
		"Form":      form,
		"IsEdit":    id != 0,
		"PostID":    id,
		"Errors":    errs,
		"FormError": formErr,
	})
}

func constraintMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
