package auth

import "quill/internal/models"

// IsAdmin reports whether u may manage posts and moderate comments.
func IsAdmin(u *models.User) bool {
	return u.IsAdmin()
}

// IsCommentOwnerOrAdmin reports whether u may delete a comment written by authorID.
func IsCommentOwnerOrAdmin(u *models.User, authorID uint) bool {
	if u == nil {
		return false
	}
	return u.ID == authorID || u.IsAdmin()
}
