package models

// PostDateLayout is how a post's date is stored and displayed.
const PostDateLayout = "January 02, 2006"

// Post is a blog entry written by the administrator.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID" json:"author"`
	Title    string    `gorm:"uniqueIndex;size:250;not null" json:"title"`
	Subtitle string    `gorm:"size:250;not null" json:"subtitle"`
	Date     string    `gorm:"size:250;not null" json:"date"`
	Body     string    `gorm:"type:text;not null" json:"body"`
	ImgURL   string    `gorm:"column:img_url;size:250;not null" json:"img_url"`
	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// TableName keeps the table name used by existing installations.
func (Post) TableName() string {
	return "blog_posts"
}
