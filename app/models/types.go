package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DateLayout is the serialized form of Post.Date.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// Post represents a blog post with its likes and comments.
type Post struct {
	ID       string    `json:"id" validate:"required"`
	Title    string    `json:"title" validate:"required"`
	Content  string    `json:"content" validate:"required"`
	Date     time.Time `json:"date" validate:"required"`
	Likes    []string  `json:"likes" validate:"unique,dive,required"`
	Comments []Comment `json:"comments" validate:"dive"`
}

// Comment represents a comment on a blog post.
type Comment struct {
	Author string `json:"author" validate:"required"`
	Text   string `json:"text" validate:"required"`
}
