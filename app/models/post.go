package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.Date.IsZero() {
		return errors.New("date cannot be zero")
	}

	return nil
}

// BeforeCreate fills in the id, date and empty collections of a new post
func (p *Post) BeforeCreate() {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Normalize()
}

// Normalize fills a zero date and nil collections. It leaves the id alone.
func (p *Post) Normalize() {
	if p.Date.IsZero() {
		p.Date = Timestamp(time.Now())
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}

// AssignIDs gives every post without an id a new one and returns how many
// were assigned.
func AssignIDs(posts []*Post) int {
	assigned := 0
	for _, post := range posts {
		if post.ID == "" {
			post.ID = uuid.NewString()
			assigned++
		}
	}
	return assigned
}

// MarshalJSON writes the date with fixed millisecond precision, the form
// JavaScript's Date.toISOString produces.
func (p Post) MarshalJSON() ([]byte, error) {
	type alias Post
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(p), p.Date.UTC().Format(DateLayout)})
}

// Timestamp normalizes t to the stored precision: UTC, milliseconds.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// HasLiked reports whether userID is in the post's likes.
func (p *Post) HasLiked(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// LikeCount returns the number of distinct likers.
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// ToggleLike removes userID from the likes if present and adds it otherwise.
// It returns whether the user likes the post afterwards.
func (p *Post) ToggleLike(userID string) (bool, error) {
	if userID == "" {
		return false, errors.New("user id cannot be empty")
	}

	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return false, nil
		}
	}
	p.Likes = append(p.Likes, userID)
	return true, nil
}

// AddComment appends a comment to the post
func (p *Post) AddComment(comment Comment) error {
	if err := comment.Validate(); err != nil {
		return err
	}

	p.Comments = append(p.Comments, comment)
	return nil
}

// Matches reports whether term occurs in the title or the content,
// ignoring case. An empty term matches every post.
func (p *Post) Matches(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Content), term)
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (p *Post) Clone() *Post {
	c := *p
	c.Likes = append([]string{}, p.Likes...)
	c.Comments = append([]Comment{}, p.Comments...)
	return &c
}
