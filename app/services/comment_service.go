package services

import (
	"errors"
	"fmt"

	"postpad/app/models"

	"go.uber.org/zap"
)

// DefaultCommentAuthor signs comments submitted without an author.
const DefaultCommentAuthor = "Anonymous"

var ErrEmptyComment = errors.New("comment text cannot be empty")

// AddComment appends a comment to the post. Blank text returns
// ErrEmptyComment without touching the post; a blank author falls back
// to the configured default.
func (s *PostService) AddComment(id, author, text string) (*models.Post, error) {
	comment := models.NewComment(author, text)
	if comment.Text == "" {
		return nil, ErrEmptyComment
	}
	if comment.Author == "" {
		comment.Author = s.commentAuthor
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrPostNotFound
	}
	post := s.posts[i]
	if err := post.AddComment(comment); err != nil {
		return nil, fmt.Errorf("invalid comment: %w", err)
	}

	if err := s.persist(); err != nil {
		return nil, err
	}
	s.logger.Info("Added comment", zap.String("id", id), zap.Int("comments", len(post.Comments)))
	return post.Clone(), nil
}

// CommentAuthor returns the author used for anonymous comments.
func (s *PostService) CommentAuthor() string {
	return s.commentAuthor
}
