package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"postpad/app/models"
	"postpad/app/repositories"

	"go.uber.org/zap"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrInvalidPost  = errors.New("title and content cannot be empty")
)

// DeletePrompt is the question a Confirmer is asked before a deletion.
const DeletePrompt = "Are you sure you want to delete this post?"

// Confirmer approves destructive actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Options tune a PostService. Zero values pick the defaults.
type Options struct {
	CommentAuthor string
	Logger        *zap.Logger
	Now           func() time.Time
}

// PostService owns the ordered post list and keeps it in sync with the
// repository: every mutation rewrites the whole list.
type PostService struct {
	repo          repositories.PostRepository
	posts         []*models.Post
	commentAuthor string
	logger        *zap.Logger
	now           func() time.Time
	mutex         sync.Mutex
}

// NewPostService creates a PostService and loads the stored posts
func NewPostService(repo repositories.PostRepository, opts Options) *PostService {
	s := &PostService{
		repo:          repo,
		commentAuthor: opts.CommentAuthor,
		logger:        opts.Logger,
		now:           opts.Now,
	}
	if s.commentAuthor == "" {
		s.commentAuthor = DefaultCommentAuthor
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.Load()
	return s
}

// Load replaces the in-memory list with the stored one. Missing, corrupt
// or unreadable data leaves the service with no posts. Stored posts
// without an id get one, and the list is written back once.
func (s *PostService) Load() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	posts, err := s.repo.Load()
	if err != nil {
		s.logger.Warn("Failed to load posts, starting empty", zap.Error(err))
		posts = []*models.Post{}
	}
	s.posts = posts
	s.logger.Debug("Loaded posts", zap.Int("count", len(posts)))

	// Ids handed out here must survive the next load.
	if n := models.AssignIDs(s.posts); n > 0 {
		if err := s.persist(); err != nil {
			s.logger.Warn("Failed to save assigned post ids", zap.Int("count", n), zap.Error(err))
			return
		}
		s.logger.Info("Assigned ids to stored posts", zap.Int("count", n))
	}
}

// Posts returns a copy of every post, newest first
func (s *PostService) Posts() []*models.Post {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return clonePosts(s.posts, "")
}

// Filter returns copies of the posts whose title or content contains term
func (s *PostService) Filter(term string) []*models.Post {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return clonePosts(s.posts, term)
}

// Len returns the number of stored posts.
func (s *PostService) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.posts)
}

// Get retrieves a copy of the post with the given id
func (s *PostService) Get(id string) (*models.Post, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrPostNotFound
	}
	return s.posts[i].Clone(), nil
}

// Create prepends a new post. Blank title or content returns
// ErrInvalidPost and leaves the list untouched.
func (s *PostService) Create(title, content string) (*models.Post, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrInvalidPost
	}

	post := &models.Post{
		Title:   title,
		Content: content,
		Date:    models.Timestamp(s.now()),
	}
	post.BeforeCreate()
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.posts = append([]*models.Post{post}, s.posts...)
	if err := s.persist(); err != nil {
		return nil, err
	}
	s.logger.Info("Created post", zap.String("id", post.ID))
	return post.Clone(), nil
}

// Update overwrites title and content in place, keeping id, date, likes
// and comments.
func (s *PostService) Update(id, title, content string) (*models.Post, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrInvalidPost
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrPostNotFound
	}
	post := s.posts[i]
	post.Title = title
	post.Content = content

	if err := s.persist(); err != nil {
		return nil, err
	}
	s.logger.Info("Updated post", zap.String("id", id))
	return post.Clone(), nil
}

// Delete removes the post once confirmer approves. A declined
// confirmation is not an error; it reports false.
func (s *PostService) Delete(id string, confirmer Confirmer) (bool, error) {
	if _, err := s.Get(id); err != nil {
		return false, err
	}

	// The confirmer may block on user input, so it runs unlocked.
	if confirmer == nil || !confirmer.Confirm(DeletePrompt) {
		s.logger.Debug("Delete declined", zap.String("id", id))
		return false, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, ErrPostNotFound
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)

	if err := s.persist(); err != nil {
		return false, err
	}
	s.logger.Info("Deleted post", zap.String("id", id))
	return true, nil
}

// ToggleLike adds userID to the post's likes, or removes it if present.
func (s *PostService) ToggleLike(id, userID string) (*models.Post, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrPostNotFound
	}
	post := s.posts[i]
	liked, err := post.ToggleLike(userID)
	if err != nil {
		return nil, err
	}

	if err := s.persist(); err != nil {
		return nil, err
	}
	s.logger.Debug("Toggled like", zap.String("id", id), zap.String("user", userID), zap.Bool("liked", liked))
	return post.Clone(), nil
}

// Persist writes the full list to the repository.
func (s *PostService) Persist() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.persist()
}

func (s *PostService) persist() error {
	if err := s.repo.Save(s.posts); err != nil {
		s.logger.Error("Failed to persist posts", zap.Error(err))
		return fmt.Errorf("failed to persist posts: %w", err)
	}
	s.logger.Debug("Persisted posts", zap.Int("count", len(s.posts)))
	return nil
}

func (s *PostService) indexOf(id string) int {
	for i, post := range s.posts {
		if post.ID == id {
			return i
		}
	}
	return -1
}

func clonePosts(posts []*models.Post, term string) []*models.Post {
	out := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		if post.Matches(term) {
			out = append(out, post.Clone())
		}
	}
	return out
}
