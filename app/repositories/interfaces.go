package repositories

import "postpad/app/models"

// Storage is a flat key-value store holding serialized values.
// Get returns ErrNotFound for a missing key.
type Storage interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
	Close() error
}

// PostRepository defines the interface for post data access.
// The whole ordered list is loaded and saved at once.
type PostRepository interface {
	Load() ([]*models.Post, error)
	Save(posts []*models.Post) error
	Clear() error
}
