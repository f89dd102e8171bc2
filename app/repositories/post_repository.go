package repositories

import (
	"bytes"
	"errors"
	"fmt"

	"postpad/app/models"
)

// StoragePostRepository keeps the whole post list as one JSON array
// under a single storage key.
type StoragePostRepository struct {
	storage Storage
	key     string
}

// NewStoragePostRepository creates a repository over storage. An empty
// key falls back to DefaultPostsKey.
func NewStoragePostRepository(storage Storage, key string) *StoragePostRepository {
	if key == "" {
		key = DefaultPostsKey
	}
	return &StoragePostRepository{storage: storage, key: key}
}

// Key returns the storage key the posts live under.
func (r *StoragePostRepository) Key() string {
	return r.key
}

// Load reads the stored posts. A missing key yields an empty list; a
// value that does not decode yields an error wrapping ErrCorrupt.
func (r *StoragePostRepository) Load() ([]*models.Post, error) {
	data, err := r.storage.Get(r.key)
	if errors.Is(err, ErrNotFound) {
		return []*models.Post{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	return DecodePosts(data)
}

// Save serializes the full list, replacing whatever was stored.
func (r *StoragePostRepository) Save(posts []*models.Post) error {
	if posts == nil {
		posts = []*models.Post{}
	}
	data, err := marshalEntity(posts)
	if err != nil {
		return err
	}
	if err := r.storage.Set(r.key, data); err != nil {
		return fmt.Errorf("failed to write posts: %w", err)
	}
	return nil
}

// Clear removes the stored list.
func (r *StoragePostRepository) Clear() error {
	return r.storage.Remove(r.key)
}

// DecodePosts parses a serialized post list and normalizes it: null
// entries are dropped, absent likes and comments become empty and
// duplicate likers are collapsed. Missing ids stay empty; see
// models.AssignIDs.
func DecodePosts(data []byte) ([]*models.Post, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrCorrupt)
	}

	var raw []*models.Post
	if err := unmarshalEntity(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	posts := make([]*models.Post, 0, len(raw))
	for _, post := range raw {
		if post == nil {
			continue
		}
		post.Likes = dedupe(post.Likes)
		post.Normalize()
		posts = append(posts, post)
	}
	return posts, nil
}

func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
