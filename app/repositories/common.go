package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// DefaultPostsKey is the storage key holding the serialized post list.
	DefaultPostsKey = "blogPosts"

	DriverBadger = "badger"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrCorrupt  = errors.New("stored data is corrupt")
)

// OpenStorage opens the storage backend named by driver.
// An empty path keeps badger and sqlite in memory.
func OpenStorage(driver, path string) (Storage, error) {
	switch driver {
	case DriverBadger, "":
		return OpenBadgerStorage(path)
	case DriverSQLite:
		return OpenSQLiteStorage(path)
	case DriverMemory:
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

// marshalEntity marshals an entity to JSON
func marshalEntity(entity interface{}) ([]byte, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return data, nil
}

// unmarshalEntity unmarshals JSON data into an entity
func unmarshalEntity(data []byte, entity interface{}) error {
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return nil
}
