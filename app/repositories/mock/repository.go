package mock

import (
	"sync"

	"postpad/app/repositories"
)

// Storage is an in-memory repositories.Storage that counts writes and can
// be told to fail.
type Storage struct {
	values map[string][]byte
	mutex  sync.RWMutex

	Sets   int
	GetErr error
	SetErr error
}

func NewStorage() *Storage {
	return &Storage{values: make(map[string][]byte)}
}

// Put seeds a raw value without counting it as a write.
func (m *Storage) Put(key string, value []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.values[key] = value
}

// Raw returns the stored bytes for key, or nil.
func (m *Storage) Raw(key string) []byte {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.values[key]
}

func (m *Storage) Get(key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	value, exists := m.values[key]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *Storage) Set(key string, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	m.Sets++
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *Storage) Remove(key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.values, key)
	return nil
}

func (m *Storage) Close() error {
	return nil
}
