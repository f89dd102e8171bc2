package repositories

import "sync"

// MemoryStorage keeps values in a map; nothing survives Close.
type MemoryStorage struct {
	values map[string][]byte
	mutex  sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	value, exists := m.values[key]
	if !exists {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryStorage) Set(key string, value []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemoryStorage) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.values = make(map[string][]byte)
	return nil
}
