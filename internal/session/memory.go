package session

import "sync"

// MemoryStore is an in-process Store. Nothing survives the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string

	// Error injection for testing
	SaveErr  error
	LoadErr  error
	ClearErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Save implements Store.
func (m *MemoryStore) Save(sess Session) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range sess.fields() {
		if value == "" {
			delete(m.values, key)
			continue
		}
		m.values[key] = value
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load() (Session, error) {
	if m.LoadErr != nil {
		return Session{}, m.LoadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sess Session
	for key, value := range m.values {
		sess.set(key, value)
	}
	return sess, nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
