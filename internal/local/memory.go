package local

import "sync"

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (s *MemoryStore) Get(name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.slots[name]
	if !ok {
		return nil, nil
	}
	return append([]byte{}, data...), nil
}

func (s *MemoryStore) Set(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[name] = append([]byte{}, data...)
	return nil
}

func (s *MemoryStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, name)
	return nil
}
