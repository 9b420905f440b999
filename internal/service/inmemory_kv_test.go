package service

import (
	"context"
	"sync"
)

// inMemoryKV is a map-backed ports.KVStore for unit tests.
type inMemoryKV struct {
	mu      sync.RWMutex
	records map[string][]byte
	// failPuts makes every Put fail, simulating a rejected write.
	failPuts error
}

func newInMemoryKV() *inMemoryKV {
	return &inMemoryKV{records: make(map[string][]byte)}
}

func (s *inMemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (s *inMemoryKV) Put(_ context.Context, key string, value []byte) error {
	if s.failPuts != nil {
		return s.failPuts
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = append([]byte(nil), value...)
	return nil
}

func (s *inMemoryKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *inMemoryKV) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string][]byte)
	return nil
}

// raw returns the stored bytes without copying, for assertions on the
// on-disk representation.
func (s *inMemoryKV) raw(key string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[key]
}
