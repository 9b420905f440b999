package service

import (
	"context"
	"encoding/json"
	"sync"

	"zenledger/internal/core/ports"
)

// inMemoryRecordStore is a ports.RecordStore fake that skips encryption,
// isolating coordinator tests from the crypto layer.
type inMemoryRecordStore struct {
	mu      sync.Mutex
	records map[string][]byte
	// failSets maps record keys to an error returned on Set.
	failSets map[string]error
	// setLog records the order of Set calls for write-ordering assertions.
	setLog []string
}

func newInMemoryRecordStore() *inMemoryRecordStore {
	return &inMemoryRecordStore{
		records:  make(map[string][]byte),
		failSets: make(map[string]error),
	}
}

func (s *inMemoryRecordStore) Set(_ context.Context, key string, value any, _ ports.RecordOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failSets[key]; err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.records[key] = data
	s.setLog = append(s.setLog, key)
	return nil
}

func (s *inMemoryRecordStore) Get(_ context.Context, key string, out any, _ ports.RecordOptions) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.records[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *inMemoryRecordStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

func (s *inMemoryRecordStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string][]byte)
	return nil
}
