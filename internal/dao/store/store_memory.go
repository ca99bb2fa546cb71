package store

import (
	"context"
	"fmt"
	"sync"

	"crossgov/internal/dao"
	"crossgov/pkg/domain"
	"crossgov/pkg/platform/sentinel"
)

// Error Contract:
// - Create returns ErrConflict when the id is already registered
// - Get and SetMinimumTokens return ErrNotFound for unknown ids
// - wrapped errors with context for infrastructure failures

// InMemoryStore keeps DAO records in memory for tests and development.
type InMemoryStore struct {
	mu   sync.RWMutex
	daos map[domain.DAOID]dao.DAO
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{daos: make(map[domain.DAOID]dao.DAO)}
}

func (s *InMemoryStore) Create(_ context.Context, record dao.DAO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.daos[record.ID]; ok {
		return fmt.Errorf("dao %s: %w", record.ID, sentinel.ErrConflict)
	}
	s.daos[record.ID] = record
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.DAOID) (dao.DAO, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.daos[id]
	if !ok {
		return dao.DAO{}, fmt.Errorf("dao %s: %w", id, sentinel.ErrNotFound)
	}
	return record, nil
}

func (s *InMemoryStore) SetMinimumTokens(_ context.Context, id domain.DAOID, minimum uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.daos[id]
	if !ok {
		return fmt.Errorf("dao %s: %w", id, sentinel.ErrNotFound)
	}
	record.MinimumTokens = minimum
	s.daos[id] = record
	return nil
}
