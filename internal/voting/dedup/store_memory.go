// Package dedup persists the set of already-applied inbound message keys.
// The transport redelivers; this set is the only thing standing between an
// at-least-once channel and a double-counted tally.
package dedup

import (
	"context"
	"sync"

	"crossgov/pkg/domain"
)

// Store records idempotency keys per proposal.
type Store interface {
	// Add records the key and reports whether it was newly added. A false
	// return means the message was applied before and must be discarded.
	Add(ctx context.Context, proposalID domain.ProposalID, key string) (bool, error)
}

// InMemoryStore is a mutex-guarded key set for tests and single-node
// development deployments.
type InMemoryStore struct {
	mu      sync.Mutex
	applied map[domain.ProposalID]map[string]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{applied: make(map[domain.ProposalID]map[string]struct{})}
}

func (s *InMemoryStore) Add(_ context.Context, proposalID domain.ProposalID, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.applied[proposalID]
	if !ok {
		keys = make(map[string]struct{})
		s.applied[proposalID] = keys
	}
	if _, dup := keys[key]; dup {
		return false, nil
	}
	keys[key] = struct{}{}
	return true, nil
}
