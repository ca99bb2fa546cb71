package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"crossgov/internal/proposal"
	"crossgov/pkg/domain"
	"crossgov/pkg/platform/sentinel"
)

// Error Contract:
// - Create returns ErrConflict when the proposal id already exists
// - Get, AddWeight, MarkFinalized return ErrNotFound for unknown ids
// - AddWeight and MarkFinalized return ErrInvalidState when the proposal is
//   already terminal

// InMemoryStore keeps proposals in memory. Every mutation happens under the
// write lock, which gives the per-call atomicity the engine relies on: a
// reader never observes a tally whose total disagrees with its entries.
type InMemoryStore struct {
	mu        sync.RWMutex
	proposals map[domain.ProposalID]*proposal.Proposal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{proposals: make(map[domain.ProposalID]*proposal.Proposal)}
}

func (s *InMemoryStore) Create(_ context.Context, record *proposal.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[record.ID]; ok {
		return fmt.Errorf("proposal %s: %w", record.ID, sentinel.ErrConflict)
	}
	s.proposals[record.ID] = record.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.ProposalID) (*proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.proposals[id]
	if !ok {
		return nil, fmt.Errorf("proposal %s: %w", id, sentinel.ErrNotFound)
	}
	return record.Clone(), nil
}

func (s *InMemoryStore) AddWeight(_ context.Context, id domain.ProposalID, voter domain.Address, weight uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.proposals[id]
	if !ok {
		return fmt.Errorf("proposal %s: %w", id, sentinel.ErrNotFound)
	}
	// Re-checked under the write lock: a finalize that landed after the
	// caller's snapshot must not see its tally move.
	if record.Finalized {
		return fmt.Errorf("proposal %s: %w", id, sentinel.ErrInvalidState)
	}
	record.Tally[voter] += weight
	record.TotalWeight += weight
	return nil
}

func (s *InMemoryStore) MarkFinalized(_ context.Context, id domain.ProposalID, outcome proposal.Outcome, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.proposals[id]
	if !ok {
		return fmt.Errorf("proposal %s: %w", id, sentinel.ErrNotFound)
	}
	if record.Finalized {
		return fmt.Errorf("proposal %s: %w", id, sentinel.ErrInvalidState)
	}
	record.Finalized = true
	record.Outcome = outcome
	record.FinalizedAt = at
	return nil
}

func (s *InMemoryStore) ListByDAO(_ context.Context, daoID domain.DAOID) ([]*proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*proposal.Proposal
	for _, record := range s.proposals {
		if record.DAOID == daoID {
			out = append(out, record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
