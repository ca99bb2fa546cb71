package events

import (
	"context"
	"time"

	"crossgov/pkg/requestcontext"
)

// Store is the append-only sink for governance events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByProposal(ctx context.Context, proposalID string) ([]Event, error)
}

// Publisher captures structured governance events. It is append-only and uses
// the storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit stamps and persists one event. The request id is pulled from context so
// services do not thread it explicitly.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	return p.store.Append(ctx, event)
}

// ListByProposal returns the recorded trail for one proposal.
func (p *Publisher) ListByProposal(ctx context.Context, proposalID string) ([]Event, error) {
	return p.store.ListByProposal(ctx, proposalID)
}
