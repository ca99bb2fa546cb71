package crosschain

import (
	"context"

	"crossgov/pkg/domain"
)

// Transport delivers opaque payloads between chain identities. The contract
// is at-least-once and unordered: a sent payload is never silently dropped,
// but it may arrive more than once and out of send order. Deduplication is
// the receiver's job.
type Transport interface {
	Send(ctx context.Context, destination domain.ChainID, receiver domain.Address, payload []byte) error
}
