package crosschain

import (
	"context"
	"log/slog"

	"crossgov/pkg/domain"
)

// EnvelopeSink receives payloads a loopback transport short-circuits back
// into this process.
type EnvelopeSink interface {
	Dispatch(ctx context.Context, raw []byte) error
}

// LoopbackTransport delivers every payload straight to the local dispatcher,
// regardless of destination. It keeps single-process development and tests
// honest: payloads still round-trip through the codec and the dispatch path,
// just without a broker.
type LoopbackTransport struct {
	sink   EnvelopeSink
	logger *slog.Logger
}

func NewLoopbackTransport(sink EnvelopeSink, logger *slog.Logger) *LoopbackTransport {
	return &LoopbackTransport{sink: sink, logger: logger}
}

func (t *LoopbackTransport) Send(ctx context.Context, destination domain.ChainID, _ domain.Address, payload []byte) error {
	t.logger.DebugContext(ctx, "loopback delivery", "destination", destination)
	return t.sink.Dispatch(ctx, payload)
}
