package kafkatransport

import (
	"context"
	"log/slog"

	"crossgov/internal/platform/kafka/consumer"
	dErrors "crossgov/pkg/domain-errors"
)

// EnvelopeDispatcher is the inbound routing entry point.
type EnvelopeDispatcher interface {
	Dispatch(ctx context.Context, raw []byte) error
}

// InboundHandler feeds consumed records into the dispatcher and decides what
// gets committed. Terminal rejections (malformed payloads, closed windows,
// duplicates, authorization) commit so the partition keeps moving; only
// infrastructure failures are surfaced for redelivery.
type InboundHandler struct {
	dispatcher EnvelopeDispatcher
	logger     *slog.Logger
}

func NewInboundHandler(dispatcher EnvelopeDispatcher, logger *slog.Logger) *InboundHandler {
	return &InboundHandler{dispatcher: dispatcher, logger: logger}
}

func (h *InboundHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	err := h.dispatcher.Dispatch(ctx, msg.Value)
	if err == nil {
		return nil
	}

	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeDispatchFailed:
		// Infrastructure trouble: leave the offset uncommitted.
		return err
	default:
		// A terminal rejection of this message. The sender cannot observe it
		// synchronously; the log and event trail are the record.
		h.logger.WarnContext(ctx, "inbound message rejected",
			"topic", msg.Topic,
			"error", err,
		)
		return nil
	}
}
