package crosschain

import (
	"context"
	"log/slog"

	"crossgov/internal/events"
	"crossgov/internal/platform/metrics"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
)

// Sender encodes governance intents into envelopes and hands them to the
// transport. Transport failures surface as DispatchFailed and are never
// retried here; retry policy, if any, belongs to the transport. The remote
// result of a send is only ever observed through the destination chain's own
// events.
type Sender struct {
	transport Transport
	chain     domain.ChainID
	events    *events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewSender(transport Transport, chain domain.ChainID, publisher *events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Sender {
	return &Sender{transport: transport, chain: chain, events: publisher, metrics: m, logger: logger}
}

// SendProposal dispatches a create_proposal intent to another chain.
func (s *Sender) SendProposal(ctx context.Context, destination domain.ChainID, receiver domain.Address, msg CreateProposalMessage) (string, error) {
	return s.send(ctx, KindCreateProposal, destination, receiver, msg, domain.ProposalID(msg.ProposalID), domain.DAOID(msg.DAOID))
}

// SendVote dispatches a weighted vote to another chain.
func (s *Sender) SendVote(ctx context.Context, destination domain.ChainID, receiver domain.Address, msg VoteMessage) (string, error) {
	return s.send(ctx, KindVote, destination, receiver, msg, domain.ProposalID(msg.ProposalID), "")
}

// SendFinalize dispatches a finalize intent to another chain.
func (s *Sender) SendFinalize(ctx context.Context, destination domain.ChainID, receiver domain.Address, msg FinalizeMessage) (string, error) {
	return s.send(ctx, KindFinalize, destination, receiver, msg, domain.ProposalID(msg.ProposalID), "")
}

func (s *Sender) send(ctx context.Context, kind Kind, destination domain.ChainID, receiver domain.Address, payload any, proposalID domain.ProposalID, daoID domain.DAOID) (string, error) {
	env, err := NewEnvelope(kind, s.chain, payload)
	if err != nil {
		return "", err
	}
	raw, err := env.Encode()
	if err != nil {
		return "", err
	}

	if err := s.transport.Send(ctx, destination, receiver, raw); err != nil {
		s.metrics.RecordEnvelopeSendError()
		return "", dErrors.Wrap(err, dErrors.CodeDispatchFailed, "transport rejected the message")
	}

	s.metrics.RecordEnvelopeSent(string(kind))
	if err := s.events.Emit(ctx, events.Event{
		Kind:             events.KindCrossChainDispatched,
		DAOID:            daoID,
		ProposalID:       proposalID,
		DestinationChain: destination,
		MessageID:        env.MessageID,
		MessageKind:      string(kind),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit crosschain_dispatched",
			"message_id", env.MessageID, "error", err)
	}
	return env.MessageID, nil
}
