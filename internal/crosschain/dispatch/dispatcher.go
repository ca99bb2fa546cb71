// Package dispatch routes decoded cross-chain envelopes into the same
// services a local call would reach. Routing is strictly by kind tag.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"crossgov/internal/crosschain"
	"crossgov/internal/platform/metrics"
	"crossgov/internal/proposal"
	proposalservice "crossgov/internal/proposal/service"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
	"crossgov/pkg/requestcontext"
)

// ProposalCreator is the inbound slice of the proposal service.
type ProposalCreator interface {
	Create(ctx context.Context, caller domain.Address, params proposalservice.CreateParams, source domain.Source) (*proposal.Proposal, error)
}

// VoteApplier is the inbound slice of the vote aggregator.
type VoteApplier interface {
	ApplyVote(ctx context.Context, proposalID domain.ProposalID, voter domain.Address, weight uint64, source domain.Source) error
}

// Finalizer is the inbound slice of the finalization controller.
type Finalizer interface {
	Finalize(ctx context.Context, proposalID domain.ProposalID, caller domain.Address, source domain.Source) (*proposal.Proposal, error)
}

// Dispatcher decodes inbound payloads and applies them. Messages arriving
// here came through the transport's authenticated channel, so handlers run
// with an implicit-trust remote source instead of a caller identity.
type Dispatcher struct {
	proposals ProposalCreator
	votes     VoteApplier
	finalizer Finalizer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

func New(proposals ProposalCreator, votes VoteApplier, finalizer Finalizer, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		proposals: proposals,
		votes:     votes,
		finalizer: finalizer,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("crossgov/crosschain/dispatch"),
	}
}

// Dispatch decodes one transport payload and routes it by kind. The returned
// error keeps its domain code so the consumer can distinguish terminal
// rejections (commit past them) from infrastructure failures (redeliver).
func (d *Dispatcher) Dispatch(ctx context.Context, raw []byte) error {
	start := time.Now()
	// Pin the clock: every window check for this message sees one instant.
	ctx = requestcontext.WithTime(ctx, start)

	env, err := crosschain.Decode(raw)
	if err != nil {
		d.metrics.RecordMalformedEnvelope()
		return err
	}

	ctx, span := d.tracer.Start(ctx, "crosschain.dispatch",
		trace.WithAttributes(
			attribute.String("message.id", env.MessageID),
			attribute.String("message.kind", string(env.Kind)),
			attribute.String("message.source_chain", string(env.SourceChain)),
		))
	defer span.End()

	source := domain.Remote(env.SourceChain, env.MessageID)
	switch env.Kind {
	case crosschain.KindCreateProposal:
		err = d.handleCreateProposal(ctx, env, source)
	case crosschain.KindVote:
		err = d.handleVote(ctx, env, source)
	case crosschain.KindFinalize:
		err = d.handleFinalize(ctx, env, source)
	}

	d.metrics.RecordEnvelopeReceived(string(env.Kind))
	d.metrics.ObserveDispatch(time.Since(start))
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (d *Dispatcher) handleCreateProposal(ctx context.Context, env crosschain.Envelope, source domain.Source) error {
	msg, err := env.CreateProposal()
	if err != nil {
		d.metrics.RecordMalformedEnvelope()
		return err
	}
	daoID, err := domain.ParseDAOID(msg.DAOID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "invalid dao id")
	}
	proposalID, err := domain.ParseProposalID(msg.ProposalID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "invalid proposal id")
	}
	_, err = d.proposals.Create(ctx, "", proposalservice.CreateParams{
		DAOID:       daoID,
		ProposalID:  proposalID,
		Description: msg.Description,
		StartTime:   time.Unix(msg.StartTime, 0).UTC(),
		EndTime:     time.Unix(msg.EndTime, 0).UTC(),
		Quorum:      msg.Quorum,
	}, source)
	return err
}

func (d *Dispatcher) handleVote(ctx context.Context, env crosschain.Envelope, source domain.Source) error {
	msg, err := env.Vote()
	if err != nil {
		d.metrics.RecordMalformedEnvelope()
		return err
	}
	proposalID, err := domain.ParseProposalID(msg.ProposalID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "invalid proposal id")
	}
	voter, err := domain.ParseAddress(msg.Voter)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "invalid voter address")
	}
	return d.votes.ApplyVote(ctx, proposalID, voter, msg.Weight, source)
}

func (d *Dispatcher) handleFinalize(ctx context.Context, env crosschain.Envelope, source domain.Source) error {
	msg, err := env.Finalize()
	if err != nil {
		d.metrics.RecordMalformedEnvelope()
		return err
	}
	proposalID, err := domain.ParseProposalID(msg.ProposalID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeMalformedPayload, "invalid proposal id")
	}
	_, err = d.finalizer.Finalize(ctx, proposalID, "", source)
	return err
}
