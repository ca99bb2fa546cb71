// Package finalizer transitions proposals to their terminal state once the
// voting window has elapsed.
package finalizer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"crossgov/internal/dao"
	"crossgov/internal/events"
	"crossgov/internal/platform/metrics"
	"crossgov/internal/proposal"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
	"crossgov/pkg/platform/sentinel"
	"crossgov/pkg/requestcontext"
)

// ProposalStore is the slice of the proposal store the controller needs.
type ProposalStore interface {
	Get(ctx context.Context, id domain.ProposalID) (*proposal.Proposal, error)
	MarkFinalized(ctx context.Context, id domain.ProposalID, outcome proposal.Outcome, at time.Time) error
}

// DAOGetter resolves the owning DAO for authorization.
type DAOGetter interface {
	Get(ctx context.Context, id domain.DAOID) (dao.DAO, error)
}

// Service finalizes proposals. Finalization is not idempotent: a second call
// on a terminal proposal fails with AlreadyFinalized and changes nothing.
type Service struct {
	proposals ProposalStore
	daos      DAOGetter
	events    *events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(proposals ProposalStore, daos DAOGetter, publisher *events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{proposals: proposals, daos: daos, events: publisher, metrics: m, logger: logger}
}

// Finalize marks the proposal terminal and records the outcome against
// quorum: Passed when the accumulated total weight reached the threshold,
// Failed otherwise. Local calls must come from the owning DAO's controller;
// envelopes from the transport's authenticated channel are trusted implicitly.
func (s *Service) Finalize(ctx context.Context, proposalID domain.ProposalID, caller domain.Address, source domain.Source) (*proposal.Proposal, error) {
	record, err := s.proposals.Get(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeProposalNotFound, "proposal %s does not exist", proposalID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}

	if !source.IsRemote() {
		owner, err := s.daos.Get(ctx, record.DAOID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeDAONotFound) {
				return nil, dErrors.Newf(dErrors.CodeDAONotFound, "dao %s is not registered", record.DAOID)
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dao")
		}
		if owner.Controller != caller {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "only the dao controller may finalize")
		}
	}

	if record.Finalized {
		return nil, dErrors.Newf(dErrors.CodeAlreadyFinalized, "proposal %s is already finalized", proposalID)
	}
	now := requestcontext.Now(ctx)
	if !now.After(record.EndTime) {
		return nil, dErrors.Newf(dErrors.CodeVotingStillActive, "proposal %s is still accepting votes", proposalID)
	}

	outcome := proposal.OutcomeFailed
	if record.TotalWeight >= record.Quorum {
		outcome = proposal.OutcomePassed
	}

	if err := s.proposals.MarkFinalized(ctx, proposalID, outcome, now); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Lost a race with a concurrent finalize.
			return nil, dErrors.Newf(dErrors.CodeAlreadyFinalized, "proposal %s is already finalized", proposalID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize proposal")
	}

	s.metrics.RecordFinalization(string(outcome))
	if err := s.events.Emit(ctx, events.Event{
		Kind:        events.KindProposalFinalized,
		DAOID:       record.DAOID,
		ProposalID:  proposalID,
		Actor:       caller,
		Outcome:     string(outcome),
		SourceChain: source.Chain,
		MessageID:   source.MessageID,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit proposal_finalized",
			"proposal_id", proposalID, "error", err)
	}

	record.Finalized = true
	record.Outcome = outcome
	record.FinalizedAt = now
	return record, nil
}
