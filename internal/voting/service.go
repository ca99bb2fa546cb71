// Package voting applies votes to proposal tallies. It is the only component
// that mutates a tally, and it enforces eligibility, the voting window, and
// exactly-once-per-message semantics for votes arriving over the transport.
package voting

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"crossgov/internal/dao"
	"crossgov/internal/eligibility"
	"crossgov/internal/events"
	"crossgov/internal/platform/metrics"
	"crossgov/internal/proposal"
	"crossgov/internal/voting/dedup"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
	"crossgov/pkg/platform/sentinel"
	"crossgov/pkg/requestcontext"
)

// ProposalStore is the slice of the proposal store the aggregator needs.
type ProposalStore interface {
	Get(ctx context.Context, id domain.ProposalID) (*proposal.Proposal, error)
	AddWeight(ctx context.Context, id domain.ProposalID, voter domain.Address, weight uint64) error
}

// DAOGetter resolves the owning DAO for the token-threshold check.
type DAOGetter interface {
	Get(ctx context.Context, id domain.DAOID) (dao.DAO, error)
}

// Service is the vote aggregator.
type Service struct {
	proposals ProposalStore
	daos      DAOGetter
	oracle    eligibility.Oracle
	dedup     dedup.Store
	events    *events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(
	proposals ProposalStore,
	daos DAOGetter,
	oracle eligibility.Oracle,
	dedupStore dedup.Store,
	publisher *events.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		proposals: proposals,
		daos:      daos,
		oracle:    oracle,
		dedup:     dedupStore,
		events:    publisher,
		metrics:   m,
		logger:    logger,
	}
}

// ApplyVote applies a single vote, local or received. Weight accumulates:
// repeated votes from the same voter increase their recorded weight, they
// never replace it.
//
// For remote sources the transport's message id is the idempotency key. The
// key is claimed atomically before the tally mutation, so a redelivered
// message either loses the claim (and is discarded) or was never applied.
// A crash between claiming and applying loses that one vote rather than
// double-counting it; given at-least-once redelivery, under-counting once on
// a crash is the safer side of the trade.
func (s *Service) ApplyVote(ctx context.Context, proposalID domain.ProposalID, voter domain.Address, weight uint64, source domain.Source) error {
	if err := s.applyVote(ctx, proposalID, voter, weight, source); err != nil {
		if errors.Is(err, errDuplicate) {
			s.metrics.RecordDuplicateDropped()
			s.logger.InfoContext(ctx, "duplicate cross-chain vote discarded",
				"proposal_id", proposalID,
				"source_chain", source.Chain,
				"message_id", source.MessageID,
			)
			// Idempotent no-op: the vote is already in the tally.
			return nil
		}
		s.metrics.RecordVoteRejected(string(dErrors.CodeOf(err)))
		return err
	}
	s.metrics.RecordVoteAccepted()
	return nil
}

var errDuplicate = errors.New("duplicate message")

func (s *Service) applyVote(ctx context.Context, proposalID domain.ProposalID, voter domain.Address, weight uint64, source domain.Source) error {
	if weight == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "vote weight must be positive")
	}
	// Weights persist as BIGINT; anything above that range would wrap
	// negative on the way into Postgres.
	if weight > math.MaxInt64 {
		return dErrors.Newf(dErrors.CodeBadRequest, "vote weight %d exceeds the supported range", weight)
	}

	whitelisted, err := s.oracle.IsWhitelisted(ctx, voter)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "membership oracle unavailable")
	}
	if !whitelisted {
		return dErrors.Newf(dErrors.CodeNotEligible, "voter %s is not whitelisted", voter)
	}

	record, err := s.proposals.Get(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeProposalNotFound, "proposal %s does not exist", proposalID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}

	// The receiving chain's clock decides; cross-chain skew is an accepted
	// risk, not corrected here.
	now := requestcontext.Now(ctx)
	if record.Finalized || !record.WindowOpen(now) {
		return dErrors.Newf(dErrors.CodeVotingNotActive, "proposal %s is not accepting votes", proposalID)
	}

	owner, err := s.daos.Get(ctx, record.DAOID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeDAONotFound) {
			return dErrors.Newf(dErrors.CodeDAONotFound, "dao %s is not registered", record.DAOID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dao")
	}
	balance, err := s.oracle.BalanceOf(ctx, owner.TokenRef, voter)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "membership oracle unavailable")
	}
	if balance < owner.MinimumTokens {
		return dErrors.Newf(dErrors.CodeInsufficientTokens, "voter %s holds %d, dao requires %d", voter, balance, owner.MinimumTokens)
	}

	if source.IsRemote() {
		added, err := s.dedup.Add(ctx, proposalID, source.MessageID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record idempotency key")
		}
		if !added {
			return errDuplicate
		}
	}

	if err := s.proposals.AddWeight(ctx, proposalID, voter, weight); err != nil {
		// The store rejects tally writes on terminal proposals, so a
		// finalize that committed after the snapshot above still cannot
		// be out-voted.
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.Newf(dErrors.CodeVotingNotActive, "proposal %s is not accepting votes", proposalID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply vote")
	}

	if err := s.events.Emit(ctx, events.Event{
		Kind:        events.KindVoteAccepted,
		DAOID:       record.DAOID,
		ProposalID:  proposalID,
		Voter:       voter,
		Weight:      weight,
		SourceChain: source.Chain,
		MessageID:   source.MessageID,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit vote_accepted",
			"proposal_id", proposalID, "error", err)
	}
	return nil
}
