package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"crossgov/internal/dao"
	"crossgov/internal/events"
	"crossgov/internal/proposal"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
	"crossgov/pkg/platform/sentinel"
	"crossgov/pkg/requestcontext"
)

// Store is the persistence the proposal service needs.
type Store interface {
	Create(ctx context.Context, record *proposal.Proposal) error
	Get(ctx context.Context, id domain.ProposalID) (*proposal.Proposal, error)
	ListByDAO(ctx context.Context, daoID domain.DAOID) ([]*proposal.Proposal, error)
}

// DAOGetter resolves the owning DAO for authorization.
type DAOGetter interface {
	Get(ctx context.Context, id domain.DAOID) (dao.DAO, error)
}

// CreateParams carries the fields of a proposal creation, local or decoded
// from a cross-chain envelope.
type CreateParams struct {
	DAOID       domain.DAOID
	ProposalID  domain.ProposalID
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Quorum      uint64
}

// Service creates and reads proposals. Mutation of tallies belongs to the
// vote aggregator and the finalization controller; this service only ever
// inserts and reads.
type Service struct {
	store  Store
	daos   DAOGetter
	events *events.Publisher
	logger *slog.Logger
}

func NewService(store Store, daos DAOGetter, publisher *events.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, daos: daos, events: publisher, logger: logger}
}

// Create inserts a new proposal with zeroed tallies. Local calls must come
// from the DAO's controller; calls decoded from the transport's authenticated
// channel are trusted implicitly and skip the controller check.
func (s *Service) Create(ctx context.Context, caller domain.Address, params CreateParams, source domain.Source) (*proposal.Proposal, error) {
	if !params.EndTime.After(params.StartTime) {
		return nil, dErrors.New(dErrors.CodeInvalidWindow, "voting window must end after it starts")
	}
	// Quorum persists as BIGINT; anything above that range would wrap
	// negative on the way into Postgres.
	if params.Quorum > math.MaxInt64 {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "quorum %d exceeds the supported range", params.Quorum)
	}

	owner, err := s.daos.Get(ctx, params.DAOID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeDAONotFound) {
			return nil, dErrors.Newf(dErrors.CodeDAONotFound, "dao %s is not registered", params.DAOID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dao")
	}
	if !source.IsRemote() && owner.Controller != caller {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the dao controller may create proposals")
	}

	record := &proposal.Proposal{
		ID:          params.ProposalID,
		DAOID:       params.DAOID,
		Description: params.Description,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		Quorum:      params.Quorum,
		Tally:       make(map[domain.Address]uint64),
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeDuplicateProposal, "proposal %s already exists", params.ProposalID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proposal")
	}

	if err := s.events.Emit(ctx, events.Event{
		Kind:        events.KindProposalCreated,
		DAOID:       params.DAOID,
		ProposalID:  params.ProposalID,
		Actor:       caller,
		SourceChain: source.Chain,
		MessageID:   source.MessageID,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit proposal_created",
			"proposal_id", params.ProposalID, "error", err)
	}
	return record, nil
}

// Get returns a read-only snapshot of a proposal.
func (s *Service) Get(ctx context.Context, id domain.ProposalID) (*proposal.Proposal, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeProposalNotFound, "proposal %s does not exist", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return record, nil
}

// ListByDAO returns the proposals owned by one DAO, oldest first.
func (s *Service) ListByDAO(ctx context.Context, daoID domain.DAOID) ([]*proposal.Proposal, error) {
	records, err := s.store.ListByDAO(ctx, daoID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proposals")
	}
	return records, nil
}
