package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"crossgov/internal/dao"
	"crossgov/internal/events"
	"crossgov/internal/fees"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
	"crossgov/pkg/platform/sentinel"
	"crossgov/pkg/requestcontext"
)

// Store is the persistence the registry service needs.
type Store interface {
	Create(ctx context.Context, record dao.DAO) error
	Get(ctx context.Context, id domain.DAOID) (dao.DAO, error)
	SetMinimumTokens(ctx context.Context, id domain.DAOID, minimum uint64) error
}

// RegisterParams carries the caller-supplied fields of a registration.
type RegisterParams struct {
	ID            domain.DAOID
	Name          string
	Description   string
	MetadataRef   string
	TokenRef      domain.TokenRef
	MinimumTokens uint64
	// Fee is the payment attached to the call.
	Fee uint64
}

// Service implements the DAO registry: one registration per identifier, a
// minimum-token policy mutable only by the DAO's own controller, and a global
// creation fee mutable only by the administrator.
type Service struct {
	store  Store
	ledger fees.Ledger
	events *events.Publisher
	logger *slog.Logger

	admin domain.Address

	mu          sync.RWMutex
	creationFee uint64
}

func NewService(store Store, ledger fees.Ledger, publisher *events.Publisher, admin domain.Address, creationFee uint64, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		ledger:      ledger,
		events:      publisher,
		logger:      logger,
		admin:       admin,
		creationFee: creationFee,
	}
}

// Register creates a DAO record with controller = caller. The attached fee is
// retained by the fee ledger on success; a rejected registration retains
// nothing.
func (s *Service) Register(ctx context.Context, caller domain.Address, params RegisterParams) (dao.DAO, error) {
	if params.Name == "" {
		return dao.DAO{}, dErrors.New(dErrors.CodeBadRequest, "dao name is required")
	}

	s.mu.RLock()
	fee := s.creationFee
	s.mu.RUnlock()
	if params.Fee < fee {
		return dao.DAO{}, dErrors.Newf(dErrors.CodeInsufficientFee, "creation fee is %d, got %d", fee, params.Fee)
	}

	record := dao.DAO{
		ID:            params.ID,
		Controller:    caller,
		Name:          params.Name,
		Description:   params.Description,
		MetadataRef:   params.MetadataRef,
		TokenRef:      params.TokenRef,
		MinimumTokens: params.MinimumTokens,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dao.DAO{}, dErrors.Newf(dErrors.CodeDuplicateDAO, "dao %s already registered", params.ID)
		}
		return dao.DAO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register dao")
	}

	// The record exists; fee retention and the event are best-effort
	// bookkeeping against external collaborators.
	if err := s.ledger.Credit(ctx, string(caller), params.Fee); err != nil {
		s.logger.ErrorContext(ctx, "failed to retain creation fee",
			"dao_id", params.ID, "error", err)
	}
	if err := s.events.Emit(ctx, events.Event{
		Kind:  events.KindDAOCreated,
		DAOID: record.ID,
		Actor: caller,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit dao_created", "dao_id", params.ID, "error", err)
	}
	return record, nil
}

// Get returns a registered DAO.
func (s *Service) Get(ctx context.Context, id domain.DAOID) (dao.DAO, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dao.DAO{}, dErrors.Newf(dErrors.CodeDAONotFound, "dao %s is not registered", id)
		}
		return dao.DAO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dao")
	}
	return record, nil
}

// SetMinimumTokens updates the DAO's eligibility threshold. Controller only.
func (s *Service) SetMinimumTokens(ctx context.Context, caller domain.Address, id domain.DAOID, minimum uint64) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if record.Controller != caller {
		return dErrors.New(dErrors.CodeUnauthorized, "only the dao controller may change the minimum")
	}
	if err := s.store.SetMinimumTokens(ctx, id, minimum); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update minimum tokens")
	}
	if err := s.events.Emit(ctx, events.Event{
		Kind:  events.KindDAOUpdated,
		DAOID: id,
		Actor: caller,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit dao_updated", "dao_id", id, "error", err)
	}
	return nil
}

// SetCreationFee changes the fee charged by subsequent registrations.
// Administrator only.
func (s *Service) SetCreationFee(ctx context.Context, caller domain.Address, fee uint64) error {
	if caller != s.admin {
		return dErrors.New(dErrors.CodeUnauthorized, "only the administrator may change the creation fee")
	}
	s.mu.Lock()
	s.creationFee = fee
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "creation fee updated", "fee", fee)
	return nil
}

// CreationFee returns the fee charged by the next registration.
func (s *Service) CreationFee() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creationFee
}

// Withdraw drains the retained fee balance to the administrator.
func (s *Service) Withdraw(ctx context.Context, caller domain.Address) (uint64, error) {
	if caller != s.admin {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "only the administrator may withdraw fees")
	}
	withdrawn, err := s.ledger.Withdraw(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw fees")
	}
	s.logger.InfoContext(ctx, "fees withdrawn", "amount", withdrawn)
	return withdrawn, nil
}

// FeeBalance reports the retained balance.
func (s *Service) FeeBalance(ctx context.Context) (uint64, error) {
	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read fee balance")
	}
	return balance, nil
}
