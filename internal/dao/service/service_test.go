package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	daostore "crossgov/internal/dao/store"
	"crossgov/internal/events"
	"crossgov/internal/fees"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
)

var (
	testDAOID  = domain.DAOID(strings.Repeat("01", 32))
	controller = domain.Address("0x" + strings.Repeat("02", 20))
	stranger   = domain.Address("0x" + strings.Repeat("03", 20))
	admin      = domain.Address("0x" + strings.Repeat("0e", 20))
	tokenRef   = domain.TokenRef("0x" + strings.Repeat("04", 20))
)

func newService(t *testing.T, creationFee uint64) (*Service, fees.Ledger) {
	t.Helper()
	ledger := fees.NewInMemoryLedger()
	publisher := events.NewPublisher(events.NewInMemoryStore())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(daostore.NewInMemoryStore(), ledger, publisher, admin, creationFee, logger), ledger
}

func params() RegisterParams {
	return RegisterParams{
		ID:            testDAOID,
		Name:          "treasury",
		TokenRef:      tokenRef,
		MinimumTokens: 100,
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 0)

	record, err := svc.Register(ctx, controller, params())
	require.NoError(t, err)
	assert.Equal(t, controller, record.Controller)
	assert.Equal(t, uint64(100), record.MinimumTokens)

	got, err := svc.Get(ctx, testDAOID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
}

func TestRegisterRequiresName(t *testing.T) {
	svc, _ := newService(t, 0)
	p := params()
	p.Name = ""

	_, err := svc.Register(context.Background(), controller, p)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 0)

	_, err := svc.Register(ctx, controller, params())
	require.NoError(t, err)
	_, err = svc.Register(ctx, stranger, params())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDuplicateDAO))

	// The original registration is untouched.
	record, err := svc.Get(ctx, testDAOID)
	require.NoError(t, err)
	assert.Equal(t, controller, record.Controller)
}

func TestRegisterFee(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newService(t, 50)

	p := params()
	p.Fee = 49
	_, err := svc.Register(ctx, controller, p)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientFee))

	// A rejected registration retains nothing.
	balance, err := ledger.Balance(ctx)
	require.NoError(t, err)
	assert.Zero(t, balance)

	p.Fee = 50
	_, err = svc.Register(ctx, controller, p)
	require.NoError(t, err)

	balance, err = ledger.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), balance)
}

func TestSetCreationFee(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 0)

	err := svc.SetCreationFee(ctx, stranger, 75)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	require.NoError(t, svc.SetCreationFee(ctx, admin, 75))
	assert.Equal(t, uint64(75), svc.CreationFee())

	p := params()
	_, err = svc.Register(ctx, controller, p)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientFee))
}

func TestSetMinimumTokens(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 0)
	_, err := svc.Register(ctx, controller, params())
	require.NoError(t, err)

	err = svc.SetMinimumTokens(ctx, stranger, testDAOID, 500)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	require.NoError(t, svc.SetMinimumTokens(ctx, controller, testDAOID, 500))
	record, err := svc.Get(ctx, testDAOID)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), record.MinimumTokens)
}

func TestGetUnknown(t *testing.T) {
	svc, _ := newService(t, 0)
	_, err := svc.Get(context.Background(), testDAOID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDAONotFound))
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, 25)

	p := params()
	p.Fee = 25
	_, err := svc.Register(ctx, controller, p)
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, stranger)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	withdrawn, err := svc.Withdraw(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), withdrawn)

	balance, err := svc.FeeBalance(ctx)
	require.NoError(t, err)
	assert.Zero(t, balance)
}
