package dispatch

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossgov/internal/crosschain"
	"crossgov/internal/dao"
	daostore "crossgov/internal/dao/store"
	"crossgov/internal/eligibility"
	"crossgov/internal/events"
	"crossgov/internal/finalizer"
	"crossgov/internal/proposal"
	proposalservice "crossgov/internal/proposal/service"
	proposalstore "crossgov/internal/proposal/store"
	"crossgov/internal/voting"
	"crossgov/internal/voting/dedup"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
)

var (
	testDAOID      = domain.DAOID(strings.Repeat("01", 32))
	testProposalID = domain.ProposalID(strings.Repeat("02", 32))
	voter          = domain.Address("0x" + strings.Repeat("03", 20))
	tokenRef       = domain.TokenRef("0x" + strings.Repeat("04", 20))
)

type fixture struct {
	dispatcher *Dispatcher
	store      *proposalstore.InMemoryStore
	oracle     *eligibility.InMemoryOracle
}

// newFixture wires the real services behind the dispatcher the way main does,
// with in-memory storage. The dispatcher pins its clock to the wall, so test
// proposals use windows placed relative to time.Now.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	daos := daostore.NewInMemoryStore()
	require.NoError(t, daos.Create(ctx, dao.DAO{
		ID:            testDAOID,
		Controller:    domain.Address("0x" + strings.Repeat("0e", 20)),
		Name:          "treasury",
		TokenRef:      tokenRef,
		MinimumTokens: 100,
	}))

	oracle := eligibility.NewInMemoryOracle()
	oracle.Allow(voter)
	oracle.SetBalance(tokenRef, voter, 100)

	store := proposalstore.NewInMemoryStore()
	publisher := events.NewPublisher(events.NewInMemoryStore())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	proposals := proposalservice.NewService(store, daos, publisher, logger)
	votes := voting.NewService(store, daos, oracle, dedup.NewInMemoryStore(), publisher, nil, logger)
	final := finalizer.NewService(store, daos, publisher, nil, logger)

	return &fixture{
		dispatcher: New(proposals, votes, final, nil, logger),
		store:      store,
		oracle:     oracle,
	}
}

func (f *fixture) seedActiveProposal(t *testing.T) {
	t.Helper()
	now := time.Now()
	require.NoError(t, f.store.Create(context.Background(), &proposal.Proposal{
		ID:        testProposalID,
		DAOID:     testDAOID,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Quorum:    1000,
		Tally:     make(map[domain.Address]uint64),
	}))
}

func encode(t *testing.T, kind crosschain.Kind, payload any) []byte {
	t.Helper()
	env, err := crosschain.NewEnvelope(kind, "chain-b", payload)
	require.NoError(t, err)
	raw, err := env.Encode()
	require.NoError(t, err)
	return raw
}

func TestDispatchCreateProposal(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	raw := encode(t, crosschain.KindCreateProposal, crosschain.CreateProposalMessage{
		DAOID:       string(testDAOID),
		ProposalID:  string(testProposalID),
		Description: "fund the validators",
		StartTime:   now.Add(-time.Hour).Unix(),
		EndTime:     now.Add(time.Hour).Unix(),
		Quorum:      1000,
	})
	require.NoError(t, f.dispatcher.Dispatch(context.Background(), raw))

	record, err := f.store.Get(context.Background(), testProposalID)
	require.NoError(t, err)
	assert.Equal(t, testDAOID, record.DAOID)
	assert.Equal(t, uint64(1000), record.Quorum)
}

func TestDispatchVote(t *testing.T) {
	f := newFixture(t)
	f.seedActiveProposal(t)

	raw := encode(t, crosschain.KindVote, crosschain.VoteMessage{
		ProposalID: string(testProposalID),
		Voter:      string(voter),
		Weight:     50,
	})
	require.NoError(t, f.dispatcher.Dispatch(context.Background(), raw))

	record, err := f.store.Get(context.Background(), testProposalID)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), record.TotalWeight)
}

func TestDispatchReplayedVoteBytesCountOnce(t *testing.T) {
	f := newFixture(t)
	f.seedActiveProposal(t)

	raw := encode(t, crosschain.KindVote, crosschain.VoteMessage{
		ProposalID: string(testProposalID),
		Voter:      string(voter),
		Weight:     50,
	})

	// The transport redelivers the exact same record. Both deliveries succeed
	// from the consumer's point of view; the tally moves once.
	require.NoError(t, f.dispatcher.Dispatch(context.Background(), raw))
	require.NoError(t, f.dispatcher.Dispatch(context.Background(), raw))

	record, err := f.store.Get(context.Background(), testProposalID)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), record.Tally[voter])
	assert.Equal(t, uint64(50), record.TotalWeight)
}

func TestDispatchFinalize(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	require.NoError(t, f.store.Create(context.Background(), &proposal.Proposal{
		ID:        testProposalID,
		DAOID:     testDAOID,
		StartTime: now.Add(-2 * time.Hour),
		EndTime:   now.Add(-time.Hour),
		Quorum:    1000,
		Tally:     make(map[domain.Address]uint64),
	}))

	raw := encode(t, crosschain.KindFinalize, crosschain.FinalizeMessage{
		ProposalID: string(testProposalID),
	})
	require.NoError(t, f.dispatcher.Dispatch(context.Background(), raw))

	record, err := f.store.Get(context.Background(), testProposalID)
	require.NoError(t, err)
	assert.True(t, record.Finalized)
	assert.Equal(t, proposal.OutcomeFailed, record.Outcome)
}

func TestDispatchMalformed(t *testing.T) {
	f := newFixture(t)

	err := f.dispatcher.Dispatch(context.Background(), []byte("garbage"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
}

func TestDispatchVoteWithBadAddress(t *testing.T) {
	f := newFixture(t)
	f.seedActiveProposal(t)

	raw := encode(t, crosschain.KindVote, crosschain.VoteMessage{
		ProposalID: string(testProposalID),
		Voter:      "not-an-address",
		Weight:     50,
	})
	err := f.dispatcher.Dispatch(context.Background(), raw)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedPayload))
}
