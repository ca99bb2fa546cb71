//go:build integration

package dedup

import (
	"context"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"crossgov/pkg/domain"
)

type RedisStoreSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *goredis.Client
	store     *RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := goredis.ParseURL(url)
	s.Require().NoError(err)
	s.client = goredis.NewClient(opts)
	s.store = NewRedisStore(s.client, time.Hour)
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisStoreSuite) TestAddClaimsOnce() {
	ctx := context.Background()
	proposalID := domain.ProposalID(strings.Repeat("01", 32))

	added, err := s.store.Add(ctx, proposalID, "msg-1")
	s.Require().NoError(err)
	s.True(added)

	added, err = s.store.Add(ctx, proposalID, "msg-1")
	s.Require().NoError(err)
	s.False(added)
}

func (s *RedisStoreSuite) TestKeysAreScopedPerProposal() {
	ctx := context.Background()

	added, err := s.store.Add(ctx, domain.ProposalID(strings.Repeat("01", 32)), "msg-1")
	s.Require().NoError(err)
	s.True(added)

	added, err = s.store.Add(ctx, domain.ProposalID(strings.Repeat("02", 32)), "msg-1")
	s.Require().NoError(err)
	s.True(added)
}

func (s *RedisStoreSuite) TestRetentionIsApplied() {
	ctx := context.Background()
	proposalID := domain.ProposalID(strings.Repeat("03", 32))

	_, err := s.store.Add(ctx, proposalID, "msg-1")
	s.Require().NoError(err)

	ttl, err := s.client.TTL(ctx, "crossgov:applied:"+string(proposalID)).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}
