package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"crossgov/pkg/domain"
)

// RedisStore records applied message keys as one Redis set per proposal.
// SADD is atomic, so concurrent deliveries of the same message resolve to
// exactly one winner without extra locking.
type RedisStore struct {
	client *redis.Client
	// retention bounds the window of remembered keys. Votes cannot be applied
	// after the proposal's end time, so keys only need to outlive the longest
	// plausible redelivery horizon past that point.
	retention time.Duration
}

func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

func (s *RedisStore) Add(ctx context.Context, proposalID domain.ProposalID, key string) (bool, error) {
	setKey := "crossgov:applied:" + string(proposalID)
	added, err := s.client.SAdd(ctx, setKey, key).Result()
	if err != nil {
		return false, fmt.Errorf("record dedup key: %w", err)
	}
	if s.retention > 0 {
		// Refresh on every write; the set stays alive while messages for the
		// proposal keep arriving.
		if err := s.client.Expire(ctx, setKey, s.retention).Err(); err != nil {
			return false, fmt.Errorf("refresh dedup retention: %w", err)
		}
	}
	return added == 1, nil
}
