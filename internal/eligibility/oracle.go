// Package eligibility defines the membership oracle the vote aggregator
// consults. Whitelisting and token balances are external concerns; the engine
// only asks boolean and balance questions.
package eligibility

import (
	"context"

	"crossgov/pkg/domain"
)

//go:generate mockgen -source=oracle.go -destination=mocks/oracle.go -package=mocks Oracle

// Oracle answers voter-eligibility questions.
type Oracle interface {
	// IsWhitelisted reports whether the address may vote at all.
	IsWhitelisted(ctx context.Context, addr domain.Address) (bool, error)
	// BalanceOf returns the address's balance of the given governance token.
	BalanceOf(ctx context.Context, token domain.TokenRef, addr domain.Address) (uint64, error)
}
