package eligibility

import (
	"context"
	"sync"

	"crossgov/pkg/domain"
)

// InMemoryOracle is a mutex-guarded whitelist and balance ledger. It stands in
// for an external identity/token system in development and tests, and backs
// the admin whitelist endpoints.
type InMemoryOracle struct {
	mu        sync.RWMutex
	whitelist map[domain.Address]struct{}
	balances  map[balanceKey]uint64
}

type balanceKey struct {
	token domain.TokenRef
	addr  domain.Address
}

func NewInMemoryOracle() *InMemoryOracle {
	return &InMemoryOracle{
		whitelist: make(map[domain.Address]struct{}),
		balances:  make(map[balanceKey]uint64),
	}
}

func (o *InMemoryOracle) IsWhitelisted(_ context.Context, addr domain.Address) (bool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.whitelist[addr]
	return ok, nil
}

func (o *InMemoryOracle) BalanceOf(_ context.Context, token domain.TokenRef, addr domain.Address) (uint64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.balances[balanceKey{token: token, addr: addr}], nil
}

// Allow adds an address to the whitelist.
func (o *InMemoryOracle) Allow(addr domain.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.whitelist[addr] = struct{}{}
}

// Revoke removes an address from the whitelist.
func (o *InMemoryOracle) Revoke(addr domain.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.whitelist, addr)
}

// SetBalance records an address's balance of a token.
func (o *InMemoryOracle) SetBalance(token domain.TokenRef, addr domain.Address, amount uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.balances[balanceKey{token: token, addr: addr}] = amount
}
