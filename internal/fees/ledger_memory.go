package fees

import (
	"context"
	"sync"
)

// InMemoryLedger keeps the retained balance in memory.
type InMemoryLedger struct {
	mu      sync.Mutex
	balance uint64
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{}
}

func (l *InMemoryLedger) Credit(_ context.Context, _ string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance += amount
	return nil
}

func (l *InMemoryLedger) Balance(_ context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance, nil
}

func (l *InMemoryLedger) Withdraw(_ context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	withdrawn := l.balance
	l.balance = 0
	return withdrawn, nil
}
