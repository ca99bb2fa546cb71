// Package fees is the payment ledger collaborating with the registry. It
// retains accepted creation fees and lets the administrator withdraw the
// accumulated balance. Bookkeeping only; fee-market mechanics are out of
// scope.
package fees

import "context"

// Ledger records retained payments.
type Ledger interface {
	// Credit retains an accepted payment.
	Credit(ctx context.Context, payer string, amount uint64) error
	// Balance returns the retained total not yet withdrawn.
	Balance(ctx context.Context) (uint64, error)
	// Withdraw zeroes the retained balance and returns the amount withdrawn.
	// Authorization (administrator only) is enforced by the service layer.
	Withdraw(ctx context.Context) (uint64, error)
}
