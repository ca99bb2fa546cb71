package fees

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresLedger persists the retained fee balance as a single-row account
// plus an append-only entry log for audit.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Credit(ctx context.Context, payer string, amount uint64) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin credit: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fee_account (id, balance) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET balance = fee_account.balance + EXCLUDED.balance
	`, int64(amount))
	if err != nil {
		return fmt.Errorf("credit fee account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO fee_entries (payer, amount, created_at) VALUES ($1, $2, now())
	`, payer, int64(amount))
	if err != nil {
		return fmt.Errorf("record fee entry: %w", err)
	}

	return tx.Commit()
}

func (l *PostgresLedger) Balance(ctx context.Context) (uint64, error) {
	var balance int64
	err := l.db.QueryRowContext(ctx, `SELECT balance FROM fee_account WHERE id = 1`).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read fee balance: %w", err)
	}
	return uint64(balance), nil
}

func (l *PostgresLedger) Withdraw(ctx context.Context) (uint64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin withdraw: %w", err)
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance FROM fee_account WHERE id = 1 FOR UPDATE`).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, tx.Commit()
	}
	if err != nil {
		return 0, fmt.Errorf("lock fee balance: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE fee_account SET balance = 0 WHERE id = 1`); err != nil {
		return 0, fmt.Errorf("zero fee balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit withdraw: %w", err)
	}
	return uint64(balance), nil
}
