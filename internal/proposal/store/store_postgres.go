package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crossgov/internal/proposal"
	"crossgov/pkg/domain"
	"crossgov/pkg/platform/sentinel"
)

// PostgresStore persists proposals across two tables: proposals for the
// record and proposal_votes for the per-voter tally. AddWeight updates both
// inside one transaction so the tally-consistency invariant holds under
// concurrent writers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *proposal.Proposal) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO proposals (id, dao_id, description, start_time, end_time, quorum,
		                       total_weight, finalized, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, false, '', $7)
		ON CONFLICT (id) DO NOTHING
	`,
		string(record.ID),
		string(record.DAOID),
		record.Description,
		record.StartTime,
		record.EndTime,
		int64(record.Quorum),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert proposal: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("proposal %s: %w", record.ID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.ProposalID) (*proposal.Proposal, error) {
	record, err := s.scanProposal(ctx, s.db.QueryRowContext(ctx, `
		SELECT id, dao_id, description, start_time, end_time, quorum,
		       total_weight, finalized, outcome, finalized_at, created_at
		FROM proposals WHERE id = $1
	`, string(id)))
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT voter, weight FROM proposal_votes WHERE proposal_id = $1
	`, string(id))
	if err != nil {
		return nil, fmt.Errorf("load tally: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var voter string
		var weight int64
		if err := rows.Scan(&voter, &weight); err != nil {
			return nil, fmt.Errorf("scan tally entry: %w", err)
		}
		record.Tally[domain.Address(voter)] = uint64(weight)
	}
	return record, rows.Err()
}

func (s *PostgresStore) AddWeight(ctx context.Context, id domain.ProposalID, voter domain.Address, weight uint64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add weight: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE proposals SET total_weight = total_weight + $2
		WHERE id = $1 AND finalized = false
	`, string(id), int64(weight))
	if err != nil {
		return fmt.Errorf("bump total weight: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("bump total weight: %w", err)
	}
	if affected == 0 {
		// Distinguish missing from already-terminal.
		var finalized bool
		err := tx.QueryRowContext(ctx, `SELECT finalized FROM proposals WHERE id = $1`, string(id)).Scan(&finalized)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("proposal %s: %w", id, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("bump total weight: %w", err)
		}
		return fmt.Errorf("proposal %s: %w", id, sentinel.ErrInvalidState)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO proposal_votes (proposal_id, voter, weight)
		VALUES ($1, $2, $3)
		ON CONFLICT (proposal_id, voter)
		DO UPDATE SET weight = proposal_votes.weight + EXCLUDED.weight
	`, string(id), string(voter), int64(weight))
	if err != nil {
		return fmt.Errorf("accumulate voter weight: %w", err)
	}

	return tx.Commit()
}

func (s *PostgresStore) MarkFinalized(ctx context.Context, id domain.ProposalID, outcome proposal.Outcome, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE proposals SET finalized = true, outcome = $2, finalized_at = $3
		WHERE id = $1 AND finalized = false
	`, string(id), string(outcome), at)
	if err != nil {
		return fmt.Errorf("mark finalized: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark finalized: %w", err)
	}
	if affected == 0 {
		// Distinguish missing from already-terminal.
		var finalized bool
		err := s.db.QueryRowContext(ctx, `SELECT finalized FROM proposals WHERE id = $1`, string(id)).Scan(&finalized)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("proposal %s: %w", id, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("mark finalized: %w", err)
		}
		return fmt.Errorf("proposal %s: %w", id, sentinel.ErrInvalidState)
	}
	return nil
}

func (s *PostgresStore) ListByDAO(ctx context.Context, daoID domain.DAOID) ([]*proposal.Proposal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, dao_id, description, start_time, end_time, quorum,
		       total_weight, finalized, outcome, finalized_at, created_at
		FROM proposals WHERE dao_id = $1
		ORDER BY created_at ASC
	`, string(daoID))
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var out []*proposal.Proposal
	for rows.Next() {
		record, err := s.scanProposal(ctx, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanProposal(_ context.Context, row rowScanner) (*proposal.Proposal, error) {
	record := &proposal.Proposal{Tally: make(map[domain.Address]uint64)}
	var id, daoID, outcome string
	var quorum, totalWeight int64
	var finalizedAt sql.NullTime
	err := row.Scan(
		&id, &daoID, &record.Description, &record.StartTime, &record.EndTime,
		&quorum, &totalWeight, &record.Finalized, &outcome, &finalizedAt, &record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("proposal: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan proposal: %w", err)
	}
	record.ID = domain.ProposalID(id)
	record.DAOID = domain.DAOID(daoID)
	record.Quorum = uint64(quorum)
	record.TotalWeight = uint64(totalWeight)
	record.Outcome = proposal.Outcome(outcome)
	if finalizedAt.Valid {
		record.FinalizedAt = finalizedAt.Time
	}
	return record, nil
}
