package events

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"crossgov/pkg/domain"
)

// PostgresStore persists the governance event trail. Append-only; nothing in
// the engine ever updates or deletes a recorded event.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO governance_events (
			id, timestamp, kind, dao_id, proposal_id, actor, voter, weight,
			source_chain, destination_chain, message_id, message_kind, outcome, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		string(event.Kind),
		string(event.DAOID),
		string(event.ProposalID),
		string(event.Actor),
		string(event.Voter),
		int64(event.Weight),
		string(event.SourceChain),
		string(event.DestinationChain),
		event.MessageID,
		event.MessageKind,
		event.Outcome,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append governance event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByProposal(ctx context.Context, proposalID string) ([]Event, error) {
	query := `
		SELECT timestamp, kind, dao_id, proposal_id, actor, voter, weight,
		       source_chain, destination_chain, message_id, message_kind, outcome, request_id
		FROM governance_events
		WHERE proposal_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("list governance events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var event Event
		var kind, daoID, propID, actor, voter, srcChain, dstChain string
		var weight int64
		if err := rows.Scan(
			&event.Timestamp, &kind, &daoID, &propID, &actor, &voter, &weight,
			&srcChain, &dstChain, &event.MessageID, &event.MessageKind, &event.Outcome, &event.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan governance event: %w", err)
		}
		event.Kind = Kind(kind)
		event.DAOID = domain.DAOID(daoID)
		event.ProposalID = domain.ProposalID(propID)
		event.Actor = domain.Address(actor)
		event.Voter = domain.Address(voter)
		event.Weight = uint64(weight)
		event.SourceChain = domain.ChainID(srcChain)
		event.DestinationChain = domain.ChainID(dstChain)
		out = append(out, event)
	}
	return out, rows.Err()
}
