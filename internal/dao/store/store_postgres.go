package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crossgov/internal/dao"
	"crossgov/pkg/domain"
	"crossgov/pkg/platform/sentinel"
)

// PostgresStore persists DAO records. Uniqueness is enforced by the primary
// key so concurrent registrations of the same id cannot both win.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record dao.DAO) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO daos (id, controller, name, description, metadata_ref, token_ref, minimum_tokens, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`,
		string(record.ID),
		string(record.Controller),
		record.Name,
		record.Description,
		record.MetadataRef,
		string(record.TokenRef),
		int64(record.MinimumTokens),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dao: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert dao: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("dao %s: %w", record.ID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.DAOID) (dao.DAO, error) {
	var record dao.DAO
	var daoID, controller, tokenRef string
	var minimumTokens int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, controller, name, description, metadata_ref, token_ref, minimum_tokens, created_at
		FROM daos WHERE id = $1
	`, string(id)).Scan(
		&daoID, &controller, &record.Name, &record.Description,
		&record.MetadataRef, &tokenRef, &minimumTokens, &record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return dao.DAO{}, fmt.Errorf("dao %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return dao.DAO{}, fmt.Errorf("get dao: %w", err)
	}
	record.ID = domain.DAOID(daoID)
	record.Controller = domain.Address(controller)
	record.TokenRef = domain.TokenRef(tokenRef)
	record.MinimumTokens = uint64(minimumTokens)
	return record, nil
}

func (s *PostgresStore) SetMinimumTokens(ctx context.Context, id domain.DAOID, minimum uint64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE daos SET minimum_tokens = $2 WHERE id = $1
	`, string(id), int64(minimum))
	if err != nil {
		return fmt.Errorf("update minimum tokens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update minimum tokens: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("dao %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}
