// Package dao holds the DAO registry records. The registry is append-only:
// records are created on registration and never destroyed.
package dao

import (
	"time"

	"crossgov/pkg/domain"
)

// DAO is one registered organization. Controller is set at registration and
// immutable afterwards; MinimumTokens is the only mutable field and only the
// controller may change it.
type DAO struct {
	ID            domain.DAOID
	Controller    domain.Address
	Name          string
	Description   string
	MetadataRef   string
	TokenRef      domain.TokenRef
	MinimumTokens uint64
	CreatedAt     time.Time
}
