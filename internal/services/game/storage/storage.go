// Package storage defines the persistence interfaces the game core consumes.
//
// Stores are treated as durable, linearizable storage keyed by ID. The core
// defines the transactional semantics persistence must preserve, not the
// storage format itself.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/valithor/inabsentia/internal/services/game/domain/contract"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ContractStore persists contract aggregates.
type ContractStore interface {
	// PutContract writes the full aggregate, replacing any previous state.
	PutContract(ctx context.Context, c contract.Contract) error
	// GetContract fetches a contract by ID, ErrNotFound when missing.
	GetContract(ctx context.Context, id string) (contract.Contract, error)
	// ListContractsByStatus returns all contracts currently in the status.
	ListContractsByStatus(ctx context.Context, status contract.Status) ([]contract.Contract, error)
	// ListResolvedUnarchived returns resolved contracts last updated before
	// the cutoff that have not been exported to the archive yet.
	ListResolvedUnarchived(ctx context.Context, cutoff time.Time) ([]contract.Contract, error)
	// MarkContractArchived records that a resolved contract was exported.
	// Contracts are retained for history and never physically deleted.
	MarkContractArchived(ctx context.Context, id string, at time.Time) error
}

// LedgerStore persists the economy stockpile.
type LedgerStore interface {
	// LoadStock reads the full stock map.
	LoadStock(ctx context.Context) (map[string]int, error)
	// ApplyStockDelta adjusts one item type by a signed delta.
	ApplyStockDelta(ctx context.Context, itemType string, delta int) error
	// SetStock overwrites one item type's quantity, used by seeding.
	SetStock(ctx context.Context, itemType string, quantity int) error
}

// Store combines the stores the game runtime needs.
type Store interface {
	ContractStore
	LedgerStore
	Close() error
}
