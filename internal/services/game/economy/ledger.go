// Package economy holds the atomic counter store for reservable material
// quantities. Contracts hold claims against the ledger; they never mutate
// stock directly.
package economy

import (
	"sync"

	apperrors "github.com/valithor/inabsentia/internal/platform/errors"
)

// ErrNegativeRelease indicates a negative release quantity, which is a caller
// error rather than an expected business outcome.
var ErrNegativeRelease = apperrors.New(apperrors.CodeLedgerNegativeRelease, "release quantity must be non-negative")

// Ledger tracks available stock per item type. All mutations are serialized
// by a single mutex so a reservation is all-or-nothing: concurrent callers
// never observe a partial decrement, and two reservations never both succeed
// against stock that only covers one.
type Ledger struct {
	mu    sync.Mutex
	stock map[string]int
}

// NewLedger creates a ledger seeded with the provided stock quantities.
// Negative seed values are clamped to zero.
func NewLedger(initial map[string]int) *Ledger {
	stock := make(map[string]int, len(initial))
	for itemType, qty := range initial {
		if qty < 0 {
			qty = 0
		}
		stock[itemType] = qty
	}
	return &Ledger{stock: stock}
}

// Available returns the unreserved quantity for an item type, zero for
// unknown types.
func (l *Ledger) Available(itemType string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[itemType]
}

// Reserve attempts to claim quantity units of an item type. It returns false
// with no side effect when quantity is non-positive or stock is insufficient.
// Insufficient stock is an expected business outcome, so it is reported as a
// boolean rather than an error.
func (l *Ledger) Reserve(itemType string, quantity int) bool {
	if quantity <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	available := l.stock[itemType]
	if available < quantity {
		return false
	}
	l.stock[itemType] = available - quantity
	return true
}

// Release returns quantity units of an item type to the ledger. The ledger
// trusts callers to release only what they previously reserved; there is no
// upper-bound check. Releasing a negative quantity fails.
func (l *Ledger) Release(itemType string, quantity int) error {
	if quantity < 0 {
		return ErrNegativeRelease
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.stock[itemType] += quantity
	return nil
}

// Snapshot copies the current stock for persistence hand-off.
func (l *Ledger) Snapshot() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int, len(l.stock))
	for itemType, qty := range l.stock {
		out[itemType] = qty
	}
	return out
}
