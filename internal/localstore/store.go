package localstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/funmbia/Novelty/internal/domain"
)

// Store holds the guest cart while no session is authenticated. It is the
// only component allowed to touch the slot; everything else goes through
// the engine.
type Store interface {
	// Load returns the stored guest cart. An absent or malformed slot
	// yields an empty cart, never an error.
	Load(ctx context.Context) (domain.Cart, error)

	// Save replaces the stored guest cart. Idempotent.
	Save(ctx context.Context, cart domain.Cart) error

	// Clear empties the slot.
	Clear(ctx context.Context) error

	// SetReloadPending raises the flag telling the next authenticated
	// reader to discard its view and re-fetch the remote cart.
	SetReloadPending(ctx context.Context) error

	// ConsumeReloadPending returns the flag and lowers it.
	ConsumeReloadPending(ctx context.Context) (bool, error)

	// Close releases the underlying storage.
	Close() error
}

// Normalize repairs loaded guest lines: lines without an id get a generated
// one, lines with a non-positive quantity are dropped. Returned lines keep
// their stored order.
func Normalize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if line.LineID == "" {
			line.LineID = uuid.New().String()
		}
		out = append(out, line)
	}
	return out
}
