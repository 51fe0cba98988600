package remote

import (
	"context"

	"github.com/funmbia/Novelty/internal/domain"
	"github.com/funmbia/Novelty/internal/session"
)

// Client is the authoritative per-user cart, reachable only while a session
// is authenticated. Every mutating call returns the full resulting cart;
// the engine replaces its snapshot with it wholesale and never merges
// partial responses.
type Client interface {
	// Fetch returns the user's cart, or domain.ErrCartNotFound when the
	// user has no cart yet.
	Fetch(ctx context.Context, identity session.Identity) (domain.Cart, error)

	// Create makes an empty cart for the user and returns it.
	Create(ctx context.Context, identity session.Identity) (domain.Cart, error)

	// AddItem adds quantity of a book. Quantities accumulate on repeated
	// adds of the same book.
	AddItem(ctx context.Context, identity session.Identity, bookID int64, quantity int) (domain.Cart, error)

	// SetQuantity replaces a line's quantity.
	SetQuantity(ctx context.Context, identity session.Identity, lineID string, quantity int) (domain.Cart, error)

	// RemoveItem deletes a line.
	RemoveItem(ctx context.Context, identity session.Identity, lineID string) (domain.Cart, error)

	// Clear empties the cart.
	Clear(ctx context.Context, identity session.Identity) (domain.Cart, error)
}
