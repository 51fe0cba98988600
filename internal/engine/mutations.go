package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/funmbia/Novelty/internal/domain"
	"github.com/funmbia/Novelty/internal/session"
)

// AddToCart adds quantity of a book to the cart. Under local authority the
// quantity is clamped against available stock and lines are merged per
// book; under remote authority the service does its own clamping and its
// response is adopted as-is.
func (e *Engine) AddToCart(ctx context.Context, book domain.Book, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		quantity = 1
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	snap, err := e.populateLocked(ctx)
	if err != nil {
		return domain.Cart{}, err
	}

	if identity, ok := e.remoteAuthority(); ok {
		cart, err := e.remote.AddItem(ctx, identity, book.BookID, quantity)
		if err != nil {
			return domain.Cart{}, err
		}
		e.adopt(cart)
		return cart.Clone(), nil
	}

	avail := e.available(ctx, book)
	if avail <= 0 {
		return snap, fmt.Errorf("%w: %q is out of stock", domain.ErrStockExceeded, book.Title)
	}

	cart := snap.Clone()
	merged := false
	for i, line := range cart.Lines {
		if line.Book.BookID == book.BookID {
			cart.Lines[i].Quantity = clamp(line.Quantity+quantity, avail)
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, domain.CartLine{
			LineID:   uuid.New().String(),
			Book:     book,
			Quantity: clamp(quantity, avail),
		})
	}

	return e.commitLocal(ctx, cart)
}

// RemoveFromCart deletes a line.
func (e *Engine) RemoveFromCart(ctx context.Context, lineID string) (domain.Cart, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	snap, err := e.populateLocked(ctx)
	if err != nil {
		return domain.Cart{}, err
	}

	if _, found := snap.FindLine(lineID); !found {
		return snap, fmt.Errorf("%w: %s", domain.ErrLineNotFound, lineID)
	}

	if identity, ok := e.remoteAuthority(); ok {
		cart, err := e.remote.RemoveItem(ctx, identity, lineID)
		if err != nil {
			return domain.Cart{}, err
		}
		e.adopt(cart)
		return cart.Clone(), nil
	}

	cart := snap.Clone()
	cart.Lines = deleteLine(cart.Lines, lineID)
	return e.commitLocal(ctx, cart)
}

// IncreaseQuantity increments a line's quantity by one. A line already at
// available stock stays put; exceeding stock is refused silently because
// the UI disables nothing and users click fast.
func (e *Engine) IncreaseQuantity(ctx context.Context, lineID string) (domain.Cart, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	snap, err := e.populateLocked(ctx)
	if err != nil {
		return domain.Cart{}, err
	}

	line, found := snap.FindLine(lineID)
	if !found {
		return snap, fmt.Errorf("%w: %s", domain.ErrLineNotFound, lineID)
	}

	// A non-positive figure on a line means availability is unknown here
	// (remote-sourced lines do not carry catalog stock); let the remote
	// service be the judge in that case.
	if avail := e.available(ctx, line.Book); avail > 0 && line.Quantity >= avail {
		return snap, nil
	}

	if identity, ok := e.remoteAuthority(); ok {
		cart, err := e.remote.SetQuantity(ctx, identity, lineID, line.Quantity+1)
		if err != nil {
			return domain.Cart{}, err
		}
		e.adopt(cart)
		return cart.Clone(), nil
	}

	cart := snap.Clone()
	for i := range cart.Lines {
		if cart.Lines[i].LineID == lineID {
			cart.Lines[i].Quantity++
			break
		}
	}
	return e.commitLocal(ctx, cart)
}

// DecreaseQuantity decrements a line's quantity by one. A line that would
// reach zero is removed instead of persisted at zero.
func (e *Engine) DecreaseQuantity(ctx context.Context, lineID string) (domain.Cart, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	snap, err := e.populateLocked(ctx)
	if err != nil {
		return domain.Cart{}, err
	}

	line, found := snap.FindLine(lineID)
	if !found {
		return snap, fmt.Errorf("%w: %s", domain.ErrLineNotFound, lineID)
	}

	newQty := line.Quantity - 1

	if identity, ok := e.remoteAuthority(); ok {
		var cart domain.Cart
		var err error
		if newQty <= 0 {
			cart, err = e.remote.RemoveItem(ctx, identity, lineID)
		} else {
			cart, err = e.remote.SetQuantity(ctx, identity, lineID, newQty)
		}
		if err != nil {
			return domain.Cart{}, err
		}
		e.adopt(cart)
		return cart.Clone(), nil
	}

	cart := snap.Clone()
	if newQty <= 0 {
		cart.Lines = deleteLine(cart.Lines, lineID)
	} else {
		for i := range cart.Lines {
			if cart.Lines[i].LineID == lineID {
				cart.Lines[i].Quantity = newQty
				break
			}
		}
	}
	return e.commitLocal(ctx, cart)
}

// Clear empties the cart. Idempotent.
func (e *Engine) Clear(ctx context.Context) (domain.Cart, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	if _, err := e.populateLocked(ctx); err != nil {
		return domain.Cart{}, err
	}

	if identity, ok := e.remoteAuthority(); ok {
		cart, err := e.remote.Clear(ctx, identity)
		if err != nil {
			return domain.Cart{}, err
		}
		e.adopt(cart)
		return cart.Clone(), nil
	}

	return e.commitLocal(ctx, domain.Cart{Lines: []domain.CartLine{}})
}

// remoteAuthority reports whether mutations currently target the remote
// cart, and under which identity.
func (e *Engine) remoteAuthority() (session.Identity, bool) {
	e.stateMu.Lock()
	mode := e.mode
	e.stateMu.Unlock()

	if mode == domain.Anonymous {
		return session.Identity{}, false
	}
	identity, ok := e.sessions.Current()
	return identity, ok
}

// available asks the oracle, falling back to the catalog figure stamped on
// the book when the oracle fails.
func (e *Engine) available(ctx context.Context, book domain.Book) int {
	avail, err := e.oracle.Available(ctx, book)
	if err != nil {
		log.Printf("stock oracle failed for book %d, using catalog stock: %v", book.BookID, err)
		return book.AvailableStock
	}
	return avail
}

// commitLocal persists a mutated guest cart and adopts it on success. The
// snapshot is untouched when the save fails.
func (e *Engine) commitLocal(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if err := e.local.Save(ctx, cart); err != nil {
		return domain.Cart{}, fmt.Errorf("failed to persist guest cart: %w", err)
	}
	e.adopt(cart)
	return cart.Clone(), nil
}

func clamp(quantity, available int) int {
	if quantity > available {
		return available
	}
	return quantity
}

func deleteLine(lines []domain.CartLine, lineID string) []domain.CartLine {
	out := lines[:0]
	for _, line := range lines {
		if line.LineID != lineID {
			out = append(out, line)
		}
	}
	return out
}
