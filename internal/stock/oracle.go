package stock

import (
	"context"

	"github.com/funmbia/Novelty/internal/domain"
)

// Oracle supplies the current available quantity for a book. The engine
// consults it to clamp requested quantities while the guest cart is the
// authority; the remote cart service does its own clamping.
type Oracle interface {
	Available(ctx context.Context, book domain.Book) (int, error)
}

// CatalogOracle answers from the availability the catalog already stamped
// on the book itself.
type CatalogOracle struct{}

func (CatalogOracle) Available(_ context.Context, book domain.Book) (int, error) {
	return book.AvailableStock, nil
}

var _ Oracle = CatalogOracle{}
