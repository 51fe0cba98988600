package repository

import (
	"context"
	"errors"

	"github.com/funmbia/Novelty/internal/cartserv/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrLineNotFound = errors.New("cart line not found")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	CreateCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID int64, item domain.CartItem) error
	SetItemQuantity(ctx context.Context, userID int64, lineID string, quantity int) error
	RemoveItem(ctx context.Context, userID int64, lineID string) error
	ClearCart(ctx context.Context, userID int64) error
}
