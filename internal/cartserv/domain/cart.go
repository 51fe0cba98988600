package domain

import (
	"time"

	wire "github.com/funmbia/Novelty/internal/domain"
)

// Cart is the stored shape of a user's server-side cart.
type Cart struct {
	ID        string     `bson:"_id,omitempty"`
	UserID    int64      `bson:"user_id"`
	Items     []CartItem `bson:"items"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// CartItem denormalizes the book details into the cart document so a cart
// read never fans out to the catalog.
type CartItem struct {
	LineID   string    `bson:"line_id"`
	BookID   int64     `bson:"book_id"`
	Title    string    `bson:"title"`
	Author   string    `bson:"author"`
	Price    float64   `bson:"price"`
	ImageURL string    `bson:"image_url"`
	Quantity int       `bson:"quantity"`
	AddedAt  time.Time `bson:"added_at"`
}

// FindByBook returns the item holding the given book, or false.
func (c *Cart) FindByBook(bookID int64) (CartItem, bool) {
	for _, item := range c.Items {
		if item.BookID == bookID {
			return item, true
		}
	}
	return CartItem{}, false
}

// FindLine returns the item with the given line id, or false.
func (c *Cart) FindLine(lineID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.LineID == lineID {
			return item, true
		}
	}
	return CartItem{}, false
}

// ToWire renders the stored cart in the REST response shape.
func (c *Cart) ToWire() wire.Cart {
	lines := make([]wire.CartLine, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, wire.CartLine{
			LineID: item.LineID,
			Book: wire.Book{
				BookID:   item.BookID,
				Title:    item.Title,
				Author:   item.Author,
				Price:    item.Price,
				ImageURL: item.ImageURL,
			},
			Quantity: item.Quantity,
		})
	}
	return wire.Cart{Lines: lines}
}
