package domain

import "math"

// CartLine is a single cart entry referencing one book and a quantity.
// A line never exists with Quantity <= 0; mutations delete it instead.
type CartLine struct {
	LineID   string `json:"cartItemId"`
	Book     Book   `json:"book"`
	Quantity int    `json:"quantity"`
}

// Cart is an ordered sequence of lines. Insertion order is significant for
// merge replay, not for totals.
type Cart struct {
	Lines []CartLine `json:"cartItemList"`
}

// Total returns the sum of price*quantity over all lines, rounded to two
// decimal places. Always computed from the lines, never cached.
func (c Cart) Total() float64 {
	var sum float64
	for _, line := range c.Lines {
		sum += line.Book.Price * float64(line.Quantity)
	}
	return math.Round(sum*100) / 100
}

// Count returns the sum of quantities over all lines.
func (c Cart) Count() int {
	var n int
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

// IsEmpty reports whether the cart holds no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Clone returns a deep copy so callers can hand snapshots out without
// exposing the engine's backing slice.
func (c Cart) Clone() Cart {
	if c.Lines == nil {
		return Cart{}
	}
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

// FindLine returns the line with the given id, or false.
func (c Cart) FindLine(lineID string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.LineID == lineID {
			return line, true
		}
	}
	return CartLine{}, false
}

// AuthorityMode names which store is currently the source of truth for
// cart reads and writes.
type AuthorityMode string

const (
	// Anonymous routes all mutations to the device-local guest cart.
	Anonymous AuthorityMode = "anonymous"

	// Merging is the login transition window: a guest cart replay against
	// the remote store is in flight and reads must not race ahead of it.
	Merging AuthorityMode = "merging"

	// Authenticated routes all mutations to the remote cart service.
	Authenticated AuthorityMode = "authenticated"
)
