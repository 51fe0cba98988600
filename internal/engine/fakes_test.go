package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/funmbia/Novelty/internal/domain"
	"github.com/funmbia/Novelty/internal/session"
)

// fakeRemote implements remote.Client with an in-memory per-user cart and
// accumulate-on-add semantics, matching the real service.
type fakeRemote struct {
	mu       sync.Mutex
	carts    map[int64][]domain.CartLine
	nextLine int

	addCalls    []addCall
	fetchCalls  int
	createCalls int

	// failAddOn makes the Nth AddItem call (1-based) fail with failErr.
	failAddOn int
	failErr   error

	// blockAdd, when set, makes AddItem wait until the channel is closed.
	// addStarted is signalled once per blocked call.
	blockAdd   chan struct{}
	addStarted chan struct{}
}

type addCall struct {
	bookID   int64
	quantity int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{carts: make(map[int64][]domain.CartLine)}
}

func (f *fakeRemote) cartOf(userID int64) domain.Cart {
	lines := make([]domain.CartLine, len(f.carts[userID]))
	copy(lines, f.carts[userID])
	return domain.Cart{Lines: lines}
}

func (f *fakeRemote) seed(userID int64, lines ...domain.CartLine) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = append([]domain.CartLine{}, lines...)
}

func (f *fakeRemote) Fetch(_ context.Context, identity session.Identity) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetchCalls++
	if _, ok := f.carts[identity.UserID]; !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return f.cartOf(identity.UserID), nil
}

func (f *fakeRemote) Create(_ context.Context, identity session.Identity) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if _, ok := f.carts[identity.UserID]; !ok {
		f.carts[identity.UserID] = []domain.CartLine{}
	}
	return f.cartOf(identity.UserID), nil
}

func (f *fakeRemote) AddItem(_ context.Context, identity session.Identity, bookID int64, quantity int) (domain.Cart, error) {
	f.mu.Lock()
	blocked := f.blockAdd
	started := f.addStarted
	f.mu.Unlock()

	if blocked != nil {
		if started != nil {
			started <- struct{}{}
		}
		<-blocked
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.addCalls = append(f.addCalls, addCall{bookID: bookID, quantity: quantity})
	if f.failAddOn > 0 && len(f.addCalls) == f.failAddOn {
		return domain.Cart{}, f.failErr
	}

	lines := f.carts[identity.UserID]
	merged := false
	for i := range lines {
		if lines[i].Book.BookID == bookID {
			lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		f.nextLine++
		lines = append(lines, domain.CartLine{
			LineID:   fmt.Sprintf("srv-%d", f.nextLine),
			Book:     domain.Book{BookID: bookID},
			Quantity: quantity,
		})
	}
	f.carts[identity.UserID] = lines
	return f.cartOf(identity.UserID), nil
}

func (f *fakeRemote) SetQuantity(_ context.Context, identity session.Identity, lineID string, quantity int) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := f.carts[identity.UserID]
	for i := range lines {
		if lines[i].LineID == lineID {
			lines[i].Quantity = quantity
			return f.cartOf(identity.UserID), nil
		}
	}
	return domain.Cart{}, domain.ErrLineNotFound
}

func (f *fakeRemote) RemoveItem(_ context.Context, identity session.Identity, lineID string) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := f.carts[identity.UserID]
	out := lines[:0]
	for _, line := range lines {
		if line.LineID != lineID {
			out = append(out, line)
		}
	}
	f.carts[identity.UserID] = out
	return f.cartOf(identity.UserID), nil
}

func (f *fakeRemote) Clear(_ context.Context, identity session.Identity) (domain.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.carts[identity.UserID] = []domain.CartLine{}
	return f.cartOf(identity.UserID), nil
}

func testBook(id int64, price float64, stock int) domain.Book {
	return domain.Book{
		BookID:         id,
		Title:          fmt.Sprintf("Book %d", id),
		Author:         "Test Author",
		Price:          price,
		AvailableStock: stock,
	}
}

func testIdentity(userID int64) session.Identity {
	return session.Identity{UserID: userID, Credential: session.BasicCredential("dGVzdDp0ZXN0")}
}
