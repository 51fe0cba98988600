package localstore

import (
	"context"
	"sync"

	"github.com/funmbia/Novelty/internal/domain"
)

// MemoryStore implements Store with in-memory storage, for tests and for
// running the storefront without a writable disk.
type MemoryStore struct {
	mu            sync.RWMutex
	lines         []domain.CartLine
	hasCart       bool
	reloadPending bool
}

// NewMemoryStore creates an empty in-memory slot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasCart {
		return domain.Cart{}, nil
	}
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return domain.Cart{Lines: Normalize(lines)}, nil
}

func (s *MemoryStore) Save(_ context.Context, cart domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = make([]domain.CartLine, len(cart.Lines))
	copy(s.lines, cart.Lines)
	s.hasCart = true
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.hasCart = false
	return nil
}

func (s *MemoryStore) SetReloadPending(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadPending = true
	return nil
}

func (s *MemoryStore) ConsumeReloadPending(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.reloadPending
	s.reloadPending = false
	return pending, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
