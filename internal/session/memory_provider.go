package session

import "sync"

// MemoryProvider holds the session identity in memory and broadcasts
// login/logout transitions. The storefront handlers drive it; the engine
// consumes it.
type MemoryProvider struct {
	mu       sync.RWMutex
	identity Identity
	present  bool
	events   chan Transition
}

// NewMemoryProvider creates a provider with no identity present.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		// Buffered so a Login before the engine subscribes is not lost.
		events: make(chan Transition, 16),
	}
}

func (p *MemoryProvider) Current() (Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.identity, p.present
}

func (p *MemoryProvider) Transitions() <-chan Transition {
	return p.events
}

// Login installs the identity and emits a login transition.
func (p *MemoryProvider) Login(identity Identity) {
	p.mu.Lock()
	p.identity = identity
	p.present = true
	p.mu.Unlock()

	p.events <- Transition{Kind: TransitionLogin, Identity: identity}
}

// Logout drops the identity and emits a logout transition.
func (p *MemoryProvider) Logout() {
	p.mu.Lock()
	identity := p.identity
	p.identity = Identity{}
	p.present = false
	p.mu.Unlock()

	p.events <- Transition{Kind: TransitionLogout, Identity: identity}
}

var _ Provider = (*MemoryProvider)(nil)
