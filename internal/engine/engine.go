// Package engine owns the in-memory cart snapshot shown to the UI and keeps
// it consistent across the two cart authorities: the device-local guest slot
// while anonymous, and the remote cart service once authenticated. It runs
// the one-shot guest-cart merge on login and clamps quantities against the
// stock oracle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/funmbia/Novelty/internal/domain"
	"github.com/funmbia/Novelty/internal/localstore"
	"github.com/funmbia/Novelty/internal/remote"
	"github.com/funmbia/Novelty/internal/session"
	"github.com/funmbia/Novelty/internal/stock"
)

// Engine reconciles the cart across authorities. All operations return the
// new full snapshot, never a delta, so the UI always renders a consistent
// whole.
type Engine struct {
	local    localstore.Store
	remote   remote.Client
	oracle   stock.Oracle
	sessions session.Provider

	// opMu serializes whole operations, including their remote calls.
	// The original runtime was a single-threaded event loop; this is the
	// equivalent guarantee that no two operations interleave against the
	// same cart.
	opMu sync.Mutex

	// stateMu guards the fields below for cheap concurrent reads.
	stateMu       sync.Mutex
	snapshot      domain.Cart
	mode          domain.AuthorityMode
	loaded        bool
	pendingReload bool
	mergeDone     chan struct{}

	subsMu  sync.Mutex
	subs    map[uint64]chan domain.Cart
	nextSub uint64

	// sfg collapses concurrent first reads into one backing fetch.
	sfg singleflight.Group
}

// New creates an engine over the given ports. The initial authority mode
// comes from the provider: a process that starts with an identity present
// (page reload of an authenticated session) is Authenticated, so its first
// read goes straight to the remote cart. The mode enum carries the
// first-load distinction on its own — Merging is entered only by a login
// this process handled, so a fresh process can never block on a merge it
// did not start.
func New(local localstore.Store, client remote.Client, oracle stock.Oracle, sessions session.Provider) *Engine {
	mode := domain.Anonymous
	if _, ok := sessions.Current(); ok {
		mode = domain.Authenticated
	}

	return &Engine{
		local:    local,
		remote:   client,
		oracle:   oracle,
		sessions: sessions,
		mode:     mode,
		subs:     make(map[uint64]chan domain.Cart),
	}
}

// Mode returns the current authority mode.
func (e *Engine) Mode() domain.AuthorityMode {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.mode
}

// Snapshot returns the current cart, populating it from the active
// authority on first read. A read issued while a merge is in flight blocks
// until the merge finishes, so it observes the post-merge remote cart and
// never an intermediate state.
func (e *Engine) Snapshot(ctx context.Context) (domain.Cart, error) {
	if err := e.awaitMerge(ctx); err != nil {
		return domain.Cart{}, err
	}

	e.stateMu.Lock()
	needsLoad := !e.loaded || e.pendingReload
	snap := e.snapshot.Clone()
	e.stateMu.Unlock()

	if !needsLoad {
		return snap, nil
	}

	v, err, _ := e.sfg.Do("load", func() (interface{}, error) {
		return e.populate(ctx)
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return v.(domain.Cart), nil
}

// Total returns the price total of the current in-memory snapshot.
func (e *Engine) Total() float64 {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.snapshot.Total()
}

// Count returns the quantity total of the current in-memory snapshot.
func (e *Engine) Count() int {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.snapshot.Count()
}

// awaitMerge blocks while the engine is in Merging mode.
func (e *Engine) awaitMerge(ctx context.Context) error {
	for {
		e.stateMu.Lock()
		if e.mode != domain.Merging {
			e.stateMu.Unlock()
			return nil
		}
		done := e.mergeDone
		e.stateMu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// populate loads the snapshot from the active authority.
func (e *Engine) populate(ctx context.Context) (domain.Cart, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.populateLocked(ctx)
}

// populateLocked is populate with opMu already held.
func (e *Engine) populateLocked(ctx context.Context) (domain.Cart, error) {
	e.stateMu.Lock()
	mode := e.mode
	needsLoad := !e.loaded || e.pendingReload
	snap := e.snapshot.Clone()
	e.stateMu.Unlock()

	// Another caller may have populated while we queued.
	if !needsLoad {
		return snap, nil
	}

	var cart domain.Cart
	var err error

	switch mode {
	case domain.Anonymous:
		cart, err = e.local.Load(ctx)
	default:
		identity, ok := e.sessions.Current()
		if !ok {
			cart, err = e.local.Load(ctx)
			break
		}
		cart, err = e.fetchOrCreate(ctx, identity)
		if err == nil {
			// The persisted flag exists so a reader that raced a
			// finished merge re-fetches; this read just did.
			if _, ferr := e.local.ConsumeReloadPending(ctx); ferr != nil {
				log.Printf("failed to consume reload flag: %v", ferr)
			}
		}
	}
	if err != nil {
		return domain.Cart{}, err
	}

	e.adopt(cart)
	return cart.Clone(), nil
}

// fetchOrCreate fetches the remote cart, creating it when the user has
// none yet. NotFound is recovered here and never surfaced.
func (e *Engine) fetchOrCreate(ctx context.Context, identity session.Identity) (domain.Cart, error) {
	cart, err := e.remote.Fetch(ctx, identity)
	if errors.Is(err, domain.ErrCartNotFound) {
		cart, err = e.remote.Create(ctx, identity)
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed to load remote cart: %w", err)
	}
	return cart, nil
}

// adopt replaces the snapshot wholesale and notifies subscribers. Callers
// must not hold stateMu.
func (e *Engine) adopt(cart domain.Cart) {
	e.stateMu.Lock()
	e.snapshot = cart.Clone()
	e.loaded = true
	e.pendingReload = false
	snap := e.snapshot.Clone()
	e.stateMu.Unlock()

	e.notify(snap)
}

// Subscribe registers for snapshot change notifications. The returned
// channel carries the latest snapshot; a slow consumer may miss
// intermediate states but always receives the final one. The second return
// value cancels the subscription.
func (e *Engine) Subscribe() (<-chan domain.Cart, func()) {
	ch := make(chan domain.Cart, 1)

	e.subsMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	e.subsMu.Unlock()

	cancel := func() {
		e.subsMu.Lock()
		delete(e.subs, id)
		e.subsMu.Unlock()
	}
	return ch, cancel
}

func (e *Engine) notify(snap domain.Cart) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	for _, ch := range e.subs {
		// Replace a stale pending value instead of blocking.
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Run consumes session transitions until ctx is cancelled, running the
// merge protocol on login and reverting to the guest cart on logout. Merge
// aborts are warnings: the guest cart is intact and the next login retries.
func (e *Engine) Run(ctx context.Context) {
	transitions := e.sessions.Transitions()
	for {
		select {
		case <-ctx.Done():
			return
		case tr, ok := <-transitions:
			if !ok {
				return
			}
			switch tr.Kind {
			case session.TransitionLogin:
				if _, err := e.Login(ctx, tr.Identity); err != nil {
					log.Printf("warning: login cart sync: %v", err)
				}
			case session.TransitionLogout:
				if err := e.Logout(ctx); err != nil {
					log.Printf("logout cart reset: %v", err)
				}
			}
		}
	}
}

// Logout reverts authority to the device-local guest cart.
func (e *Engine) Logout(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	cart, err := e.local.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load guest cart: %w", err)
	}

	e.stateMu.Lock()
	e.mode = domain.Anonymous
	e.stateMu.Unlock()

	e.adopt(cart)
	return nil
}
