package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/funmbia/Novelty/internal/domain"
	"github.com/funmbia/Novelty/internal/session"
)

// MergeResult describes how far a guest-cart merge got. Partial failure is
// a first-class value, not an exception side effect.
type MergeResult struct {
	// MergedCount is how many guest lines were replayed into the remote
	// cart before the merge finished or aborted.
	MergedCount int

	// FirstFailure is the error that aborted the merge, nil on success.
	FirstFailure error
}

// Login runs the login transition: replay the guest cart into the remote
// cart, line by line in insertion order, then hand authority to the remote
// service.
//
// The merge is deliberately not atomic. If a line fails, the lines already
// replayed stay remote, the guest slot is kept untouched, and the error
// wraps domain.ErrMergeIncomplete. A retried login resubmits the whole
// guest cart; the remote add-item accumulates quantity per (user, book), so
// a retry can over-accumulate lines that were already merged. That
// trade-off is accepted in exchange for never losing guest data locally.
func (e *Engine) Login(ctx context.Context, identity session.Identity) (MergeResult, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	guest, err := e.local.Load(ctx)
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to read guest cart: %w", err)
	}

	// Nothing to merge: adopt the remote cart directly.
	if guest.IsEmpty() {
		e.setMode(domain.Authenticated)
		cart, err := e.fetchOrCreate(ctx, identity)
		if err != nil {
			e.invalidate()
			return MergeResult{}, err
		}
		e.adopt(cart)
		return MergeResult{}, nil
	}

	e.beginMerge()
	result := e.replayGuestLines(ctx, identity, guest)

	if result.FirstFailure != nil {
		// Abort: guest slot untouched, already-merged lines stay remote.
		// The snapshot still holds the guest view, so force the next
		// read to fetch the (partially merged) remote cart.
		e.invalidate()
		e.endMerge()
		return result, fmt.Errorf("%w: merged %d of %d lines: %v",
			domain.ErrMergeIncomplete, result.MergedCount, len(guest.Lines), result.FirstFailure)
	}

	if err := e.local.Clear(ctx); err != nil {
		log.Printf("failed to clear guest cart after merge: %v", err)
	}
	// Any reader that started before the merge must discard its view.
	if err := e.local.SetReloadPending(ctx); err != nil {
		log.Printf("failed to persist reload flag: %v", err)
	}
	e.invalidate()
	e.endMerge()

	// Unblocked readers queue behind opMu, so they observe the post-merge
	// cart adopted below, never the stale guest snapshot.
	cart, err := e.fetchOrCreate(ctx, identity)
	if err != nil {
		// The merge itself succeeded; the next read re-fetches.
		return result, nil
	}

	if _, ferr := e.local.ConsumeReloadPending(ctx); ferr != nil {
		log.Printf("failed to consume reload flag: %v", ferr)
	}
	e.adopt(cart)
	return result, nil
}

// replayGuestLines folds the guest lines into the remote cart, stopping at
// the first failure. Sequential on purpose: ordering makes the resulting
// remote cart deterministic and avoids concurrent writes against the same
// remote aggregate.
func (e *Engine) replayGuestLines(ctx context.Context, identity session.Identity, guest domain.Cart) MergeResult {
	var result MergeResult
	for _, line := range guest.Lines {
		if _, err := e.remote.AddItem(ctx, identity, line.Book.BookID, line.Quantity); err != nil {
			result.FirstFailure = err
			return result
		}
		result.MergedCount++
	}
	return result
}

func (e *Engine) setMode(mode domain.AuthorityMode) {
	e.stateMu.Lock()
	e.mode = mode
	e.stateMu.Unlock()
}

// beginMerge raises the read barrier.
func (e *Engine) beginMerge() {
	e.stateMu.Lock()
	e.mode = domain.Merging
	e.mergeDone = make(chan struct{})
	e.stateMu.Unlock()
}

// endMerge lowers the read barrier. The session is authenticated whether
// the merge succeeded or aborted; an abort only leaves the guest slot
// populated for the retry.
func (e *Engine) endMerge() {
	e.stateMu.Lock()
	e.mode = domain.Authenticated
	if e.mergeDone != nil {
		close(e.mergeDone)
		e.mergeDone = nil
	}
	e.stateMu.Unlock()
}

// invalidate forces the next read to populate from the active authority.
func (e *Engine) invalidate() {
	e.stateMu.Lock()
	e.loaded = false
	e.pendingReload = true
	e.stateMu.Unlock()
}
