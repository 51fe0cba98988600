package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funmbia/Novelty/internal/domain"
)

func TestAddToCart_ClampsToAvailableStock(t *testing.T) {
	eng, _, _, _ := newTestEngine()
	ctx := context.Background()

	snap, err := eng.AddToCart(ctx, testBook(1, 10.00, 3), 5)
	require.NoError(t, err)

	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Quantity)
	assert.NotEmpty(t, snap.Lines[0].LineID)
}

func TestAddToCart_MergesLinesPerBook(t *testing.T) {
	eng, local, _, _ := newTestEngine()
	ctx := context.Background()

	book := testBook(1, 10.00, 3)
	_, err := eng.AddToCart(ctx, book, 2)
	require.NoError(t, err)
	snap, err := eng.AddToCart(ctx, book, 2)
	require.NoError(t, err)

	// Same book merges into one line, clamped at stock.
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Quantity)

	// Every anonymous mutation persists to the slot.
	guest, err := local.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, guest.Count())
}

func TestAddToCart_OutOfStock(t *testing.T) {
	eng, _, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := eng.AddToCart(ctx, testBook(1, 10.00, 0), 1)
	assert.ErrorIs(t, err, domain.ErrStockExceeded)

	snap, err := eng.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestIncreaseQuantity_RefusesToExceedStock(t *testing.T) {
	eng, _, _, _ := newTestEngine()
	ctx := context.Background()

	snap, err := eng.AddToCart(ctx, testBook(1, 10.00, 2), 2)
	require.NoError(t, err)
	lineID := snap.Lines[0].LineID

	snap, err = eng.IncreaseQuantity(ctx, lineID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Lines[0].Quantity) // silently refused at ceiling
}

func TestIncreaseQuantity_IncrementsBelowStock(t *testing.T) {
	eng, _, _, _ := newTestEngine()
	ctx := context.Background()

	snap, err := eng.AddToCart(ctx, testBook(1, 10.00, 5), 1)
	require.NoError(t, err)

	snap, err = eng.IncreaseQuantity(ctx, snap.Lines[0].LineID)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Lines[0].Quantity)
}

func TestDecreaseQuantity_RemovesLineAtZero(t *testing.T) {
	eng, _, _, _ := newTestEngine()
	ctx := context.Background()

	snap, err := eng.AddToCart(ctx, testBook(1, 10.00, 5), 1)
	require.NoError(t, err)

	snap, err = eng.DecreaseQuantity(ctx, snap.Lines[0].LineID)
	require.NoError(t, err)
	assert.Empty(t, snap.Lines) // never persisted at zero
}

func TestRemoveFromCart_UnknownLine(t *testing.T) {
	eng, _, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := eng.RemoveFromCart(ctx, "no-such-line")
	assert.ErrorIs(t, err, domain.ErrLineNotFound)
}

func TestClear_Idempotent(t *testing.T) {
	eng, _, _, _ := newTestEngine()
	ctx := context.Background()

	_, err := eng.AddToCart(ctx, testBook(1, 10.00, 5), 2)
	require.NoError(t, err)

	snap, err := eng.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())

	snap, err = eng.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestMutationSequence_InvariantsHold(t *testing.T) {
	eng, _, _, _ := newTestEngine()
	ctx := context.Background()

	books := []domain.Book{
		testBook(1, 12.99, 4),
		testBook(2, 7.50, 2),
		testBook(3, 3.25, 10),
	}

	var snap domain.Cart
	var err error
	snap, err = eng.AddToCart(ctx, books[0], 3)
	require.NoError(t, err)
	snap, err = eng.AddToCart(ctx, books[1], 5) // clamped to 2
	require.NoError(t, err)
	snap, err = eng.AddToCart(ctx, books[2], 1)
	require.NoError(t, err)
	snap, err = eng.IncreaseQuantity(ctx, snap.Lines[2].LineID)
	require.NoError(t, err)
	snap, err = eng.DecreaseQuantity(ctx, snap.Lines[0].LineID)
	require.NoError(t, err)
	snap, err = eng.RemoveFromCart(ctx, snap.Lines[1].LineID)
	require.NoError(t, err)

	// count always equals the sum of line quantities; no line is ever
	// non-positive or above stock.
	sum := 0
	for _, line := range snap.Lines {
		assert.Greater(t, line.Quantity, 0)
		assert.LessOrEqual(t, line.Quantity, line.Book.AvailableStock)
		sum += line.Quantity
	}
	assert.Equal(t, sum, snap.Count())
	assert.Equal(t, sum, eng.Count())
}

func TestRemoteMutations_AdoptServerCartWholesale(t *testing.T) {
	eng, _, remote, provider := newTestEngine()
	ctx := context.Background()

	identity := testIdentity(7)
	provider.Login(identity)
	_, err := eng.Login(ctx, identity)
	require.NoError(t, err)

	snap, err := eng.AddToCart(ctx, testBook(1, 10.00, 5), 2)
	require.NoError(t, err)
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, "srv-1", snap.Lines[0].LineID) // server ids, not local ones

	// The server response is the snapshot, byte for byte.
	assert.Equal(t, remote.cartOf(7), snap)

	snap, err = eng.DecreaseQuantity(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Lines[0].Quantity)

	snap, err = eng.RemoveFromCart(ctx, "srv-1")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestRemoteFailure_LeavesSnapshotUntouched(t *testing.T) {
	eng, _, remote, provider := newTestEngine()
	ctx := context.Background()

	identity := testIdentity(7)
	provider.Login(identity)
	_, err := eng.Login(ctx, identity)
	require.NoError(t, err)

	snap, err := eng.AddToCart(ctx, testBook(1, 10.00, 5), 2)
	require.NoError(t, err)
	require.Equal(t, 2, snap.Count())

	remote.failAddOn = len(remote.addCalls) + 1
	remote.failErr = domain.ErrRemoteUnavailable

	_, err = eng.AddToCart(ctx, testBook(2, 4.00, 5), 1)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)

	// Mutation failures never partially apply.
	current, err := eng.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, current)
}
