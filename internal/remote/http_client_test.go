package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funmbia/Novelty/internal/domain"
	"github.com/funmbia/Novelty/internal/session"
)

func identity() session.Identity {
	return session.Identity{UserID: 42, Credential: session.BasicCredential("dXNlcjpwYXNz")}
}

func cartJSON(lines ...domain.CartLine) []byte {
	body, _ := json.Marshal(map[string]domain.Cart{"cart": {Lines: lines}})
	return body
}

func TestHTTPClient_FetchDecodesEnvelope(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write(cartJSON(domain.CartLine{
			LineID:   "srv-1",
			Book:     domain.Book{BookID: 5, Title: "Dune", Price: 9.99},
			Quantity: 2,
		}))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	cart, err := client.Fetch(context.Background(), identity())

	require.NoError(t, err)
	assert.Equal(t, "/cart/user/42", gotPath)
	assert.Equal(t, "Basic dXNlcjpwYXNz", gotAuth)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "srv-1", cart.Lines[0].LineID)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
}

func TestHTTPClient_FetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no cart"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	_, err := client.Fetch(context.Background(), identity())

	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestHTTPClient_AddItemSendsQueryParams(t *testing.T) {
	var gotMethod, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.Write(cartJSON())
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	_, err := client.AddItem(context.Background(), identity(), 7, 3)

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "bookId=7&quantity=3", gotQuery)
}

func TestHTTPClient_ServerErrorIsRemoteUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	_, err := client.Clear(context.Background(), identity())

	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestHTTPClient_StockRejectionSurfacedVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"only 2 left in stock"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	_, err := client.AddItem(context.Background(), identity(), 7, 9)

	require.ErrorIs(t, err, domain.ErrStockExceeded)
	assert.Contains(t, err.Error(), "only 2 left in stock")
}

func TestHTTPClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := client.Fetch(ctx, identity())
		assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	}
	assert.Equal(t, 5, requests)

	// Tripped: the next call fails fast without reaching the server.
	_, err := client.Fetch(ctx, identity())
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Equal(t, 5, requests)
}

func TestHTTPClient_SetQuantityEscapesLineID(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write(cartJSON())
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second)
	_, err := client.SetQuantity(context.Background(), identity(), "line/1", 4)

	require.NoError(t, err)
	assert.Equal(t, "/cart/user/42/items/line%2F1", gotPath)
}
