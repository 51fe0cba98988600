package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/funmbia/Novelty/internal/domain"
	"github.com/funmbia/Novelty/internal/engine"
)

// CartHandler exposes the cart engine to the browser UI.
type CartHandler struct {
	engine  *engine.Engine
	timeout time.Duration
}

func NewCartHandler(eng *engine.Engine, timeout time.Duration) *CartHandler {
	return &CartHandler{
		engine:  eng,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	Book     domain.Book `json:"book"`
	Quantity int         `json:"quantity"`
}

type CartResponseDTO struct {
	Cart  domain.Cart `json:"cart"`
	Total float64     `json:"total"`
	Count int         `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.engine.Snapshot(ctx)
	if err != nil {
		handleEngineError(w, err)
		return
	}

	respondCart(w, http.StatusOK, snap)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Book.BookID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_book_id", "book.bookId must be positive")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	snap, err := h.engine.AddToCart(ctx, req.Book, req.Quantity)
	if err != nil {
		handleEngineError(w, err)
		return
	}

	respondCart(w, http.StatusCreated, snap)
}

func (h *CartHandler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "missing line id")
		return
	}

	snap, err := h.engine.IncreaseQuantity(ctx, lineID)
	if err != nil {
		handleEngineError(w, err)
		return
	}

	respondCart(w, http.StatusOK, snap)
}

func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "missing line id")
		return
	}

	snap, err := h.engine.DecreaseQuantity(ctx, lineID)
	if err != nil {
		handleEngineError(w, err)
		return
	}

	respondCart(w, http.StatusOK, snap)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_id", "missing line id")
		return
	}

	snap, err := h.engine.RemoveFromCart(ctx, lineID)
	if err != nil {
		handleEngineError(w, err)
		return
	}

	respondCart(w, http.StatusOK, snap)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.engine.Clear(ctx)
	if err != nil {
		handleEngineError(w, err)
		return
	}

	respondCart(w, http.StatusOK, snap)
}

// Events streams snapshot changes as server-sent events so the UI
// re-renders whenever the cart changes.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	updates, cancel := h.engine.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Prime the stream with the current cart.
	if snap, err := h.engine.Snapshot(r.Context()); err == nil {
		writeEvent(w, snap)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap := <-updates:
			writeEvent(w, snap)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap domain.Cart) {
	payload, err := json.Marshal(CartResponseDTO{Cart: snap, Total: snap.Total(), Count: snap.Count()})
	if err != nil {
		log.Printf("failed to encode cart event: %v", err)
		return
	}
	w.Write([]byte("data: "))
	w.Write(payload)
	w.Write([]byte("\n\n"))
}

func respondCart(w http.ResponseWriter, status int, snap domain.Cart) {
	respondJSON(w, status, CartResponseDTO{
		Cart:  snap,
		Total: snap.Total(),
		Count: snap.Count(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func handleEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrStockExceeded):
		respondError(w, http.StatusConflict, "stock_exceeded", err.Error())
	case errors.Is(err, domain.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "line_not_found", err.Error())
	case errors.Is(err, domain.ErrRemoteUnavailable):
		respondError(w, http.StatusServiceUnavailable, "cart_service_unavailable", "cart service is unavailable, try again")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respondError(w, http.StatusGatewayTimeout, "timeout", "cart operation timed out")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
