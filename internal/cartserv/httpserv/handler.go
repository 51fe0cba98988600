package httpserv

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/funmbia/Novelty/internal/cartserv/domain"
	"github.com/funmbia/Novelty/internal/cartserv/repository"
	"github.com/funmbia/Novelty/internal/cartserv/service"
	wire "github.com/funmbia/Novelty/internal/domain"
)

// CartService is what the handlers need from the service layer.
type CartService interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	CreateCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID int64, bookID int64, quantity int) (*domain.Cart, error)
	SetQuantity(ctx context.Context, userID int64, lineID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID int64, lineID string) (*domain.Cart, error)
	Clear(ctx context.Context, userID int64) (*domain.Cart, error)
}

type CartHandler struct {
	svc CartService
}

func NewCartHandler(svc CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

// cartEnvelope is the wire shape every cart endpoint responds with.
type cartEnvelope struct {
	Cart wire.Cart `json:"cart"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter assembles the cart service API.
func NewRouter(svc CartService) http.Handler {
	h := NewCartHandler(svc)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/cart/user/{user_id}", func(r chi.Router) {
		r.Use(requireCredentials)

		r.Get("/", h.GetCart)
		r.Post("/", h.CreateCart)
		r.Delete("/", h.ClearCart)

		r.Route("/items", func(r chi.Router) {
			r.Post("/", h.AddItem)
			r.Put("/{line_id}", h.SetQuantity)
			r.Delete("/{line_id}", h.RemoveItem)
		})
	})

	return r
}

// requireCredentials checks that a credential is present. The credential is
// opaque to this service; an upstream identity provider minted it.
func requireCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			respondError(w, http.StatusUnauthorized, "missing credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.svc.GetCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondCart(w, http.StatusOK, cart)
}

func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.svc.CreateCart(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondCart(w, http.StatusCreated, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	bookID, err := strconv.ParseInt(r.URL.Query().Get("bookId"), 10, 64)
	if err != nil || bookID <= 0 {
		respondError(w, http.StatusBadRequest, "bookId must be a positive integer")
		return
	}
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		quantity = 1
	}

	cart, err := h.svc.AddItem(r.Context(), userID, bookID, quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondCart(w, http.StatusCreated, cart)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	lineID := chi.URLParam(r, "line_id")
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "quantity must be an integer")
		return
	}

	cart, err := h.svc.SetQuantity(r.Context(), userID, lineID, quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondCart(w, http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	lineID := chi.URLParam(r, "line_id")

	cart, err := h.svc.RemoveItem(r.Context(), userID, lineID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondCart(w, http.StatusOK, cart)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	cart, err := h.svc.Clear(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondCart(w, http.StatusOK, cart)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "user id must be a positive integer")
		return 0, false
	}
	return userID, true
}

func respondCart(w http.ResponseWriter, status int, cart *domain.Cart) {
	respondJSON(w, status, cartEnvelope{Cart: cart.ToWire()})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart not found")
	case errors.Is(err, repository.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "cart line not found")
	case errors.Is(err, service.ErrStockExceeded):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
