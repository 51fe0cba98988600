package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/funmbia/Novelty/internal/engine"
	"github.com/funmbia/Novelty/internal/session"
)

// NewRouter assembles the storefront API.
func NewRouter(eng *engine.Engine, provider *session.MemoryProvider, requestTimeout time.Duration) http.Handler {
	cartHandler := NewCartHandler(eng, requestTimeout)
	sessionHandler := NewSessionHandler(provider)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			// The event stream outlives the request timeout on purpose.
			r.Get("/events", cartHandler.Events)

			r.Route("/items", func(r chi.Router) {
				r.Post("/", cartHandler.AddItem)
				r.Post("/{line_id}/increase", cartHandler.IncreaseQuantity)
				r.Post("/{line_id}/decrease", cartHandler.DecreaseQuantity)
				r.Delete("/{line_id}", cartHandler.RemoveItem)
			})
		})

		r.Route("/session", func(r chi.Router) {
			r.Post("/login", sessionHandler.Login)
			r.Post("/logout", sessionHandler.Logout)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
