package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/funmbia/Novelty/internal/session"
)

// SessionHandler drives the session identity provider. The engine reacts
// to the emitted transitions; the guest-cart merge runs on its loop, so
// login responds as soon as the transition is accepted.
type SessionHandler struct {
	provider *session.MemoryProvider
}

func NewSessionHandler(provider *session.MemoryProvider) *SessionHandler {
	return &SessionHandler{provider: provider}
}

type LoginRequestDTO struct {
	UserID    int64  `json:"userId"`
	AuthToken string `json:"authToken"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.UserID <= 0 || req.AuthToken == "" {
		respondError(w, http.StatusBadRequest, "invalid_session", "userId and authToken are required")
		return
	}

	h.provider.Login(session.Identity{
		UserID:     req.UserID,
		Credential: session.BasicCredential(req.AuthToken),
	})

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "login accepted"})
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.provider.Logout()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "logout accepted"})
}
