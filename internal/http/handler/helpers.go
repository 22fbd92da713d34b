package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"jot/internal/auth"
	"jot/internal/notes"
	"jot/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notes.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, notes.ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func urlID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// userStore resolves the caller's store and makes sure its first load has
// happened. A false return means the response has already been written.
func userStore(w http.ResponseWriter, r *http.Request, stores *store.Manager) (*store.Store, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	st := stores.ForUser(uid)
	if err := st.EnsureLoaded(r.Context()); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return nil, false
	}
	return st, true
}
