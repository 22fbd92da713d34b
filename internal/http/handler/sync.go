package handler

import (
	"net/http"

	"jot/internal/auth"
	"jot/internal/store"
)

// SyncHandler exposes the store state itself: the full snapshot, a manual
// refresh, and error dismissal.
type SyncHandler struct {
	Stores *store.Manager
}

func (h *SyncHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot())
}

// Refresh reloads from the backend. On failure the snapshot still carries
// the previous data plus the recorded error, so stale-but-available wins
// over a blank screen.
func (h *SyncHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	st := h.Stores.ForUser(uid)
	if err := st.Refresh(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, st.Snapshot())
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot())
}

func (h *SyncHandler) ClearError(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	h.Stores.ForUser(uid).ClearError()
	w.WriteHeader(http.StatusNoContent)
}
