package handler

import (
	"encoding/json"
	"net/http"

	"jot/internal/store"
)

type ContextHandler struct {
	Stores *store.Manager
}

type contextReq struct {
	Name string `json:"name"`
}

func (h *ContextHandler) List(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot().Contexts)
}

func (h *ContextHandler) Create(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}

	var req contextReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	c, err := st.AddContext(r.Context(), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ContextHandler) Update(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}

	id, err := urlID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req contextReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	c, err := st.UpdateContext(r.Context(), id, req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContextHandler) Delete(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}

	id, err := urlID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := st.RemoveContext(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Notes serves the derived notes-by-context view straight from the cache.
func (h *ContextHandler) Notes(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}

	id, err := urlID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, st.NotesForContext(id))
}
