package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"jot/internal/auth"
	"jot/internal/markdown"
	"jot/internal/store"
)

type NoteHandler struct {
	Stores   *store.Manager
	Gateway  store.Gateway
	Markdown *markdown.Renderer
}

type createNoteReq struct {
	ContextID uuid.UUID `json:"context_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
}

type updateNoteReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type moveNoteReq struct {
	ContextID uuid.UUID `json:"context_id"`
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st.Snapshot().Notes)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}

	var req createNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	n, err := st.AddNote(r.Context(), req.ContextID, req.Title, req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// Get reads the note straight from the gateway so a detail view works even
// before the caller's cache is warm.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := urlID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	n, err := h.Gateway.NoteByID(r.Context(), uid, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}

	id, err := urlID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	n, err := st.UpdateNote(r.Context(), id, req.Title, req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}

	id, err := urlID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := st.DeleteNote(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) Move(w http.ResponseWriter, r *http.Request) {
	st, ok := userStore(w, r, h.Stores)
	if !ok {
		return
	}

	id, err := urlID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req moveNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	n, err := st.MoveNote(r.Context(), id, req.ContextID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) HTML(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	id, err := urlID(r)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	n, err := h.Gateway.NoteByID(r.Context(), uid, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	html, err := h.Markdown.Render(n.Content)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
