package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jot/internal/auth"
	"jot/internal/config"
	"jot/internal/markdown"
	"jot/internal/notes"
	"jot/internal/store"
)

// memGateway is a store.Gateway backed by plain slices, enough to drive the
// router end to end without Postgres.
type memGateway struct {
	contexts []notes.Context
	notes    []notes.Note
	creates  int
	clock    time.Time
}

func (m *memGateway) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memGateway) Contexts(_ context.Context, userID uuid.UUID) ([]notes.Context, error) {
	return append([]notes.Context(nil), m.contexts...), nil
}

func (m *memGateway) CreateContext(_ context.Context, userID uuid.UUID, name string) (notes.Context, error) {
	ts := m.tick()
	c := notes.Context{ID: uuid.New(), Name: strings.TrimSpace(name), UserID: userID, CreatedAt: ts, UpdatedAt: ts}
	m.contexts = append(m.contexts, c)
	return c, nil
}

func (m *memGateway) UpdateContext(_ context.Context, userID, id uuid.UUID, name string) (notes.Context, error) {
	for i := range m.contexts {
		if m.contexts[i].ID == id {
			m.contexts[i].Name = strings.TrimSpace(name)
			m.contexts[i].UpdatedAt = m.tick()
			return m.contexts[i], nil
		}
	}
	return notes.Context{}, notes.ErrNotFound
}

func (m *memGateway) DeleteContext(_ context.Context, userID, id uuid.UUID) error {
	kept := m.contexts[:0]
	found := false
	for _, c := range m.contexts {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return notes.ErrNotFound
	}
	m.contexts = kept

	keptNotes := m.notes[:0]
	for _, n := range m.notes {
		if n.ContextID != id {
			keptNotes = append(keptNotes, n)
		}
	}
	m.notes = keptNotes
	return nil
}

func (m *memGateway) SeedDefaultContexts(_ context.Context, userID uuid.UUID) ([]notes.Context, error) {
	if len(m.contexts) == 0 {
		for _, name := range notes.DefaultContextNames {
			_, _ = m.CreateContext(context.Background(), userID, name)
		}
	}
	return append([]notes.Context(nil), m.contexts...), nil
}

func (m *memGateway) Notes(_ context.Context, userID uuid.UUID) ([]notes.Note, error) {
	out := make([]notes.Note, 0, len(m.notes))
	for i := len(m.notes) - 1; i >= 0; i-- {
		out = append(out, m.notes[i])
	}
	return out, nil
}

func (m *memGateway) NoteByID(_ context.Context, userID, id uuid.UUID) (notes.Note, error) {
	for _, n := range m.notes {
		if n.ID == id {
			return n, nil
		}
	}
	return notes.Note{}, notes.ErrNotFound
}

func (m *memGateway) CreateNote(_ context.Context, userID, contextID uuid.UUID, title, content string) (notes.Note, error) {
	m.creates++
	found := false
	for _, c := range m.contexts {
		if c.ID == contextID {
			found = true
			break
		}
	}
	if !found {
		return notes.Note{}, notes.ErrNotFound
	}

	ts := m.tick()
	n := notes.Note{
		ID: uuid.New(), ContextID: contextID,
		Title: strings.TrimSpace(title), Content: strings.TrimSpace(content),
		UserID: userID, CreatedAt: ts, UpdatedAt: ts,
	}
	m.notes = append(m.notes, n)
	return n, nil
}

func (m *memGateway) UpdateNote(_ context.Context, userID, id uuid.UUID, title, content string) (notes.Note, error) {
	for i := range m.notes {
		if m.notes[i].ID == id {
			m.notes[i].Title = strings.TrimSpace(title)
			m.notes[i].Content = strings.TrimSpace(content)
			m.notes[i].UpdatedAt = m.tick()
			return m.notes[i], nil
		}
	}
	return notes.Note{}, notes.ErrNotFound
}

func (m *memGateway) DeleteNote(_ context.Context, userID, id uuid.UUID) error {
	kept := m.notes[:0]
	found := false
	for _, n := range m.notes {
		if n.ID == id {
			found = true
			continue
		}
		kept = append(kept, n)
	}
	if !found {
		return notes.ErrNotFound
	}
	m.notes = kept
	return nil
}

var _ store.Gateway = (*memGateway)(nil)

type testServer struct {
	handler http.Handler
	token   string
	gw      *memGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gw := &memGateway{clock: time.Unix(1700000000, 0)}
	jwtSvc := auth.NewJWT("test-secret")
	token, err := jwtSvc.Sign(uuid.New(), uuid.New())
	require.NoError(t, err)

	h := NewRouter(Deps{
		Config:   config.Config{},
		JWT:      jwtSvc,
		Notes:    gw,
		Stores:   store.NewManager(gw),
		Markdown: markdown.NewRenderer(),
	})
	return &testServer{handler: h, token: token, gw: gw}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/contexts", "/notes", "/sync"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		ts.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestListContextsSeedsDefaults(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/contexts", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ctxs := decode[[]notes.Context](t, rec)
	require.Len(t, ctxs, 3)
	assert.Equal(t, "Work", ctxs[0].Name)
}

func TestNoteLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	ctxs := decode[[]notes.Context](t, ts.do(t, http.MethodGet, "/contexts", nil))
	require.Len(t, ctxs, 3)
	work, ideas := ctxs[0], ctxs[2]

	// Create.
	rec := ts.do(t, http.MethodPost, "/notes", map[string]any{
		"context_id": work.ID, "title": "groceries", "content": "- milk\n- eggs",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[notes.Note](t, rec)

	// Read back by id.
	rec = ts.do(t, http.MethodGet, "/notes/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "groceries", decode[notes.Note](t, rec).Title)

	// Update.
	rec = ts.do(t, http.MethodPut, "/notes/"+created.ID.String(), map[string]any{
		"title": "groceries (weekend)", "content": "- milk",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Move to another context: new id, old one gone.
	rec = ts.do(t, http.MethodPost, "/notes/"+created.ID.String()+"/move", map[string]any{
		"context_id": ideas.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	moved := decode[notes.Note](t, rec)
	assert.NotEqual(t, created.ID, moved.ID)
	assert.Equal(t, ideas.ID, moved.ContextID)

	rec = ts.do(t, http.MethodGet, "/contexts/"+ideas.ID.String()+"/notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]notes.Note](t, rec), 1)

	// Delete.
	rec = ts.do(t, http.MethodDelete, "/notes/"+moved.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/notes/"+moved.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateNoteValidationStopsAtHandler(t *testing.T) {
	ts := newTestServer(t)

	ctxs := decode[[]notes.Context](t, ts.do(t, http.MethodGet, "/contexts", nil))
	before := ts.gw.creates

	rec := ts.do(t, http.MethodPost, "/notes", map[string]any{
		"context_id": ctxs[0].ID,
		"title":      strings.Repeat("x", 101),
		"content":    "body",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, before, ts.gw.creates, "gateway never called for invalid input")
}

func TestDeleteContextCascades(t *testing.T) {
	ts := newTestServer(t)

	ctxs := decode[[]notes.Context](t, ts.do(t, http.MethodGet, "/contexts", nil))
	work := ctxs[0]

	rec := ts.do(t, http.MethodPost, "/notes", map[string]any{
		"context_id": work.ID, "title": "t", "content": "c",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/contexts/"+work.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	left := decode[[]notes.Note](t, ts.do(t, http.MethodGet, "/notes", nil))
	assert.Empty(t, left)
}

func TestSyncSnapshotAndClearError(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[store.Snapshot](t, rec)
	assert.Len(t, snap.Contexts, 3)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Error)

	rec = ts.do(t, http.MethodPost, "/sync/refresh", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/sync/error", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNoteHTMLSanitized(t *testing.T) {
	ts := newTestServer(t)

	ctxs := decode[[]notes.Context](t, ts.do(t, http.MethodGet, "/contexts", nil))
	rec := ts.do(t, http.MethodPost, "/notes", map[string]any{
		"context_id": ctxs[0].ID,
		"title":      "md",
		"content":    "# Plan\n\n<script>alert(1)</script>",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	n := decode[notes.Note](t, rec)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/notes/%s/html", n.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1")
	assert.NotContains(t, rec.Body.String(), "<script")
}
