// Package store holds the in-process authoritative copy of a user's
// contexts and notes. Reads are served from the cache; mutations call the
// data-access gateway first and reconcile the cache only after the backend
// confirms, so the store never needs rollback logic.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"jot/internal/notes"
	"jot/internal/validate"
)

// Gateway is the slice of the data-access layer the store depends on.
// notes.Service is the production implementation; tests inject fakes.
type Gateway interface {
	Contexts(ctx context.Context, userID uuid.UUID) ([]notes.Context, error)
	CreateContext(ctx context.Context, userID uuid.UUID, name string) (notes.Context, error)
	UpdateContext(ctx context.Context, userID, id uuid.UUID, name string) (notes.Context, error)
	DeleteContext(ctx context.Context, userID, id uuid.UUID) error
	SeedDefaultContexts(ctx context.Context, userID uuid.UUID) ([]notes.Context, error)

	Notes(ctx context.Context, userID uuid.UUID) ([]notes.Note, error)
	NoteByID(ctx context.Context, userID, id uuid.UUID) (notes.Note, error)
	CreateNote(ctx context.Context, userID, contextID uuid.UUID, title, content string) (notes.Note, error)
	UpdateNote(ctx context.Context, userID, id uuid.UUID, title, content string) (notes.Note, error)
	DeleteNote(ctx context.Context, userID, id uuid.UUID) error
}

var _ Gateway = (*notes.Service)(nil)

// Snapshot is a point-in-time copy of the store state.
type Snapshot struct {
	Contexts []notes.Context `json:"contexts"`
	Notes    []notes.Note    `json:"notes"`
	Loading  bool            `json:"loading"`
	Error    *string         `json:"error"`
}

// Store caches one user's data. The mutex is the Go analog of the original
// single-threaded tab: overlapping refreshes serialize instead of racing.
type Store struct {
	gw     Gateway
	userID uuid.UUID

	mu       sync.Mutex
	contexts []notes.Context
	notes    []notes.Note
	loading  bool
	errMsg   string
	loaded   bool
}

// New starts in the loading state; the first Refresh settles it either way.
func New(gw Gateway, userID uuid.UUID) *Store {
	return &Store{gw: gw, userID: userID, loading: true}
}

// Refresh reloads contexts and notes wholesale. A first-time user with no
// contexts gets the defaults seeded and uses the seed result as the list.
// On failure the error is recorded and previously cached data stays
// available.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = true
	s.errMsg = ""

	ctxs, err := s.gw.Contexts(ctx, s.userID)
	if err != nil {
		return s.failLocked(err)
	}
	if len(ctxs) == 0 {
		ctxs, err = s.gw.SeedDefaultContexts(ctx, s.userID)
		if err != nil {
			return s.failLocked(err)
		}
	}

	ns, err := s.gw.Notes(ctx, s.userID)
	if err != nil {
		return s.failLocked(err)
	}

	s.contexts = ctxs
	s.notes = ns
	s.loading = false
	s.loaded = true
	return nil
}

// EnsureLoaded refreshes once on first use; afterwards it is a no-op.
func (s *Store) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return s.Refresh(ctx)
}

func (s *Store) AddContext(ctx context.Context, name string) (notes.Context, error) {
	if !validate.ContextName(name) {
		return notes.Context{}, notes.ErrInvalidInput
	}

	c, err := s.gw.CreateContext(ctx, s.userID, name)
	if err != nil {
		s.recordError(err)
		return notes.Context{}, err
	}

	s.mu.Lock()
	s.contexts = append(s.contexts, c)
	s.mu.Unlock()
	return c, nil
}

func (s *Store) UpdateContext(ctx context.Context, id uuid.UUID, name string) (notes.Context, error) {
	if !validate.ContextName(name) {
		return notes.Context{}, notes.ErrInvalidInput
	}

	c, err := s.gw.UpdateContext(ctx, s.userID, id, name)
	if err != nil {
		s.recordError(err)
		return notes.Context{}, err
	}

	s.mu.Lock()
	for i := range s.contexts {
		if s.contexts[i].ID == id {
			s.contexts[i] = c
			break
		}
	}
	s.mu.Unlock()
	return c, nil
}

// RemoveContext deletes the context and cascades locally: every cached note
// in that context goes too, mirroring the backend cascade.
func (s *Store) RemoveContext(ctx context.Context, id uuid.UUID) error {
	if err := s.gw.DeleteContext(ctx, s.userID, id); err != nil {
		s.recordError(err)
		return err
	}

	s.mu.Lock()
	kept := s.contexts[:0]
	for _, c := range s.contexts {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.contexts = kept

	keptNotes := s.notes[:0]
	for _, n := range s.notes {
		if n.ContextID != id {
			keptNotes = append(keptNotes, n)
		}
	}
	s.notes = keptNotes
	s.mu.Unlock()
	return nil
}

func (s *Store) AddNote(ctx context.Context, contextID uuid.UUID, title, content string) (notes.Note, error) {
	if !validate.NoteTitle(title) || !validate.NoteContent(content) {
		return notes.Note{}, notes.ErrInvalidInput
	}

	n, err := s.gw.CreateNote(ctx, s.userID, contextID, title, content)
	if err != nil {
		s.recordError(err)
		return notes.Note{}, err
	}

	// Prepend keeps the newest-first ordering without a re-sort.
	s.mu.Lock()
	s.notes = append([]notes.Note{n}, s.notes...)
	s.mu.Unlock()
	return n, nil
}

func (s *Store) UpdateNote(ctx context.Context, id uuid.UUID, title, content string) (notes.Note, error) {
	if !validate.NoteTitle(title) || !validate.NoteContent(content) {
		return notes.Note{}, notes.ErrInvalidInput
	}

	n, err := s.gw.UpdateNote(ctx, s.userID, id, title, content)
	if err != nil {
		s.recordError(err)
		return notes.Note{}, err
	}

	s.mu.Lock()
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes[i] = n
			break
		}
	}
	s.mu.Unlock()
	return n, nil
}

func (s *Store) DeleteNote(ctx context.Context, id uuid.UUID) error {
	if err := s.gw.DeleteNote(ctx, s.userID, id); err != nil {
		s.recordError(err)
		return err
	}

	s.mu.Lock()
	kept := s.notes[:0]
	for _, n := range s.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notes = kept
	s.mu.Unlock()
	return nil
}

// MoveNote re-parents a note by delete-and-recreate, so the moved note gets
// a fresh id and created_at. Not atomic: a failed recreate after a
// successful delete loses the note server-side and is surfaced as an error.
func (s *Store) MoveNote(ctx context.Context, id, targetContextID uuid.UUID) (notes.Note, error) {
	orig, err := s.gw.NoteByID(ctx, s.userID, id)
	if err != nil {
		s.recordError(err)
		return notes.Note{}, err
	}

	if err := s.gw.DeleteNote(ctx, s.userID, id); err != nil {
		s.recordError(err)
		return notes.Note{}, err
	}

	moved, err := s.gw.CreateNote(ctx, s.userID, targetContextID, orig.Title, orig.Content)
	if err != nil {
		// The delete already happened; reconcile that much.
		s.mu.Lock()
		kept := s.notes[:0]
		for _, n := range s.notes {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		s.notes = kept
		s.mu.Unlock()
		s.recordError(err)
		return notes.Note{}, err
	}

	s.mu.Lock()
	kept := s.notes[:0]
	for _, n := range s.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notes = append([]notes.Note{moved}, kept...)
	s.mu.Unlock()
	return moved, nil
}

// NotesForContext filters the cached notes by context. Recomputed per call;
// collections are small enough that an index is not worth carrying.
func (s *Store) NotesForContext(contextID uuid.UUID) []notes.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]notes.Note, 0)
	for _, n := range s.notes {
		if n.ContextID == contextID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Contexts: append([]notes.Context(nil), s.contexts...),
		Notes:    append([]notes.Note(nil), s.notes...),
		Loading:  s.loading,
	}
	if snap.Contexts == nil {
		snap.Contexts = []notes.Context{}
	}
	if snap.Notes == nil {
		snap.Notes = []notes.Note{}
	}
	if s.errMsg != "" {
		msg := s.errMsg
		snap.Error = &msg
	}
	return snap
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

func (s *Store) recordError(err error) {
	s.mu.Lock()
	s.errMsg = err.Error()
	s.mu.Unlock()
}

// failLocked records a refresh failure. Caller holds the mutex; cached data
// is left untouched.
func (s *Store) failLocked(err error) error {
	s.errMsg = err.Error()
	s.loading = false
	return err
}
