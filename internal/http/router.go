package http

import (
	"net/http"

	"jot/internal/auth"
	"jot/internal/config"
	"jot/internal/http/handler"
	mw "jot/internal/http/middleware"
	"jot/internal/markdown"
	"jot/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Deps struct {
	Config   config.Config
	JWT      *auth.JWT
	Auth     *auth.Service
	Watcher  *auth.Watcher
	Notes    store.Gateway
	Stores   *store.Manager
	Markdown *markdown.Renderer
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(d.Config.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(d.Config.CORSAllowedOrigins, d.Config.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	requireAuth := auth.RequireAuth(d.JWT, d.Watcher)

	ah := &handler.AuthHandler{Svc: d.Auth}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)
	r.Get("/auth/google", ah.GoogleBegin)
	r.Get("/auth/google/callback", ah.GoogleCallback)
	r.With(requireAuth).Post("/auth/logout", ah.Logout)
	r.With(requireAuth).Get("/auth/session", ah.Session)
	r.With(requireAuth).Get("/me", ah.Me)

	ch := &handler.ContextHandler{Stores: d.Stores}
	r.Route("/contexts", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", ch.List)
		r.Post("/", ch.Create)
		r.Put("/{id}", ch.Update)
		r.Delete("/{id}", ch.Delete)
		r.Get("/{id}/notes", ch.Notes)
	})

	nh := &handler.NoteHandler{Stores: d.Stores, Gateway: d.Notes, Markdown: d.Markdown}
	r.Route("/notes", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", nh.List)
		r.Post("/", nh.Create)
		r.Get("/{id}", nh.Get)
		r.Put("/{id}", nh.Update)
		r.Delete("/{id}", nh.Delete)
		r.Post("/{id}/move", nh.Move)
		r.Get("/{id}/html", nh.HTML)
	})

	sh := &handler.SyncHandler{Stores: d.Stores}
	r.Route("/sync", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", sh.Get)
		r.Post("/refresh", sh.Refresh)
		r.Delete("/error", sh.ClearError)
	})

	return r
}
