package auth

import (
	"log"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"jot/internal/config"
)

// InitOAuth wires the Google provider into gothic. Gothic keeps the OAuth
// state in its own gorilla/sessions cookie store; the default store has
// Secure=true which breaks plain-HTTP localhost.
func InitOAuth(cfg config.Config) {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	if cfg.GoogleClientID == "" {
		log.Println("GOOGLE_CLIENT_ID not set; google sign-in disabled")
		return
	}

	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleCallbackURL,
			"email",
			"profile",
		),
	)
}
