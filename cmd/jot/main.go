package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jot/internal/auth"
	"jot/internal/config"
	"jot/internal/db"
	httpx "jot/internal/http"
	"jot/internal/jobs"
	"jot/internal/markdown"
	"jot/internal/notes"
	"jot/internal/store"
)

func main() {
	cfg, _ := config.Load()

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal(err)
	}

	jwtSvc := auth.NewJWT(cfg.JWTSecret)
	events := auth.NewBroadcaster()
	authSvc := auth.NewService(gdb, jwtSvc, events)
	watcher := auth.NewWatcher(gdb, events)
	auth.InitOAuth(cfg)

	notesSvc := notes.NewService(gdb)
	stores := store.NewManager(notesSvc)

	r := httpx.NewRouter(httpx.Deps{
		Config:   cfg,
		JWT:      jwtSvc,
		Auth:     authSvc,
		Watcher:  watcher,
		Notes:    notesSvc,
		Stores:   stores,
		Markdown: markdown.NewRenderer(),
	})

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Fatalf("session watcher: %v", err)
		}
	}()
	go stores.Watch(ctx, events)

	sweeper := &jobs.Sweeper{DB: gdb}
	go sweeper.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s\n", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
