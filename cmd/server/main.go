package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joeshaw/envdecode"

	"liveshare/internal/handlers"
	"liveshare/internal/session"
)

type config struct {
	// Addr the server listens on. ENV: ADDR
	Addr string `env:"ADDR,default=:8080"`
	// MaxSessions caps concurrent live sessions; zero means unlimited.
	// ENV: MAX_SESSIONS
	MaxSessions int `env:"MAX_SESSIONS,default=0"`
}

func main() {
	var cfg config
	_ = envdecode.Decode(&cfg)
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	store := session.NewStore(cfg.MaxSessions)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	handlers.NewLiveHandler(store).RegisterRoutes(r)
	handlers.NewStatusHandler(store).RegisterRoutes(r)

	// No ReadTimeout/WriteTimeout here: they would sever long-lived
	// websocket connections. The handler enforces its own deadlines.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("listening on %s", cfg.Addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
