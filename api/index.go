package handler

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/pranavgnr/Pranav-blog/internal/app"
	"github.com/pranavgnr/Pranav-blog/internal/config"
)

var (
	handler http.Handler
	once    sync.Once
)

func initApp() {
	// Only /tmp is writable on Vercel, and it does not persist. Point
	// STORE_DRIVER at postgres or mongo for real data.
	if os.Getenv("DATA_DIR") == "" {
		os.Setenv("DATA_DIR", "/tmp")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	cfg := config.Load()

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		})
		return
	}
	handler = a.Server.Handler()
}

// Handler is the entry point for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	once.Do(initApp)
	handler.ServeHTTP(w, r)
}
