// Command bookstore serves the CRUD bookstore API over SQLite.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"pollex.nl/folio/internal/bookstore"
)

type config struct {
	Addr     string     `env:"ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"bookstore.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to parse config", "error", err.Error())
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	store, err := bookstore.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open store", "path", cfg.DBPath, "error", err.Error())
		os.Exit(1)
	}
	defer store.Close()

	handler := bookstore.NewHandler(store, log)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("bookstore listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err.Error())
	}
}
