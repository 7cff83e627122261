// Command errordemo demonstrates global error-to-status translation: handlers
// return classified errors and the shared adapter renders them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gorilla/mux"
	"pollex.nl/folio/internal/apperror"
	"pollex.nl/folio/internal/httputil"
	"pollex.nl/folio/internal/middleware"
)

type config struct {
	Addr     string     `env:"ADDR" envDefault:":8082"`
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

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))
	r.Use(apperror.Recover(log))

	handle := func(fn func(w http.ResponseWriter, r *http.Request) error) apperror.Handler {
		return apperror.Handler{Log: log, Fn: fn}
	}

	r.Handle("/items/{id}", handle(getItem)).Methods(http.MethodGet)
	r.Handle("/items", handle(createItem)).Methods(http.MethodPost)
	r.Handle("/broken", handle(broken)).Methods(http.MethodGet)
	r.Handle("/panic", handle(panics)).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("errordemo listening", "addr", cfg.Addr)
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

// The only item in the demo inventory.
const knownItem = "42"

func getItem(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	if id != knownItem {
		return apperror.E(apperror.NotFound, fmt.Sprintf("item %s not found", id))
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "name": "the answer"})
	return nil
}

func createItem(w http.ResponseWriter, r *http.Request) error {
	var input struct {
		ID string `json:"id"`
	}
	if !httputil.DecodeJSON(w, r, &input) {
		return nil
	}
	if input.ID == "" {
		return apperror.E(apperror.Invalid, "id is required")
	}
	if input.ID == knownItem {
		return apperror.E(apperror.Conflict, "item already exists")
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": input.ID})
	return nil
}

func broken(_ http.ResponseWriter, _ *http.Request) error {
	// An unclassified error: the client sees a generic 500, the detail is
	// only logged.
	return fmt.Errorf("upstream dependency timed out")
}

func panics(_ http.ResponseWriter, _ *http.Request) error {
	panic("something went badly wrong")
}
