// Command reqlog demonstrates structured request logging: every request
// produces one log line with method, route, status, size, duration and a
// trace ID that is echoed back to the caller.
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
	"github.com/gorilla/mux"
	"pollex.nl/folio/internal/httputil"
	"pollex.nl/folio/internal/middleware"
)

type config struct {
	Addr     string     `env:"ADDR" envDefault:":8083"`
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

	r.HandleFunc("/fast", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"trace_id": middleware.TraceIDFrom(r.Context()),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(250 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "done"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/fail", func(w http.ResponseWriter, _ *http.Request) {
		httputil.InternalError(w, "deliberate failure")
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("reqlog listening", "addr", cfg.Addr)
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
