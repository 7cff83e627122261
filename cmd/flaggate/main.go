// Command flaggate demonstrates gating an endpoint behind a feature flag
// evaluated by an external flag-management service.
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
	"pollex.nl/folio/internal/flags"
	"pollex.nl/folio/internal/httputil"
	"pollex.nl/folio/internal/middleware"
)

type config struct {
	Addr      string        `env:"ADDR" envDefault:":8081"`
	FlagsURL  string        `env:"FLAGS_URL"`
	FlagsFile string        `env:"FLAGS_FILE"`
	CacheTTL  time.Duration `env:"FLAGS_CACHE_TTL" envDefault:"30s"`
	LogLevel  slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("failed to parse config", "error", err.Error())
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	fallback := map[string]bool{}
	if cfg.FlagsFile != "" {
		loaded, err := flags.LoadFile(cfg.FlagsFile)
		if err != nil {
			log.Error("failed to load flag file", "path", cfg.FlagsFile, "error", err.Error())
			os.Exit(1)
		}
		fallback = loaded
	}

	client := flags.NewClient(flags.Config{
		BaseURL:  cfg.FlagsURL,
		CacheTTL: cfg.CacheTTL,
		Fallback: fallback,
		Log:      log,
	})

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))

	recommendations := r.PathPrefix("/recommendations").Subrouter()
	recommendations.Use(flags.RequireFlag(client, "recommendations", false))
	recommendations.HandleFunc("", handleRecommendations).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("flaggate listening", "addr", cfg.Addr)
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

func handleRecommendations(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, []map[string]string{
		{"isbn": "978-0134190440", "reason": "popular with readers like you"},
		{"isbn": "978-0201633610", "reason": "frequently bought together"},
	})
}
