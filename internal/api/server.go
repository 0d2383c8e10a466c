package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pavelc4/aether-dl-bot/internal/stats"
	"github.com/pavelc4/aether-dl-bot/pkg/logger"
)

type Status struct {
	Status    string   `json:"status"`
	Uptime    string   `json:"uptime"`
	Providers []string `json:"providers"`
	Requests  int64    `json:"requests"`
	Delivered int64    `json:"delivered"`
	Failed    int64    `json:"failed"`
	InFlight  int64    `json:"in_flight"`
}

// Health exposes liveness and counters over HTTP for container probes.
type Health struct {
	stats     *stats.Stats
	providers []string
	inFlight  func() int64
}

func NewHealth(st *stats.Stats, providers []string, inFlight func() int64) *Health {
	return &Health{stats: st, providers: providers, inFlight: inFlight}
}

func NewRouter(h *Health) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.CleanPath)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", h.Live)
	r.Get("/status", h.Status)
	return r
}

func (h *Health) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Health) Status(w http.ResponseWriter, r *http.Request) {
	snap := h.stats.Snapshot()
	s := Status{
		Status:    "ok",
		Uptime:    snap.Uptime.Round(time.Second).String(),
		Providers: h.providers,
		Requests:  snap.Requests,
		Delivered: snap.Delivered,
		Failed:    snap.Failed,
	}
	if h.inFlight != nil {
		s.InFlight = h.inFlight()
	}
	writeJSON(w, http.StatusOK, s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Serve runs the HTTP server on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Health server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
