// Package handler exposes a read-only observer API over a running
// simulation: run progress, the closing-price series, book depth, and a
// websocket stream of per-tick records. It accepts no order entry of any
// kind; remote participants do not exist.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/efreitasn/marketsim/internal/sim"
)

// NewRouter creates a chi router with the observer routes, request logging,
// and permissive CORS (the API is read-only).
func NewRouter(s *sim.Simulation, hub *Hub, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	h := NewSimHandler(s)

	r.Group(func(r chi.Router) {
		r.Use(requestLogging(logger))
		r.Use(cors.AllowAll().Handler)

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Get("/simulation", h.GetSimulation)
		r.Get("/prices", h.GetPrices)
		r.Get("/records", h.GetRecords)
		r.Get("/book", h.GetBook)
	})

	// The websocket upgrade needs the raw ResponseWriter (http.Hijacker), so
	// /ws bypasses the logging wrapper.
	r.Get("/ws", hub.ServeWS)

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration.
func requestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}
