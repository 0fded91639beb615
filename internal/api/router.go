// Package api exposes the query engine over HTTP. The outer caching and
// presentation layers live elsewhere; this surface only translates request
// parameters, runs queries and shapes responses.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lumenview/explorer-go/internal/ohlcvt"
	"github.com/lumenview/explorer-go/internal/query"
)

// NewRouter creates the HTTP router with all explorer endpoints.
func NewRouter(engine *query.Engine, candles ohlcvt.Source, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(instrument)

	h := &handlers{engine: engine, candles: candles, log: log}

	r.Get("/health", h.GetHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/explorer/{network}", func(r chi.Router) {
		r.Get("/operation", h.GetOperations)
		r.Get("/payments", h.GetPayments)
		r.Get("/tx/{id}", h.GetTransaction)
		r.Get("/offer/{id}", h.GetOffer)
		r.Get("/asset/{name}", h.GetAsset)
		r.Get("/ohlcvt", h.GetCandles)
	})

	return r
}

type handlers struct {
	engine  *query.Engine
	candles ohlcvt.Source
	log     *zap.Logger
}

func (h *handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
