package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lumenview/explorer-go/internal/query"
	"github.com/lumenview/explorer-go/internal/storage"
	"github.com/lumenview/explorer-go/internal/util"
)

// GetOperations serves the filtered operations page.
func (h *handlers) GetOperations(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")
	p, err := query.ParseParams(network, h.engine.Networks(), r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.engine.Operations(r.Context(), r.URL.Path, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, page)
}

// GetPayments serves the filtered payment-transactions page.
func (h *handlers) GetPayments(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")
	p, err := query.ParseParams(network, h.engine.Networks(), r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.engine.Payments(r.Context(), r.URL.Path, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, page)
}

// GetTransaction serves a single transaction addressed by composite id.
func (h *handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")
	if !h.knownNetwork(network) {
		util.WriteError(w, http.StatusBadRequest, "invalid_parameter", "unknown network "+strconv.Quote(network))
		return
	}
	rec, err := h.engine.TransactionByID(r.Context(), network, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, rec)
}

// GetOffer serves a single offer addressed by offer id.
func (h *handlers) GetOffer(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")
	if !h.knownNetwork(network) {
		util.WriteError(w, http.StatusBadRequest, "invalid_parameter", "unknown network "+strconv.Quote(network))
		return
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		util.WriteError(w, http.StatusBadRequest, "invalid_parameter", "offer id must be a number")
		return
	}
	rec, err := h.engine.OfferByID(r.Context(), network, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, rec)
}

// GetAsset serves a single asset with its activity ranking.
func (h *handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")
	if !h.knownNetwork(network) {
		util.WriteError(w, http.StatusBadRequest, "invalid_parameter", "unknown network "+strconv.Quote(network))
		return
	}
	rec, err := h.engine.AssetByName(r.Context(), network, chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, rec)
}

// GetCandles serves OHLCVT candles for one market.
func (h *handlers) GetCandles(w http.ResponseWriter, r *http.Request) {
	network := chi.URLParam(r, "network")
	p, err := query.ParseCandleParams(network, h.engine.Networks(), r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	candles, err := h.engine.Candles(r.Context(), h.candles, *p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, candles)
}

func (h *handlers) knownNetwork(network string) bool {
	for _, n := range h.engine.Networks() {
		if n == network {
			return true
		}
	}
	return false
}

// writeError maps engine error classes onto HTTP statuses. Backend
// failures are logged with full detail but reported opaquely.
func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case query.ErrValidation.Has(err):
		util.WriteError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
	case query.ErrNotFound.Has(err):
		util.WriteError(w, http.StatusNotFound, "not_found", err.Error())
	case storage.Error.Has(err):
		h.log.Error("storage failure", zap.String("path", r.URL.Path), zap.Error(err))
		util.WriteError(w, http.StatusBadGateway, "storage_unavailable", "storage backend unavailable")
	default:
		h.log.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
		util.WriteError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
