package main

import (
	"encoding/json"
	"net/http"

	"paper-trade-bot-go/internal/analytics"
	"paper-trade-bot-go/internal/ledger"
	"paper-trade-bot-go/internal/models"

	"go.uber.org/zap"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log   *zap.Logger
	store *ledger.Store
	perf  *analytics.Performance
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, store *ledger.Store, perf *analytics.Performance) *APIHandler {
	return &APIHandler{log: log, store: store, perf: perf}
}

// StatusResponse is the structure for the /api/status endpoint.
type StatusResponse struct {
	Account   *models.Account   `json:"account"`
	Positions []models.Position `json:"positions"`
}

// StatusHandler returns the account row and all open positions.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	account, err := h.store.GetAccount()
	if err != nil {
		h.log.Error("Failed to get account from database", zap.Error(err))
		http.Error(w, "Failed to get account", http.StatusInternalServerError)
		return
	}

	positions, err := h.store.ListPositions()
	if err != nil {
		h.log.Error("Failed to get positions from database", zap.Error(err))
		http.Error(w, "Failed to get positions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{Account: account, Positions: positions})
}

// TradesHandler returns recent trades, newest first.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	trades, err := h.store.ListTrades(r.URL.Query().Get("symbol"), 100)
	if err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

// StatisticsResponse is the structure for the /api/statistics endpoint.
type StatisticsResponse struct {
	TotalReturn    float64         `json:"total_return"`
	TotalReturnPct float64         `json:"total_return_pct"`
	WinRate        float64         `json:"win_rate"`
	MaxDrawdownPct float64         `json:"max_drawdown_pct"`
	Trades         analytics.Stats `json:"trades"`
}

// StatisticsHandler calculates and returns trading statistics.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	absReturn, pctReturn, err := h.perf.TotalReturn()
	if err != nil {
		h.log.Error("Failed to calculate total return", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}
	winRate, _, _, err := h.perf.WinRate()
	if err != nil {
		h.log.Error("Failed to calculate win rate", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}
	ddPct, _, err := h.perf.MaxDrawdown()
	if err != nil {
		h.log.Error("Failed to calculate drawdown", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}
	stats, err := h.perf.TradeStatistics()
	if err != nil {
		h.log.Error("Failed to calculate trade statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	response := StatisticsResponse{
		TotalReturn:    absReturn,
		TotalReturnPct: pctReturn,
		WinRate:        winRate,
		MaxDrawdownPct: ddPct,
		Trades:         stats,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ReportHandler returns the plain-text performance report.
func (h *APIHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.perf.Report()
	if err != nil {
		h.log.Error("Failed to build report", zap.Error(err))
		http.Error(w, "Failed to build report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(report))
}
