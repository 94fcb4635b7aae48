package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arthalabs/risk-engine/internal/domain"
)

// portfolioRiskRequest is the body for POST /api/risk/portfolio.
type portfolioRiskRequest struct {
	UserID       string           `json:"user_id"`
	Portfolio    domain.Portfolio `json:"portfolio"`
	LookbackDays int              `json:"lookback_days"`
}

// handlePortfolioRisk handles POST /api/risk/portfolio
func (s *Server) handlePortfolioRisk(w http.ResponseWriter, r *http.Request) {
	var req portfolioRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	metrics, err := s.monitor.CalculatePortfolioRisk(r.Context(), req.UserID, &req.Portfolio, req.LookbackDays)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, metrics)
}

// behavioralRequest is the body for POST /api/risk/behavioral. When
// trade_history is omitted the recorded history for the user is used.
type behavioralRequest struct {
	UserID             string               `json:"user_id"`
	TradeHistory       []domain.TradeRecord `json:"trade_history,omitempty"`
	AnalysisPeriodDays int                  `json:"analysis_period_days"`
}

// handleBehavioralAnalysis handles POST /api/risk/behavioral
func (s *Server) handleBehavioralAnalysis(w http.ResponseWriter, r *http.Request) {
	var req behavioralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	trades := req.TradeHistory
	if trades == nil {
		stored, err := s.trades.ListByUser(req.UserID)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to load trade history")
			s.writeError(w, http.StatusInternalServerError, "failed to load trade history")
			return
		}
		trades = stored
	}

	analysis, err := s.monitor.AnalyzeBehavioralPatterns(r.Context(), req.UserID, trades, req.AnalysisPeriodDays)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

// optimizeRequest is the body for POST /api/optimizer/run.
type optimizeRequest struct {
	UserID        string           `json:"user_id"`
	Portfolio     domain.Portfolio `json:"portfolio"`
	TargetReturn  *float64         `json:"target_return,omitempty"`
	MaxVolatility *float64         `json:"max_volatility,omitempty"`
}

// handleOptimize handles POST /api/optimizer/run
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	result, err := s.monitor.OptimizePortfolio(r.Context(), req.UserID, &req.Portfolio, req.TargetReturn, req.MaxVolatility)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	// Solver and input problems are structured results with HTTP 200; the
	// caller inspects optimization_successful.
	s.writeJSON(w, http.StatusOK, result)
}

// handleRecordTrade handles POST /api/trades
func (s *Server) handleRecordTrade(w http.ResponseWriter, r *http.Request) {
	var trade domain.TradeRecord
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if trade.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.trades.Save(&trade); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// handleListTrades handles GET /api/trades/{userID}
func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	trades, err := s.trades.ListByUser(userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list trades")
		s.writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"trades":  trades,
	})
}

// watchRequest is the body for POST /api/watchlist.
type watchRequest struct {
	UserID    string           `json:"user_id"`
	Portfolio domain.Portfolio `json:"portfolio"`
}

// handleWatchPortfolio handles POST /api/watchlist
func (s *Server) handleWatchPortfolio(w http.ResponseWriter, r *http.Request) {
	var req watchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := s.watchlist.Upsert(req.UserID, &req.Portfolio); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "watching"})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
