// Package api exposes one player session over HTTP for the game client.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Stardust/internal/ads"
	"Stardust/internal/reducer"
	"Stardust/internal/session"
)

// Server is the Stardust HTTP API server.
type Server struct {
	session        *session.Manager
	gate           *ads.Gate
	push           http.Handler
	metricsEnabled bool
}

// NewServer creates a new API server for a session.
func NewServer(s *session.Manager) *Server {
	return &Server{session: s}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetAdGate mounts the ad completion callbacks used by the client's ad SDK.
func (s *Server) SetAdGate(g *ads.Gate) { s.gate = g }

// SetPushHandler mounts the websocket push endpoint at /ws.
func (s *Server) SetPushHandler(h http.Handler) { s.push = h }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/state", s.handleState)
		r.Get("/notices", s.handleNotices)
		r.Post("/visibility", s.handleVisibility)

		r.Post("/upgrades/{id}/purchase", s.handlePurchaseUpgrade)
		r.Post("/deals/{id}/purchase", s.handlePurchaseDeal)
		r.Post("/daily/claim", s.handleClaimDaily)
		r.Post("/cipher", s.handleCipher)
		r.Post("/withdrawals", s.handleWithdrawal)

		r.Route("/tasks/{id}", func(r chi.Router) {
			r.Post("/open", s.handleOpenTask)
			r.Post("/verify", s.handleVerifyTask)
			r.Post("/claim", s.handleClaimVideoTask)
			r.Post("/ad", s.handleTaskAd)
		})

		r.Post("/level/ad", s.handleLevelUpAd)
		r.Post("/level/up", s.handleLevelUp)

		r.Route("/hold", func(r chi.Router) {
			r.Post("/start", s.handleHoldStart)
			r.Post("/release", s.handleHoldRelease)
			r.Post("/claim", s.handleHoldClaim)
			r.Post("/discard", s.handleHoldDiscard)
		})
		r.Post("/offline/claim", s.handleOfflineClaim)
		r.Post("/offline/discard", s.handleOfflineDiscard)

		if s.gate != nil {
			r.Post("/ads/{id}/complete", s.handleAdComplete)
			r.Post("/ads/{id}/fail", s.handleAdFail)
		}

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/rank", s.handleRank)
		r.Get("/history", s.handleHistory)
		r.Delete("/account", s.handleDeleteAccount)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if s.push != nil {
		r.Handle("/ws", s.push)
	}
	return r
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    http.StatusText(status),
		},
	})
}

// writeFailure maps domain errors onto status codes.
func writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrDeleting):
		status = http.StatusGone
	case errors.Is(err, reducer.ErrBanned):
		status = http.StatusForbidden
	case errors.Is(err, reducer.ErrNotFound), errors.Is(err, ads.ErrUnknownTicket):
		status = http.StatusNotFound
	case errors.Is(err, reducer.ErrIneligible):
		status = http.StatusConflict
	case errors.Is(err, session.ErrExternal):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		log.Printf("[ERROR] request failed: %v", err)
	}
	writeError(w, status, err.Error())
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func queryLimit(r *http.Request, def, ceiling int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, ceiling)
}

// corsMiddleware adds CORS headers for the web client.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
