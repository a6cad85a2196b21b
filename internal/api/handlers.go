package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Stardust/internal/model"
	"Stardust/internal/reducer"
)

// adContext detaches ad views from the request; the client resolves them
// through /api/ads/{id} after this request has returned.
func adContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

type ticketResponse struct {
	Ticket string        `json:"ticket,omitempty"`
	Player *model.Player `json:"player,omitempty"`
}

type amountResponse struct {
	Amount float64      `json:"amount"`
	Player model.Player `json:"player"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.View())
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	notices := s.session.DrainNotices()
	if notices == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, notices)
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	s.session.SetPaused(!req.Visible)
	writeJSON(w, http.StatusOK, map[string]bool{"paused": !req.Visible})
}

// dispatch applies a synchronous action and writes the resulting player.
func (s *Server) dispatch(w http.ResponseWriter, a reducer.Action) {
	p, err := s.session.Dispatch(a)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePurchaseUpgrade(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, reducer.PurchaseUpgrade{UpgradeID: chi.URLParam(r, "id")})
}

func (s *Server) handlePurchaseDeal(w http.ResponseWriter, r *http.Request) {
	ticket, p, err := s.session.PurchaseDeal(adContext(r), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if ticket != "" {
		writeJSON(w, http.StatusAccepted, ticketResponse{Ticket: ticket})
		return
	}
	writeJSON(w, http.StatusOK, ticketResponse{Player: &p})
}

func (s *Server) handleClaimDaily(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, reducer.ClaimDailyReward{})
}

func (s *Server) handleCipher(w http.ResponseWriter, r *http.Request) {
	var req reducer.SolveCipher
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	s.dispatch(w, req)
}

func (s *Server) handleWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount  float64 `json:"amount"`
		Address string  `json:"address"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	p, err := s.session.RequestWithdrawal(req.Amount, req.Address)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleOpenTask(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, reducer.OpenTask{TaskID: chi.URLParam(r, "id")})
}

func (s *Server) handleVerifyTask(w http.ResponseWriter, r *http.Request) {
	p, err := s.session.VerifyTelegramTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleClaimVideoTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	s.dispatch(w, reducer.ClaimVideoTask{TaskID: chi.URLParam(r, "id"), Code: req.Code})
}

func (s *Server) handleTaskAd(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.session.WatchTaskAd(adContext(r), chi.URLParam(r, "id"))
	s.writeTicket(w, ticket, err)
}

func (s *Server) handleLevelUpAd(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.session.WatchLevelUpAd(adContext(r))
	s.writeTicket(w, ticket, err)
}

func (s *Server) handleLevelUp(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, reducer.LevelUp{})
}

func (s *Server) writeTicket(w http.ResponseWriter, ticket string, err error) {
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ticketResponse{Ticket: ticket})
}

func (s *Server) holdState(w http.ResponseWriter, status int) {
	phase, reward := s.session.HoldState()
	writeJSON(w, status, map[string]interface{}{
		"phase":  phase.String(),
		"reward": reward,
	})
}

func (s *Server) handleHoldStart(w http.ResponseWriter, r *http.Request) {
	if err := s.session.StartHold(); err != nil {
		writeFailure(w, err)
		return
	}
	s.holdState(w, http.StatusOK)
}

func (s *Server) handleHoldRelease(w http.ResponseWriter, r *http.Request) {
	s.session.ReleaseHold()
	s.holdState(w, http.StatusOK)
}

func (s *Server) handleHoldClaim(w http.ResponseWriter, r *http.Request) {
	ticket, err := s.session.ClaimHoldWithAd(adContext(r))
	s.writeTicket(w, ticket, err)
}

func (s *Server) handleHoldDiscard(w http.ResponseWriter, r *http.Request) {
	amount := s.session.DiscardHold()
	writeJSON(w, http.StatusOK, amountResponse{Amount: amount, Player: s.session.Player()})
}

func (s *Server) handleOfflineClaim(w http.ResponseWriter, r *http.Request) {
	amount, err := s.session.ClaimOffline()
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Amount: amount, Player: s.session.Player()})
}

func (s *Server) handleOfflineDiscard(w http.ResponseWriter, r *http.Request) {
	amount := s.session.DiscardOffline()
	writeJSON(w, http.StatusOK, amountResponse{Amount: amount, Player: s.session.Player()})
}

func (s *Server) handleAdComplete(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.Complete(chi.URLParam(r, "id")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdFail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = decodeBody(r, &req)
	var reason error
	if req.Reason != "" {
		reason = errors.New(req.Reason)
	}
	if err := s.gate.Fail(chi.URLParam(r, "id"), reason); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.session.Leaderboard(r.Context(), queryLimit(r, 50, 100))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	rank, err := s.session.Rank(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rank": rank})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := s.session.History(queryLimit(r, 20, 200))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.session.BeginDeletion(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
