package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
)

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (s *Server) planKey(id int64) string    { return fmt.Sprintf("plan:%d", id) }
func (s *Server) depositKey(id int64) string { return fmt.Sprintf("deposit:%d", id) }

// cached serves key from the cache when present, otherwise calls load and
// stores the encoded result.
func (s *Server) cached(w http.ResponseWriter, key string, load func() (any, error)) {
	if s.cache != nil {
		if body, ok := s.cache.Get(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(body))
			return
		}
	}
	v, err := load()
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "encode response")
		return
	}
	if s.cache != nil {
		s.cache.Set(key, string(body), s.cacheTTL)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) invalidate(keys ...string) {
	if s.cache == nil {
		return
	}
	for _, k := range keys {
		s.cache.Delete(k)
	}
}

// --- plan management ---

type planRequest struct {
	TenorDays       int64 `json:"tenor_days"`
	APRBps          int64 `json:"apr_bps"`
	MinDeposit      int64 `json:"min_deposit"`
	MaxDeposit      int64 `json:"max_deposit"`
	EarlyPenaltyBps int64 `json:"early_penalty_bps"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request, caller string) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.ledger.CreatePlan(caller, req.TenorDays, req.APRBps, req.MinDeposit, req.MaxDeposit, req.EarlyPenaltyBps)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request, caller string) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.ledger.UpdatePlan(caller, id, req.APRBps, req.EarlyPenaltyBps, req.MinDeposit, req.MaxDeposit)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(s.planKey(id))
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleEnablePlan(w http.ResponseWriter, r *http.Request, caller string) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.ledger.EnablePlan(caller, id, req.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(s.planKey(id))
	writeJSON(w, http.StatusOK, p)
}

// --- vault management ---

type amountRequest struct {
	Amount int64 `json:"amount"`
}

func (s *Server) handleFundVault(w http.ResponseWriter, r *http.Request, caller string) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.ledger.FundVault(caller, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.VaultState())
}

func (s *Server) handleWithdrawVault(w http.ResponseWriter, r *http.Request, caller string) {
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.ledger.WithdrawVault(caller, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ledger.VaultState())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request, caller string) {
	if err := s.ledger.Pause(caller); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request, caller string) {
	if err := s.ledger.Unpause(caller); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

// --- deposit lifecycle ---

func (s *Server) handleOpenDeposit(w http.ResponseWriter, r *http.Request, caller string) {
	var req struct {
		PlanID    int64 `json:"plan_id"`
		Amount    int64 `json:"amount"`
		AutoRenew bool  `json:"auto_renew"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cert, err := s.ledger.OpenDeposit(caller, req.PlanID, req.Amount, req.AutoRenew)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cert)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request, caller string) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	res, err := s.ledger.Withdraw(caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(s.depositKey(id))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEarlyWithdraw(w http.ResponseWriter, r *http.Request, caller string) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	res, err := s.ledger.EarlyWithdraw(caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(s.depositKey(id))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRenew(w http.ResponseWriter, r *http.Request, caller string) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	var req struct {
		UseCurrentPlanRate bool  `json:"use_current_plan_rate"`
		TargetPlanID       int64 `json:"target_plan_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cert, err := s.ledger.Renew(caller, id, req.UseCurrentPlanRate, req.TargetPlanID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(s.depositKey(id))
	writeJSON(w, http.StatusOK, cert)
}

func (s *Server) handleSetAutoRenew(w http.ResponseWriter, r *http.Request, caller string) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	var req struct {
		AutoRenew bool `json:"auto_renew"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.ledger.SetAutoRenew(caller, id, req.AutoRenew); err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(s.depositKey(id))
	writeJSON(w, http.StatusOK, map[string]bool{"auto_renew": req.AutoRenew})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, caller string) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	var req struct {
		NewHolder string `json:"new_holder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NewHolder == "" {
		writeJSONError(w, http.StatusBadRequest, "new_holder required")
		return
	}
	if err := s.ledger.TransferCertificate(caller, id, req.NewHolder); err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(s.depositKey(id))
	writeJSON(w, http.StatusOK, map[string]string{"holder": req.NewHolder})
}

// --- read-only views ---

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.ListPlans())
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid plan id")
		return
	}
	s.cached(w, s.planKey(id), func() (any, error) {
		return s.ledger.GetPlan(id)
	})
}

type depositView struct {
	Certificate any    `json:"certificate"`
	Holder      string `json:"holder"`
}

func (s *Server) handleGetDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	s.cached(w, s.depositKey(id), func() (any, error) {
		cert, holder, err := s.ledger.GetDeposit(id)
		if err != nil {
			return nil, err
		}
		return depositView{Certificate: cert, Holder: holder}, nil
	})
}

func (s *Server) handleCalculateInterest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid deposit id")
		return
	}
	accrued, err := s.ledger.CalculateInterest(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deposit_id": id, "accrued_interest": accrued})
}

func (s *Server) handleVaultState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.VaultState())
}

func (s *Server) handleVaultHealth(w http.ResponseWriter, r *http.Request) {
	ratio := s.ledger.HealthRatio()
	resp := map[string]any{
		"healthy": s.ledger.IsHealthy(),
	}
	if ratio == math.MaxInt64 {
		resp["health_bps"] = nil
	} else {
		resp["health_bps"] = ratio
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHolderDeposits(w http.ResponseWriter, r *http.Request) {
	holder := r.PathValue("holder")
	if holder == "" {
		writeJSONError(w, http.StatusBadRequest, "holder required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"holder":   holder,
		"deposits": s.ledger.DepositsOf(holder),
	})
}
