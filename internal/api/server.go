// Package api serves the ledger's exposed interface over JSON/HTTP.
//
// Holder-facing endpoints identify the caller by the X-Account header;
// administrator endpoints require the X-Admin-Token header and run as the
// configured administrator account. The error taxonomy maps to status codes
// so clients can tell "try again later" (liquidity, halted) from "never
// valid" (validation, authorization, state).
package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"TermVault/internal/cache"
	"TermVault/internal/ledger"
	"TermVault/internal/model"
)

// Server holds the API's collaborators.
type Server struct {
	ledger       *ledger.Ledger
	cache        cache.Cache
	cacheTTL     time.Duration
	adminToken   string
	adminAccount string
	limiter      *RateLimiter
}

// NewServer creates a Server.
func NewServer(l *ledger.Ledger, c cache.Cache, cacheTTL time.Duration, adminToken, adminAccount string, limiter *RateLimiter) *Server {
	return &Server{
		ledger:       l,
		cache:        c,
		cacheTTL:     cacheTTL,
		adminToken:   adminToken,
		adminAccount: adminAccount,
		limiter:      limiter,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Plan management (admin).
	mux.Handle("POST /plans", s.admin(s.handleCreatePlan))
	mux.Handle("PATCH /plans/{id}", s.admin(s.handleUpdatePlan))
	mux.Handle("POST /plans/{id}/enable", s.admin(s.handleEnablePlan))

	// Vault management (admin).
	mux.Handle("POST /vault/fund", s.admin(s.handleFundVault))
	mux.Handle("POST /vault/withdraw", s.admin(s.handleWithdrawVault))
	mux.Handle("POST /pause", s.admin(s.handlePause))
	mux.Handle("POST /unpause", s.admin(s.handleUnpause))

	// Deposit lifecycle (holder).
	mux.Handle("POST /deposits", s.holder(s.handleOpenDeposit))
	mux.Handle("POST /deposits/{id}/withdraw", s.holder(s.handleWithdraw))
	mux.Handle("POST /deposits/{id}/early-withdraw", s.holder(s.handleEarlyWithdraw))
	mux.Handle("POST /deposits/{id}/renew", s.holder(s.handleRenew))
	mux.Handle("POST /deposits/{id}/auto-renew", s.holder(s.handleSetAutoRenew))
	mux.Handle("POST /deposits/{id}/transfer", s.holder(s.handleTransfer))

	// Read-only views.
	mux.HandleFunc("GET /plans", s.handleListPlans)
	mux.HandleFunc("GET /plans/{id}", s.handleGetPlan)
	mux.HandleFunc("GET /deposits/{id}", s.handleGetDeposit)
	mux.HandleFunc("GET /deposits/{id}/interest", s.handleCalculateInterest)
	mux.HandleFunc("GET /vault", s.handleVaultState)
	mux.HandleFunc("GET /vault/health", s.handleVaultHealth)
	mux.HandleFunc("GET /holders/{holder}/deposits", s.handleHolderDeposits)

	return s.rateLimit(mux)
}

// holderFunc handles a request on behalf of an identified caller account.
type holderFunc func(w http.ResponseWriter, r *http.Request, caller string)

// holder resolves the caller identity from the X-Account header.
func (s *Server) holder(next holderFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := r.Header.Get("X-Account")
		if account == "" {
			writeJSONError(w, http.StatusUnauthorized, "X-Account header required")
			return
		}
		next(w, r, account)
	})
}

// admin verifies the admin token and runs the handler as the administrator
// account.
func (s *Server) admin(next holderFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin-Token") != s.adminToken {
			writeJSONError(w, http.StatusForbidden, "invalid admin token")
			return
		}
		next(w, r, s.adminAccount)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r.RemoteAddr)) {
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP derives the rate-limit bucket key. RemoteAddr normally carries a
// host:port pair; when it does not, the whole value is the key so portless
// clients do not collapse into a single shared bucket.
func clientIP(remoteAddr string) string {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return ip
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps the ledger error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrHalted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, model.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrPlanNotFound), errors.Is(err, model.ErrDepositNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrState):
		status = http.StatusConflict
	case errors.Is(err, model.ErrLiquidity):
		status = http.StatusUnprocessableEntity
	}
	writeJSONError(w, status, err.Error())
}
