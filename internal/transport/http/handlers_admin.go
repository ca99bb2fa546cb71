package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crossgov/internal/transport/http/shared"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
	"crossgov/pkg/requestcontext"
)

// WhitelistAdmin is the mutable slice of the eligibility oracle exposed to
// operators. Deployments backed by an external oracle run without it.
type WhitelistAdmin interface {
	Allow(addr domain.Address)
	Revoke(addr domain.Address)
	SetBalance(token domain.TokenRef, addr domain.Address, amount uint64)
}

type setCreationFeeRequest struct {
	Fee uint64 `json:"fee"`
}

func (h *Handler) handleSetCreationFee(w http.ResponseWriter, r *http.Request) {
	var req setCreationFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.daos.SetCreationFee(r.Context(), requestcontext.Caller(r.Context()), req.Fee); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetFees(w http.ResponseWriter, r *http.Request) {
	balance, err := h.daos.FeeBalance(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]uint64{
		"creation_fee": h.daos.CreationFee(),
		"balance":      balance,
	})
}

func (h *Handler) handleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	withdrawn, err := h.daos.Withdraw(r.Context(), requestcontext.Caller(r.Context()))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]uint64{"withdrawn": withdrawn})
}

type whitelistRequest struct {
	Address string `json:"address"`
}

func (h *Handler) handleWhitelistAllow(w http.ResponseWriter, r *http.Request) {
	if h.whitelist == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "whitelist is managed externally"))
		return
	}
	var req whitelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	h.whitelist.Allow(addr)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleWhitelistRevoke(w http.ResponseWriter, r *http.Request) {
	if h.whitelist == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "whitelist is managed externally"))
		return
	}
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	h.whitelist.Revoke(addr)
	w.WriteHeader(http.StatusNoContent)
}

type setBalanceRequest struct {
	Token   string `json:"token"`
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

func (h *Handler) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	if h.whitelist == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "balances are managed externally"))
		return
	}
	var req setBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	token, err := domain.ParseTokenRef(req.Token)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	addr, err := domain.ParseAddress(req.Address)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	h.whitelist.SetBalance(token, addr, req.Amount)
	w.WriteHeader(http.StatusNoContent)
}
