package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	proposalservice "crossgov/internal/proposal/service"
	"crossgov/internal/transport/http/shared"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
	"crossgov/pkg/requestcontext"
)

type createProposalRequest struct {
	ID          string `json:"id"`
	Caller      string `json:"caller"`
	DAOID       string `json:"dao_id"`
	Description string `json:"description"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
	Quorum      uint64 `json:"quorum"`
}

type proposalResponse struct {
	ID          string            `json:"id"`
	DAOID       string            `json:"dao_id"`
	Description string            `json:"description"`
	StartTime   int64             `json:"start_time"`
	EndTime     int64             `json:"end_time"`
	Quorum      uint64            `json:"quorum"`
	TotalWeight uint64            `json:"total_weight"`
	Tally       map[string]uint64 `json:"tally"`
	State       string            `json:"state"`
	Finalized   bool              `json:"finalized"`
	Outcome     string            `json:"outcome,omitempty"`
	CreatedAt   int64             `json:"created_at"`
}

func (h *Handler) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	id, err := domain.ParseProposalID(req.ID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	daoID, err := domain.ParseDAOID(req.DAOID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.proposals.Create(r.Context(), caller, proposalservice.CreateParams{
		DAOID:       daoID,
		ProposalID:  id,
		Description: req.Description,
		StartTime:   time.Unix(req.StartTime, 0).UTC(),
		EndTime:     time.Unix(req.EndTime, 0).UTC(),
		Quorum:      req.Quorum,
	}, domain.Local())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toProposalResponse(record, r))
}

func (h *Handler) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.proposals.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toProposalResponse(record, r))
}

type castVoteRequest struct {
	Voter  string `json:"voter"`
	Weight uint64 `json:"weight"`
}

func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	voter, err := domain.ParseAddress(req.Voter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.votes.ApplyVote(r.Context(), id, voter, req.Weight, domain.Local()); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type finalizeRequest struct {
	Caller string `json:"caller"`
}

func (h *Handler) handleFinalizeProposal(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.finalizer.Finalize(r.Context(), id, caller, domain.Local())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toProposalResponse(record, r))
}

func (h *Handler) handleListProposalEvents(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProposalID(chi.URLParam(r, "proposalID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	records, err := h.eventLog.ListByProposal(r.Context(), string(id))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": records})
}

func toProposalResponse(record proposalRecord, r *http.Request) proposalResponse {
	tally := make(map[string]uint64, len(record.Tally))
	for voter, weight := range record.Tally {
		tally[string(voter)] = weight
	}
	return proposalResponse{
		ID:          string(record.ID),
		DAOID:       string(record.DAOID),
		Description: record.Description,
		StartTime:   record.StartTime.Unix(),
		EndTime:     record.EndTime.Unix(),
		Quorum:      record.Quorum,
		TotalWeight: record.TotalWeight,
		Tally:       tally,
		State:       string(record.State(requestcontext.Now(r.Context()))),
		Finalized:   record.Finalized,
		Outcome:     string(record.Outcome),
		CreatedAt:   record.CreatedAt.Unix(),
	}
}
