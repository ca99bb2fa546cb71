package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	daoservice "crossgov/internal/dao/service"
	"crossgov/internal/transport/http/shared"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
)

type registerDAORequest struct {
	ID            string `json:"id"`
	Caller        string `json:"caller"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	MetadataRef   string `json:"metadata_ref"`
	TokenRef      string `json:"token_ref"`
	MinimumTokens uint64 `json:"minimum_tokens"`
	Fee           uint64 `json:"fee"`
}

type daoResponse struct {
	ID            string `json:"id"`
	Controller    string `json:"controller"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	MetadataRef   string `json:"metadata_ref"`
	TokenRef      string `json:"token_ref"`
	MinimumTokens uint64 `json:"minimum_tokens"`
	CreatedAt     int64  `json:"created_at"`
}

func (h *Handler) handleRegisterDAO(w http.ResponseWriter, r *http.Request) {
	var req registerDAORequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	id, err := domain.ParseDAOID(req.ID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	token, err := domain.ParseTokenRef(req.TokenRef)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, err := h.daos.Register(r.Context(), caller, daoservice.RegisterParams{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		MetadataRef:   req.MetadataRef,
		TokenRef:      token,
		MinimumTokens: req.MinimumTokens,
		Fee:           req.Fee,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toDAOResponse(record))
}

func (h *Handler) handleGetDAO(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDAOID(chi.URLParam(r, "daoID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.daos.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDAOResponse(record))
}

type setMinimumTokensRequest struct {
	Caller        string `json:"caller"`
	MinimumTokens uint64 `json:"minimum_tokens"`
}

func (h *Handler) handleSetMinimumTokens(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDAOID(chi.URLParam(r, "daoID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req setMinimumTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	caller, err := domain.ParseAddress(req.Caller)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.daos.SetMinimumTokens(r.Context(), caller, id, req.MinimumTokens); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListProposalsByDAO(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseDAOID(chi.URLParam(r, "daoID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	records, err := h.proposals.ListByDAO(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]proposalResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toProposalResponse(record, r))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"proposals": out})
}

func toDAOResponse(record daoRecord) daoResponse {
	return daoResponse{
		ID:            string(record.ID),
		Controller:    string(record.Controller),
		Name:          record.Name,
		Description:   record.Description,
		MetadataRef:   record.MetadataRef,
		TokenRef:      string(record.TokenRef),
		MinimumTokens: record.MinimumTokens,
		CreatedAt:     record.CreatedAt.Unix(),
	}
}
