package httptransport

import (
	"encoding/json"
	"net/http"

	"crossgov/internal/crosschain"
	"crossgov/internal/transport/http/shared"
	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
)

type sendProposalRequest struct {
	DestinationChain string `json:"destination_chain"`
	Receiver         string `json:"receiver"`
	DAOID            string `json:"dao_id"`
	ProposalID       string `json:"proposal_id"`
	Description      string `json:"description"`
	StartTime        int64  `json:"start_time"`
	EndTime          int64  `json:"end_time"`
	Quorum           uint64 `json:"quorum"`
}

type sendVoteRequest struct {
	DestinationChain string `json:"destination_chain"`
	Receiver         string `json:"receiver"`
	ProposalID       string `json:"proposal_id"`
	Voter            string `json:"voter"`
	Weight           uint64 `json:"weight"`
}

type sendFinalizeRequest struct {
	DestinationChain string `json:"destination_chain"`
	Receiver         string `json:"receiver"`
	ProposalID       string `json:"proposal_id"`
}

type dispatchResponse struct {
	MessageID string `json:"message_id"`
}

func (h *Handler) handleSendProposal(w http.ResponseWriter, r *http.Request) {
	var req sendProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	destination, receiver, err := parseDestination(req.DestinationChain, req.Receiver)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if _, err := domain.ParseDAOID(req.DAOID); err != nil {
		shared.WriteError(w, err)
		return
	}
	if _, err := domain.ParseProposalID(req.ProposalID); err != nil {
		shared.WriteError(w, err)
		return
	}

	messageID, err := h.sender.SendProposal(r.Context(), destination, receiver, crosschain.CreateProposalMessage{
		DAOID:       req.DAOID,
		ProposalID:  req.ProposalID,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Quorum:      req.Quorum,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusAccepted, dispatchResponse{MessageID: messageID})
}

func (h *Handler) handleSendVote(w http.ResponseWriter, r *http.Request) {
	var req sendVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	destination, receiver, err := parseDestination(req.DestinationChain, req.Receiver)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if _, err := domain.ParseProposalID(req.ProposalID); err != nil {
		shared.WriteError(w, err)
		return
	}
	if _, err := domain.ParseAddress(req.Voter); err != nil {
		shared.WriteError(w, err)
		return
	}
	if req.Weight == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "vote weight must be positive"))
		return
	}

	messageID, err := h.sender.SendVote(r.Context(), destination, receiver, crosschain.VoteMessage{
		ProposalID: req.ProposalID,
		Voter:      req.Voter,
		Weight:     req.Weight,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusAccepted, dispatchResponse{MessageID: messageID})
}

func (h *Handler) handleSendFinalize(w http.ResponseWriter, r *http.Request) {
	var req sendFinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	destination, receiver, err := parseDestination(req.DestinationChain, req.Receiver)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if _, err := domain.ParseProposalID(req.ProposalID); err != nil {
		shared.WriteError(w, err)
		return
	}

	messageID, err := h.sender.SendFinalize(r.Context(), destination, receiver, crosschain.FinalizeMessage{
		ProposalID: req.ProposalID,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusAccepted, dispatchResponse{MessageID: messageID})
}

func parseDestination(chain, receiver string) (domain.ChainID, domain.Address, error) {
	destination, err := domain.ParseChainID(chain)
	if err != nil {
		return "", "", err
	}
	addr, err := domain.ParseAddress(receiver)
	if err != nil {
		return "", "", err
	}
	return destination, addr, nil
}
