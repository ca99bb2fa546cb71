// Package shared centralizes JSON responses and domain-error translation so
// every handler returns the same envelope shape.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "crossgov/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeUnauthorized:       http.StatusForbidden,
	dErrors.CodeBadRequest:         http.StatusBadRequest,
	dErrors.CodeMalformedPayload:   http.StatusBadRequest,
	dErrors.CodeInvalidWindow:      http.StatusBadRequest,
	dErrors.CodeDuplicateDAO:       http.StatusConflict,
	dErrors.CodeDuplicateProposal:  http.StatusConflict,
	dErrors.CodeAlreadyFinalized:   http.StatusConflict,
	dErrors.CodeDAONotFound:        http.StatusNotFound,
	dErrors.CodeProposalNotFound:   http.StatusNotFound,
	dErrors.CodeVotingNotActive:    http.StatusUnprocessableEntity,
	dErrors.CodeVotingStillActive:  http.StatusUnprocessableEntity,
	dErrors.CodeNotEligible:        http.StatusUnprocessableEntity,
	dErrors.CodeInsufficientTokens: http.StatusUnprocessableEntity,
	dErrors.CodeInsufficientFee:    http.StatusPaymentRequired,
	dErrors.CodeDispatchFailed:     http.StatusBadGateway,
	dErrors.CodeInternal:           http.StatusInternalServerError,
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError translates a domain error into the JSON error envelope. The
// specific code always survives to the client; off-chain tooling depends on
// distinguishing rejection kinds.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	message := ""
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	WriteJSON(w, status, map[string]string{
		"error":   string(code),
		"message": message,
	})
}
