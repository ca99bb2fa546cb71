// Package derrors carries coded domain errors across service boundaries.
// Every rejection surfaces a specific code so callers and off-chain tooling
// can distinguish "not eligible" from "window closed" from "duplicate" without
// string matching. Conventionally imported as dErrors.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// Authorization.
	CodeUnauthorized Code = "unauthorized"

	// Validation.
	CodeBadRequest        Code = "bad_request"
	CodeDuplicateDAO      Code = "duplicate_dao"
	CodeDuplicateProposal Code = "duplicate_proposal"
	CodeInvalidWindow     Code = "invalid_window"
	CodeMalformedPayload  Code = "malformed_payload"

	// State preconditions.
	CodeDAONotFound       Code = "dao_not_found"
	CodeProposalNotFound  Code = "proposal_not_found"
	CodeVotingNotActive   Code = "voting_not_active"
	CodeVotingStillActive Code = "voting_still_active"
	CodeAlreadyFinalized  Code = "already_finalized"

	// Eligibility.
	CodeNotEligible        Code = "not_eligible"
	CodeInsufficientTokens Code = "insufficient_tokens"

	// Resources.
	CodeInsufficientFee Code = "insufficient_fee"

	// Transport.
	CodeDispatchFailed Code = "dispatch_failed"

	// Everything else.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Services build these; handlers translate the
// code to an HTTP status and the message to a response body.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a domain error with the given code.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// Is is a readability alias for HasCode.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
