// Package crosschain defines the envelope codec and the outbound half of the
// cross-chain protocol. Every payload on the wire is a tagged envelope; the
// kind tag is decoded and checked before any field is interpreted.
package crosschain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"crossgov/pkg/domain"
	dErrors "crossgov/pkg/domain-errors"
)

// Kind tags one of the closed set of message kinds.
type Kind string

const (
	KindCreateProposal Kind = "create_proposal"
	KindVote           Kind = "vote"
	KindFinalize       Kind = "finalize"
)

// Envelope is the wire frame around every cross-chain message. MessageID is
// assigned by the sender and doubles as the receiver's idempotency key under
// at-least-once delivery.
type Envelope struct {
	MessageID   string          `json:"message_id"`
	Kind        Kind            `json:"kind"`
	SourceChain domain.ChainID  `json:"source_chain"`
	SentAt      time.Time       `json:"sent_at"`
	Payload     json.RawMessage `json:"payload"`
}

// CreateProposalMessage asks the destination chain to create a proposal.
// Times travel as unix seconds; each chain interprets them against its own
// clock.
type CreateProposalMessage struct {
	DAOID       string `json:"dao_id"`
	ProposalID  string `json:"proposal_id"`
	Description string `json:"description"`
	StartTime   int64  `json:"start_time"`
	EndTime     int64  `json:"end_time"`
	Quorum      uint64 `json:"quorum"`
}

// VoteMessage carries one weighted vote for a proposal on the destination
// chain.
type VoteMessage struct {
	ProposalID string `json:"proposal_id"`
	Voter      string `json:"voter"`
	Weight     uint64 `json:"weight"`
}

// FinalizeMessage asks the destination chain to finalize a proposal.
type FinalizeMessage struct {
	ProposalID string `json:"proposal_id"`
}

// NewEnvelope wraps a payload in a tagged envelope with a fresh message id.
func NewEnvelope(kind Kind, source domain.ChainID, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode payload")
	}
	return Envelope{
		MessageID:   uuid.New().String(),
		Kind:        kind,
		SourceChain: source,
		SentAt:      time.Now().UTC(),
		Payload:     raw,
	}, nil
}

// Encode serializes the envelope for the transport.
func (e Envelope) Encode() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode envelope")
	}
	return raw, nil
}

// Decode parses a transport payload back into an envelope, validating the
// frame before any payload field is touched.
func Decode(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, dErrors.Wrap(err, dErrors.CodeMalformedPayload, "payload is not a valid envelope")
	}
	switch env.Kind {
	case KindCreateProposal, KindVote, KindFinalize:
	default:
		return Envelope{}, dErrors.Newf(dErrors.CodeMalformedPayload, "unrecognized message kind %q", env.Kind)
	}
	if env.MessageID == "" {
		return Envelope{}, dErrors.New(dErrors.CodeMalformedPayload, "envelope is missing a message id")
	}
	if env.SourceChain == "" {
		return Envelope{}, dErrors.New(dErrors.CodeMalformedPayload, "envelope is missing a source chain")
	}
	return env, nil
}

// CreateProposal decodes and validates a create_proposal payload.
func (e Envelope) CreateProposal() (CreateProposalMessage, error) {
	var msg CreateProposalMessage
	if err := json.Unmarshal(e.Payload, &msg); err != nil {
		return CreateProposalMessage{}, dErrors.Wrap(err, dErrors.CodeMalformedPayload, "invalid create_proposal payload")
	}
	if msg.DAOID == "" || msg.ProposalID == "" {
		return CreateProposalMessage{}, dErrors.New(dErrors.CodeMalformedPayload, "create_proposal requires dao_id and proposal_id")
	}
	return msg, nil
}

// Vote decodes and validates a vote payload.
func (e Envelope) Vote() (VoteMessage, error) {
	var msg VoteMessage
	if err := json.Unmarshal(e.Payload, &msg); err != nil {
		return VoteMessage{}, dErrors.Wrap(err, dErrors.CodeMalformedPayload, "invalid vote payload")
	}
	if msg.ProposalID == "" || msg.Voter == "" {
		return VoteMessage{}, dErrors.New(dErrors.CodeMalformedPayload, "vote requires proposal_id and voter")
	}
	return msg, nil
}

// Finalize decodes and validates a finalize payload.
func (e Envelope) Finalize() (FinalizeMessage, error) {
	var msg FinalizeMessage
	if err := json.Unmarshal(e.Payload, &msg); err != nil {
		return FinalizeMessage{}, dErrors.Wrap(err, dErrors.CodeMalformedPayload, "invalid finalize payload")
	}
	if msg.ProposalID == "" {
		return FinalizeMessage{}, dErrors.New(dErrors.CodeMalformedPayload, "finalize requires proposal_id")
	}
	return msg, nil
}
