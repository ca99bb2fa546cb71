package events

import (
	"time"

	"crossgov/pkg/domain"
)

// Kind names one governance event. Events are the durable audit trail that
// external indexers read.
type Kind string

const (
	KindDAOCreated           Kind = "dao_created"
	KindDAOUpdated           Kind = "dao_updated"
	KindProposalCreated      Kind = "proposal_created"
	KindVoteAccepted         Kind = "vote_accepted"
	KindCrossChainDispatched Kind = "crosschain_dispatched"
	KindProposalFinalized    Kind = "proposal_finalized"
)

// Event is emitted from domain logic to capture governance actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time
	Kind       Kind
	DAOID      domain.DAOID
	ProposalID domain.ProposalID
	Actor      domain.Address
	Voter      domain.Address
	Weight     uint64
	// SourceChain is set for actions applied from an inbound envelope,
	// DestinationChain for outbound dispatches.
	SourceChain      domain.ChainID
	DestinationChain domain.ChainID
	MessageID        string
	MessageKind      string
	Outcome          string
	RequestID        string
}
