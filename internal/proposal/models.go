// Package proposal holds the proposal records and their lifecycle. A proposal
// is the unit of consistency for the whole engine: its tally must always equal
// the sum of its per-voter weights, and every mutation commits atomically.
package proposal

import (
	"time"

	"crossgov/pkg/domain"
)

// State is the lifecycle position of a proposal, derived from the clock plus
// the terminal flag. No state is ever revisited.
type State string

const (
	StatePending   State = "pending"
	StateActive    State = "active"
	StateEnded     State = "ended"
	StateFinalized State = "finalized"
)

// Outcome is recorded at finalization by comparing the tally to the quorum.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

// Proposal is one time-bounded decision. DAOID is the explicit back-reference
// to the owning DAO, stored at creation and never derived.
type Proposal struct {
	ID          domain.ProposalID
	DAOID       domain.DAOID
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Quorum      uint64

	// Tally maps voter to accumulated weight. Weights only grow; repeated
	// votes from the same voter add, they do not replace.
	Tally       map[domain.Address]uint64
	TotalWeight uint64

	Finalized   bool
	Outcome     Outcome
	FinalizedAt time.Time

	CreatedAt time.Time
}

// State derives the lifecycle position at the given instant.
func (p *Proposal) State(now time.Time) State {
	switch {
	case p.Finalized:
		return StateFinalized
	case now.Before(p.StartTime):
		return StatePending
	case now.After(p.EndTime):
		return StateEnded
	default:
		return StateActive
	}
}

// WindowOpen reports whether votes are accepted at the given instant,
// evaluated against the receiving chain's clock.
func (p *Proposal) WindowOpen(now time.Time) bool {
	return !now.Before(p.StartTime) && !now.After(p.EndTime)
}

// Clone returns a snapshot safe to hand to readers.
func (p *Proposal) Clone() *Proposal {
	clone := *p
	clone.Tally = make(map[domain.Address]uint64, len(p.Tally))
	for voter, weight := range p.Tally {
		clone.Tally[voter] = weight
	}
	return &clone
}
