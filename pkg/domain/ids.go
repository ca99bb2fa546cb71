// Package domain defines the typed identifiers shared across the governance
// engine. Parsing happens once at trust boundaries (HTTP handlers, inbound
// cross-chain envelopes); everything past the boundary works with typed values.
package domain

import (
	"strings"

	dErrors "crossgov/pkg/domain-errors"
)

// DAOID is the opaque fixed-size key of a DAO record: 32 bytes, hex encoded.
type DAOID string

// ProposalID is the opaque fixed-size key of a proposal. Proposal ids are
// globally unique across the registry, not scoped per DAO; the owning DAO is
// carried as an explicit back-reference on the proposal record.
type ProposalID string

// Address identifies a caller, voter, or controller: 20 bytes, hex encoded,
// 0x-prefixed.
type Address string

// TokenRef references a governance token ledger, address-shaped.
type TokenRef string

// ChainID names one of the independent chains exchanging governance messages.
// The empty ChainID means "this chain" (a local call).
type ChainID string

const (
	keyHexLen     = 64 // 32 bytes
	addressHexLen = 40 // 20 bytes
)

// ZeroAddress is never a valid controller or voter.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseDAOID validates and normalizes a DAO identifier.
func ParseDAOID(s string) (DAOID, error) {
	key, err := parseHexKey(s, keyHexLen, "dao id")
	if err != nil {
		return "", err
	}
	return DAOID(key), nil
}

// ParseProposalID validates and normalizes a proposal identifier.
func ParseProposalID(s string) (ProposalID, error) {
	key, err := parseHexKey(s, keyHexLen, "proposal id")
	if err != nil {
		return "", err
	}
	return ProposalID(key), nil
}

// ParseAddress validates and normalizes an address. The zero address is
// rejected: it can never act as a controller, voter, or administrator.
func ParseAddress(s string) (Address, error) {
	key, err := parseHexKey(strings.TrimPrefix(strings.ToLower(s), "0x"), addressHexLen, "address")
	if err != nil {
		return "", err
	}
	addr := Address("0x" + key)
	if addr == ZeroAddress {
		return "", dErrors.New(dErrors.CodeBadRequest, "address must be non-zero")
	}
	return addr, nil
}

// ParseTokenRef validates a governance token reference.
func ParseTokenRef(s string) (TokenRef, error) {
	key, err := parseHexKey(strings.TrimPrefix(strings.ToLower(s), "0x"), addressHexLen, "token ref")
	if err != nil {
		return "", err
	}
	return TokenRef("0x" + key), nil
}

// ParseChainID validates a chain identity. Chain ids are short ASCII tokens
// agreed between deployments (they become Kafka topic fragments).
func ParseChainID(s string) (ChainID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "chain id must not be empty")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeBadRequest, "chain id too long")
	}
	for _, r := range s {
		if !isChainRune(r) {
			return "", dErrors.New(dErrors.CodeBadRequest, "chain id must be alphanumeric with dashes")
		}
	}
	return ChainID(s), nil
}

func (d DAOID) String() string      { return string(d) }
func (p ProposalID) String() string { return string(p) }
func (a Address) String() string    { return string(a) }
func (t TokenRef) String() string   { return string(t) }
func (c ChainID) String() string    { return string(c) }

// Source describes where a state-mutating call originated. A zero Source is a
// local call; a remote source carries the sending chain and the transport
// message id used as the idempotency key for inbound votes.
type Source struct {
	Chain     ChainID
	MessageID string
}

// Local is the source of calls made directly against this chain's API.
func Local() Source { return Source{} }

// Remote builds the source for a message received from another chain.
func Remote(chain ChainID, messageID string) Source {
	return Source{Chain: chain, MessageID: messageID}
}

// IsRemote reports whether the call arrived through the message transport.
func (s Source) IsRemote() bool { return s.Chain != "" }

func parseHexKey(s string, wantLen int, what string) (string, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, what+" must not be empty")
	}
	if len(s) != wantLen {
		return "", dErrors.New(dErrors.CodeBadRequest, what+" must be "+lenDesc(wantLen))
	}
	s = strings.ToLower(s)
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", dErrors.New(dErrors.CodeBadRequest, what+" must be hex encoded")
		}
	}
	return s, nil
}

func lenDesc(hexLen int) string {
	if hexLen == keyHexLen {
		return "32 bytes hex encoded"
	}
	return "20 bytes hex encoded"
}

func isChainRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		return true
	}
	return false
}
