package continuation

import (
	"encoding/hex"
	"fmt"

	"ghostpost/pkg/domain"
)

// CommitmentSize is the digest length in bytes.
const CommitmentSize = 32

// Commitment binds a private state and a nonce. It is safe to reveal.
type Commitment [CommitmentSize]byte

// String renders the lowercase hex form used by the server ledger.
func (c Commitment) String() string {
	return hex.EncodeToString(c[:])
}

// ParseCommitment parses the hex form produced by String.
func ParseCommitment(s string) (Commitment, error) {
	var c Commitment
	raw, err := hex.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("decode commitment hex: %w", err)
	}
	if len(raw) != CommitmentSize {
		return c, fmt.Errorf("commitment must be %d bytes, got %d", CommitmentSize, len(raw))
	}
	copy(c[:], raw)
	return c, nil
}

// IdentityState is the private object a user commits to between rounds.
//
// Invariants:
//   - Tickets keep insertion order; new tickets append
//   - IsBanned never goes from true to false within one execution
type IdentityState struct {
	IsBanned      bool
	Tickets       []domain.Ticket
	InternalNonce domain.Nonce
}

// Clone returns a deep copy that shares no backing array with s.
func (s IdentityState) Clone() IdentityState {
	tickets := make([]domain.Ticket, len(s.Tickets))
	copy(tickets, s.Tickets)
	return IdentityState{
		IsBanned:      s.IsBanned,
		Tickets:       tickets,
		InternalNonce: s.InternalNonce,
	}
}

// WithBan returns a copy with the ban flag raised when banned is true. The flag
// is never lowered.
func (s IdentityState) WithBan(banned bool) IdentityState {
	next := s.Clone()
	next.IsBanned = s.IsBanned || banned
	return next
}

// Continue returns the state carried into the next round: the new ticket is
// appended and, when rotate is non-nil, the internal nonce replaced by *rotate.
// A nil rotate keeps the current internal nonce.
func (s IdentityState) Continue(newTicket domain.Ticket, rotate *domain.Nonce) IdentityState {
	next := s.Clone()
	next.Tickets = append(next.Tickets, newTicket)
	if rotate != nil {
		next.InternalNonce = *rotate
	}
	return next
}

// PrivateInput is everything the prover sees. Nothing here is disclosed except
// what ends up in the Journal.
type PrivateInput struct {
	State IdentityState
	// OldNonce opened the previous commitment.
	OldNonce domain.Nonce
	// NewNonce opens the commitment produced by this run.
	NewNonce domain.Nonce
	// ClaimedCommitment is the digest the server says it attested.
	ClaimedCommitment Commitment
	ServerSignature   []byte
	ServerKey         []byte
	NewTicket         domain.Ticket
	CallbackTickets   []domain.Ticket
	// NextInternalNonce, when set, becomes the continued state's internal
	// nonce so the next round reveals a fresh replay nonce. Unset, the
	// internal nonce carries over unchanged.
	NextInternalNonce *domain.Nonce
}

// Journal is the public output of one successful transition. Its fields are
// exactly what a relying party learns.
type Journal struct {
	NewCommitment Commitment
	// ReplayNonce is the identity's internal nonce, not the opening nonce.
	ReplayNonce domain.Nonce
	NewTicket   domain.Ticket
}

// Outcome pairs the public journal with the private state the host keeps to
// open the new commitment next round.
type Outcome struct {
	Journal Journal
	State   IdentityState
}
