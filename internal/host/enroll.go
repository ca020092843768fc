package host

import (
	"ghostpost/internal/continuation"
	"ghostpost/internal/continuation/commitment"
	"ghostpost/pkg/domain"
)

// initialTickets is how many tickets a new identity starts with when the
// caller supplies none.
const initialTickets = 2

// NewEnrollment builds a fresh identity and its first commitment. The wallet
// is unattested until the server's enrollment signature is recorded with
// Wallet.Attest.
func NewEnrollment(m *Minter, tickets []domain.Ticket) (*Wallet, continuation.Commitment, error) {
	if len(tickets) == 0 {
		for range initialTickets {
			t, err := m.Ticket()
			if err != nil {
				return nil, continuation.Commitment{}, err
			}
			tickets = append(tickets, t)
		}
	}
	internal, err := m.Nonce()
	if err != nil {
		return nil, continuation.Commitment{}, err
	}
	opening, err := m.Nonce()
	if err != nil {
		return nil, continuation.Commitment{}, err
	}

	state := continuation.IdentityState{Tickets: tickets, InternalNonce: internal}
	c, err := commitment.Commit(state, opening)
	if err != nil {
		return nil, continuation.Commitment{}, err
	}
	return &Wallet{Snapshot: snapshotOf(state, opening, c)}, c, nil
}
