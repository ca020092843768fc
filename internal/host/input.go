package host

import (
	"fmt"
	"slices"

	"ghostpost/internal/continuation"
	"ghostpost/internal/continuation/boundary"
	"ghostpost/pkg/domain"
)

// ProofRequestFor renders the wallet's public-facing view together with the
// current callback board, in the form the prover host consumes.
func ProofRequestFor(w *Wallet, callbacks []domain.Ticket) boundary.ProofRequest {
	return boundary.ProofRequest{
		CallbackTickets: domain.FormatTickets(callbacks),
		ExistingTickets: domain.FormatTickets(w.Tickets),
		IsBanned:        w.IsBanned,
		OldNonce:        w.OpeningNonce.String(),
	}
}

// BuildPrivateInput assembles the transition input from the wallet and a
// parsed proof request, minting the new ticket and both fresh nonces. The
// request must describe the wallet's current snapshot.
func BuildPrivateInput(w *Wallet, req boundary.ParsedRequest, m *Minter) (continuation.PrivateInput, error) {
	att, err := w.Attested()
	if err != nil {
		return continuation.PrivateInput{}, err
	}
	if req.OldNonce != w.OpeningNonce {
		return continuation.PrivateInput{}, fmt.Errorf("%w: old_nonce", ErrWalletMismatch)
	}
	if !slices.Equal(req.ExistingTickets, w.Tickets) {
		return continuation.PrivateInput{}, fmt.Errorf("%w: existing_tickets", ErrWalletMismatch)
	}
	if req.IsBanned != w.IsBanned {
		return continuation.PrivateInput{}, fmt.Errorf("%w: is_banned", ErrWalletMismatch)
	}

	newTicket, err := m.Ticket()
	if err != nil {
		return continuation.PrivateInput{}, err
	}
	newNonce, err := m.Nonce()
	if err != nil {
		return continuation.PrivateInput{}, err
	}
	nextInternal, err := m.Nonce()
	if err != nil {
		return continuation.PrivateInput{}, err
	}

	return continuation.PrivateInput{
		State:             w.State(),
		OldNonce:          w.OpeningNonce,
		NewNonce:          newNonce,
		ClaimedCommitment: att.Commitment,
		ServerSignature:   att.Signature,
		ServerKey:         att.PublicKey,
		NewTicket:         newTicket,
		CallbackTickets:   req.CallbackTickets,
		NextInternalNonce: &nextInternal,
	}, nil
}
