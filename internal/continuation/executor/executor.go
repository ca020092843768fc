// Package executor runs one identity-continuation transition.
//
// The transition moves from Unverified to exactly one of Verified (an Outcome
// carrying the Journal) or Rejected (a *continuation.Error). Nothing partial is
// ever returned on a failure path.
package executor

import (
	"ghostpost/internal/continuation"
	"ghostpost/internal/continuation/authorization"
	"ghostpost/internal/continuation/banlist"
	"ghostpost/internal/continuation/commitment"
)

// ProgramTag names this transition logic. Proving engines derive the program
// identity from it, so it changes whenever the transition semantics change.
const ProgramTag = "ghostpost/continuation/v1"

// ExecuteTransition checks that in.State opens the server-attested commitment,
// that the identity is not banned, and issues the continued commitment.
func ExecuteTransition(in continuation.PrivateInput) (continuation.Outcome, error) {
	prior, err := commitment.Commit(in.State, in.OldNonce)
	if err != nil {
		return continuation.Outcome{}, err
	}

	// Binding is checked before authorization: a valid signature over some
	// other digest must still surface as a mismatch.
	if prior != in.ClaimedCommitment {
		return continuation.Outcome{}, continuation.NewError(continuation.KindCommitmentMismatch, nil)
	}

	if err := authorization.Verify(prior, in.ServerSignature, in.ServerKey); err != nil {
		return continuation.Outcome{}, continuation.NewError(continuation.KindInvalidServerAuthorization, err)
	}

	updated := in.State.WithBan(banlist.Evaluate(in.State.Tickets, in.CallbackTickets))
	if updated.IsBanned {
		return continuation.Outcome{}, continuation.NewError(continuation.KindBannedIdentity, nil)
	}

	next := updated.Continue(in.NewTicket, in.NextInternalNonce)
	issued, err := commitment.Commit(next, in.NewNonce)
	if err != nil {
		return continuation.Outcome{}, err
	}

	return continuation.Outcome{
		Journal: continuation.Journal{
			NewCommitment: issued,
			ReplayNonce:   in.State.InternalNonce,
			NewTicket:     in.NewTicket,
		},
		State: next,
	}, nil
}
