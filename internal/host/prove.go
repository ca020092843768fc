package host

import (
	"context"
	"fmt"

	"ghostpost/internal/continuation"
	"ghostpost/internal/continuation/boundary"
	"ghostpost/internal/prover"
)

// Proved is everything one local proving run produces.
type Proved struct {
	Receipt *prover.Receipt
	Outcome continuation.Outcome
	Tickets boundary.TicketsOutput
}

// Prove runs the transition under engine. Nothing is returned when the
// transition is rejected.
func Prove(ctx context.Context, engine prover.Engine, in continuation.PrivateInput) (*Proved, error) {
	receipt, outcome, err := engine.Prove(ctx, in)
	if err != nil {
		return nil, err
	}
	return &Proved{
		Receipt: receipt,
		Outcome: outcome,
		Tickets: boundary.EncodeTickets(outcome.State.Tickets),
	}, nil
}

// Finalize promotes the pending snapshot once the server has attested its
// commitment. The signature is checked before the wallet changes.
func Finalize(w *Wallet, att Attestation) error {
	if w.Pending == nil {
		return ErrNoPendingState
	}
	if att.Commitment.String() != w.Pending.Commitment {
		return fmt.Errorf("server attested %s, pending commitment is %s", att.Commitment, w.Pending.Commitment)
	}
	next := Wallet{Snapshot: *w.Pending}
	if err := next.Attest(att); err != nil {
		return err
	}
	*w = next
	return nil
}
