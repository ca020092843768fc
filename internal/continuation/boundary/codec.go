// Package boundary converts protocol values to and from the string-encoded JSON
// forms exchanged with clients, servers and relying parties. Every 128-bit
// value crosses the boundary as a decimal string.
package boundary

import (
	"encoding/json"
	"fmt"
	"io"

	"ghostpost/internal/continuation"
	"ghostpost/pkg/domain"
)

// ProofRequest is the bundle a client hands the prover host.
type ProofRequest struct {
	CallbackTickets []string `json:"callback_tickets"`
	ExistingTickets []string `json:"existing_tickets"`
	IsBanned        bool     `json:"is_banned"`
	OldNonce        string   `json:"old_nonce"`
}

// ParsedRequest is a ProofRequest with its numeric fields decoded.
type ParsedRequest struct {
	CallbackTickets []domain.Ticket
	ExistingTickets []domain.Ticket
	IsBanned        bool
	OldNonce        domain.Nonce
}

// Parse decodes every decimal field. Any malformed value fails the whole
// request with InvalidNumericInput; nothing is skipped.
func (r ProofRequest) Parse() (ParsedRequest, error) {
	callbacks, err := domain.ParseTickets(r.CallbackTickets)
	if err != nil {
		return ParsedRequest{}, numericError("callback_tickets", err)
	}
	existing, err := domain.ParseTickets(r.ExistingTickets)
	if err != nil {
		return ParsedRequest{}, numericError("existing_tickets", err)
	}
	oldNonce, err := domain.ParseNonce(r.OldNonce)
	if err != nil {
		return ParsedRequest{}, numericError("old_nonce", err)
	}
	return ParsedRequest{
		CallbackTickets: callbacks,
		ExistingTickets: existing,
		IsBanned:        r.IsBanned,
		OldNonce:        oldNonce,
	}, nil
}

// DecodeProofRequest reads and parses a JSON proof request.
func DecodeProofRequest(r io.Reader) (ParsedRequest, error) {
	var req ProofRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return ParsedRequest{}, fmt.Errorf("decode proof request: %w", err)
	}
	return req.Parse()
}

// TicketsOutput is the full ticket list the caller retains after a run.
type TicketsOutput struct {
	Tickets []string `json:"tickets"`
}

// EncodeTickets renders tickets in order.
func EncodeTickets(tickets []domain.Ticket) TicketsOutput {
	return TicketsOutput{Tickets: domain.FormatTickets(tickets)}
}

// JournalOutput is the journal as seen by parties without 128-bit integers.
// The commitment stays a JSON array of 32 byte values.
type JournalOutput struct {
	NewCommitment [continuation.CommitmentSize]byte `json:"new_commitment"`
	ReplayNonce   string                            `json:"replay_nonce"`
	NewTicket     string                            `json:"new_ticket"`
}

// EncodeJournal renders j for display.
func EncodeJournal(j continuation.Journal) JournalOutput {
	return JournalOutput{
		NewCommitment: j.NewCommitment,
		ReplayNonce:   j.ReplayNonce.String(),
		NewTicket:     j.NewTicket.String(),
	}
}

// DecodeJournal is the inverse of EncodeJournal.
func DecodeJournal(out JournalOutput) (continuation.Journal, error) {
	nonce, err := domain.ParseNonce(out.ReplayNonce)
	if err != nil {
		return continuation.Journal{}, numericError("replay_nonce", err)
	}
	ticket, err := domain.ParseTicket(out.NewTicket)
	if err != nil {
		return continuation.Journal{}, numericError("new_ticket", err)
	}
	return continuation.Journal{
		NewCommitment: continuation.Commitment(out.NewCommitment),
		ReplayNonce:   nonce,
		NewTicket:     ticket,
	}, nil
}

func numericError(field string, err error) error {
	return continuation.NewError(continuation.KindInvalidNumericInput, fmt.Errorf("%s: %w", field, err))
}
