package models

import (
	"encoding/hex"
)

// ServerKeyResponse advertises what clients need to build and check inputs.
type ServerKeyResponse struct {
	PublicKey string `json:"public_key"`
	ProgramID string `json:"program_id"`
}

type EnrollRequest struct {
	Commitment string `json:"commitment"`
}

// AttestationResponse is returned by enrollment.
type AttestationResponse struct {
	Commitment string `json:"commitment"`
	Signature  string `json:"signature"`
	PublicKey  string `json:"public_key"`
}

func NewAttestationResponse(a Attestation) AttestationResponse {
	return AttestationResponse{
		Commitment: a.Commitment.String(),
		Signature:  hex.EncodeToString(a.Signature),
		PublicKey:  hex.EncodeToString(a.PublicKey),
	}
}

// SubmitResponse is returned by proof submission. Numeric fields are decimal
// strings.
type SubmitResponse struct {
	Message     string `json:"message"`
	NewTicket   string `json:"new_ticket"`
	Commitment  string `json:"commitment"`
	ReplayNonce string `json:"replay_nonce"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"public_key"`
}

func NewSubmitResponse(a *Accepted) SubmitResponse {
	return SubmitResponse{
		Message:     "Proof verified & stored.",
		NewTicket:   a.Record.NewTicket.String(),
		Commitment:  a.Record.Commitment.String(),
		ReplayNonce: a.Record.ReplayNonce.String(),
		Signature:   hex.EncodeToString(a.Attestation.Signature),
		PublicKey:   hex.EncodeToString(a.Attestation.PublicKey),
	}
}

// TicketStatusResponse answers whether a ticket was issued by an accepted proof.
type TicketStatusResponse struct {
	Ticket string `json:"ticket"`
	Issued bool   `json:"issued"`
}
