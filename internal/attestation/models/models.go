package models

import (
	"time"

	"ghostpost/internal/continuation"
	"ghostpost/pkg/domain"
)

// Enrollment is the first commitment a forum user registers. Each user
// enrolls once; afterwards the identity continues anonymously.
type Enrollment struct {
	UserID     domain.UserID
	Commitment continuation.Commitment
	CreatedAt  time.Time
}

// Record is one accepted continuation. ReplayNonce and NewTicket are the
// values the journal made public.
type Record struct {
	Commitment  continuation.Commitment
	ReplayNonce domain.Nonce
	NewTicket   domain.Ticket
	CreatedAt   time.Time
}

// Attestation is the server's signature over a commitment.
type Attestation struct {
	Commitment continuation.Commitment
	Signature  []byte
	PublicKey  []byte
}

// Accepted is the result of a successful proof submission.
type Accepted struct {
	Record      Record
	Attestation Attestation
}
