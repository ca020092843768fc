// Package prover adapts the continuation executor to a proving engine.
//
// Engine is the seam a real zero-knowledge backend plugs into. DevEngine is
// the development engine: it executes the transition natively and seals the
// journal to the program identity with a digest. A dev receipt shows which
// program produced a journal but carries no soundness: anyone can mint one.
// Deployments that need soundness must supply a real Engine.
package prover

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"ghostpost/internal/continuation"
	"ghostpost/internal/continuation/executor"
	"ghostpost/pkg/domain"
)

// JournalSize is the binary journal length: commitment, replay nonce, ticket.
const JournalSize = continuation.CommitmentSize + 16 + 16

const devSealDomain = "ghostpost/dev-seal"

var (
	ErrProgramMismatch  = errors.New("receipt was produced by a different program")
	ErrInvalidSeal      = errors.New("receipt seal does not match its journal")
	ErrMalformedJournal = errors.New("malformed journal")
)

// ProgramID identifies the transition logic a receipt attests to.
type ProgramID [32]byte

// DefaultProgramID is the identity of executor.ExecuteTransition.
var DefaultProgramID = ProgramIDFor(executor.ProgramTag)

// ProgramIDFor derives a program identity from a program tag.
func ProgramIDFor(tag string) ProgramID {
	return ProgramID(sha256.Sum256([]byte(tag)))
}

func (p ProgramID) String() string {
	return hex.EncodeToString(p[:])
}

// ParseProgramID parses the hex form.
func ParseProgramID(s string) (ProgramID, error) {
	var p ProgramID
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != len(p) {
		return p, fmt.Errorf("invalid program id %q", s)
	}
	copy(p[:], raw)
	return p, nil
}

// Receipt is the artifact handed to relying parties.
type Receipt struct {
	ProgramID string `json:"program_id"`
	Journal   []byte `json:"journal"`
	Seal      []byte `json:"seal"`
}

// Engine proves transitions and verifies receipts.
type Engine interface {
	Prove(ctx context.Context, in continuation.PrivateInput) (*Receipt, continuation.Outcome, error)
	Verify(r *Receipt, expected ProgramID) (continuation.Journal, error)
}

// DevEngine is an Engine without cryptographic soundness.
type DevEngine struct {
	program ProgramID
	logger  *slog.Logger
}

type Option func(*DevEngine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *DevEngine) {
		e.logger = logger
	}
}

// WithProgramID overrides the program identity stamped on receipts.
func WithProgramID(p ProgramID) Option {
	return func(e *DevEngine) {
		e.program = p
	}
}

func NewDevEngine(opts ...Option) *DevEngine {
	e := &DevEngine{program: DefaultProgramID, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProgramID returns the identity stamped on receipts from this engine.
func (e *DevEngine) ProgramID() ProgramID {
	return e.program
}

// Prove executes the transition and seals its journal. A rejected transition
// yields no receipt.
func (e *DevEngine) Prove(ctx context.Context, in continuation.PrivateInput) (*Receipt, continuation.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, continuation.Outcome{}, err
	}
	outcome, err := executor.ExecuteTransition(in)
	if err != nil {
		e.logger.WarnContext(ctx, "transition rejected", "error", err)
		return nil, continuation.Outcome{}, err
	}
	journal := EncodeJournal(outcome.Journal)
	receipt := &Receipt{
		ProgramID: e.program.String(),
		Journal:   journal,
		Seal:      devSeal(e.program, journal),
	}
	e.logger.DebugContext(ctx, "transition proved", "program_id", receipt.ProgramID)
	return receipt, outcome, nil
}

// Verify checks the receipt against the expected program and returns its
// journal.
func (e *DevEngine) Verify(r *Receipt, expected ProgramID) (continuation.Journal, error) {
	if r == nil {
		return continuation.Journal{}, ErrMalformedJournal
	}
	got, err := ParseProgramID(r.ProgramID)
	if err != nil || got != expected {
		return continuation.Journal{}, ErrProgramMismatch
	}
	want := devSeal(expected, r.Journal)
	if subtle.ConstantTimeCompare(r.Seal, want) != 1 {
		return continuation.Journal{}, ErrInvalidSeal
	}
	return DecodeJournal(r.Journal)
}

func devSeal(program ProgramID, journal []byte) []byte {
	h := sha256.New()
	h.Write([]byte(devSealDomain))
	h.Write(program[:])
	h.Write(journal)
	return h.Sum(nil)
}

// EncodeJournal renders the fixed binary journal layout:
// commitment (32) || le128(replay nonce) || le128(new ticket).
func EncodeJournal(j continuation.Journal) []byte {
	out := make([]byte, 0, JournalSize)
	out = append(out, j.NewCommitment[:]...)
	nonce := j.ReplayNonce.LittleEndian()
	out = append(out, nonce[:]...)
	ticket := j.NewTicket.LittleEndian()
	return append(out, ticket[:]...)
}

// DecodeJournal is the inverse of EncodeJournal.
func DecodeJournal(b []byte) (continuation.Journal, error) {
	if len(b) != JournalSize {
		return continuation.Journal{}, fmt.Errorf("%w: %d bytes", ErrMalformedJournal, len(b))
	}
	var j continuation.Journal
	copy(j.NewCommitment[:], b[:continuation.CommitmentSize])
	j.ReplayNonce = domain.NonceFrom(readU128(b[continuation.CommitmentSize:]))
	j.NewTicket = domain.TicketFrom(readU128(b[continuation.CommitmentSize+16:]))
	return j, nil
}

func readU128(b []byte) domain.Uint128 {
	var le [16]byte
	copy(le[:], b)
	return domain.Uint128FromLittleEndian(le)
}

// EncodeReceipt serializes r as JSON.
func EncodeReceipt(w io.Writer, r *Receipt) error {
	if err := json.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}
	return nil
}

// DecodeReceipt parses a receipt written by EncodeReceipt.
func DecodeReceipt(rd io.Reader) (*Receipt, error) {
	var r Receipt
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}
	return &r, nil
}
