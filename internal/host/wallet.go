package host

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ghostpost/internal/continuation"
	"ghostpost/internal/continuation/authorization"
	"ghostpost/pkg/domain"
)

// DefaultWalletPath is where the CLI keeps the wallet unless told otherwise.
const DefaultWalletPath = "./wallet.json"

var (
	ErrNotEnrolled    = errors.New("wallet has no server attestation")
	ErrNoPendingState = errors.New("wallet has no pending continuation")
	ErrWalletMismatch = errors.New("proof request does not match the wallet")
)

// Snapshot is one committed identity state together with the nonce that
// opens its commitment.
type Snapshot struct {
	IsBanned      bool            `json:"is_banned"`
	Tickets       []domain.Ticket `json:"tickets"`
	InternalNonce domain.Nonce    `json:"internal_nonce"`
	OpeningNonce  domain.Nonce    `json:"opening_nonce"`
	Commitment    string          `json:"commitment"`
}

// State returns the identity state the snapshot commits to.
func (s Snapshot) State() continuation.IdentityState {
	return continuation.IdentityState{
		IsBanned:      s.IsBanned,
		Tickets:       append([]domain.Ticket{}, s.Tickets...),
		InternalNonce: s.InternalNonce,
	}
}

func snapshotOf(state continuation.IdentityState, opening domain.Nonce, c continuation.Commitment) Snapshot {
	return Snapshot{
		IsBanned:      state.IsBanned,
		Tickets:       append([]domain.Ticket{}, state.Tickets...),
		InternalNonce: state.InternalNonce,
		OpeningNonce:  opening,
		Commitment:    c.String(),
	}
}

// Wallet is the client's private record. The current snapshot is attested by
// the server; Pending is a proved continuation awaiting its attestation.
type Wallet struct {
	Snapshot
	Signature string    `json:"signature,omitempty"`
	ServerKey string    `json:"server_key,omitempty"`
	Pending   *Snapshot `json:"pending,omitempty"`
}

// Attestation is a server signature over a commitment.
type Attestation struct {
	Commitment continuation.Commitment
	Signature  []byte
	PublicKey  []byte
}

// Attested decodes the current commitment and its server attestation.
func (w *Wallet) Attested() (Attestation, error) {
	if w.Signature == "" || w.ServerKey == "" {
		return Attestation{}, ErrNotEnrolled
	}
	c, err := continuation.ParseCommitment(w.Commitment)
	if err != nil {
		return Attestation{}, fmt.Errorf("wallet commitment: %w", err)
	}
	sig, err := hex.DecodeString(w.Signature)
	if err != nil {
		return Attestation{}, fmt.Errorf("wallet signature: %w", err)
	}
	key, err := hex.DecodeString(w.ServerKey)
	if err != nil {
		return Attestation{}, fmt.Errorf("wallet server key: %w", err)
	}
	return Attestation{Commitment: c, Signature: sig, PublicKey: key}, nil
}

// Attest records the server's signature over the current commitment after
// checking it.
func (w *Wallet) Attest(att Attestation) error {
	if att.Commitment.String() != w.Commitment {
		return fmt.Errorf("attestation is for %s, wallet holds %s", att.Commitment, w.Commitment)
	}
	if err := authorization.Verify(att.Commitment, att.Signature, att.PublicKey); err != nil {
		return fmt.Errorf("server attestation: %w", err)
	}
	w.Signature = hex.EncodeToString(att.Signature)
	w.ServerKey = hex.EncodeToString(att.PublicKey)
	return nil
}

// Stage keeps a proved continuation until the server attests it.
func (w *Wallet) Stage(outcome continuation.Outcome, opening domain.Nonce) {
	pending := snapshotOf(outcome.State, opening, outcome.Journal.NewCommitment)
	w.Pending = &pending
}

// LoadWallet reads a wallet file.
func LoadWallet(path string) (*Wallet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var w Wallet
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode wallet %s: %w", path, err)
	}
	return &w, nil
}

// SaveWallet writes the wallet through a temporary file so a crash never
// leaves a truncated wallet behind.
func SaveWallet(path string, w *Wallet) error {
	raw, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("encode wallet: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".wallet-*.json")
	if err != nil {
		return fmt.Errorf("create wallet file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace wallet: %w", err)
	}
	return nil
}
