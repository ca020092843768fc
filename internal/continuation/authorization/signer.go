package authorization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"ghostpost/internal/continuation"
)

// Signer is the authority side: the server attests commitments it accepts.
type Signer struct {
	key *secp256k1.PrivateKey
}

// NewSigner wraps an existing private key.
func NewSigner(key *secp256k1.PrivateKey) *Signer {
	return &Signer{key: key}
}

// GenerateSigner creates a signer with a fresh random key.
func GenerateSigner() (*Signer, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return &Signer{key: key}, nil
}

// SignerFromHex loads a 32-byte private scalar from hex.
func SignerFromHex(s string) (*Signer, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode signing key hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("signing key must be 32 bytes, got %d", len(raw))
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(raw); overflow || scalar.IsZero() {
		return nil, fmt.Errorf("signing key is not a valid secp256k1 scalar")
	}
	return &Signer{key: secp256k1.NewPrivateKey(&scalar)}, nil
}

// Sign produces a deterministic (RFC 6979) compact signature over digest.
func (s *Signer) Sign(digest continuation.Commitment) []byte {
	hash := sha256.Sum256(digest[:])
	// The compact form is recovery code || r || s; only r || s is kept.
	compact := ecdsa.SignCompact(s.key, hash[:], true)
	out := make([]byte, SignatureSize)
	copy(out, compact[1:])
	return out
}

// PublicKey returns the compressed SEC1 encoding of the verification key.
func (s *Signer) PublicKey() []byte {
	return s.key.PubKey().SerializeCompressed()
}

// PrivateKeyHex renders the private scalar for storage in configuration.
func (s *Signer) PrivateKeyHex() string {
	return hex.EncodeToString(s.key.Serialize())
}
