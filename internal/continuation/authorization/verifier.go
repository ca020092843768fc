// Package authorization checks that the server attested a commitment. Keys are
// secp256k1 in SEC1 form; signatures are 64-byte compact r||s ECDSA over
// SHA-256 of the commitment bytes.
package authorization

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"ghostpost/internal/continuation"
)

// SignatureSize is the length of a compact r||s signature.
const SignatureSize = 64

var (
	errSignatureLength = fmt.Errorf("signature must be %d bytes", SignatureSize)
	errScalarRange     = errors.New("signature scalar is zero or not below the group order")
	errHighS           = errors.New("signature s is not in canonical low form")
	errKeyFormat       = errors.New("public key must be compressed or uncompressed SEC1")
)

// ParsePublicKey decodes a compressed or uncompressed SEC1 public key. Hybrid
// encodings (0x06, 0x07) are refused.
func ParsePublicKey(b []byte) (*secp256k1.PublicKey, error) {
	switch {
	case len(b) == secp256k1.PubKeyBytesLenCompressed && (b[0] == 0x02 || b[0] == 0x03):
	case len(b) == secp256k1.PubKeyBytesLenUncompressed && b[0] == 0x04:
	default:
		return nil, continuation.NewError(continuation.KindInvalidKeyEncoding, errKeyFormat)
	}
	pk, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, continuation.NewError(continuation.KindInvalidKeyEncoding, err)
	}
	return pk, nil
}

// ParseSignature decodes a compact r||s signature. Zero scalars, scalars not
// below the group order, and high-S signatures are rejected.
func ParseSignature(b []byte) (*ecdsa.Signature, error) {
	if len(b) != SignatureSize {
		return nil, continuation.NewError(continuation.KindInvalidSignatureEncoding, errSignatureLength)
	}
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(b[:32]); overflow || r.IsZero() {
		return nil, continuation.NewError(continuation.KindInvalidSignatureEncoding, errScalarRange)
	}
	if overflow := s.SetByteSlice(b[32:]); overflow || s.IsZero() {
		return nil, continuation.NewError(continuation.KindInvalidSignatureEncoding, errScalarRange)
	}
	if s.IsOverHalfOrder() {
		return nil, continuation.NewError(continuation.KindInvalidSignatureEncoding, errHighS)
	}
	return ecdsa.NewSignature(&r, &s), nil
}

// Verify reports whether signature is the key holder's signature over digest.
// Decoding failures and a failed verification are distinct kinds.
func Verify(digest continuation.Commitment, signature, publicKey []byte) error {
	pk, err := ParsePublicKey(publicKey)
	if err != nil {
		return err
	}
	sig, err := ParseSignature(signature)
	if err != nil {
		return err
	}
	hash := sha256.Sum256(digest[:])
	if !sig.Verify(hash[:], pk) {
		return continuation.NewError(continuation.KindSignatureVerificationFailed, nil)
	}
	return nil
}
