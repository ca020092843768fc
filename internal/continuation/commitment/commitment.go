// Package commitment implements the hash commitment over an identity state:
//
//	commit(state, nonce) = SHA-256(encode(state) || le128(nonce))
package commitment

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"ghostpost/internal/continuation"
	"ghostpost/pkg/domain"
)

const (
	boolSize   = 1
	lengthSize = 8
	u128Size   = 16
)

var errOutOfRange = errors.New("value exceeds 128 bits")

// EncodeState serializes s with a fixed layout:
//
//	is_banned      1 byte (0 or 1)
//	len(tickets)   u64 little-endian
//	tickets[i]     16 bytes little-endian each, in order
//	internal_nonce 16 bytes little-endian
func EncodeState(s continuation.IdentityState) ([]byte, error) {
	buf := make([]byte, 0, boolSize+lengthSize+u128Size*(len(s.Tickets)+1))
	if s.IsBanned {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(s.Tickets)))
	for i, t := range s.Tickets {
		if !t.InRange() {
			return nil, continuation.NewError(continuation.KindEncoding,
				fmt.Errorf("ticket %d: %w", i, errOutOfRange))
		}
		le := t.LittleEndian()
		buf = append(buf, le[:]...)
	}
	if !s.InternalNonce.InRange() {
		return nil, continuation.NewError(continuation.KindEncoding,
			fmt.Errorf("internal nonce: %w", errOutOfRange))
	}
	le := s.InternalNonce.LittleEndian()
	return append(buf, le[:]...), nil
}

// Commit binds s and nonce into a digest. It is pure: equal inputs always
// produce equal digests.
func Commit(s continuation.IdentityState, nonce domain.Nonce) (continuation.Commitment, error) {
	encoded, err := EncodeState(s)
	if err != nil {
		return continuation.Commitment{}, err
	}
	if !nonce.InRange() {
		return continuation.Commitment{}, continuation.NewError(continuation.KindEncoding,
			fmt.Errorf("commitment nonce: %w", errOutOfRange))
	}
	h := sha256.New()
	h.Write(encoded)
	le := nonce.LittleEndian()
	h.Write(le[:])

	var c continuation.Commitment
	copy(c[:], h.Sum(nil))
	return c, nil
}
