package domain

import (
	"encoding/binary"

	"github.com/holiman/uint256"

	dErrors "ghostpost/pkg/domain-errors"
)

// maxUint128Digits is len("340282366920938463463374607431768211455").
const maxUint128Digits = 39

// Uint128 is an unsigned 128-bit integer. The zero value is 0.
//
// It is comparable, so it can be used as a map key and compared with ==.
// At interchange boundaries it is always rendered as a decimal string because
// JSON numbers cannot carry 128 bits without precision loss.
type Uint128 struct {
	v uint256.Int
}

// MaxUint128 is 2^128 - 1.
var MaxUint128 = NewUint128(^uint64(0), ^uint64(0))

// NewUint128 builds a value from its high and low 64-bit halves.
func NewUint128(hi, lo uint64) Uint128 {
	var u Uint128
	u.v[0] = lo
	u.v[1] = hi
	return u
}

// Uint128From64 widens a uint64.
func Uint128From64(x uint64) Uint128 {
	return NewUint128(0, x)
}

// ParseUint128 parses a canonical decimal string: digits only, no sign, no
// whitespace, at most 2^128-1.
func ParseUint128(s string) (Uint128, error) {
	if s == "" {
		return Uint128{}, dErrors.New(dErrors.CodeInvalidInput, "empty 128-bit integer")
	}
	if len(s) > maxUint128Digits {
		return Uint128{}, dErrors.New(dErrors.CodeInvalidInput, "128-bit integer out of range")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return Uint128{}, dErrors.New(dErrors.CodeInvalidInput, "128-bit integer must be a decimal string")
		}
	}
	parsed, err := uint256.FromDecimal(s)
	if err != nil {
		return Uint128{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid 128-bit integer")
	}
	if parsed.BitLen() > 128 {
		return Uint128{}, dErrors.New(dErrors.CodeInvalidInput, "128-bit integer out of range")
	}
	return Uint128{v: *parsed}, nil
}

// Hi returns the upper 64 bits.
func (u Uint128) Hi() uint64 { return u.v[1] }

// Lo returns the lower 64 bits.
func (u Uint128) Lo() uint64 { return u.v[0] }

func (u Uint128) IsZero() bool { return u.v.IsZero() }

// InRange reports whether the value fits in 128 bits. Values built through this
// package always do; the check guards values decoded from foreign sources.
func (u Uint128) InRange() bool { return u.v[2] == 0 && u.v[3] == 0 }

// String renders the canonical decimal form.
func (u Uint128) String() string { return u.v.Dec() }

// LittleEndian returns the fixed-width 16-byte little-endian encoding.
func (u Uint128) LittleEndian() [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], u.v[0])
	binary.LittleEndian.PutUint64(b[8:16], u.v[1])
	return b
}

// Uint128FromLittleEndian is the inverse of LittleEndian.
func Uint128FromLittleEndian(b [16]byte) Uint128 {
	return NewUint128(binary.LittleEndian.Uint64(b[8:16]), binary.LittleEndian.Uint64(b[0:8]))
}

// MarshalText renders the decimal form, so JSON carries a quoted string.
func (u Uint128) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText parses the decimal form.
func (u *Uint128) UnmarshalText(text []byte) error {
	parsed, err := ParseUint128(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Ticket is an opaque continuation token granting one usage right.
type Ticket struct{ Uint128 }

// Nonce is a single-use or context-scoped random value.
type Nonce struct{ Uint128 }

func TicketFrom(u Uint128) Ticket { return Ticket{u} }
func NonceFrom(u Uint128) Nonce   { return Nonce{u} }

func TicketFrom64(x uint64) Ticket { return Ticket{Uint128From64(x)} }
func NonceFrom64(x uint64) Nonce   { return Nonce{Uint128From64(x)} }

// ParseTicket parses a decimal ticket.
func ParseTicket(s string) (Ticket, error) {
	u, err := ParseUint128(s)
	if err != nil {
		return Ticket{}, err
	}
	return Ticket{u}, nil
}

// ParseNonce parses a decimal nonce.
func ParseNonce(s string) (Nonce, error) {
	u, err := ParseUint128(s)
	if err != nil {
		return Nonce{}, err
	}
	return Nonce{u}, nil
}

// ParseTickets parses a list of decimal tickets, failing on the first bad entry.
func ParseTickets(values []string) ([]Ticket, error) {
	out := make([]Ticket, 0, len(values))
	for _, s := range values {
		t, err := ParseTicket(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// FormatTickets renders tickets as decimal strings, preserving order.
func FormatTickets(tickets []Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.String()
	}
	return out
}
