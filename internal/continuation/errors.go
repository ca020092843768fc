package continuation

import (
	"errors"
	"fmt"
)

// Kind classifies why a transition was rejected.
type Kind string

const (
	KindEncoding                    Kind = "encoding_error"
	KindCommitmentMismatch          Kind = "commitment_mismatch"
	KindInvalidKeyEncoding          Kind = "invalid_key_encoding"
	KindInvalidSignatureEncoding    Kind = "invalid_signature_encoding"
	KindSignatureVerificationFailed Kind = "signature_verification_failed"
	KindInvalidServerAuthorization  Kind = "invalid_server_authorization"
	KindBannedIdentity              Kind = "banned_identity"
	KindInvalidNumericInput         Kind = "invalid_numeric_input"
)

// Error is a typed protocol failure. Err, when set, is the underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrEncoding                    = &Error{Kind: KindEncoding}
	ErrCommitmentMismatch          = &Error{Kind: KindCommitmentMismatch}
	ErrInvalidKeyEncoding          = &Error{Kind: KindInvalidKeyEncoding}
	ErrInvalidSignatureEncoding    = &Error{Kind: KindInvalidSignatureEncoding}
	ErrSignatureVerificationFailed = &Error{Kind: KindSignatureVerificationFailed}
	ErrInvalidServerAuthorization  = &Error{Kind: KindInvalidServerAuthorization}
	ErrBannedIdentity              = &Error{Kind: KindBannedIdentity}
	ErrInvalidNumericInput         = &Error{Kind: KindInvalidNumericInput}
)

// NewError wraps cause (which may be nil) under kind.
func NewError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can test against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the outermost protocol kind in err's chain.
func KindOf(err error) (Kind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
