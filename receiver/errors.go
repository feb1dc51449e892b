package receiver

import "errors"

var (
	ErrNoSigningKey       = errors.New("receiver: at least one signing key is required")
	ErrMissingSignature   = errors.New("receiver: missing signature")
	ErrMalformedToken     = errors.New("receiver: malformed token")
	ErrInvalidAlgorithm   = errors.New("receiver: invalid signing algorithm")
	ErrInvalidSignature   = errors.New("receiver: invalid signature")
	ErrInvalidIssuer      = errors.New("receiver: invalid issuer")
	ErrTokenNotYetValid   = errors.New("receiver: token is not yet valid")
	ErrTokenExpired       = errors.New("receiver: token has expired")
	ErrInvalidDestination = errors.New("receiver: token was issued for a different url")
	ErrBodyMismatch       = errors.New("receiver: body hash does not match")
	ErrReplayedToken      = errors.New("receiver: token has already been used")
)

// SignatureError is returned when a delivery fails verification. It
// matches exactly one of the sentinel errors above through errors.Is.
type SignatureError struct {
	kind  error
	cause error
}

func newSignatureError(kind, cause error) *SignatureError {
	return &SignatureError{kind: kind, cause: cause}
}

func (e *SignatureError) Error() string {
	if e.cause != nil {
		return e.kind.Error() + ": " + e.cause.Error()
	}
	return e.kind.Error()
}

// Kind returns the sentinel error describing the failed check.
func (e *SignatureError) Kind() error {
	return e.kind
}

func (e *SignatureError) Is(target error) bool {
	return target == e.kind
}

func (e *SignatureError) Unwrap() error {
	return e.cause
}
