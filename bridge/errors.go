package bridge

import "errors"

// Errors surfaced to callers. Their messages are stable codes that tooling
// may match on; inside Go use errors.Is.
var (
	ErrInvalidSignature = errors.New("InvalidSignature")
	ErrAlreadyRedeemed  = errors.New("AlreadyRedeemed")
	ErrUnauthorized     = errors.New("Unauthorized")
	ErrZeroAmount       = errors.New("ZeroAmount")
)

var codedErrors = []error{
	ErrInvalidSignature,
	ErrAlreadyRedeemed,
	ErrUnauthorized,
	ErrZeroAmount,
}

// ErrorCode returns the stable code of a bridge error, or an empty string for
// any other error, including ledger errors.
func ErrorCode(err error) string {
	for _, e := range codedErrors {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return ""
}
