package credential

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredential indicates the presented code does not exist.
	ErrInvalidCredential = errors.New("invalid access code")

	// ErrDeactivated indicates an administrator disabled the code.
	ErrDeactivated = errors.New("access code has been deactivated")

	// ErrDeviceMismatch indicates the code is locked to another device.
	ErrDeviceMismatch = errors.New("access code is locked to another device")

	// ErrExpired indicates the code is past its expiry date. Errors of this
	// kind carry the stored expiry via ExpiredError.
	ErrExpired = errors.New("access code has expired")

	// ErrNotBound indicates a session presented a code that was never bound.
	ErrNotBound = errors.New("access code is not bound to a device")

	// ErrDuplicateCode indicates a generated code collided with an existing one.
	ErrDuplicateCode = errors.New("duplicate access code")

	// ErrDuplicateReference indicates the payment reference already maps to a
	// credential and therefore the operation should be treated as idempotent.
	ErrDuplicateReference = errors.New("duplicate payment reference")

	// ErrNotFound indicates the requested credential record does not exist.
	ErrNotFound = errors.New("credential not found")

	// ErrGenerationExhausted indicates repeated code collisions; a service
	// failure, not a user input error.
	ErrGenerationExhausted = errors.New("access code generation exhausted retries")
)

// ExpiredError reports an expired credential together with the stored expiry
// so callers can tell the user exactly when access lapsed.
type ExpiredError struct {
	ExpiresAt time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("access code expired on %s", e.ExpiresAt.UTC().Format(time.RFC3339))
}

// Unwrap makes errors.Is(err, ErrExpired) hold for ExpiredError values.
func (e *ExpiredError) Unwrap() error {
	return ErrExpired
}
