// Package common defines shared constants and sentinel errors used across
// the layers of the LuFunds server. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken         = errors.New("invalid token")
	ErrorInvalidCredentials = errors.New("invalid credentials")

	// Second-factor errors.
	ErrorCodeExpired  = errors.New("email code expired")
	ErrorCodeMismatch = errors.New("code mismatch")

	// Balance-specific errors.
	ErrorInvalidAmount     = errors.New("invalid amount")
	ErrorInsufficientFunds = errors.New("insufficient funds")
	ErrorMissingRecipient  = errors.New("missing recipient")
	ErrorRecipientNotFound = errors.New("recipient not found")
	ErrorSameAccount       = errors.New("cannot transfer to own account")
)
