// Package common defines shared sentinel errors used across the
// authentication core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Registration errors.
	ErrValidation = errors.New("validation failed")
	ErrUserExists = errors.New("user already exists")

	// Login errors. ErrInvalidCredentials is deliberately uninformative:
	// it covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")

	// Infrastructure errors (transient, retryable).
	ErrDerivationFailed   = errors.New("key derivation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Session errors.
	ErrSessionInvalid = errors.New("session invalid")
	ErrNoSession      = errors.New("no active session")

	// Random source errors.
	ErrInsecureRandom = errors.New("secure random source unavailable")
)
