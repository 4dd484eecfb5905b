package auth

import (
	"time"

	"github.com/wisespend/authcore/internal/common"
)

// Error is the single structured failure value the facade exposes. Kind is
// one of the common sentinel errors, so errors.Is works through it; the
// remaining fields carry enough detail to drive user-facing messaging
// without revealing whether a username exists.
type Error struct {
	Kind              error
	Message           string
	FailedRules       []string
	RemainingAttempts int
	RemainingLockout  time.Duration
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// RemainingLockoutMinutes reports the lockout remainder rounded up to whole
// minutes, the unit shown to users.
func (e *Error) RemainingLockoutMinutes() int {
	if e.RemainingLockout <= 0 {
		return 0
	}
	minutes := int(e.RemainingLockout / time.Minute)
	if e.RemainingLockout%time.Minute != 0 {
		minutes++
	}
	return minutes
}

func validationError(msg string, failed []string) *Error {
	return &Error{Kind: common.ErrValidation, Message: msg, FailedRules: failed}
}

func invalidCredentialsError(remainingAttempts int) *Error {
	return &Error{
		Kind:              common.ErrInvalidCredentials,
		Message:           "invalid username or password",
		RemainingAttempts: remainingAttempts,
	}
}

func accountLockedError(remaining time.Duration) *Error {
	return &Error{
		Kind:             common.ErrAccountLocked,
		Message:          "account temporarily locked",
		RemainingLockout: remaining,
	}
}
