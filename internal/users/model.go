// Package users owns the user credential records and their persistence
// through the key-value store collaborator. The plaintext password never
// reaches this package.
package users

import (
	"encoding/json"
	"time"

	"github.com/wisespend/authcore/internal/kdf"
)

// Record is one registered identity. PasswordHash and Salt are lowercase
// hex; Salt is generated once at registration and never rotated. Settings is
// an opaque blob owned by the presentation layer.
type Record struct {
	ID            string          `json:"id"`
	Username      string          `json:"username"`
	PasswordHash  string          `json:"password_hash"`
	Salt          string          `json:"salt"`
	Algorithm     kdf.Algorithm   `json:"algorithm"`
	Iterations    int             `json:"iterations"`
	CreatedAt     time.Time       `json:"created_at"`
	LastLogin     *time.Time      `json:"last_login,omitempty"`
	LoginAttempts int             `json:"login_attempts"`
	LockoutUntil  *time.Time      `json:"lockout_until,omitempty"`
	Settings      json.RawMessage `json:"settings,omitempty"`
}
