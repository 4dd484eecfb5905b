// Package session manages the single current session: a time-bounded proof
// of prior successful authentication, stored in its own slot of the
// key-value collaborator. Expiry is enforced lazily on validation; nothing
// runs in the background.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wisespend/authcore/internal/common"
	"github.com/wisespend/authcore/internal/kvstore"
	"github.com/wisespend/authcore/internal/logging"
	"github.com/wisespend/authcore/internal/users"
)

// slotKey is the single current-session slot in the key-value store.
const slotKey = "session:current"

const (
	// DefaultTimeout is the session validity window.
	DefaultTimeout = 30 * time.Minute

	// DefaultRenewalInterval caps how often activity-driven renewal
	// actually writes the session back.
	DefaultRenewalInterval = 5 * time.Minute
)

// Session is the stored record. Renewal resets ExpiresAt and RenewedAt,
// never LoginTime. The token is an HMAC-signed copy of the session's
// identity and expiry; a record whose token no longer verifies is treated
// as corrupt.
type Session struct {
	Username  string    `json:"username"`
	LoginTime time.Time `json:"login_time"`
	ExpiresAt time.Time `json:"expires_at"`
	RenewedAt time.Time `json:"renewed_at"`
	Token     string    `json:"token"`
}

// Manager owns the session lifecycle: NoSession → Active → (renewals) →
// expired/logged-out, with terminal states collapsing back to NoSession.
type Manager struct {
	store         kvstore.Store
	users         users.Repository
	logger        logging.Logger
	secretKey     []byte
	timeout       time.Duration
	renewInterval time.Duration
}

func NewManager(store kvstore.Store, repo users.Repository, logger logging.Logger, secretKey []byte, timeout, renewInterval time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if renewInterval <= 0 {
		renewInterval = DefaultRenewalInterval
	}
	return &Manager{
		store:         store,
		users:         repo,
		logger:        logger,
		secretKey:     secretKey,
		timeout:       timeout,
		renewInterval: renewInterval,
	}
}

// Create issues a new session for username at now. The referenced user must
// exist. Any previous session in the slot is replaced.
func (m *Manager) Create(ctx context.Context, username string, now time.Time) (*Session, error) {
	if _, err := m.users.Get(ctx, username); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("creating session: %w", common.ErrNotFound)
		}
		return nil, err
	}

	expiresAt := now.Add(m.timeout)
	token, err := signToken(username, m.secretKey, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("signing session token: %w", err)
	}

	s := &Session{
		Username:  username,
		LoginTime: now,
		ExpiresAt: expiresAt,
		RenewedAt: now,
		Token:     token,
	}
	if err := m.save(ctx, s); err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "session created", "username", username, "expires_at", expiresAt)
	return s, nil
}

// Renew extends the active session to now + timeout. Returns
// common.ErrNoSession when no session is active at now.
func (m *Manager) Renew(ctx context.Context, now time.Time) error {
	s, ok, err := m.active(ctx, now)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrNoSession
	}

	expiresAt := now.Add(m.timeout)
	token, err := signToken(s.Username, m.secretKey, s.LoginTime, expiresAt)
	if err != nil {
		return fmt.Errorf("signing session token: %w", err)
	}

	s.ExpiresAt = expiresAt
	s.RenewedAt = now
	s.Token = token
	if err := m.save(ctx, s); err != nil {
		return err
	}

	m.logger.Debug(ctx, "session renewed", "username", s.Username, "expires_at", expiresAt)
	return nil
}

// Touch renews the session in response to observed user activity, but only
// if at least the renewal interval has passed since the last renewal. More
// frequent calls are no-ops to avoid excessive writes.
func (m *Manager) Touch(ctx context.Context, now time.Time) error {
	s, ok, err := m.active(ctx, now)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrNoSession
	}
	if now.Sub(s.RenewedAt) < m.renewInterval {
		return nil
	}
	return m.Renew(ctx, now)
}

// Validate reports whether an active session exists at now. A missing,
// corrupt, expired, or orphaned session (user record gone) is purged as a
// side effect and reported as false.
func (m *Manager) Validate(ctx context.Context, now time.Time) (bool, error) {
	_, ok, err := m.active(ctx, now)
	return ok, err
}

// Current returns the active session, or common.ErrNoSession.
func (m *Manager) Current(ctx context.Context, now time.Time) (*Session, error) {
	s, ok, err := m.active(ctx, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrNoSession
	}
	return s, nil
}

// Destroy removes any stored session. It is idempotent.
func (m *Manager) Destroy(ctx context.Context) error {
	if err := m.store.Delete(ctx, slotKey); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}

// active loads the slot and applies the validity rules, purging anything
// that fails them.
func (m *Manager) active(ctx context.Context, now time.Time) (*Session, bool, error) {
	raw, err := m.store.Get(ctx, slotKey)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	s := &Session{}
	if err := json.Unmarshal(raw, s); err != nil {
		m.logger.Warn(ctx, "purging unparseable session record", "error", err.Error())
		return nil, false, m.Destroy(ctx)
	}

	if !now.Before(s.ExpiresAt) {
		m.logger.Info(ctx, "session expired", "username", s.Username, "expired_at", s.ExpiresAt)
		return nil, false, m.Destroy(ctx)
	}

	tokenUser, err := parseToken(s.Token, m.secretKey, now)
	if err != nil || tokenUser != s.Username {
		m.logger.Warn(ctx, "purging session with invalid token", "username", s.Username)
		return nil, false, m.Destroy(ctx)
	}

	// A session never outlives its user record.
	if _, err := m.users.Get(ctx, s.Username); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			m.logger.Warn(ctx, "purging session for missing user", "username", s.Username)
			return nil, false, m.Destroy(ctx)
		}
		return nil, false, err
	}

	return s, true, nil
}

func (m *Manager) save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := m.store.Set(ctx, slotKey, raw); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return nil
}
