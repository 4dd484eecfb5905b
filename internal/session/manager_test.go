package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisespend/authcore/internal/common"
	"github.com/wisespend/authcore/internal/kvstore"
	"github.com/wisespend/authcore/internal/logging"
	"github.com/wisespend/authcore/internal/users"
)

var testSecret = []byte("test-secret-key")

func newTestManager(t *testing.T) (*Manager, kvstore.Store, users.Repository) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	repo := users.NewKVRepository(store)
	m := NewManager(store, repo, logging.Nop(), testSecret, DefaultTimeout, DefaultRenewalInterval)
	return m, store, repo
}

func addUser(t *testing.T, repo users.Repository, username string) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), &users.Record{Username: username}))
}

func TestManager_CreateAndValidate(t *testing.T) {
	m, _, repo := newTestManager(t)
	ctx := context.Background()
	addUser(t, repo, "alice")
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	s, err := m.Create(ctx, "alice", now)
	require.NoError(t, err)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, now, s.LoginTime)
	assert.Equal(t, now.Add(DefaultTimeout), s.ExpiresAt)

	ok, err := m.Validate(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManager_CreateUnknownUser(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Create(context.Background(), "nobody", time.Now())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestManager_ValidateWithoutSession(t *testing.T) {
	m, _, _ := newTestManager(t)

	ok, err := m.Validate(context.Background(), time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_ExpiryPurgesSession(t *testing.T) {
	m, store, repo := newTestManager(t)
	ctx := context.Background()
	addUser(t, repo, "alice")
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := m.Create(ctx, "alice", now)
	require.NoError(t, err)

	// Exactly at the expiry boundary the session is already invalid.
	ok, err := m.Validate(ctx, now.Add(DefaultTimeout))
	require.NoError(t, err)
	assert.False(t, ok)

	// The stored record was removed, not merely reported invalid.
	_, err = store.Get(ctx, slotKey)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestManager_ValidJustBeforeExpiry(t *testing.T) {
	m, _, repo := newTestManager(t)
	ctx := context.Background()
	addUser(t, repo, "alice")
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := m.Create(ctx, "alice", now)
	require.NoError(t, err)

	ok, err := m.Validate(ctx, now.Add(DefaultTimeout-time.Second))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManager_RenewExtendsExpiryNotLoginTime(t *testing.T) {
	m, _, repo := newTestManager(t)
	ctx := context.Background()
	addUser(t, repo, "alice")
	loginAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := m.Create(ctx, "alice", loginAt)
	require.NoError(t, err)

	renewAt := loginAt.Add(20 * time.Minute)
	require.NoError(t, m.Renew(ctx, renewAt))

	s, err := m.Current(ctx, renewAt)
	require.NoError(t, err)
	assert.Equal(t, loginAt, s.LoginTime)
	assert.Equal(t, renewAt.Add(DefaultTimeout), s.ExpiresAt)
	assert.Equal(t, renewAt, s.RenewedAt)

	// Still valid past the original window.
	ok, err := m.Validate(ctx, loginAt.Add(DefaultTimeout+time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManager_RenewWithoutSession(t *testing.T) {
	m, _, _ := newTestManager(t)

	err := m.Renew(context.Background(), time.Now())
	assert.ErrorIs(t, err, common.ErrNoSession)
}

func TestManager_TouchHonorsRenewalInterval(t *testing.T) {
	m, _, repo := newTestManager(t)
	ctx := context.Background()
	addUser(t, repo, "alice")
	loginAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := m.Create(ctx, "alice", loginAt)
	require.NoError(t, err)

	// Within the interval nothing is written.
	soon := loginAt.Add(2 * time.Minute)
	require.NoError(t, m.Touch(ctx, soon))
	s, err := m.Current(ctx, soon)
	require.NoError(t, err)
	assert.Equal(t, loginAt.Add(DefaultTimeout), s.ExpiresAt)
	assert.Equal(t, loginAt, s.RenewedAt)

	// Past the interval the session is renewed.
	later := loginAt.Add(DefaultRenewalInterval)
	require.NoError(t, m.Touch(ctx, later))
	s, err = m.Current(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, later.Add(DefaultTimeout), s.ExpiresAt)
	assert.Equal(t, later, s.RenewedAt)
}

func TestManager_DestroyIsIdempotent(t *testing.T) {
	m, _, repo := newTestManager(t)
	ctx := context.Background()
	addUser(t, repo, "alice")
	now := time.Now()

	_, err := m.Create(ctx, "alice", now)
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx))
	require.NoError(t, m.Destroy(ctx))

	ok, err := m.Validate(ctx, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_PurgesCorruptSlot(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, slotKey, []byte("{garbage")))

	ok, err := m.Validate(ctx, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(ctx, slotKey)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestManager_PurgesTamperedToken(t *testing.T) {
	m, store, repo := newTestManager(t)
	ctx := context.Background()
	addUser(t, repo, "alice")
	addUser(t, repo, "mallory")
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	s, err := m.Create(ctx, "alice", now)
	require.NoError(t, err)

	// Rewriting the username without re-signing invalidates the record.
	s.Username = "mallory"
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, slotKey, raw))

	ok, err := m.Validate(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_PurgesOrphanedSession(t *testing.T) {
	store := kvstore.NewMemoryStore()
	repo := users.NewKVRepository(store)
	m := NewManager(store, repo, logging.Nop(), testSecret, DefaultTimeout, DefaultRenewalInterval)
	ctx := context.Background()
	addUser(t, repo, "alice")
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := m.Create(ctx, "alice", now)
	require.NoError(t, err)

	// Removing the user record orphans the session.
	require.NoError(t, store.Delete(ctx, "user:alice"))

	ok, err := m.Validate(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(ctx, slotKey)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestManager_CurrentWithoutSession(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Current(context.Background(), time.Now())
	assert.ErrorIs(t, err, common.ErrNoSession)
}
