package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wisespend/authcore/internal/common"
	"github.com/wisespend/authcore/internal/config"
	"github.com/wisespend/authcore/internal/kdf"
	"github.com/wisespend/authcore/internal/kvstore"
	"github.com/wisespend/authcore/internal/logging"
	"github.com/wisespend/authcore/internal/users"
)

// fakeClock is a manually advanced clock injected through the service's
// time seam.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	// Low round count keeps the derivation fast under test.
	cfg.KDFIterations = 1_000
	cfg.FallbackKDFIterations = 1_000
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config) (*Service, *fakeClock, kvstore.Store) {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	store := kvstore.NewMemoryStore()
	svc := NewService(store, cfg, logging.Nop())

	clock := &fakeClock{current: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	svc.now = clock.Now
	svc.sleep = func(time.Duration) {}
	return svc, clock, store
}

func TestRegister(t *testing.T) {
	svc, clock, _ := newTestService(t, nil)
	ctx := context.Background()

	summary, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)
	assert.Equal(t, "alice", summary.Username)
	assert.Equal(t, clock.Now(), summary.CreatedAt)
	assert.Equal(t, "Very strong", summary.Strength)

	// Registration never logs the user in.
	assert.False(t, svc.CheckSession(ctx))
}

func TestRegister_StoredRecord(t *testing.T) {
	svc, _, store := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)

	record, err := users.NewKVRepository(store).Get(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, kdf.AlgorithmPBKDF2, record.Algorithm)
	assert.Equal(t, 1_000, record.Iterations)
	assert.Len(t, record.Salt, 64)
	assert.Len(t, record.PasswordHash, 64)
	assert.NotEqual(t, record.PasswordHash, record.Salt)
	assert.Zero(t, record.LoginAttempts)
	assert.Nil(t, record.LockoutUntil)
	assert.Nil(t, record.LastLogin)
}

func TestRegister_MissingFields(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name                        string
		username, password, confirm string
	}{
		{"empty username", "", "Str0ng!Pass", "Str0ng!Pass"},
		{"empty password", "alice", "", ""},
		{"empty confirmation", "alice", "Str0ng!Pass", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password, tt.confirm)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestRegister_PasswordMismatch(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, err := svc.Register(context.Background(), "alice", "Str0ng!Pass", "Str0ng!Pass2")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRegister_PolicyFailureListsAllRules(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, err := svc.Register(context.Background(), "alice", "short", "short")
	require.ErrorIs(t, err, common.ErrValidation)

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, []string{"length", "uppercase", "numbers", "specialChars"}, authErr.FailedRules)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "An0ther!Pass", "An0ther!Pass")
	assert.ErrorIs(t, err, common.ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc, clock, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)

	sess, err := svc.Login(ctx, "alice", "Str0ng!Pass")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, clock.Now(), sess.LoginTime)
	assert.True(t, svc.CheckSession(ctx))
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "Wr0ng!Pass")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 4, authErr.RemainingAttempts)
	assert.False(t, svc.CheckSession(ctx))
}

func TestLogin_UnknownUserIsIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	var slept time.Duration
	svc.sleep = func(d time.Duration) { slept += d }

	_, err := svc.Login(ctx, "nobody", "Str0ng!Pass")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid username or password", authErr.Message)
	assert.Equal(t, time.Second, slept)
}

func TestLogin_EmptyFields(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, err := svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestLogin_LockoutLifecycle(t *testing.T) {
	svc, clock, store := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)

	// Four failures leave the account open with one attempt remaining.
	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, "alice", "Wr0ng!Pass")
		require.ErrorIs(t, err, common.ErrInvalidCredentials)
	}

	// The fifth failure trips the lockout.
	_, err = svc.Login(ctx, "alice", "Wr0ng!Pass")
	require.ErrorIs(t, err, common.ErrAccountLocked)

	var authErr *Error
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 15, authErr.RemainingLockoutMinutes())

	// The correct password is refused while the window is active, and the
	// refusal does not inflate the counter.
	clock.Advance(5 * time.Minute)
	_, err = svc.Login(ctx, "alice", "Str0ng!Pass")
	require.ErrorIs(t, err, common.ErrAccountLocked)
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, 10, authErr.RemainingLockoutMinutes())

	record, err := users.NewKVRepository(store).Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, record.LoginAttempts)

	// Once the window expires the correct password succeeds and the counter
	// resets.
	clock.Advance(10*time.Minute + time.Second)
	sess, err := svc.Login(ctx, "alice", "Str0ng!Pass")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Username)

	record, err = users.NewKVRepository(store).Get(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, record.LoginAttempts)
	assert.Nil(t, record.LockoutUntil)
	require.NotNil(t, record.LastLogin)
	assert.Equal(t, clock.Now(), *record.LastLogin)
}

func TestLogin_FailureAfterExpiredWindowCountsFromOne(t *testing.T) {
	svc, clock, store := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, "alice", "Wr0ng!Pass")
	}
	clock.Advance(16 * time.Minute)

	_, err = svc.Login(ctx, "alice", "Wr0ng!Pass")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	record, err := users.NewKVRepository(store).Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, record.LoginAttempts)
}

func TestSessionExpiry(t *testing.T) {
	svc, clock, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "Str0ng!Pass")
	require.NoError(t, err)

	clock.Advance(29 * time.Minute)
	assert.True(t, svc.CheckSession(ctx))

	clock.Advance(2 * time.Minute)
	assert.False(t, svc.CheckSession(ctx))
}

func TestTouchExtendsSession(t *testing.T) {
	svc, clock, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "Str0ng!Pass")
	require.NoError(t, err)

	clock.Advance(20 * time.Minute)
	svc.Touch(ctx)

	// Past the original window but inside the renewed one.
	clock.Advance(20 * time.Minute)
	assert.True(t, svc.CheckSession(ctx))
}

func TestTouchWithoutSessionIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	svc.Touch(ctx)
	assert.False(t, svc.CheckSession(ctx))
}

func TestLogout(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "Str0ng!Pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))
	assert.False(t, svc.CheckSession(ctx))

	// Logging out again is not an error.
	require.NoError(t, svc.Logout(ctx))
}

func TestFallbackDerivationPath(t *testing.T) {
	cfg := testConfig()
	cfg.UseFallbackKDF = true
	svc, _, store := newTestService(t, cfg)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)

	record, err := users.NewKVRepository(store).Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, kdf.AlgorithmIterative, record.Algorithm)

	// Verification re-derives with the record's own parameters, so a login
	// still works even if the configured algorithm changes later.
	sess, err := svc.Login(ctx, "alice", "Str0ng!Pass")
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Username)
}

func TestSystemStatus(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	st := svc.SystemStatus(ctx)
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.Username)
	assert.False(t, st.RandomDegraded)

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "Str0ng!Pass")
	require.NoError(t, err)

	st = svc.SystemStatus(ctx)
	assert.True(t, st.IsAuthenticated)
	require.NotNil(t, st.Username)
	assert.Equal(t, "alice", *st.Username)
	assert.Positive(t, st.LogCount)
}

func TestLogs(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)
	_, _ = svc.Login(ctx, "nobody", "whatever")

	entries := svc.Logs()
	require.NotEmpty(t, entries)

	var sawRegistration, sawSecurity bool
	for _, e := range entries {
		if e.Severity == logging.SeveritySuccess && e.ActingUser == "alice" {
			sawRegistration = true
		}
		if e.Severity == logging.SeveritySecurity && e.ActingUser == "nobody" {
			sawSecurity = true
		}
	}
	assert.True(t, sawRegistration)
	assert.True(t, sawSecurity)

	svc.ClearLogs()
	assert.Empty(t, svc.Logs())
}

// recordingNotifier captures the callback sequence for assertions.
type recordingNotifier struct {
	loading   []bool
	errors    []string
	successes []string
}

func (n *recordingNotifier) OnError(msg string)       { n.errors = append(n.errors, msg) }
func (n *recordingNotifier) OnSuccess(msg string)     { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) OnLoadingChanged(on bool) { n.loading = append(n.loading, on) }

func TestNotifierCallbacks(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	n := &recordingNotifier{}
	svc.SetNotifier(n)

	_, err := svc.Register(ctx, "alice", "Str0ng!Pass", "Str0ng!Pass")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, n.loading)
	assert.Equal(t, []string{"user created"}, n.successes)
	assert.Empty(t, n.errors)

	_, err = svc.Login(ctx, "alice", "Wr0ng!Pass")
	require.Error(t, err)
	assert.Equal(t, []bool{true, false, true, false}, n.loading)
	assert.Equal(t, []string{"invalid username or password"}, n.errors)

	// nil restores the no-op notifier.
	svc.SetNotifier(nil)
	_, _ = svc.Login(ctx, "alice", "Wr0ng!Pass")
	assert.Len(t, n.loading, 4)
}
