// Package auth orchestrates the credential and session core behind four
// operations: Register, Login, Logout, and CheckSession. All policy and
// validation failures are converted to a single structured *Error here;
// callers never see raw storage or crypto errors.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wisespend/authcore/internal/common"
	"github.com/wisespend/authcore/internal/config"
	"github.com/wisespend/authcore/internal/kdf"
	"github.com/wisespend/authcore/internal/kvstore"
	"github.com/wisespend/authcore/internal/lockout"
	"github.com/wisespend/authcore/internal/logging"
	"github.com/wisespend/authcore/internal/policy"
	"github.com/wisespend/authcore/internal/randx"
	"github.com/wisespend/authcore/internal/session"
	"github.com/wisespend/authcore/internal/users"
)

// saltSize is the raw salt length in bytes; stored hex-encoded.
const saltSize = 32

// UserSummary is returned from Register. Registration never auto-logs-in;
// an explicit Login call must follow.
type UserSummary struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	Strength  string    `json:"strength"`
}

// Service is the authentication facade. Construct once at process start and
// inject into callers; it holds no ambient global state.
//
// The internal mutex serializes every read-modify-write against the store
// (lockout counters, session renewal) so concurrent callers cannot lose
// updates. A single lock is enough for the expected single-actor load.
type Service struct {
	mu sync.Mutex

	users    users.Repository
	sessions *session.Manager
	engine   *kdf.Engine
	random   *randx.Source

	rules   policy.Rules
	lockout lockout.Policy

	algorithm          kdf.Algorithm
	iterations         int
	fallbackIterations int
	unknownUserDelay   time.Duration

	logger   logging.Logger
	ring     *logging.Ring
	notifier Notifier

	// Seams for tests: simulated clocks and instant delays.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewService wires the core together from the shared key-value store and
// runtime configuration.
func NewService(store kvstore.Store, cfg *config.Config, logger logging.Logger) *Service {
	repo := users.NewKVRepository(store)

	algorithm := kdf.AlgorithmPBKDF2
	iterations := cfg.KDFIterations
	if cfg.UseFallbackKDF {
		algorithm = kdf.AlgorithmIterative
		iterations = cfg.FallbackKDFIterations
	}

	return &Service{
		users:    repo,
		sessions: session.NewManager(store, repo, logger, []byte(cfg.SecretKey), cfg.SessionTimeout, cfg.SessionRenewalInterval),
		engine:   kdf.NewEngine(logger),
		random:   randx.New(logger, cfg.AllowInsecureRandom),
		rules: policy.Rules{
			MinLength:        cfg.MinPasswordLength,
			RequireUppercase: cfg.RequireUppercase,
			RequireLowercase: cfg.RequireLowercase,
			RequireNumbers:   cfg.RequireNumbers,
			RequireSpecial:   cfg.RequireSpecial,
		},
		lockout:            lockout.Policy{MaxAttempts: cfg.MaxLoginAttempts, Duration: cfg.LockoutDuration},
		algorithm:          algorithm,
		iterations:         iterations,
		fallbackIterations: cfg.FallbackKDFIterations,
		unknownUserDelay:   cfg.UnknownUserDelay,
		logger:             logger,
		ring:               logging.NewRing(logging.DefaultRingCapacity),
		notifier:           NopNotifier{},
		now:                time.Now,
		sleep:              time.Sleep,
	}
}

// SetNotifier installs the presentation callback hooks. Passing nil restores
// the no-op notifier.
func (s *Service) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	s.notifier = n
}

// Register creates a new user record: policy validation, fresh salt,
// derived hash, zeroed attempt counters.
func (s *Service) Register(ctx context.Context, username, password, confirmPassword string) (*UserSummary, error) {
	s.notifier.OnLoadingChanged(true)
	defer s.notifier.OnLoadingChanged(false)

	summary, err := s.register(ctx, username, password, confirmPassword)
	if err != nil {
		s.notifier.OnError(err.Error())
		return nil, err
	}

	s.notifier.OnSuccess("user created")
	return summary, nil
}

func (s *Service) register(ctx context.Context, username, password, confirmPassword string) (*UserSummary, error) {
	if username == "" || password == "" || confirmPassword == "" {
		s.record(ctx, logging.SeverityWarning, "registration rejected: missing fields", "register", username)
		return nil, validationError("all fields are required", nil)
	}
	if password != confirmPassword {
		s.record(ctx, logging.SeverityWarning, "registration rejected: passwords do not match", "register", username)
		return nil, validationError("passwords do not match", nil)
	}

	res := policy.Validate(password, s.rules)
	if !res.Valid {
		s.record(ctx, logging.SeverityWarning, "registration rejected: password policy", "register", username)
		return nil, validationError(
			fmt.Sprintf("password does not meet requirements: %s", strings.Join(res.Failed, ", ")),
			res.Failed,
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.users.Exists(ctx, username)
	if err != nil {
		return nil, s.internalError(ctx, "checking user existence", err)
	}
	if exists {
		s.record(ctx, logging.SeverityWarning, "registration rejected: username taken", "register", username)
		return nil, &Error{Kind: common.ErrUserExists, Message: "user already exists"}
	}

	salt, err := s.random.HexString(ctx, saltSize)
	if err != nil {
		return nil, s.internalError(ctx, "generating salt", err)
	}

	hash, err := s.engine.Derive(ctx, password, salt, s.iterations, s.algorithm)
	if err != nil {
		return nil, s.derivationError(ctx, err)
	}

	now := s.now()
	record := &users.Record{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Salt:         salt,
		Algorithm:    s.algorithm,
		Iterations:   s.iterations,
		CreatedAt:    now,
	}
	if err := s.users.Save(ctx, record); err != nil {
		return nil, s.internalError(ctx, "saving user record", err)
	}

	s.record(ctx, logging.SeveritySuccess, "user registered", "register", username)
	return &UserSummary{Username: username, CreatedAt: now, Strength: res.Label}, nil
}

// Login verifies credentials against the stored record and issues a session.
// Unknown-user and wrong-password failures are indistinguishable to the
// caller; an artificial delay on unknown usernames blunts timing probes.
func (s *Service) Login(ctx context.Context, username, password string) (*session.Session, error) {
	s.notifier.OnLoadingChanged(true)
	defer s.notifier.OnLoadingChanged(false)

	sess, err := s.login(ctx, username, password)
	if err != nil {
		s.notifier.OnError(err.Error())
		return nil, err
	}

	s.notifier.OnSuccess("welcome back")
	return sess, nil
}

func (s *Service) login(ctx context.Context, username, password string) (*session.Session, error) {
	if username == "" || password == "" {
		s.record(ctx, logging.SeverityWarning, "login rejected: missing fields", "login", username)
		return nil, invalidCredentialsError(0)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	record, err := s.users.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.record(ctx, logging.SeveritySecurity, "login failed: unknown user", "login", username)
			s.sleep(s.unknownUserDelay)
			return nil, invalidCredentialsError(0)
		}
		return nil, s.internalError(ctx, "loading user record", err)
	}

	if s.lockout.IsLocked(record, now) {
		s.record(ctx, logging.SeveritySecurity, "login refused: account locked", "login", username)
		return nil, accountLockedError(s.lockout.RemainingLockout(record, now))
	}

	// Re-derive with the parameters the record was created with, not the
	// currently configured ones.
	hash, err := s.engine.Derive(ctx, password, record.Salt, record.Iterations, record.Algorithm)
	if err != nil {
		return nil, s.derivationError(ctx, err)
	}

	if !kdf.Equal(hash, record.PasswordHash) {
		s.lockout.RecordFailure(record, now)
		if err := s.users.Save(ctx, record); err != nil {
			return nil, s.internalError(ctx, "saving user record", err)
		}

		if s.lockout.IsLocked(record, now) {
			s.record(ctx, logging.SeveritySecurity, "account locked after repeated failures", "login", username)
			return nil, accountLockedError(s.lockout.RemainingLockout(record, now))
		}
		s.record(ctx, logging.SeveritySecurity, "login failed: wrong password", "login", username)
		return nil, invalidCredentialsError(s.lockout.RemainingAttempts(record))
	}

	s.lockout.RecordSuccess(record, now)
	if err := s.users.Save(ctx, record); err != nil {
		return nil, s.internalError(ctx, "saving user record", err)
	}

	sess, err := s.sessions.Create(ctx, username, now)
	if err != nil {
		return nil, s.internalError(ctx, "creating session", err)
	}

	s.record(ctx, logging.SeveritySuccess, "login successful", "login", username)
	return sess, nil
}

// Logout destroys the current session. Calling it without an active session
// is not an error.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Destroy(ctx); err != nil {
		return s.internalError(ctx, "destroying session", err)
	}
	s.record(ctx, logging.SeverityInfo, "logged out", "logout", "")
	return nil
}

// CheckSession reports whether an active session exists right now. Expired
// or corrupt sessions are purged as a side effect.
func (s *Service) CheckSession(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.sessions.Validate(ctx, s.now())
	if err != nil {
		s.logger.Error(ctx, "session validation error", "error", err.Error())
		return false
	}
	return ok
}

// Touch renews the current session in response to user activity, rate
// limited by the configured renewal interval. Without an active session it
// is a no-op.
func (s *Service) Touch(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Touch(ctx, s.now()); err != nil && !errors.Is(err, common.ErrNoSession) {
		s.logger.Error(ctx, "session renewal error", "error", err.Error())
	}
}

// Logs returns a snapshot of the diagnostic ring buffer.
func (s *Service) Logs() []logging.Entry {
	return s.ring.Entries()
}

// ClearLogs drops the diagnostic ring buffer.
func (s *Service) ClearLogs() {
	s.ring.Clear()
}

// record tees a diagnostic entry into the bounded ring and the structured
// logger.
func (s *Service) record(ctx context.Context, sev logging.Severity, msg, opContext, actingUser string) {
	s.ring.Append(logging.Entry{
		Timestamp:  s.now(),
		Severity:   sev,
		Message:    msg,
		Context:    opContext,
		ActingUser: actingUser,
	})

	args := []any{"context", opContext}
	if actingUser != "" {
		args = append(args, "username", actingUser)
	}
	switch sev {
	case logging.SeverityError:
		s.logger.Error(ctx, msg, args...)
	case logging.SeverityWarning, logging.SeveritySecurity:
		s.logger.Warn(ctx, msg, args...)
	default:
		s.logger.Info(ctx, msg, args...)
	}
}

func (s *Service) internalError(ctx context.Context, op string, err error) *Error {
	s.logger.Error(ctx, op+" failed", "error", err.Error())
	if errors.Is(err, common.ErrStorageUnavailable) {
		return &Error{Kind: common.ErrStorageUnavailable, Message: "storage unavailable"}
	}
	return &Error{Kind: common.ErrStorageUnavailable, Message: op + " failed"}
}

func (s *Service) derivationError(ctx context.Context, err error) *Error {
	s.logger.Error(ctx, "key derivation failed", "error", err.Error())
	return &Error{Kind: common.ErrDerivationFailed, Message: "key derivation failed, try again"}
}
