// Package randx supplies random bytes for salts and tokens. It prefers the
// platform CSPRNG and only degrades to a non-cryptographic generator when
// explicitly allowed, flagging the downgrade loudly instead of hiding it.
package randx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mathrand "math/rand/v2"
	"sync/atomic"

	"github.com/wisespend/authcore/internal/common"
	"github.com/wisespend/authcore/internal/logging"
)

// Source produces random byte strings. The zero value is not usable;
// construct with New.
type Source struct {
	logger        logging.Logger
	allowFallback bool
	degraded      atomic.Bool

	// readFull is a seam for tests to simulate CSPRNG failure.
	readFull func(b []byte) (int, error)
}

// New returns a Source backed by crypto/rand. When allowFallback is false,
// a CSPRNG failure fails the operation; when true, the source downgrades to
// math/rand and marks itself degraded.
func New(logger logging.Logger, allowFallback bool) *Source {
	return &Source{
		logger:        logger,
		allowFallback: allowFallback,
		readFull:      rand.Read,
	}
}

// Bytes returns n cryptographically strong random bytes. If the CSPRNG is
// unavailable and fallback is allowed, it returns weaker randomness and
// logs the degradation; otherwise it returns ErrInsecureRandom.
func (s *Source) Bytes(ctx context.Context, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := s.readFull(b); err != nil {
		if !s.allowFallback {
			return nil, fmt.Errorf("%w: %v", common.ErrInsecureRandom, err)
		}
		s.degraded.Store(true)
		s.logger.Warn(ctx, "secure random source unavailable, using non-cryptographic fallback", "error", err.Error())
		for i := range b {
			b[i] = byte(mathrand.UintN(256))
		}
	}
	return b, nil
}

// HexString returns size random bytes encoded as a lowercase hex string
// (final length 2*size).
func (s *Source) HexString(ctx context.Context, size int) (string, error) {
	b, err := s.Bytes(ctx, size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Degraded reports whether the non-cryptographic fallback has ever been used.
func (s *Source) Degraded() bool {
	return s.degraded.Load()
}
