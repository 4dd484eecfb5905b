// Package kdf turns a password and per-user salt into a fixed-length derived
// hash. The primary path is PBKDF2-HMAC-SHA256; a deterministic iterative
// fallback exists for hosts without the primary primitive and is always
// logged as degraded security when used.
package kdf

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/wisespend/authcore/internal/common"
	"github.com/wisespend/authcore/internal/logging"
)

// Algorithm selects the derivation path. The value is stored with each user
// record so verification re-derives with the exact same parameters.
type Algorithm string

const (
	AlgorithmPBKDF2    Algorithm = "pbkdf2-sha256"
	AlgorithmIterative Algorithm = "iterative-v1"
)

const (
	// DefaultIterations is the PBKDF2 round count.
	DefaultIterations = 100_000

	// DefaultIterativeIterations is the round count for the fallback path.
	// The lower cost is inherited from the original design and kept as a
	// separately configurable constant.
	DefaultIterativeIterations = 10_000

	// keyLen is the derived key length in bytes (256 bits).
	keyLen = 32
)

// Engine derives password hashes. Derivation is pure and safe to run
// concurrently for independent requests.
type Engine struct {
	logger logging.Logger
}

func NewEngine(logger logging.Logger) *Engine {
	return &Engine{logger: logger}
}

// Derive computes the hex-encoded hash of (password, salt) for the given
// algorithm and iteration count. Same inputs always yield the same output;
// verification works by re-derivation, never by decrypting anything.
func (e *Engine) Derive(ctx context.Context, password, salt string, iterations int, algo Algorithm) (string, error) {
	if iterations <= 0 {
		return "", fmt.Errorf("%w: iteration count %d", common.ErrDerivationFailed, iterations)
	}
	if salt == "" {
		return "", fmt.Errorf("%w: empty salt", common.ErrDerivationFailed)
	}

	switch algo {
	case AlgorithmPBKDF2:
		key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLen, sha256.New)
		return hex.EncodeToString(key), nil
	case AlgorithmIterative:
		e.logger.Warn(ctx, "using degraded iterative key derivation", "iterations", iterations)
		return iterativeDigest(password, salt, iterations), nil
	default:
		return "", fmt.Errorf("%w: unknown algorithm %q", common.ErrDerivationFailed, algo)
	}
}

// Equal compares two derived hashes in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
