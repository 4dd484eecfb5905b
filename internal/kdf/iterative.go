package kdf

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// iterativeDigest is the fallback derivation: the working value starts as
// password+salt and is replaced each round by a 32-bit mix of (value + round
// index). The final 32-bit state is expanded to 64 hex characters through
// bit rotation so the output shape matches the primary path.
func iterativeDigest(password, salt string, iterations int) string {
	value := password + salt

	var state uint32
	for i := 0; i < iterations; i++ {
		state = mix32(value + strconv.Itoa(i))
		value = strconv.FormatUint(uint64(state), 16)
	}

	var b strings.Builder
	b.Grow(64)
	for word := 0; word < 8; word++ {
		w := bits.RotateLeft32(state^(uint32(word)*0x9e3779b9), word*5+1)
		fmt.Fprintf(&b, "%08x", w)
	}
	return b.String()
}

// mix32 is FNV-1a over the input string.
func mix32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
