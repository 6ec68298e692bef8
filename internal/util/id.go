package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns 16 random bytes hex-encoded, optionally namespaced as
// "<prefix>_<hex>". Draft entities and token ids use it.
func NewID(prefix string) string {
	return newID(prefix, 16)
}

// NewToken returns a 32 byte random secret suitable for refresh tokens.
func NewToken() string {
	return newID("", 32)
}

func newID(prefix string, size int) string {
	bytes := make([]byte, size)
	_, _ = rand.Read(bytes)
	if prefix == "" {
		return hex.EncodeToString(bytes)
	}
	return prefix + "_" + hex.EncodeToString(bytes)
}
