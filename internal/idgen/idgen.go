// ABOUTME: Idempotency key generation for user-initiated submissions
// ABOUTME: Fixed-length random alphanumeric tokens from crypto/rand

// Package idgen produces the opaque tokens attached to submissions so
// server-side retries and duplicate deliveries can be deduplicated. A key is
// minted per logical submission and must never be reused for a second one;
// callers regenerate immediately after a flow completes.
package idgen

import (
	"crypto/rand"
	"fmt"
)

// KeyLength is the fixed length of every idempotency key.
const KeyLength = 20

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Key returns a new random idempotency key.
func Key() string {
	buf := make([]byte, KeyLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Sprintf("idgen: rand.Read: %v", err))
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}
