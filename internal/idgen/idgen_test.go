// ABOUTME: Tests for idempotency key generation
// ABOUTME: Verifies length, alphabet, and uniqueness across mints

package idgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_Shape(t *testing.T) {
	key := Key()
	assert.Len(t, key, KeyLength)
	for _, r := range key {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
	}
}

func TestKey_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := Key()
		assert.False(t, seen[key], "duplicate key %q", key)
		seen[key] = true
	}
}
