// ABOUTME: Tests for the idempotency key ledger
// ABOUTME: Covers single-use semantics, TTL expiry, and size-capped eviction

package flow

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyLedger_SpendOnce(t *testing.T) {
	ledger := newKeyLedger(time.Hour, 16)

	assert.True(t, ledger.Spend("k1"))
	assert.False(t, ledger.Spend("k1"))
	assert.True(t, ledger.Spend("k2"), "distinct keys are independent")
}

func TestKeyLedger_ExpiredKeyCanBeRespent(t *testing.T) {
	ledger := newKeyLedger(10*time.Millisecond, 16)

	assert.True(t, ledger.Spend("k1"))
	assert.False(t, ledger.Spend("k1"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, ledger.Spend("k1"))
	assert.False(t, ledger.Spend("k1"), "re-spend starts a fresh TTL")
}

func TestKeyLedger_EvictsOldestAtCapacity(t *testing.T) {
	ledger := newKeyLedger(time.Hour, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, ledger.Spend(fmt.Sprintf("k%d", i)))
	}

	// A fourth spend pushes out k0 but nothing newer
	assert.True(t, ledger.Spend("k3"))
	assert.True(t, ledger.Spend("k0"))
	assert.False(t, ledger.Spend("k2"))
	assert.False(t, ledger.Spend("k3"))
}

func TestKeyLedger_PrunesExpiredBeforeEvicting(t *testing.T) {
	ledger := newKeyLedger(10*time.Millisecond, 2)

	assert.True(t, ledger.Spend("old"))
	time.Sleep(20 * time.Millisecond)

	// Both slots stay available to fresh keys once "old" expires
	assert.True(t, ledger.Spend("a"))
	assert.True(t, ledger.Spend("b"))
	assert.False(t, ledger.Spend("a"))
	assert.False(t, ledger.Spend("b"))
}
