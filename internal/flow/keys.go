// ABOUTME: Single-use ledger for idempotency keys
// ABOUTME: A key spent on one submission can never start another

package flow

import (
	"container/list"
	"sync"
	"time"
)

// keyEntry stores the timestamp and list element for a spent key.
type keyEntry struct {
	timestamp time.Time
	element   *list.Element
}

// keyLedger tracks idempotency keys already attached to a submission. The
// key is not a correctness mechanism for the client (the client does not
// retry); the ledger only stops a caller from accidentally reusing a key
// across two distinct user-initiated submissions. Expired entries are
// pruned lazily on spend; a doubly-linked list keeps eviction O(1).
type keyLedger struct {
	mu      sync.Mutex
	spent   map[string]*keyEntry
	order   *list.List // keys in spend order, oldest at front
	ttl     time.Duration
	maxSize int
}

func newKeyLedger(ttl time.Duration, maxSize int) *keyLedger {
	return &keyLedger{
		spent:   make(map[string]*keyEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Spend marks the key as used. Returns false if the key was already spent
// and has not expired, in which case the caller must refuse the submission.
func (l *keyLedger) Spend(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.pruneLocked(now)

	if entry, ok := l.spent[key]; ok {
		if now.Sub(entry.timestamp) < l.ttl {
			return false
		}
		// Expired under the same key; drop the stale element before re-spending
		l.order.Remove(entry.element)
		delete(l.spent, key)
	}

	if len(l.spent) >= l.maxSize {
		l.evictOldestLocked()
	}

	elem := l.order.PushBack(key)
	l.spent[key] = &keyEntry{timestamp: now, element: elem}
	return true
}

// pruneLocked removes expired entries from the front of the spend order.
// Must be called with mu held.
func (l *keyLedger) pruneLocked(now time.Time) {
	for {
		front := l.order.Front()
		if front == nil {
			return
		}
		key, _ := front.Value.(string)
		entry, ok := l.spent[key]
		if !ok {
			l.order.Remove(front)
			continue
		}
		if now.Sub(entry.timestamp) < l.ttl {
			return
		}
		l.order.Remove(front)
		delete(l.spent, key)
	}
}

// evictOldestLocked removes the oldest entry. Must be called with mu held.
func (l *keyLedger) evictOldestLocked() {
	front := l.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	l.order.Remove(front)
	delete(l.spent, key)
}
