// ABOUTME: Tests for the refcounted stream hub
// ABOUTME: One connection regardless of holders; closes on last release

package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_SingleConnectionAcrossHolders(t *testing.T) {
	ws := newWSServer(t)
	hub := NewHub(ws.url(), 20*time.Millisecond, &recordingMutator{}, nil)

	release1 := hub.Acquire()
	release2 := hub.Acquire()
	release3 := hub.Acquire()

	ws.accept(t)
	assert.True(t, hub.Active())

	// No extra connections for the extra holders
	select {
	case <-ws.conns:
		t.Fatal("hub opened more than one connection")
	case <-time.After(100 * time.Millisecond):
	}

	release1()
	release2()
	assert.True(t, hub.Active(), "listener must survive until the last release")

	release3()
	assert.False(t, hub.Active())
}

func TestHub_ReleaseIsIdempotent(t *testing.T) {
	ws := newWSServer(t)
	hub := NewHub(ws.url(), 20*time.Millisecond, &recordingMutator{}, nil)

	release1 := hub.Acquire()
	release2 := hub.Acquire()
	ws.accept(t)

	// Releasing the same handle twice must not steal the second holder's ref
	release1()
	release1()
	assert.True(t, hub.Active())

	release2()
	assert.False(t, hub.Active())
}

func TestHub_ReacquireAfterShutdown(t *testing.T) {
	ws := newWSServer(t)
	hub := NewHub(ws.url(), 20*time.Millisecond, &recordingMutator{}, nil)

	release := hub.Acquire()
	ws.accept(t)
	release()
	assert.False(t, hub.Active())

	release = hub.Acquire()
	defer release()
	ws.accept(t)
	assert.True(t, hub.Active())
}
