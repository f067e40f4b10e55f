// ABOUTME: Process-wide refcounted owner of the single stream listener
// ABOUTME: First acquire opens the connection, last release tears it down

package stream

import (
	"log/slog"
	"sync"
	"time"
)

// Hub hands out shared access to one listener. Any number of views can
// acquire the stream; the connection exists while at least one holds it.
type Hub struct {
	url     string
	delay   time.Duration
	mutator Mutator
	logger  *slog.Logger

	mu       sync.Mutex
	refs     int
	listener *Listener
}

// NewHub creates a hub. No connection is opened until the first Acquire.
func NewHub(url string, delay time.Duration, mutator Mutator, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		url:     url,
		delay:   delay,
		mutator: mutator,
		logger:  logger.With("component", "stream-hub"),
	}
}

// Acquire registers interest in the stream, starting the listener if this
// is the first holder. The returned release function is idempotent; the
// listener closes when the last holder releases.
func (h *Hub) Acquire() (release func()) {
	h.mu.Lock()
	h.refs++
	if h.refs == 1 {
		h.listener = NewListener(h.url, h.delay, h.mutator, h.logger)
		h.listener.Start()
		h.logger.Debug("stream acquired, listener started")
	}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(h.release)
	}
}

func (h *Hub) release() {
	h.mu.Lock()
	h.refs--
	var toClose *Listener
	if h.refs == 0 {
		toClose = h.listener
		h.listener = nil
	}
	h.mu.Unlock()

	if toClose != nil {
		toClose.Close()
		h.logger.Debug("last holder released, listener closed")
	}
}

// Active reports whether a listener currently exists.
func (h *Hub) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.listener != nil
}
