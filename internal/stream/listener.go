// ABOUTME: Long-lived WebSocket listener translating push frames into store mutations
// ABOUTME: Reconnects after a fixed delay on any close; teardown closes exactly once

package stream

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/minnowchat/minnow/internal/chat"
)

// Mutator is what the listener needs from the conversation store.
type Mutator interface {
	AddInteractionFragment(conversationID, interactionID, fragment string)
	UpdateInteractionMessageContent(conversationID, interactionID, content string)
	UpdateConversationTitle(conversationID, title string, treatAsFragment bool)
	AddInteractionError(conversationID, interactionID string, record chat.ErrorRecord)
}

// Listener maintains exactly one live connection to the event-stream
// endpoint and routes every inbound frame into the store.
type Listener struct {
	url     string
	delay   time.Duration
	mutator Mutator
	dialer  *websocket.Dialer
	logger  *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	started   atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

// NewListener creates a listener for the given ws:// endpoint. delay is the
// fixed reconnect wait applied after any close of the connection; there is
// no backoff growth or jitter. Pass nil logger for default.
func NewListener(url string, delay time.Duration, mutator Mutator, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		url:     url,
		delay:   delay,
		mutator: mutator,
		dialer:  websocket.DefaultDialer,
		logger:  logger.With("component", "stream"),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start opens the connection loop. It returns immediately; dialing,
// reading, and reconnection run on a single goroutine so frames for a given
// interaction dispatch in arrival order.
func (l *Listener) Start() {
	if l.started.Swap(true) {
		return
	}
	go l.run()
}

// Close tears the listener down: the underlying connection is closed exactly
// once, any pending reconnect wait is cancelled, and no further dispatches
// occur. Safe to call multiple times.
func (l *Listener) Close() {
	l.closeOnce.Do(func() {
		close(l.done)

		l.mu.Lock()
		conn := l.conn
		l.conn = nil
		l.mu.Unlock()

		if conn != nil {
			if err := conn.Close(); err != nil {
				l.logger.Debug("closing stream connection", "error", err)
			}
		}
	})
	if l.started.Load() {
		<-l.stopped
	}
}

func (l *Listener) run() {
	defer close(l.stopped)

	for {
		if l.closedNow() {
			return
		}

		conn, _, err := l.dialer.Dial(l.url, nil)
		if err != nil {
			l.logger.Warn("stream dial failed", "url", l.url, "error", err)
		} else {
			l.logger.Debug("stream connected", "url", l.url)
			l.setConn(conn)
			l.readLoop(conn)
			l.dropConn(conn)
		}

		// Fixed short delay before the next attempt, cancelled by teardown
		select {
		case <-l.done:
			return
		case <-time.After(l.delay):
		}
	}
}

// readLoop reads frames until the connection closes for any reason.
func (l *Listener) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !l.closedNow() {
				l.logger.Debug("stream connection closed", "error", err)
			}
			return
		}
		l.dispatch(data)
	}
}

// dispatch parses one wire message and applies it to the store. Malformed
// or unroutable frames are dropped without surfacing an error: late frames
// for since-deleted entities are expected under races with deletion.
func (l *Listener) dispatch(data []byte) {
	if l.closedNow() {
		return
	}

	frame, err := ParseFrame(data)
	if err != nil {
		l.logger.Debug("dropping frame", "error", err)
		return
	}

	target := frame.Channel()
	switch f := frame.(type) {
	case FragmentFrame:
		if target.IsTitle() {
			l.mutator.UpdateConversationTitle(target.ConversationID, f.Text, true)
			return
		}
		l.mutator.AddInteractionFragment(target.ConversationID, target.TargetID, f.Text)

	case FullFrame:
		if target.IsTitle() {
			l.mutator.UpdateConversationTitle(target.ConversationID, f.Text, false)
			return
		}
		l.mutator.UpdateInteractionMessageContent(target.ConversationID, target.TargetID, f.Text)

	case ErrorFrame:
		if target.IsTitle() {
			// An error record can only attach to an interaction
			l.logger.Debug("dropping error frame for title target",
				"conversation_id", target.ConversationID)
			return
		}
		l.mutator.AddInteractionError(target.ConversationID, target.TargetID, f.Record)
	}
}

func (l *Listener) setConn(conn *websocket.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Teardown raced the dial; make sure the fresh connection still gets
	// its one close rather than leaking past Close
	select {
	case <-l.done:
		conn.Close()
	default:
		l.conn = conn
	}
}

// dropConn closes the connection unless teardown already did. Exactly one
// close happens per connection regardless of which side initiated it.
func (l *Listener) dropConn(conn *websocket.Conn) {
	l.mu.Lock()
	owned := l.conn == conn
	if owned {
		l.conn = nil
	}
	l.mu.Unlock()

	if owned {
		conn.Close()
	}
}

func (l *Listener) closedNow() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}
