// ABOUTME: In-memory fan-out of store changes to presentation subscribers
// ABOUTME: Buffered channels, drop-on-full, context-scoped cleanup

package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// ChangeKind discriminates what moved in the store.
type ChangeKind int

const (
	// ChangeConversationList means conversations were inserted or removed.
	ChangeConversationList ChangeKind = iota
	// ChangeConversation means the content of one conversation changed
	// (interactions, title, errors, exclusion state).
	ChangeConversation
)

// Change describes one effective store mutation.
type Change struct {
	Kind           ChangeKind
	ConversationID string // set for ChangeConversation
}

// Notifier provides in-memory pub/sub for store changes. Subscribers receive
// changes as they are committed, enabling render-on-change without polling.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[string]chan Change
	logger      *slog.Logger
}

// NewNotifier creates a notifier. Pass nil logger for default.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		subscribers: make(map[string]chan Change),
		logger:      logger.With("component", "notifier"),
	}
}

// Subscribe registers a subscriber for store changes. Returns a channel that
// receives changes and a subscription ID for later unsubscription. The
// subscription is automatically cleaned up when ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan Change, string) {
	subID := uuid.New().String()
	ch := make(chan Change, subscriberBufferSize)

	n.mu.Lock()
	n.subscribers[subID] = ch
	n.mu.Unlock()

	n.logger.Debug("subscriber added", "sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		n.Unsubscribe(subID)
	}()

	return ch, subID
}

// Unsubscribe removes a subscription and closes its channel.
func (n *Notifier) Unsubscribe(subID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.subscribers[subID]
	if !ok {
		return
	}
	delete(n.subscribers, subID)
	close(ch)

	n.logger.Debug("subscriber removed", "sub_id", subID)
}

// publish sends a change to all subscribers. Non-blocking: changes are
// dropped for subscribers whose channels are full, which is acceptable
// because a reader that drains later re-reads the store anyway.
func (n *Notifier) publish(change Change) {
	n.mu.RLock()
	targets := make([]chan Change, 0, len(n.subscribers))
	for _, ch := range n.subscribers {
		targets = append(targets, ch)
	}
	n.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- change:
			// Sent
		default:
			n.logger.Debug("dropped change for slow subscriber",
				"conversation_id", change.ConversationID)
		}
	}
}

// Close shuts down the notifier and closes all subscriber channels.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for subID, ch := range n.subscribers {
		close(ch)
		delete(n.subscribers, subID)
	}

	n.logger.Debug("notifier closed")
}
