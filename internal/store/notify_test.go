// ABOUTME: Tests for the store change notifier
// ABOUTME: Verifies fan-out, drop-on-full, and subscription lifecycle

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minnowchat/minnow/internal/chat"
)

func drainOne(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case change := <-ch:
		return change
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func TestNotifier_PublishesStoreChanges(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := s.Notifier().Subscribe(ctx)

	s.InjectConversations([]*chat.Conversation{newTestConversation("conv_1")})
	change := drainOne(t, ch)
	assert.Equal(t, ChangeConversationList, change.Kind)

	s.UpdateConversationTitle("conv_1", "Hi", false)
	change = drainOne(t, ch)
	assert.Equal(t, ChangeConversation, change.Kind)
	assert.Equal(t, "conv_1", change.ConversationID)
}

func TestNotifier_NoChangeForIneffectiveMutation(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, _ := s.Notifier().Subscribe(ctx)

	// Missing targets are no-ops and must not wake readers
	s.AddInteractionFragment("ghost", "int", "x")
	s.DeleteConversations([]string{"ghost"})

	select {
	case change := <-ch:
		t.Fatalf("unexpected change: %+v", change)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifier_UnsubscribeClosesChannel(t *testing.T) {
	n := NewNotifier(nil)
	ch, subID := n.Subscribe(context.Background())

	n.Unsubscribe(subID)

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is safe
	n.Unsubscribe(subID)
}

func TestNotifier_ContextCancellationCleansUp(t *testing.T) {
	n := NewNotifier(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := n.Subscribe(ctx)

	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestNotifier_SlowSubscriberDoesNotBlock(t *testing.T) {
	n := NewNotifier(nil)
	ch, _ := n.Subscribe(context.Background())

	// Fill the buffer and then some; publish must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize+10; i++ {
			n.publish(Change{Kind: ChangeConversationList})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Len(t, ch, subscriberBufferSize)
}
