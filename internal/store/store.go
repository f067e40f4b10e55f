// ABOUTME: Conversation store mutation operations and read model
// ABOUTME: Every operation is atomic under the store lock; missing targets are no-ops

package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/minnowchat/minnow/internal/chat"
)

// Store is the normalized, mutable map of conversations and their
// interactions. It has no outbound dependencies.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*chat.Conversation

	notifier *Notifier
	logger   *slog.Logger
}

// New creates an empty store. Pass nil logger for default.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		conversations: make(map[string]*chat.Conversation),
		notifier:      NewNotifier(logger),
		logger:        logger.With("component", "store"),
	}
}

// Notifier exposes the store's change fan-out for presentation subscribers.
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

// InjectConversations inserts snapshot-fetched conversations. An id that is
// already present is never overwritten: a locally-started conversation may
// carry streamed progress the snapshot does not, so first write wins. The
// flip side is that a later canonical snapshot of the same conversation is
// silently ignored; resolving that needs field-level merge rules the
// platform does not define yet.
func (s *Store) InjectConversations(conversations []*chat.Conversation) {
	s.mu.Lock()
	inserted := 0
	for _, conv := range conversations {
		if conv == nil || conv.ID == "" {
			continue
		}
		if _, exists := s.conversations[conv.ID]; exists {
			continue
		}
		if conv.Interactions == nil {
			conv.Interactions = make(map[string]*chat.Interaction)
		}
		s.conversations[conv.ID] = conv
		inserted++
	}
	s.mu.Unlock()

	if inserted > 0 {
		s.logger.Debug("conversations injected", "count", inserted)
		s.notifier.publish(Change{Kind: ChangeConversationList})
	}
}

// StartConversationParams seeds a locally-started conversation before any
// message exists on it.
type StartConversationParams struct {
	ConversationID  string
	Owner           chat.Actor
	ModelSelector   chat.ModelSelector
	Title           *string
	StreamChannelID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StartConversation creates a new entry keyed by the server-issued id with
// an empty interaction map.
func (s *Store) StartConversation(p StartConversationParams) {
	s.mu.Lock()
	s.conversations[p.ConversationID] = &chat.Conversation{
		ID:              p.ConversationID,
		Owner:           p.Owner,
		ModelSelector:   p.ModelSelector,
		Title:           p.Title,
		StreamChannelID: p.StreamChannelID,
		Interactions:    make(map[string]*chat.Interaction),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	s.mu.Unlock()

	s.logger.Debug("conversation started", "conversation_id", p.ConversationID)
	s.notifier.publish(Change{Kind: ChangeConversationList})
}

// AddInteraction inserts a finalized input interaction (the user's own
// message, content known immediately). No-op if the conversation is missing.
func (s *Store) AddInteraction(interaction *chat.Interaction) {
	if interaction == nil {
		return
	}

	s.mu.Lock()
	conv, ok := s.conversations[interaction.ConversationID]
	if ok {
		conv.Interactions[interaction.ID] = interaction
		conv.UpdatedAt = interaction.UpdatedAt
	}
	s.mu.Unlock()

	if ok {
		s.notifier.publish(Change{Kind: ChangeConversation, ConversationID: interaction.ConversationID})
	}
}

// AddActiveInteractionParams seeds a pending bot interaction that the push
// channel will stream content into.
type AddActiveInteractionParams struct {
	ConversationID  string
	InteractionID   string
	StreamChannelID string
	ModelSelector   chat.ModelSelector
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AddActiveInteraction inserts a pending bot interaction: empty content,
// synthetic bot owner, CompletedAt nil. No-op if the conversation is missing.
func (s *Store) AddActiveInteraction(p AddActiveInteractionParams) {
	s.mu.Lock()
	conv, ok := s.conversations[p.ConversationID]
	if ok {
		conv.Interactions[p.InteractionID] = &chat.Interaction{
			ID:              p.InteractionID,
			ConversationID:  p.ConversationID,
			StreamChannelID: p.StreamChannelID,
			Owner: chat.Actor{
				Type:       chat.ActorTypeBot,
				Identifier: p.ModelSelector.ProviderID,
			},
			ModelSelector:  p.ModelSelector,
			MessageContent: "",
			Errors:         []chat.ErrorRecord{},
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
		}
		conv.UpdatedAt = p.UpdatedAt
	}
	s.mu.Unlock()

	if ok {
		s.notifier.publish(Change{Kind: ChangeConversation, ConversationID: p.ConversationID})
	}
}

// AddInteractionFragment appends fragment to the named interaction's
// content. No-op if the target is missing or already completed: once
// CompletedAt is stamped the content is final.
func (s *Store) AddInteractionFragment(conversationID, interactionID, fragment string) {
	s.mu.Lock()
	interaction, ok := s.lookupLocked(conversationID, interactionID)
	if ok && interaction.CompletedAt == nil {
		interaction.MessageContent += fragment
	} else {
		ok = false
	}
	s.mu.Unlock()

	if ok {
		s.notifier.publish(Change{Kind: ChangeConversation, ConversationID: conversationID})
	}
}

// UpdateInteractionMessageContent replaces the interaction's content
// wholesale and stamps CompletedAt. This is the single transition that marks
// an interaction complete.
func (s *Store) UpdateInteractionMessageContent(conversationID, interactionID, content string) {
	now := time.Now()

	s.mu.Lock()
	interaction, ok := s.lookupLocked(conversationID, interactionID)
	if ok {
		interaction.MessageContent = content
		interaction.CompletedAt = &now
		interaction.UpdatedAt = now
	}
	s.mu.Unlock()

	if ok {
		s.notifier.publish(Change{Kind: ChangeConversation, ConversationID: conversationID})
	}
}

// AddInteractionError appends a structured failure record to the
// interaction. Errors are data, not faults: they accumulate and render
// alongside any partial content, and do not complete the interaction.
func (s *Store) AddInteractionError(conversationID, interactionID string, record chat.ErrorRecord) {
	s.mu.Lock()
	interaction, ok := s.lookupLocked(conversationID, interactionID)
	if ok {
		interaction.Errors = append(interaction.Errors, record)
	}
	s.mu.Unlock()

	if ok {
		s.notifier.publish(Change{Kind: ChangeConversation, ConversationID: conversationID})
	}
}

// UpdateConversationTitle appends to or replaces the conversation title.
// With treatAsFragment the carried string is appended to the existing title,
// initializing it when absent; otherwise the title is replaced outright.
func (s *Store) UpdateConversationTitle(conversationID, title string, treatAsFragment bool) {
	s.mu.Lock()
	conv, ok := s.conversations[conversationID]
	if ok {
		switch {
		case !treatAsFragment || conv.Title == nil:
			t := title
			conv.Title = &t
		default:
			t := *conv.Title + title
			conv.Title = &t
		}
	}
	s.mu.Unlock()

	if ok {
		s.notifier.publish(Change{Kind: ChangeConversation, ConversationID: conversationID})
	}
}

// DeleteConversations removes matching entries entirely from the map. This
// is a hard remove from client state, not a tombstone.
func (s *Store) DeleteConversations(conversationIDs []string) {
	s.mu.Lock()
	removed := 0
	for _, id := range conversationIDs {
		if _, ok := s.conversations[id]; ok {
			delete(s.conversations, id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug("conversations deleted", "count", removed)
		s.notifier.publish(Change{Kind: ChangeConversationList})
	}
}

// DeleteInteractions scans every conversation and removes any interaction
// whose id matches, regardless of which conversation owns it. Callers (a
// list view acting on selection) do not always know the owning conversation.
func (s *Store) DeleteInteractions(interactionIDs []string) {
	targets := make(map[string]bool, len(interactionIDs))
	for _, id := range interactionIDs {
		targets[id] = true
	}

	s.mu.Lock()
	changed := make([]string, 0, 1)
	for convID, conv := range s.conversations {
		touched := false
		for id := range conv.Interactions {
			if targets[id] {
				delete(conv.Interactions, id)
				touched = true
			}
		}
		if touched {
			changed = append(changed, convID)
		}
	}
	s.mu.Unlock()

	for _, convID := range changed {
		s.notifier.publish(Change{Kind: ChangeConversation, ConversationID: convID})
	}
}

// UpdateInteractionExcludedState scans every conversation for the matching
// interaction and sets or clears MarkedAsExcludedAt. Exclusion is orthogonal
// to completion; nothing else on the interaction is touched.
func (s *Store) UpdateInteractionExcludedState(interactionID string, excluded bool) {
	now := time.Now()

	s.mu.Lock()
	var changedConv string
	for convID, conv := range s.conversations {
		interaction, ok := conv.Interactions[interactionID]
		if !ok {
			continue
		}
		if excluded {
			interaction.MarkedAsExcludedAt = &now
		} else {
			interaction.MarkedAsExcludedAt = nil
		}
		changedConv = convID
		break
	}
	s.mu.Unlock()

	if changedConv != "" {
		s.notifier.publish(Change{Kind: ChangeConversation, ConversationID: changedConv})
	}
}

// lookupLocked resolves an interaction. Must be called with mu held.
func (s *Store) lookupLocked(conversationID, interactionID string) (*chat.Interaction, bool) {
	conv, ok := s.conversations[conversationID]
	if !ok {
		return nil, false
	}
	interaction, ok := conv.Interactions[interactionID]
	return interaction, ok
}
