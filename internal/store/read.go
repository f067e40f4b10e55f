// ABOUTME: Read model over the conversation store
// ABOUTME: Returns defensive copies so readers never alias writer-owned state

package store

import (
	"sort"

	"github.com/minnowchat/minnow/internal/chat"
)

// Conversation returns a copy of the conversation with the given id.
func (s *Store) Conversation(id string) (*chat.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, false
	}
	return cloneConversation(conv), true
}

// Conversations returns copies of every conversation, newest first.
func (s *Store) Conversations() []*chat.Conversation {
	s.mu.RLock()
	out := make([]*chat.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, cloneConversation(conv))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Interactions returns copies of the conversation's interactions in
// chronological order. The interaction map implies no ordering; consumers
// sort by CreatedAt to render.
func (s *Store) Interactions(conversationID string) []*chat.Interaction {
	s.mu.RLock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		s.mu.RUnlock()
		return nil
	}
	out := make([]*chat.Interaction, 0, len(conv.Interactions))
	for _, interaction := range conv.Interactions {
		out = append(out, cloneInteraction(interaction))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// FindInteraction scans every conversation for the given interaction id.
func (s *Store) FindInteraction(interactionID string) (*chat.Interaction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conv := range s.conversations {
		if interaction, ok := conv.Interactions[interactionID]; ok {
			return cloneInteraction(interaction), true
		}
	}
	return nil, false
}

// Len returns the number of conversations held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

func cloneConversation(conv *chat.Conversation) *chat.Conversation {
	out := *conv
	if conv.Title != nil {
		t := *conv.Title
		out.Title = &t
	}
	out.Interactions = make(map[string]*chat.Interaction, len(conv.Interactions))
	for id, interaction := range conv.Interactions {
		out.Interactions[id] = cloneInteraction(interaction)
	}
	return &out
}

func cloneInteraction(interaction *chat.Interaction) *chat.Interaction {
	out := *interaction
	if interaction.MarkedAsExcludedAt != nil {
		t := *interaction.MarkedAsExcludedAt
		out.MarkedAsExcludedAt = &t
	}
	if interaction.CompletedAt != nil {
		t := *interaction.CompletedAt
		out.CompletedAt = &t
	}
	if interaction.DeletedAt != nil {
		t := *interaction.DeletedAt
		out.DeletedAt = &t
	}
	out.Errors = append([]chat.ErrorRecord(nil), interaction.Errors...)
	out.FileIDs = append([]string(nil), interaction.FileIDs...)
	return &out
}
