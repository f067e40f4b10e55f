// ABOUTME: Tests for conversation store mutation operations
// ABOUTME: Covers fragment accumulation, terminal replace, injection, scans, and exclusion

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minnowchat/minnow/internal/chat"
)

func newTestConversation(id string) *chat.Conversation {
	now := time.Now()
	return &chat.Conversation{
		ID:              id,
		Owner:           chat.Actor{Type: chat.ActorTypeUser, Identifier: "user_1"},
		ModelSelector:   chat.ModelSelector{ProviderID: "open_ai", ModelID: "gpt-4"},
		StreamChannelID: id,
		Interactions:    make(map[string]*chat.Interaction),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func newTestInteraction(convID, id string, completed bool) *chat.Interaction {
	now := time.Now()
	interaction := &chat.Interaction{
		ID:              id,
		ConversationID:  convID,
		StreamChannelID: convID + "/" + id,
		Owner:           chat.Actor{Type: chat.ActorTypeUser, Identifier: "user_1"},
		ModelSelector:   chat.ModelSelector{ProviderID: "open_ai", ModelID: "gpt-4"},
		MessageContent:  "hello",
		Errors:          []chat.ErrorRecord{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if completed {
		interaction.CompletedAt = &now
	}
	return interaction
}

func TestInjectConversations_FirstWriteWins(t *testing.T) {
	s := New(nil)

	first := newTestConversation("conv_1")
	title := "original"
	first.Title = &title
	s.InjectConversations([]*chat.Conversation{first})

	second := newTestConversation("conv_1")
	otherTitle := "replacement"
	second.Title = &otherTitle
	s.InjectConversations([]*chat.Conversation{second})

	got, ok := s.Conversation("conv_1")
	require.True(t, ok)
	require.NotNil(t, got.Title)
	assert.Equal(t, "original", *got.Title)
	assert.Equal(t, 1, s.Len())
}

func TestInjectConversations_NeverOverwritesLocalStart(t *testing.T) {
	s := New(nil)

	s.StartConversation(StartConversationParams{
		ConversationID:  "conv_1",
		Owner:           chat.Actor{Type: chat.ActorTypeUser, Identifier: "user_1"},
		ModelSelector:   chat.ModelSelector{ProviderID: "open_ai", ModelID: "gpt-4"},
		StreamChannelID: "conv_1",
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	})
	s.AddInteractionFragment("conv_1", "missing", "ignored")

	snapshot := newTestConversation("conv_1")
	snapshot.Interactions["x"] = newTestInteraction("conv_1", "x", true)
	s.InjectConversations([]*chat.Conversation{snapshot})

	got, ok := s.Conversation("conv_1")
	require.True(t, ok)
	assert.Empty(t, got.Interactions, "snapshot must not replace local entry")
}

func TestAddInteractionFragment_Concatenates(t *testing.T) {
	s := New(nil)
	s.InjectConversations([]*chat.Conversation{newTestConversation("conv_1")})
	s.AddActiveInteraction(AddActiveInteractionParams{
		ConversationID:  "conv_1",
		InteractionID:   "int_1",
		StreamChannelID: "conv_1/int_1",
		ModelSelector:   chat.ModelSelector{ProviderID: "open_ai", ModelID: "gpt-4"},
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	})

	for _, f := range []string{"f1", "f2", "f3"} {
		s.AddInteractionFragment("conv_1", "int_1", f)
	}

	interactions := s.Interactions("conv_1")
	require.Len(t, interactions, 1)
	assert.Equal(t, "f1f2f3", interactions[0].MessageContent)
	assert.Nil(t, interactions[0].CompletedAt)
	assert.Equal(t, chat.ActorTypeBot, interactions[0].Owner.Type)
}

func TestAddInteractionFragment_NoOpWhenMissing(t *testing.T) {
	s := New(nil)

	// Neither conversation nor interaction exists; must not panic or insert
	s.AddInteractionFragment("ghost", "int_1", "boo")
	assert.Equal(t, 0, s.Len())

	s.InjectConversations([]*chat.Conversation{newTestConversation("conv_1")})
	s.AddInteractionFragment("conv_1", "ghost", "boo")
	assert.Empty(t, s.Interactions("conv_1"))
}

func TestAddInteractionFragment_IgnoredAfterCompletion(t *testing.T) {
	s := New(nil)
	conv := newTestConversation("conv_1")
	conv.Interactions["int_1"] = newTestInteraction("conv_1", "int_1", true)
	s.InjectConversations([]*chat.Conversation{conv})

	s.AddInteractionFragment("conv_1", "int_1", " and more")

	interactions := s.Interactions("conv_1")
	require.Len(t, interactions, 1)
	assert.Equal(t, "hello", interactions[0].MessageContent, "completed content is final")
}

func TestUpdateInteractionMessageContent_TerminalReplace(t *testing.T) {
	s := New(nil)
	s.InjectConversations([]*chat.Conversation{newTestConversation("conv_1")})
	s.AddActiveInteraction(AddActiveInteractionParams{
		ConversationID: "conv_1",
		InteractionID:  "int_1",
		ModelSelector:  chat.ModelSelector{ProviderID: "open_ai", ModelID: "gpt-4"},
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	})
	s.AddInteractionFragment("conv_1", "int_1", "partial accu")

	s.UpdateInteractionMessageContent("conv_1", "int_1", "The final answer.")

	interactions := s.Interactions("conv_1")
	require.Len(t, interactions, 1)
	assert.Equal(t, "The final answer.", interactions[0].MessageContent)
	require.NotNil(t, interactions[0].CompletedAt)

	// Later fragments must not mutate completed content
	s.AddInteractionFragment("conv_1", "int_1", "!!")
	interactions = s.Interactions("conv_1")
	assert.Equal(t, "The final answer.", interactions[0].MessageContent)
}

func TestUpdateConversationTitle_FragmentAndReplace(t *testing.T) {
	s := New(nil)
	s.InjectConversations([]*chat.Conversation{newTestConversation("conv_1")})

	// Fragment append initializes an absent title
	s.UpdateConversationTitle("conv_1", "Gree", true)
	s.UpdateConversationTitle("conv_1", "tings", true)

	got, ok := s.Conversation("conv_1")
	require.True(t, ok)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Greetings", *got.Title)

	// Full replace wins outright
	s.UpdateConversationTitle("conv_1", "Salutations", false)
	got, _ = s.Conversation("conv_1")
	assert.Equal(t, "Salutations", *got.Title)
}

func TestAddInteractionError_Accumulates(t *testing.T) {
	s := New(nil)
	conv := newTestConversation("conv_1")
	conv.Interactions["int_1"] = newTestInteraction("conv_1", "int_1", false)
	s.InjectConversations([]*chat.Conversation{conv})

	s.AddInteractionError("conv_1", "int_1", chat.ErrorRecord{Code: "model_not_supported"})
	s.AddInteractionError("conv_1", "int_1", chat.ErrorRecord{
		Code:    "relay_failed",
		Reasons: []chat.ErrorRecord{{Code: "timeout"}},
	})

	interactions := s.Interactions("conv_1")
	require.Len(t, interactions, 1)
	require.Len(t, interactions[0].Errors, 2)
	assert.Equal(t, "model_not_supported", interactions[0].Errors[0].Code)
	assert.Equal(t, "timeout", interactions[0].Errors[1].Reasons[0].Code)
	// Errors do not complete the interaction
	assert.Nil(t, interactions[0].CompletedAt)
}

func TestDeleteConversations_RemovesEntries(t *testing.T) {
	s := New(nil)
	s.InjectConversations([]*chat.Conversation{
		newTestConversation("conv_1"),
		newTestConversation("conv_2"),
		newTestConversation("conv_3"),
	})

	s.DeleteConversations([]string{"conv_1", "conv_3", "ghost"})

	assert.Equal(t, 1, s.Len())
	_, ok := s.Conversation("conv_2")
	assert.True(t, ok)
}

func TestDeleteInteractions_CrossConversationScan(t *testing.T) {
	s := New(nil)

	convA := newTestConversation("A")
	convA.Interactions["x"] = newTestInteraction("A", "x", true)
	convA.Interactions["y"] = newTestInteraction("A", "y", true)
	convB := newTestConversation("B")
	convB.Interactions["x"] = newTestInteraction("B", "x", true)
	s.InjectConversations([]*chat.Conversation{convA, convB})

	s.DeleteInteractions([]string{"x"})

	a, _ := s.Conversation("A")
	b, _ := s.Conversation("B")
	assert.NotContains(t, a.Interactions, "x")
	assert.Contains(t, a.Interactions, "y")
	assert.Empty(t, b.Interactions)
}

func TestUpdateInteractionExcludedState_ToggleIsIndependent(t *testing.T) {
	s := New(nil)
	conv := newTestConversation("conv_1")
	interaction := newTestInteraction("conv_1", "int_1", true)
	interaction.Errors = []chat.ErrorRecord{{Code: "warned_once"}}
	conv.Interactions["int_1"] = interaction
	s.InjectConversations([]*chat.Conversation{conv})

	s.UpdateInteractionExcludedState("int_1", true)

	got, ok := s.FindInteraction("int_1")
	require.True(t, ok)
	require.NotNil(t, got.MarkedAsExcludedAt)
	assert.Equal(t, "hello", got.MessageContent)
	assert.Len(t, got.Errors, 1)
	assert.NotNil(t, got.CompletedAt)

	s.UpdateInteractionExcludedState("int_1", false)
	got, _ = s.FindInteraction("int_1")
	assert.Nil(t, got.MarkedAsExcludedAt)
}

func TestInteractions_SortedByCreatedAt(t *testing.T) {
	s := New(nil)
	conv := newTestConversation("conv_1")

	base := time.Now()
	for i, id := range []string{"third", "first", "second"} {
		interaction := newTestInteraction("conv_1", id, true)
		switch i {
		case 0:
			interaction.CreatedAt = base.Add(2 * time.Second)
		case 1:
			interaction.CreatedAt = base
		case 2:
			interaction.CreatedAt = base.Add(time.Second)
		}
		conv.Interactions[id] = interaction
	}
	s.InjectConversations([]*chat.Conversation{conv})

	interactions := s.Interactions("conv_1")
	require.Len(t, interactions, 3)
	assert.Equal(t, "first", interactions[0].ID)
	assert.Equal(t, "second", interactions[1].ID)
	assert.Equal(t, "third", interactions[2].ID)
}

func TestReadModel_ReturnsCopies(t *testing.T) {
	s := New(nil)
	conv := newTestConversation("conv_1")
	conv.Interactions["int_1"] = newTestInteraction("conv_1", "int_1", false)
	s.InjectConversations([]*chat.Conversation{conv})

	got, ok := s.Conversation("conv_1")
	require.True(t, ok)
	got.Interactions["int_1"].MessageContent = "tampered"

	fresh, _ := s.Conversation("conv_1")
	assert.Equal(t, "hello", fresh.Interactions["int_1"].MessageContent)
}
