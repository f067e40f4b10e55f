// ABOUTME: Tests for the per-conversation draft manager
// ABOUTME: Covers isolation between conversations, clearing, and compose promotion

package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/minnowchat/minnow/internal/chat"
)

func TestDrafts_IsolatedPerConversation(t *testing.T) {
	m := NewManager()

	m.SetPrompt("c1", "draft for one")
	m.SetPrompt("c2", "draft for two")

	assert.Equal(t, "draft for one", m.Get("c1").Prompt)
	assert.Equal(t, "draft for two", m.Get("c2").Prompt)
	assert.Equal(t, Draft{}, m.Get("c3"), "unknown conversation yields a zero draft")
}

func TestSetPrompt_PreservesSelections(t *testing.T) {
	m := NewManager()
	m.Set("c1", Draft{
		Prompt:        "old",
		ModelSelector: chat.ModelSelector{ProviderID: "open_ai", ModelID: "gpt-4"},
		SkillSetIDs:   []string{"ss_1"},
	})

	m.SetPrompt("c1", "new")

	d := m.Get("c1")
	assert.Equal(t, "new", d.Prompt)
	assert.Equal(t, "gpt-4", d.ModelSelector.ModelID)
	assert.Equal(t, []string{"ss_1"}, d.SkillSetIDs)
}

func TestClear_DropsDraft(t *testing.T) {
	m := NewManager()
	m.SetPrompt("c1", "about to send")

	m.Clear("c1")

	assert.Equal(t, Draft{}, m.Get("c1"))
}

func TestPromote_MovesComposeDraft(t *testing.T) {
	m := NewManager()
	m.Set(ComposeKey, Draft{Prompt: "first message"})

	m.Promote("conv_1")

	assert.Equal(t, "first message", m.Get("conv_1").Prompt)
	assert.Equal(t, Draft{}, m.Get(ComposeKey))

	// Promote with nothing composed is a no-op
	m.Promote("conv_2")
	assert.Equal(t, Draft{}, m.Get("conv_2"))
}

func TestGet_ReturnsCopies(t *testing.T) {
	m := NewManager()
	m.Set("c1", Draft{Prompt: "p", FileIDs: []string{"f1"}})

	d := m.Get("c1")
	d.FileIDs[0] = "mutated"

	assert.Equal(t, []string{"f1"}, m.Get("c1").FileIDs)
}
