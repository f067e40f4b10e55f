// ABOUTME: Per-conversation input drafts held only in memory
// ABOUTME: Drafts survive switching conversations but never the process

// Package draft tracks unsent input state per conversation. Each
// conversation keeps its own prompt, model selection, and attachment
// lists so switching between conversations restores whatever was being
// composed. The state is deliberately ephemeral; nothing here persists.
package draft

import (
	"sync"

	"github.com/minnowchat/minnow/internal/chat"
)

// ComposeKey is the reserved slot for input composed before a conversation
// exists. Conversation identifiers are server-issued, so the key cannot
// collide with one.
const ComposeKey = "@compose"

// Draft is the unsent input state for one conversation.
type Draft struct {
	Prompt        string
	ModelSelector chat.ModelSelector
	SkillSetIDs   []string
	FileIDs       []string
}

// Manager holds drafts keyed by conversation identifier.
type Manager struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
}

// NewManager returns an empty draft manager.
func NewManager() *Manager {
	return &Manager{drafts: make(map[string]*Draft)}
}

// Get returns a copy of the draft for the conversation, or a zero draft if
// none is held.
func (m *Manager) Get(conversationID string) Draft {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drafts[conversationID]
	if !ok {
		return Draft{}
	}
	out := *d
	out.SkillSetIDs = append([]string(nil), d.SkillSetIDs...)
	out.FileIDs = append([]string(nil), d.FileIDs...)
	return out
}

// Set replaces the draft for the conversation.
func (m *Manager) Set(conversationID string, d Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := d
	stored.SkillSetIDs = append([]string(nil), d.SkillSetIDs...)
	stored.FileIDs = append([]string(nil), d.FileIDs...)
	m.drafts[conversationID] = &stored
}

// SetPrompt updates only the prompt, preserving selections and attachments.
func (m *Manager) SetPrompt(conversationID, prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[conversationID]
	if !ok {
		d = &Draft{}
		m.drafts[conversationID] = d
	}
	d.Prompt = prompt
}

// Clear drops the draft for the conversation. Called after a successful
// submission; a failed submission keeps the draft so the input is not lost.
func (m *Manager) Clear(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, conversationID)
}

// Promote moves the compose draft onto a newly created conversation so
// follow-up edits land under the real identifier.
func (m *Manager) Promote(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[ComposeKey]
	if !ok {
		return
	}
	delete(m.drafts, ComposeKey)
	m.drafts[conversationID] = d
}
