// ABOUTME: Core value types for conversations and interactions
// ABOUTME: Field shapes follow the platform wire contracts (snake_case JSON)

package chat

import "time"

// ActorType discriminates who authored an interaction.
type ActorType string

const (
	ActorTypeUser ActorType = "user"
	ActorTypeBot  ActorType = "bot"
)

// Actor identifies the author of a conversation or interaction.
type Actor struct {
	Type       ActorType `json:"type"`
	Identifier string    `json:"identifier"`
}

// ModelSelector names the AI provider/model that produced or should produce
// a response. Immutable once an interaction is created.
type ModelSelector struct {
	ProviderID string `json:"provider_id"`
	ModelID    string `json:"model_id"`
}

// ErrorRecord is a structured failure surfaced by the backend for a specific
// interaction. Reasons form a root-cause chain.
type ErrorRecord struct {
	Code    string         `json:"code"`
	Meta    map[string]any `json:"meta,omitempty"`
	Reasons []ErrorRecord  `json:"reasons,omitempty"`
}

// Error implements the error interface so records can travel as Go errors.
func (e ErrorRecord) Error() string {
	return e.Code
}

// Interaction is one authored turn within a conversation.
//
// CompletedAt == nil means the interaction is still being produced; while it
// is nil, MessageContent only grows by fragment appends. A terminal event
// replaces MessageContent wholesale and stamps CompletedAt, after which the
// content is final.
type Interaction struct {
	ID              string `json:"id"`
	ConversationID  string `json:"conversation_id"`
	StreamChannelID string `json:"stream_channel_id"`

	Owner         Actor         `json:"owner"`
	ModelSelector ModelSelector `json:"model_selector"`

	MessageContent string        `json:"message_content"`
	Errors         []ErrorRecord `json:"errors"`
	FileIDs        []string      `json:"file_ids,omitempty"`

	// MarkedAsExcludedAt flags the interaction as omitted from future model
	// context. Orthogonal to completion; content stays rendered.
	MarkedAsExcludedAt *time.Time `json:"marked_as_excluded_at"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
}

// Streaming reports whether the interaction is still being produced.
func (i *Interaction) Streaming() bool {
	return i.CompletedAt == nil
}

// Failed reports whether the interaction produced errors but no usable output.
func (i *Interaction) Failed() bool {
	return len(i.Errors) > 0 && i.MessageContent == ""
}

// Conversation is a thread of interactions. The server assigns ID; the
// client never mutates it. Interactions carry no ordering in the map; sort
// by CreatedAt to render chronologically.
type Conversation struct {
	ID              string `json:"id"`
	StreamChannelID string `json:"stream_channel_id"`

	Owner         Actor         `json:"owner"`
	ModelSelector ModelSelector `json:"model_selector"`

	// Title starts nil and is filled in by streamed updates or snapshots.
	Title *string `json:"title"`

	Interactions map[string]*Interaction `json:"interactions"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// TitleOrDefault returns the title, or fallback while no title has arrived.
func (c *Conversation) TitleOrDefault(fallback string) string {
	if c.Title == nil || *c.Title == "" {
		return fallback
	}
	return *c.Title
}
