// ABOUTME: Conversation service client: creation, snapshots, deletion, exclusion
// ABOUTME: Wire types mirror the service contract; converters produce chat domain values

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/minnowchat/minnow/internal/chat"
	"github.com/minnowchat/minnow/internal/rpc"
)

const conversationVersion = "2025-02-12"

// ConversationClient submits conversation mutations and fetches snapshots.
type ConversationClient struct {
	rpc *rpc.Client
}

// NewConversationClient returns a client for the conversation service rooted
// at baseURL. Pass nil for the default HTTP client.
func NewConversationClient(baseURL string, c *http.Client) (*ConversationClient, error) {
	rc, err := rpc.NewClient(baseURL, c)
	if err != nil {
		return nil, err
	}
	return &ConversationClient{rpc: rc}, nil
}

// CreateConversationRequest asks the service to mint a new conversation.
type CreateConversationRequest struct {
	IdempotencyKey string             `json:"idempotency_key"`
	Owner          chat.Actor         `json:"owner"`
	ModelSelector  chat.ModelSelector `json:"model_selector"`
}

// CreateConversationResponse carries the server-issued identity of a new
// conversation. Title is usually nil at creation and arrives later over the
// push channel.
type CreateConversationResponse struct {
	ID              string             `json:"id"`
	Owner           chat.Actor         `json:"owner"`
	ModelSelector   chat.ModelSelector `json:"model_selector"`
	Title           *string            `json:"title"`
	StreamChannelID string             `json:"stream_channel_id"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	DeletedAt       *time.Time         `json:"deleted_at"`
}

func (c *ConversationClient) CreateConversation(ctx context.Context, req *CreateConversationRequest) (resp *CreateConversationResponse, err error) {
	return resp, c.rpc.Do(ctx, "create_conversation", conversationVersion, req, &resp)
}

// CreateMessageOptions toggles response streaming for a submission.
type CreateMessageOptions struct {
	UseStreaming bool `json:"use_streaming"`
}

// CreateConversationMessageRequest submits a user message to an existing
// conversation. The same idempotency key used for any preceding
// create_conversation call is carried here so the pair deduplicates together.
type CreateConversationMessageRequest struct {
	ConversationID string               `json:"conversation_id"`
	IdempotencyKey string               `json:"idempotency_key"`
	MessageContent string               `json:"message_content"`
	FileIDs        []string             `json:"file_ids"`
	SkillSetIDs    []string             `json:"skill_set_ids"`
	Owner          chat.Actor           `json:"owner"`
	ModelSelector  chat.ModelSelector   `json:"model_selector"`
	Options        CreateMessageOptions `json:"options"`
}

// InteractionSnapshot is the wire shape of one interaction as returned by
// message creation and snapshot fetches.
type InteractionSnapshot struct {
	ID              string             `json:"id"`
	StreamChannelID string             `json:"stream_channel_id"`
	FileIDs         []string           `json:"file_ids"`
	MessageContent  string             `json:"message_content"`
	Errors          []chat.ErrorRecord `json:"errors"`
	Owner           chat.Actor         `json:"owner"`
	ModelSelector   chat.ModelSelector `json:"model_selector"`

	MarkedAsExcludedAt *time.Time `json:"marked_as_excluded_at"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
}

// CreateConversationMessageResponse returns both sides of the exchange: the
// finalized input interaction and the pending response interaction the model
// will stream into.
type CreateConversationMessageResponse struct {
	ConversationID      string               `json:"conversation_id"`
	InputInteraction    *InteractionSnapshot `json:"input_interaction"`
	ResponseInteraction *InteractionSnapshot `json:"response_interaction"`
	StreamChannelID     string               `json:"stream_channel_id"`
}

func (c *ConversationClient) CreateConversationMessage(ctx context.Context, req *CreateConversationMessageRequest) (resp *CreateConversationMessageResponse, err error) {
	return resp, c.rpc.Do(ctx, "create_conversation_message", conversationVersion, req, &resp)
}

// ConversationSnapshot is the wire shape of one conversation with its
// interactions, as returned by snapshot fetches.
type ConversationSnapshot struct {
	ID              string                 `json:"id"`
	Owner           chat.Actor             `json:"owner"`
	ModelSelector   chat.ModelSelector     `json:"model_selector"`
	Title           *string                `json:"title"`
	StreamChannelID string                 `json:"stream_channel_id"`
	Interactions    []*InteractionSnapshot `json:"interactions"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	DeletedAt       *time.Time             `json:"deleted_at"`
}

type GetConversationWithInteractionsRequest struct {
	ConversationID string `json:"conversation_id"`
}

func (c *ConversationClient) GetConversationWithInteractions(ctx context.Context, req *GetConversationWithInteractionsRequest) (resp *ConversationSnapshot, err error) {
	return resp, c.rpc.Do(ctx, "get_conversation_with_interactions", conversationVersion, req, &resp)
}

type ListConversationsWithInteractionsRequest struct {
	Owner chat.Actor `json:"owner"`
}

type ListConversationsWithInteractionsResponse struct {
	Conversations []*ConversationSnapshot `json:"conversations"`
}

func (c *ConversationClient) ListConversationsWithInteractions(ctx context.Context, req *ListConversationsWithInteractionsRequest) (resp *ListConversationsWithInteractionsResponse, err error) {
	return resp, c.rpc.Do(ctx, "list_conversations_with_interactions", conversationVersion, req, &resp)
}

type DeleteConversationsRequest struct {
	ConversationIDs []string `json:"conversation_ids"`
}

func (c *ConversationClient) DeleteConversations(ctx context.Context, req *DeleteConversationsRequest) error {
	return c.rpc.Do(ctx, "delete_conversations", conversationVersion, req, nil)
}

type DeleteInteractionsRequest struct {
	InteractionIDs []string `json:"interaction_ids"`
}

func (c *ConversationClient) DeleteInteractions(ctx context.Context, req *DeleteInteractionsRequest) error {
	return c.rpc.Do(ctx, "delete_interactions", conversationVersion, req, nil)
}

type UpdateInteractionExcludedStateRequest struct {
	InteractionID string `json:"interaction_id"`
	Excluded      bool   `json:"excluded"`
}

func (c *ConversationClient) UpdateInteractionExcludedState(ctx context.Context, req *UpdateInteractionExcludedStateRequest) error {
	return c.rpc.Do(ctx, "update_interaction_excluded_state", conversationVersion, req, nil)
}

// ToConversation converts a snapshot into the store's domain shape.
func (s *ConversationSnapshot) ToConversation() *chat.Conversation {
	conv := &chat.Conversation{
		ID:              s.ID,
		Owner:           s.Owner,
		ModelSelector:   s.ModelSelector,
		Title:           s.Title,
		StreamChannelID: s.StreamChannelID,
		Interactions:    make(map[string]*chat.Interaction, len(s.Interactions)),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		DeletedAt:       s.DeletedAt,
	}
	for _, i := range s.Interactions {
		conv.Interactions[i.ID] = i.ToInteraction(s.ID)
	}
	return conv
}

// ToInteraction converts a snapshot into the store's domain shape.
func (s *InteractionSnapshot) ToInteraction(conversationID string) *chat.Interaction {
	return &chat.Interaction{
		ID:                 s.ID,
		ConversationID:     conversationID,
		StreamChannelID:    s.StreamChannelID,
		Owner:              s.Owner,
		ModelSelector:      s.ModelSelector,
		MessageContent:     s.MessageContent,
		Errors:             s.Errors,
		FileIDs:            s.FileIDs,
		MarkedAsExcludedAt: s.MarkedAsExcludedAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		CompletedAt:        s.CompletedAt,
		DeletedAt:          s.DeletedAt,
	}
}
