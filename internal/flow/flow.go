// ABOUTME: Start/continue conversation flows plus refresh, delete, and exclusion
// ABOUTME: Submits to the conversation service, then pushes optimistic records into the store

package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/minnowchat/minnow/internal/api"
	"github.com/minnowchat/minnow/internal/chat"
	"github.com/minnowchat/minnow/internal/store"
)

var (
	// ErrNoCurrentUser means the session cache holds no resolved user; the
	// flow rejects immediately instead of fetching inline.
	ErrNoCurrentUser = errors.New("no current user resolved")

	// ErrKeyReused means the idempotency key was already spent on an
	// earlier submission.
	ErrKeyReused = errors.New("idempotency key already used for a submission")

	// ErrInteractionStreaming means the exclusion toggle was refused
	// because the target interaction is still being produced.
	ErrInteractionStreaming = errors.New("interaction is still streaming")
)

const (
	// Spent keys only need to outlive the window in which a caller could
	// plausibly resubmit the same form state.
	keyLedgerTTL     = time.Hour
	keyLedgerMaxSize = 1024
)

// ConversationAPI is what the flows need from the conversation service.
type ConversationAPI interface {
	CreateConversation(ctx context.Context, req *api.CreateConversationRequest) (*api.CreateConversationResponse, error)
	CreateConversationMessage(ctx context.Context, req *api.CreateConversationMessageRequest) (*api.CreateConversationMessageResponse, error)
	ListConversationsWithInteractions(ctx context.Context, req *api.ListConversationsWithInteractionsRequest) (*api.ListConversationsWithInteractionsResponse, error)
	DeleteConversations(ctx context.Context, req *api.DeleteConversationsRequest) error
	DeleteInteractions(ctx context.Context, req *api.DeleteInteractionsRequest) error
	UpdateInteractionExcludedState(ctx context.Context, req *api.UpdateInteractionExcludedStateRequest) error
}

// CurrentActor supplies the cached submission actor.
type CurrentActor interface {
	Actor() (chat.Actor, bool)
}

// ConversationStore is what the flows need from the store.
type ConversationStore interface {
	InjectConversations(conversations []*chat.Conversation)
	StartConversation(p store.StartConversationParams)
	AddInteraction(interaction *chat.Interaction)
	AddActiveInteraction(p store.AddActiveInteractionParams)
	DeleteConversations(conversationIDs []string)
	DeleteInteractions(interactionIDs []string)
	UpdateInteractionExcludedState(interactionID string, excluded bool)
	FindInteraction(interactionID string) (*chat.Interaction, bool)
}

// Service sequences submission calls and store mutations.
type Service struct {
	api     ConversationAPI
	session CurrentActor
	store   ConversationStore
	keys    *keyLedger
	logger  *slog.Logger
}

// New creates a flow service. Pass nil logger for default.
func New(conversationAPI ConversationAPI, session CurrentActor, conversationStore ConversationStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:     conversationAPI,
		session: session,
		store:   conversationStore,
		keys:    newKeyLedger(keyLedgerTTL, keyLedgerMaxSize),
		logger:  logger.With("component", "flow"),
	}
}

// StartRequest carries everything a start-conversation flow needs. The
// idempotency key covers the whole flow; mint a fresh one for the next
// submission after this flow returns successfully.
type StartRequest struct {
	IdempotencyKey string
	Prompt         string
	ModelSelector  chat.ModelSelector
	SkillSetIDs    []string
	FileIDs        []string
}

// Result identifies everything a flow created so the caller can track
// in-flight submission state and navigate to the conversation.
type Result struct {
	ConversationID        string
	InputInteractionID    string
	ResponseInteractionID string
	StreamChannelID       string
}

// Start runs the start-conversation flow: create the conversation, insert
// it into the store before any message exists on it, submit the first
// message, then insert both sides of the exchange.
func (s *Service) Start(ctx context.Context, req StartRequest) (*Result, error) {
	actor, ok := s.session.Actor()
	if !ok {
		return nil, ErrNoCurrentUser
	}
	if !s.keys.Spend(req.IdempotencyKey) {
		return nil, ErrKeyReused
	}

	conv, err := s.api.CreateConversation(ctx, &api.CreateConversationRequest{
		IdempotencyKey: req.IdempotencyKey,
		Owner:          actor,
		ModelSelector:  req.ModelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.store.StartConversation(store.StartConversationParams{
		ConversationID:  conv.ID,
		Owner:           conv.Owner,
		ModelSelector:   conv.ModelSelector,
		Title:           conv.Title,
		StreamChannelID: conv.StreamChannelID,
		CreatedAt:       conv.CreatedAt,
		UpdatedAt:       conv.UpdatedAt,
	})

	result, err := s.submitMessage(ctx, conv.ID, actor, req.IdempotencyKey, req.Prompt, req.ModelSelector, req.SkillSetIDs, req.FileIDs)
	if err != nil {
		// The conversation is already in the store with no message on it;
		// that state stands. Callers retry the message, not the flow.
		return nil, err
	}

	s.logger.Debug("conversation started",
		"conversation_id", result.ConversationID,
		"input_interaction_id", result.InputInteractionID)
	return result, nil
}

// ContinueRequest carries a follow-up submission against an existing
// conversation.
type ContinueRequest struct {
	ConversationID string
	IdempotencyKey string
	Prompt         string
	ModelSelector  chat.ModelSelector
	SkillSetIDs    []string
	FileIDs        []string
}

// Continue runs the continue-conversation flow: submit a message against an
// existing conversation and insert both sides of the exchange.
func (s *Service) Continue(ctx context.Context, req ContinueRequest) (*Result, error) {
	actor, ok := s.session.Actor()
	if !ok {
		return nil, ErrNoCurrentUser
	}
	if !s.keys.Spend(req.IdempotencyKey) {
		return nil, ErrKeyReused
	}

	result, err := s.submitMessage(ctx, req.ConversationID, actor, req.IdempotencyKey, req.Prompt, req.ModelSelector, req.SkillSetIDs, req.FileIDs)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("conversation continued",
		"conversation_id", result.ConversationID,
		"input_interaction_id", result.InputInteractionID)
	return result, nil
}

// submitMessage is steps 4-5 shared by both flows: create the message with
// streaming enabled, then insert the finalized input interaction and the
// pending response interaction.
func (s *Service) submitMessage(ctx context.Context, conversationID string, actor chat.Actor, idempotencyKey, prompt string, selector chat.ModelSelector, skillSetIDs, fileIDs []string) (*Result, error) {
	msg, err := s.api.CreateConversationMessage(ctx, &api.CreateConversationMessageRequest{
		ConversationID: conversationID,
		IdempotencyKey: idempotencyKey,
		MessageContent: prompt,
		FileIDs:        fileIDs,
		SkillSetIDs:    skillSetIDs,
		Owner:          actor,
		ModelSelector:  selector,
		Options:        api.CreateMessageOptions{UseStreaming: true},
	})
	if err != nil {
		return nil, fmt.Errorf("creating conversation message: %w", err)
	}

	input := msg.InputInteraction.ToInteraction(msg.ConversationID)
	s.store.AddInteraction(input)
	s.store.AddActiveInteraction(store.AddActiveInteractionParams{
		ConversationID:  msg.ConversationID,
		InteractionID:   msg.ResponseInteraction.ID,
		StreamChannelID: msg.ResponseInteraction.StreamChannelID,
		ModelSelector:   msg.ResponseInteraction.ModelSelector,
		CreatedAt:       msg.ResponseInteraction.CreatedAt,
		UpdatedAt:       msg.ResponseInteraction.UpdatedAt,
	})

	return &Result{
		ConversationID:        msg.ConversationID,
		InputInteractionID:    msg.InputInteraction.ID,
		ResponseInteractionID: msg.ResponseInteraction.ID,
		StreamChannelID:       msg.StreamChannelID,
	}, nil
}

// Refresh fetches the owner's conversations with interactions and injects
// them into the store. Already-present entries are left untouched by the
// store's first-write-wins policy.
func (s *Service) Refresh(ctx context.Context) error {
	actor, ok := s.session.Actor()
	if !ok {
		return ErrNoCurrentUser
	}

	resp, err := s.api.ListConversationsWithInteractions(ctx, &api.ListConversationsWithInteractionsRequest{Owner: actor})
	if err != nil {
		return fmt.Errorf("listing conversations: %w", err)
	}

	conversations := make([]*chat.Conversation, 0, len(resp.Conversations))
	for _, snapshot := range resp.Conversations {
		conversations = append(conversations, snapshot.ToConversation())
	}
	s.store.InjectConversations(conversations)
	return nil
}

// DeleteConversations deletes on the service first, then removes the
// entries from client state.
func (s *Service) DeleteConversations(ctx context.Context, conversationIDs []string) error {
	if err := s.api.DeleteConversations(ctx, &api.DeleteConversationsRequest{ConversationIDs: conversationIDs}); err != nil {
		return fmt.Errorf("deleting conversations: %w", err)
	}
	s.store.DeleteConversations(conversationIDs)
	return nil
}

// DeleteInteractions deletes on the service first, then removes the
// interactions from whichever conversations hold them.
func (s *Service) DeleteInteractions(ctx context.Context, interactionIDs []string) error {
	if err := s.api.DeleteInteractions(ctx, &api.DeleteInteractionsRequest{InteractionIDs: interactionIDs}); err != nil {
		return fmt.Errorf("deleting interactions: %w", err)
	}
	s.store.DeleteInteractions(interactionIDs)
	return nil
}

// SetExcluded toggles an interaction's exclusion from future model context.
// Refused while the interaction is still streaming: the flag only makes
// sense once the content it would exclude exists in full.
func (s *Service) SetExcluded(ctx context.Context, interactionID string, excluded bool) error {
	if interaction, ok := s.store.FindInteraction(interactionID); ok && interaction.Streaming() {
		return ErrInteractionStreaming
	}

	if err := s.api.UpdateInteractionExcludedState(ctx, &api.UpdateInteractionExcludedStateRequest{
		InteractionID: interactionID,
		Excluded:      excluded,
	}); err != nil {
		return fmt.Errorf("updating excluded state: %w", err)
	}
	s.store.UpdateInteractionExcludedState(interactionID, excluded)
	return nil
}
