// ABOUTME: Shared domain types for the Minnow client engine
// ABOUTME: Actors, model selection, conversations, interactions, and error records

// Package chat defines the domain model shared by the store, the stream
// listener, the flow orchestrators, and the service clients.
//
// A Conversation is a thread of Interactions between an owner and an AI
// model. Interactions come in two flavors: the user's own input (content
// known at creation, completed immediately) and the model's response
// (created empty, filled in by push-channel events until a terminal event
// stamps CompletedAt).
package chat
