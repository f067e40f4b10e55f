// ABOUTME: Per-service RPC clients for the platform's submission interface
// ABOUTME: Conversation, user, and skill-set operations over internal/rpc

// Package api wraps the platform services the client submits requests to.
// Each service gets one client type whose methods map one-to-one onto the
// service's RPC operations. The push channel is not here; inbound streaming
// lives in internal/stream.
package api
