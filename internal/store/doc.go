// ABOUTME: Normalized in-memory conversation state, the single point of truth
// ABOUTME: Mutated by the flow orchestrators and the stream listener, read by presentation

// Package store holds the client's normalized conversation tree and exposes
// a closed set of total, synchronous mutation operations.
//
// Two writers feed the store: the flow orchestrators push optimistic records
// after successful submissions, and the stream listener applies incremental
// push events keyed by identifiers the orchestrators already inserted. All
// operations are idempotent-safe no-ops when their target is missing —
// mutations never fail. Late frames for since-deleted entities are expected
// and simply land nowhere.
//
// Readers subscribe to the change notifier instead of polling; every
// effective mutation publishes a Change describing what moved.
package store
