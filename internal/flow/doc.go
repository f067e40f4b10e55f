// ABOUTME: Multi-step submission flows sequencing RPC calls and store mutations
// ABOUTME: Fail-fast and non-transactional: committed store state is never rolled back

// Package flow implements the orchestrated procedures behind user-initiated
// actions: starting a conversation, continuing one, refreshing from
// snapshots, deleting, and toggling exclusion.
//
// Flows are fail-fast: when step n rejects, the store mutations of steps
// before it stand. A start flow that fails at the message step leaves a
// conversation with no message in the store; callers should offer "retry
// sending the message" rather than re-running the whole flow with the same
// key.
package flow
