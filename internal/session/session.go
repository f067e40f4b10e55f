// ABOUTME: Resolves and caches the current user for the lifetime of the process
// ABOUTME: Flows read the cache and fail fast rather than fetching inline

// Package session holds the client's resolved identity. The platform has no
// login step for a local client; the user service mints a default user on
// first contact and every submission is attributed to it.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/minnowchat/minnow/internal/api"
	"github.com/minnowchat/minnow/internal/chat"
)

// UserResolver is what the session needs from the user service.
type UserResolver interface {
	GetOrCreateDefaultUser(ctx context.Context) (*api.GetOrCreateDefaultUserResponse, error)
}

// Session caches the resolved current user.
type Session struct {
	resolver UserResolver
	logger   *slog.Logger

	mu   sync.RWMutex
	user *api.User
}

// New creates an unresolved session. Pass nil logger for default.
func New(resolver UserResolver, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		resolver: resolver,
		logger:   logger.With("component", "session"),
	}
}

// Bootstrap resolves the default user and caches it. Called once at startup;
// flows never trigger a fetch themselves.
func (s *Session) Bootstrap(ctx context.Context) error {
	resp, err := s.resolver.GetOrCreateDefaultUser(ctx)
	if err != nil {
		return fmt.Errorf("resolving default user: %w", err)
	}
	if resp == nil || resp.User == nil {
		return fmt.Errorf("user service returned no user")
	}

	s.mu.Lock()
	s.user = resp.User
	s.mu.Unlock()

	s.logger.Debug("session bootstrapped", "user_id", resp.User.ID)
	return nil
}

// CurrentUser returns the cached user, if resolved.
func (s *Session) CurrentUser() (*api.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, false
	}
	u := *s.user
	return &u, true
}

// Actor returns the cached user as a submission actor.
func (s *Session) Actor() (chat.Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return chat.Actor{}, false
	}
	return chat.Actor{Type: chat.ActorTypeUser, Identifier: s.user.ID}, true
}
