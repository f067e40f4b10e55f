// ABOUTME: User service client: default-user bootstrap and lookup
// ABOUTME: The default user is the local actor all submissions are attributed to

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/minnowchat/minnow/internal/rpc"
)

const userVersion = "2025-02-12"

// User is the platform's user record.
type User struct {
	ID          string     `json:"id"`
	DefaultUser bool       `json:"default_user"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at"`
}

// UserClient talks to the user service.
type UserClient struct {
	rpc *rpc.Client
}

// NewUserClient returns a client for the user service rooted at baseURL.
func NewUserClient(baseURL string, c *http.Client) (*UserClient, error) {
	rc, err := rpc.NewClient(baseURL, c)
	if err != nil {
		return nil, err
	}
	return &UserClient{rpc: rc}, nil
}

type GetOrCreateDefaultUserResponse struct {
	User *User `json:"user"`
}

// GetOrCreateDefaultUser resolves the local default user, creating it on
// first contact with the platform.
func (c *UserClient) GetOrCreateDefaultUser(ctx context.Context) (resp *GetOrCreateDefaultUserResponse, err error) {
	return resp, c.rpc.Do(ctx, "get_or_create_default_user", userVersion, nil, &resp)
}

type GetUserByIDRequest struct {
	UserID string `json:"user_id"`
}

type GetUserByIDResponse struct {
	User *User `json:"user"`
}

func (c *UserClient) GetUserByID(ctx context.Context, req *GetUserByIDRequest) (resp *GetUserByIDResponse, err error) {
	return resp, c.rpc.Do(ctx, "get_user_by_id", userVersion, req, &resp)
}
