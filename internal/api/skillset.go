// ABOUTME: Skill-set service client, used only to list selectable skill sets
// ABOUTME: Skill-set ids flow through submissions as opaque strings

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/minnowchat/minnow/internal/chat"
	"github.com/minnowchat/minnow/internal/rpc"
)

const skillSetVersion = "2025-02-12"

// SkillSet is a named prompt bundle a user can attach to a submission.
type SkillSet struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`

	Owner chat.Actor `json:"owner"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// SkillSetClient talks to the skill-set service.
type SkillSetClient struct {
	rpc *rpc.Client
}

// NewSkillSetClient returns a client for the skill-set service rooted at baseURL.
func NewSkillSetClient(baseURL string, c *http.Client) (*SkillSetClient, error) {
	rc, err := rpc.NewClient(baseURL, c)
	if err != nil {
		return nil, err
	}
	return &SkillSetClient{rpc: rc}, nil
}

type ListSkillSetsByOwnerRequest struct {
	Owner chat.Actor `json:"owner"`
}

type ListSkillSetsByOwnerResponse struct {
	SkillSets []*SkillSet `json:"skill_sets"`
}

func (c *SkillSetClient) ListSkillSetsByOwner(ctx context.Context, req *ListSkillSetsByOwnerRequest) (resp *ListSkillSetsByOwnerResponse, err error) {
	return resp, c.rpc.Do(ctx, "list_skill_sets_by_owner", skillSetVersion, req, &resp)
}
