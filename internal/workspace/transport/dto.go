// Package transport defines the workspace API request and response shapes.
package transport

import (
	"time"

	"salesclutch/internal/workspace/repository"
	"salesclutch/internal/workspace/service"
)

type RenameWorkspaceRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type CreateInviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=owner admin member"`
}

type AcceptInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin member"`
}

type ListWorkspacesResponse struct {
	Workspaces []WorkspaceResponse `json:"workspaces"`
}

type WorkspaceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToWorkspaceResponse(ws *repository.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:        ws.ID.String(),
		Name:      ws.Name,
		CreatedBy: ws.CreatedBy.String(),
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
	}
}

type MemberResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}

func ToMemberResponse(m repository.Member) MemberResponse {
	return MemberResponse{
		UserID:    m.UserID.String(),
		Email:     m.Email,
		Name:      m.Name,
		Role:      m.Role,
		AvatarURL: m.AvatarURL,
		JoinedAt:  m.JoinedAt,
	}
}

type ListMembersResponse struct {
	Members []MemberResponse `json:"members"`
}

type InviteResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func ToInviteResponse(inv *repository.Invite) InviteResponse {
	return InviteResponse{
		ID:         inv.ID.String(),
		Email:      inv.Email,
		Role:       inv.Role,
		ExpiresAt:  inv.ExpiresAt,
		AcceptedAt: inv.AcceptedAt,
		CreatedAt:  inv.CreatedAt,
	}
}

type ListInvitesResponse struct {
	Invites []InviteResponse `json:"invites"`
}

// CreatedInviteResponse is the only place the raw invite token leaves the
// server.
type CreatedInviteResponse struct {
	Invite    InviteResponse `json:"invite"`
	Token     string         `json:"token"`
	InviteURL string         `json:"invite_url"`
}

func ToCreatedInviteResponse(created *service.CreatedInvite) CreatedInviteResponse {
	return CreatedInviteResponse{
		Invite:    ToInviteResponse(created.Invite),
		Token:     created.RawToken,
		InviteURL: created.InviteURL,
	}
}
