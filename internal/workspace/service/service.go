// Package service implements workspace, membership, and invite management.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salesclutch/internal/auth/token"
	"salesclutch/internal/config"
	"salesclutch/internal/events"
	"salesclutch/internal/workspace/repository"
	"salesclutch/platform/apperr"
	"salesclutch/platform/logger"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	inviteTTL        = 7 * 24 * time.Hour
	inviteTokenBytes = 32
	qrImageSize      = 256
)

type Service struct {
	repo *repository.Repository
	bus  events.Bus
	cfg  *config.Config
	log  *logger.Logger
}

func New(repo *repository.Repository, bus events.Bus, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, cfg: cfg, log: log}
}

// ProvisionDefault creates the personal workspace every new account starts
// with. Satisfies the auth service's WorkspaceDirectory.
func (s *Service) ProvisionDefault(ctx context.Context, userID uuid.UUID, ownerName string) (uuid.UUID, string, error) {
	name := strings.TrimSpace(ownerName)
	if name == "" {
		name = "My Workspace"
	} else {
		name = fmt.Sprintf("%s's Workspace", name)
	}

	ws, err := s.repo.CreateWorkspace(ctx, name, userID)
	if err != nil {
		return uuid.Nil, "", err
	}

	s.bus.Publish(ctx, events.WorkspaceCreated{
		BaseEvent:   events.NewBaseEvent(),
		WorkspaceID: ws.ID,
		Name:        ws.Name,
		CreatedBy:   userID,
	})
	return ws.ID, repository.RoleOwner, nil
}

// PrimaryMembership satisfies the auth service's WorkspaceDirectory.
func (s *Service) PrimaryMembership(ctx context.Context, userID uuid.UUID) (uuid.UUID, string, error) {
	return s.repo.PrimaryMembership(ctx, userID)
}

func (s *Service) Get(ctx context.Context, workspaceID uuid.UUID) (*repository.Workspace, error) {
	return s.repo.GetByID(ctx, workspaceID)
}

func (s *Service) Rename(ctx context.Context, workspaceID uuid.UUID, name string) (*repository.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("workspace name is required")
	}
	return s.repo.Rename(ctx, workspaceID, name)
}

func (s *Service) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]repository.Member, error) {
	return s.repo.ListMembers(ctx, workspaceID)
}

// ListMine returns every workspace the user belongs to.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]repository.Workspace, error) {
	return s.repo.ListForUser(ctx, userID)
}

// UpdateMemberRole changes a member's role. The last owner cannot be
// demoted.
func (s *Service) UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role string) error {
	if !repository.ValidRole(role) {
		return apperr.Validationf("unknown role %q", role)
	}

	current, err := s.repo.GetMembership(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if current == repository.RoleOwner && role != repository.RoleOwner {
		if err := s.ensureNotLastOwner(ctx, workspaceID); err != nil {
			return err
		}
	}
	return s.repo.UpdateMemberRole(ctx, workspaceID, userID, role)
}

// RemoveMember removes a member from the workspace. The last owner cannot
// be removed.
func (s *Service) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	role, err := s.repo.GetMembership(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if role == repository.RoleOwner {
		if err := s.ensureNotLastOwner(ctx, workspaceID); err != nil {
			return err
		}
	}
	return s.repo.RemoveMember(ctx, workspaceID, userID)
}

func (s *Service) ensureNotLastOwner(ctx context.Context, workspaceID uuid.UUID) error {
	owners, err := s.repo.CountOwners(ctx, workspaceID)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return apperr.Conflict("workspace must keep at least one owner")
	}
	return nil
}

// CreatedInvite pairs the stored invite with the raw token and accept URL.
// The raw token exists only in this return value.
type CreatedInvite struct {
	Invite    *repository.Invite
	RawToken  string
	InviteURL string
}

func (s *Service) CreateInvite(ctx context.Context, workspaceID, invitedBy uuid.UUID, email, role string) (*CreatedInvite, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("invite email is required")
	}
	if !repository.ValidRole(role) {
		return nil, apperr.Validationf("unknown role %q", role)
	}

	ws, err := s.repo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	raw, err := token.GenerateRandomToken(inviteTokenBytes)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "generate invite token", err)
	}

	invite, err := s.repo.CreateInvite(ctx, workspaceID, email, role, token.HashSHA256(raw), invitedBy, time.Now().Add(inviteTTL))
	if err != nil {
		return nil, err
	}

	inviteURL := s.inviteURL(raw)
	s.bus.Publish(ctx, events.WorkspaceInviteCreated{
		BaseEvent:     events.NewBaseEvent(),
		WorkspaceID:   workspaceID,
		WorkspaceName: ws.Name,
		Email:         email,
		InviteURL:     inviteURL,
		InvitedBy:     invitedBy,
	})

	return &CreatedInvite{Invite: invite, RawToken: raw, InviteURL: inviteURL}, nil
}

func (s *Service) ListInvites(ctx context.Context, workspaceID uuid.UUID) ([]repository.Invite, error) {
	return s.repo.ListInvites(ctx, workspaceID)
}

func (s *Service) RevokeInvite(ctx context.Context, inviteID, workspaceID uuid.UUID) error {
	return s.repo.DeleteInvite(ctx, inviteID, workspaceID)
}

// AcceptInvite redeems an invite token for the calling user. The caller's
// account email must match the invitation.
func (s *Service) AcceptInvite(ctx context.Context, userID uuid.UUID, rawToken string) (*repository.Workspace, error) {
	invite, err := s.repo.GetInviteByTokenHash(ctx, token.HashSHA256(rawToken))
	if err != nil {
		return nil, err
	}
	if invite.AcceptedAt != nil {
		return nil, apperr.Conflict("invite already accepted")
	}
	if time.Now().After(invite.ExpiresAt) {
		return nil, apperr.Validation("invite has expired")
	}

	email, err := s.repo.UserEmail(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(email, invite.Email) {
		return nil, apperr.Forbidden("invite was issued for a different email address")
	}

	if err := s.repo.MarkInviteAccepted(ctx, invite.ID); err != nil {
		return nil, err
	}
	if err := s.repo.AddMember(ctx, invite.WorkspaceID, userID, invite.Role); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, invite.WorkspaceID)
}

// InviteQR renders the invite accept URL as a PNG QR code for in-person
// onboarding.
func (s *Service) InviteQR(ctx context.Context, inviteID, workspaceID uuid.UUID, rawToken string) ([]byte, error) {
	invite, err := s.repo.GetInviteByID(ctx, inviteID, workspaceID)
	if err != nil {
		return nil, err
	}
	if token.HashSHA256(rawToken) != invite.TokenHash {
		return nil, apperr.Forbidden("token does not match invite")
	}

	png, err := qrcode.Encode(s.inviteURL(rawToken), qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "render invite qr", err)
	}
	return png, nil
}

func (s *Service) inviteURL(rawToken string) string {
	return fmt.Sprintf("%s/invites/accept?token=%s", strings.TrimRight(s.cfg.AppBaseURL, "/"), rawToken)
}
