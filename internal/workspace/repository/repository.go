// Package repository persists workspaces, memberships, and invites.
package repository

import (
	"context"
	"errors"
	"time"

	"salesclutch/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Roles a workspace member can hold. Owners manage members, invites, and
// workspace settings.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidRole reports whether role is one of the known member roles.
func ValidRole(role string) bool {
	return role == RoleOwner || role == RoleAdmin || role == RoleMember
}

type Workspace struct {
	ID        uuid.UUID
	Name      string
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Member is a membership row joined with the user's profile.
type Member struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	UserID      uuid.UUID
	Role        string
	Email       string
	Name        string
	AvatarURL   *string
	JoinedAt    time.Time
}

type Invite struct {
	ID          uuid.UUID
	WorkspaceID uuid.UUID
	Email       string
	Role        string
	TokenHash   string
	InvitedBy   uuid.UUID
	ExpiresAt   time.Time
	AcceptedAt  *time.Time
	CreatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateWorkspace inserts the workspace and its owner membership in one
// transaction.
func (r *Repository) CreateWorkspace(ctx context.Context, name string, ownerID uuid.UUID) (*Workspace, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ws Workspace
	err = tx.QueryRow(ctx, `
		INSERT INTO workspaces (name, created_by)
		VALUES ($1, $2)
		RETURNING id, name, created_by, created_at, updated_at`,
		name, ownerID).
		Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)`,
		ws.ID, ownerID, RoleOwner)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Workspace, error) {
	var ws Workspace
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, created_by, created_at, updated_at
		FROM workspaces WHERE id = $1`, id).
		Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.CreatedAt, &ws.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("workspace not found")
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *Repository) Rename(ctx context.Context, id uuid.UUID, name string) (*Workspace, error) {
	var ws Workspace
	err := r.pool.QueryRow(ctx, `
		UPDATE workspaces SET name = $1, updated_at = now()
		WHERE id = $2
		RETURNING id, name, created_by, created_at, updated_at`,
		name, id).
		Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.CreatedAt, &ws.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("workspace not found")
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

// AddMember inserts a membership. Adding an existing member maps to a
// conflict error.
func (r *Repository) AddMember(ctx context.Context, workspaceID, userID uuid.UUID, role string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)`,
		workspaceID, userID, role)
	if isUniqueViolation(err) {
		return apperr.Conflict("user is already a member of this workspace")
	}
	return err
}

func (r *Repository) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.workspace_id, m.user_id, m.role, u.email, u.name, u.avatar_url, m.created_at
		FROM workspace_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.workspace_id = $1
		ORDER BY m.created_at ASC`,
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.Email, &m.Name, &m.AvatarURL, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListForUser returns every workspace the user belongs to, oldest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Workspace, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.name, w.created_by, w.created_at, w.updated_at
		FROM workspaces w
		JOIN workspace_members m ON m.workspace_id = w.id
		WHERE m.user_id = $1
		ORDER BY m.created_at ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []Workspace
	for rows.Next() {
		var ws Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.CreatedBy, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	return workspaces, rows.Err()
}

func (r *Repository) UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE workspace_members SET role = $1
		WHERE workspace_id = $2 AND user_id = $3`,
		role, workspaceID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("member not found")
	}
	return nil
}

func (r *Repository) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM workspace_members
		WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("member not found")
	}
	return nil
}

// CountOwners is used to guard against removing or demoting the last owner.
func (r *Repository) CountOwners(ctx context.Context, workspaceID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM workspace_members
		WHERE workspace_id = $1 AND role = $2`,
		workspaceID, RoleOwner).
		Scan(&count)
	return count, err
}

// GetMembership returns the member row for one user in one workspace.
func (r *Repository) GetMembership(ctx context.Context, workspaceID, userID uuid.UUID) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `
		SELECT role FROM workspace_members
		WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID).
		Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFound("member not found")
	}
	return role, err
}

// PrimaryMembership returns the user's oldest membership. This is the
// workspace stamped into access tokens.
func (r *Repository) PrimaryMembership(ctx context.Context, userID uuid.UUID) (uuid.UUID, string, error) {
	var workspaceID uuid.UUID
	var role string
	err := r.pool.QueryRow(ctx, `
		SELECT workspace_id, role
		FROM workspace_members
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT 1`,
		userID).
		Scan(&workspaceID, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, "", apperr.NotFound("user has no workspace membership")
	}
	if err != nil {
		return uuid.Nil, "", err
	}
	return workspaceID, role, nil
}

// UserEmail resolves a user ID to the account email, used to match invite
// redemptions against the invited address.
func (r *Repository) UserEmail(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NotFound("user not found")
	}
	return email, err
}

func (r *Repository) CreateInvite(ctx context.Context, workspaceID uuid.UUID, email, role, tokenHash string, invitedBy uuid.UUID, expiresAt time.Time) (*Invite, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO workspace_invites (workspace_id, email, role, token_hash, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+inviteSelectCols,
		workspaceID, email, role, tokenHash, invitedBy, expiresAt)
	return scanInvite(row)
}

const inviteSelectCols = `id, workspace_id, email, role, token_hash, invited_by, expires_at, accepted_at, created_at`

func scanInvite(row pgx.Row) (*Invite, error) {
	var inv Invite
	err := row.Scan(&inv.ID, &inv.WorkspaceID, &inv.Email, &inv.Role, &inv.TokenHash, &inv.InvitedBy, &inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *Repository) GetInviteByID(ctx context.Context, id, workspaceID uuid.UUID) (*Invite, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+inviteSelectCols+`
		FROM workspace_invites
		WHERE id = $1 AND workspace_id = $2`,
		id, workspaceID)
	inv, err := scanInvite(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("invite not found")
	}
	return inv, err
}

func (r *Repository) GetInviteByTokenHash(ctx context.Context, tokenHash string) (*Invite, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+inviteSelectCols+`
		FROM workspace_invites
		WHERE token_hash = $1`,
		tokenHash)
	inv, err := scanInvite(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("invite not found")
	}
	return inv, err
}

func (r *Repository) ListInvites(ctx context.Context, workspaceID uuid.UUID) ([]Invite, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+inviteSelectCols+`
		FROM workspace_invites
		WHERE workspace_id = $1
		ORDER BY created_at DESC`,
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, *inv)
	}
	return invites, rows.Err()
}

// MarkInviteAccepted stamps accepted_at exactly once.
func (r *Repository) MarkInviteAccepted(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE workspace_invites SET accepted_at = now()
		WHERE id = $1 AND accepted_at IS NULL`,
		id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict("invite already accepted")
	}
	return nil
}

func (r *Repository) DeleteInvite(ctx context.Context, id, workspaceID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM workspace_invites
		WHERE id = $1 AND workspace_id = $2 AND accepted_at IS NULL`,
		id, workspaceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invite not found")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
