// Package repository persists deals and their progression ledger.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"salesclutch/internal/deals/domain"
	"salesclutch/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Deal struct {
	ID           uuid.UUID
	WorkspaceID  uuid.UUID
	Title        string
	Stage        domain.Stage
	ValueCents   int64
	Notes        string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
	ClosedAt     *time.Time
	CreatedBy    *uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const dealSelectCols = `
	id, workspace_id, title, stage, value_cents, notes,
	contact_name, contact_phone, contact_email,
	closed_at, created_by, created_at, updated_at`

type dealRowScanner interface {
	Scan(dest ...any) error
}

func scanDeal(s dealRowScanner) (Deal, error) {
	var deal Deal
	err := s.Scan(
		&deal.ID, &deal.WorkspaceID, &deal.Title, &deal.Stage, &deal.ValueCents, &deal.Notes,
		&deal.ContactName, &deal.ContactPhone, &deal.ContactEmail,
		&deal.ClosedAt, &deal.CreatedBy, &deal.CreatedAt, &deal.UpdatedAt,
	)
	return deal, err
}

type CreateDealParams struct {
	WorkspaceID  uuid.UUID
	Title        string
	ValueCents   int64
	Notes        string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
	CreatedBy    *uuid.UUID
}

func (r *Repository) Create(ctx context.Context, params CreateDealParams) (Deal, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO deals (workspace_id, title, value_cents, notes, contact_name, contact_phone, contact_email, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING`+dealSelectCols+`
	`, params.WorkspaceID, params.Title, params.ValueCents, params.Notes,
		params.ContactName, params.ContactPhone, params.ContactEmail, params.CreatedBy)

	return scanDeal(row)
}

func (r *Repository) GetByID(ctx context.Context, id, workspaceID uuid.UUID) (Deal, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+dealSelectCols+`
		FROM deals WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL
	`, id, workspaceID)

	deal, err := scanDeal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Deal{}, apperr.NotFound("deal not found")
	}
	return deal, err
}

type ListParams struct {
	WorkspaceID uuid.UUID
	Stage       *domain.Stage
	Search      string
	Offset      int
	Limit       int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Deal, int, error) {
	whereClauses := []string{"workspace_id = $1", "deleted_at IS NULL"}
	args := []interface{}{params.WorkspaceID}
	argIdx := 2

	if params.Stage != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, *params.Stage)
		argIdx++
	}
	if params.Search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(title ILIKE $%d OR contact_name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}

	whereClause := strings.Join(whereClauses, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM deals WHERE " + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT`+dealSelectCols+`
		FROM deals
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	deals := make([]Deal, 0)
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, 0, err
		}
		deals = append(deals, deal)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return deals, total, nil
}

type UpdateDealParams struct {
	Title        *string
	ValueCents   *int64
	Notes        *string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
}

// Update changes descriptive deal fields. The stage column is deliberately
// not reachable from here; all stage writes go through ApplyTransition.
func (r *Repository) Update(ctx context.Context, id, workspaceID uuid.UUID, params UpdateDealParams) (Deal, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	fields := []struct {
		enabled bool
		column  string
		value   interface{}
	}{
		{params.Title != nil, "title", params.Title},
		{params.ValueCents != nil, "value_cents", params.ValueCents},
		{params.Notes != nil, "notes", params.Notes},
		{params.ContactName != nil, "contact_name", params.ContactName},
		{params.ContactPhone != nil, "contact_phone", params.ContactPhone},
		{params.ContactEmail != nil, "contact_email", params.ContactEmail},
	}

	for _, field := range fields {
		if !field.enabled {
			continue
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field.column, argIdx))
		args = append(args, field.value)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id, workspaceID)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id, workspaceID)

	query := fmt.Sprintf(`
		UPDATE deals SET %s
		WHERE id = $%d AND workspace_id = $%d AND deleted_at IS NULL
		RETURNING`+dealSelectCols+`
	`, strings.Join(setClauses, ", "), argIdx, argIdx+1)

	deal, err := scanDeal(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Deal{}, apperr.NotFound("deal not found")
	}
	return deal, err
}

func (r *Repository) Delete(ctx context.Context, id, workspaceID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE deals SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL
	`, id, workspaceID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("deal not found")
	}
	return nil
}

// ApplyTransition performs one stage transition as a single transaction:
// a compare-and-swap on the deal's stage, the StageChange append, and all
// override/send-back rows. Either every row becomes visible or none do.
//
// The UPDATE is conditioned on stage still equaling params.FromStage as
// captured at decision time; a mismatch means a concurrent writer got there
// first and surfaces as apperr.Conflict so the caller can re-evaluate.
func (r *Repository) ApplyTransition(ctx context.Context, params TransitionParams) (StageChange, error) {
	if err := validateTransitionInput(params); err != nil {
		return StageChange{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return StageChange{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	enterTerminal := domain.IsTerminal(params.ToStage)
	result, err := tx.Exec(ctx, `
		UPDATE deals
		SET stage = $1,
		    closed_at = CASE WHEN $2 THEN COALESCE(closed_at, now()) ELSE closed_at END,
		    updated_at = now()
		WHERE id = $3 AND workspace_id = $4 AND deleted_at IS NULL AND stage = $5
	`, params.ToStage, enterTerminal, params.DealID, params.WorkspaceID, params.FromStage)
	if err != nil {
		return StageChange{}, fmt.Errorf("failed to update deal stage: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM deals WHERE id = $1 AND workspace_id = $2 AND deleted_at IS NULL)
		`, params.DealID, params.WorkspaceID).Scan(&exists); err != nil {
			return StageChange{}, err
		}
		if !exists {
			return StageChange{}, apperr.NotFound("deal not found")
		}
		return StageChange{}, apperr.Conflict("deal stage changed concurrently, re-evaluate and retry")
	}

	change, err := appendChange(ctx, tx, params)
	if err != nil {
		return StageChange{}, err
	}

	overrides, err := appendOverrides(ctx, tx, change.ID, params.Overrides)
	if err != nil {
		return StageChange{}, err
	}
	change.Overrides = overrides

	if params.SendBack != nil {
		sendBack, err := appendSendBack(ctx, tx, change.ID, params.FromStage, params.ToStage, params.SendBack.Reason)
		if err != nil {
			return StageChange{}, err
		}
		change.SendBack = &sendBack
	}

	if err := tx.Commit(ctx); err != nil {
		return StageChange{}, fmt.Errorf("failed to commit transition: %w", err)
	}

	return change, nil
}

func validateTransitionInput(params TransitionParams) error {
	if !domain.IsKnownStage(params.ToStage) {
		return apperr.Validationf("unknown stage %q", params.ToStage)
	}
	if params.ToStage == params.FromStage {
		return apperr.Validation("deal is already in that stage")
	}
	for _, override := range params.Overrides {
		if strings.TrimSpace(override.Explanation) == "" {
			return apperr.Validationf("missing explanation for skipped stage %q", override.SkippedStage)
		}
	}
	return nil
}
