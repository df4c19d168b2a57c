// Package repository persists uploaded calls and their analysis results.
package repository

import (
	"context"
	"errors"
	"time"

	"salesclutch/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Call processing statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Call struct {
	ID             uuid.UUID
	WorkspaceID    uuid.UUID
	DealID         *uuid.UUID
	Filename       string
	FileKey        string
	InstructionSet string
	Status         string
	Transcript     *string
	Summary        *string
	ActionItems    []string
	NextStep       *string
	Determination  *string
	FailureReason  *string
	CreatedBy      *uuid.UUID
	CreatedAt      time.Time
	ProcessedAt    *time.Time
}

const callSelectCols = `
	id, workspace_id, deal_id, filename, file_key, instruction_set, status,
	transcript, summary, action_items, next_step, determination,
	failure_reason, created_by, created_at, processed_at`

type callRowScanner interface {
	Scan(dest ...any) error
}

func scanCall(s callRowScanner) (Call, error) {
	var call Call
	err := s.Scan(
		&call.ID, &call.WorkspaceID, &call.DealID, &call.Filename, &call.FileKey,
		&call.InstructionSet, &call.Status, &call.Transcript, &call.Summary,
		&call.ActionItems, &call.NextStep, &call.Determination,
		&call.FailureReason, &call.CreatedBy, &call.CreatedAt, &call.ProcessedAt,
	)
	return call, err
}

type CreateCallParams struct {
	WorkspaceID    uuid.UUID
	DealID         *uuid.UUID
	Filename       string
	FileKey        string
	InstructionSet string
	CreatedBy      *uuid.UUID
}

func (r *Repository) Create(ctx context.Context, params CreateCallParams) (Call, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO calls (workspace_id, deal_id, filename, file_key, instruction_set, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING`+callSelectCols+`
	`, params.WorkspaceID, params.DealID, params.Filename, params.FileKey,
		params.InstructionSet, params.CreatedBy)

	return scanCall(row)
}

func (r *Repository) GetByID(ctx context.Context, id, workspaceID uuid.UUID) (Call, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+callSelectCols+`
		FROM calls WHERE id = $1 AND workspace_id = $2
	`, id, workspaceID)

	call, err := scanCall(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Call{}, apperr.NotFound("call not found")
	}
	return call, err
}

type ListParams struct {
	WorkspaceID uuid.UUID
	DealID      *uuid.UUID
	Offset      int
	Limit       int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Call, error) {
	query := `
		SELECT` + callSelectCols + `
		FROM calls
		WHERE workspace_id = $1`
	args := []interface{}{params.WorkspaceID}

	if params.DealID != nil {
		query += " AND deal_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4"
		args = append(args, *params.DealID, params.Limit, params.Offset)
	} else {
		query += " ORDER BY created_at DESC LIMIT $2 OFFSET $3"
		args = append(args, params.Limit, params.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	calls := make([]Call, 0)
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}

	return calls, rows.Err()
}

// MarkProcessing claims a call for the worker. Completed calls cannot be
// reclaimed, which makes redelivered queue messages harmless; failed or
// stuck calls can, so a queue retry gets another attempt.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) (Call, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE calls SET status = $1
		WHERE id = $2 AND status <> $3
		RETURNING`+callSelectCols+`
	`, StatusProcessing, id, StatusCompleted)

	call, err := scanCall(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Call{}, apperr.Conflict("call already processed")
	}
	return call, err
}

type CompleteCallParams struct {
	ID            uuid.UUID
	Transcript    string
	Summary       string
	ActionItems   []string
	NextStep      string
	Determination string
}

func (r *Repository) MarkCompleted(ctx context.Context, params CompleteCallParams) (Call, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE calls
		SET status = $1, transcript = $2, summary = $3, action_items = $4,
		    next_step = $5, determination = $6, failure_reason = NULL,
		    processed_at = now()
		WHERE id = $7
		RETURNING`+callSelectCols+`
	`, StatusCompleted, params.Transcript, params.Summary, params.ActionItems,
		params.NextStep, params.Determination, params.ID)

	call, err := scanCall(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Call{}, apperr.NotFound("call not found")
	}
	return call, err
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE calls SET status = $1, failure_reason = $2, processed_at = now()
		WHERE id = $3
	`, StatusFailed, reason, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("call not found")
	}
	return nil
}
