package repository

import (
	"context"
	"time"

	"salesclutch/internal/deals/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Trigger types recorded on every StageChange row.
const (
	TriggerManual           = "manual"
	TriggerAutoCallAnalysis = "auto_call_analysis"
	TriggerOverride         = "override"
)

type StageChange struct {
	ID            uuid.UUID
	DealID        uuid.UUID
	Seq           int64
	FromStage     *domain.Stage
	ToStage       domain.Stage
	TriggerType   string
	TriggerCallID *uuid.UUID
	Justification string
	ChangedBy     *uuid.UUID
	CreatedAt     time.Time

	// Populated by ApplyTransition and the History loaders.
	Overrides []StageOverride
	SendBack  *SendBack
}

type StageOverride struct {
	ID           uuid.UUID
	ChangeID     uuid.UUID
	SkippedStage domain.Stage
	Explanation  string
}

type SendBack struct {
	ID        uuid.UUID
	ChangeID  uuid.UUID
	FromStage domain.Stage
	ToStage   domain.Stage
	Reason    string
	CreatedAt time.Time
}

type OverrideInput struct {
	SkippedStage domain.Stage
	Explanation  string
}

type SendBackInput struct {
	Reason string
}

type TransitionParams struct {
	DealID        uuid.UUID
	WorkspaceID   uuid.UUID
	FromStage     domain.Stage
	ToStage       domain.Stage
	TriggerType   string
	TriggerCallID *uuid.UUID
	Justification string
	ChangedBy     *uuid.UUID
	Overrides     []OverrideInput
	SendBack      *SendBackInput
}

func appendChange(ctx context.Context, tx pgx.Tx, params TransitionParams) (StageChange, error) {
	change := StageChange{
		DealID:        params.DealID,
		FromStage:     &params.FromStage,
		ToStage:       params.ToStage,
		TriggerType:   params.TriggerType,
		TriggerCallID: params.TriggerCallID,
		Justification: params.Justification,
		ChangedBy:     params.ChangedBy,
	}

	err := tx.QueryRow(ctx, `
		INSERT INTO deal_stage_changes (deal_id, workspace_id, from_stage, to_stage, trigger_type, trigger_call_id, justification, changed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, seq, created_at
	`, params.DealID, params.WorkspaceID, params.FromStage, params.ToStage, params.TriggerType,
		params.TriggerCallID, params.Justification, params.ChangedBy,
	).Scan(&change.ID, &change.Seq, &change.CreatedAt)
	if err != nil {
		return StageChange{}, err
	}

	return change, nil
}

func appendOverrides(ctx context.Context, tx pgx.Tx, changeID uuid.UUID, inputs []OverrideInput) ([]StageOverride, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	overrides := make([]StageOverride, 0, len(inputs))
	for _, input := range inputs {
		var override StageOverride
		err := tx.QueryRow(ctx, `
			INSERT INTO deal_stage_overrides (change_id, skipped_stage, explanation)
			VALUES ($1, $2, $3)
			RETURNING id, change_id, skipped_stage, explanation
		`, changeID, input.SkippedStage, input.Explanation,
		).Scan(&override.ID, &override.ChangeID, &override.SkippedStage, &override.Explanation)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, override)
	}

	return overrides, nil
}

func appendSendBack(ctx context.Context, tx pgx.Tx, changeID uuid.UUID, from, to domain.Stage, reason string) (SendBack, error) {
	var sendBack SendBack
	err := tx.QueryRow(ctx, `
		INSERT INTO deal_send_backs (change_id, from_stage, to_stage, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, change_id, from_stage, to_stage, reason, created_at
	`, changeID, from, to, reason,
	).Scan(&sendBack.ID, &sendBack.ChangeID, &sendBack.FromStage, &sendBack.ToStage, &sendBack.Reason, &sendBack.CreatedAt)
	return sendBack, err
}

// History returns the deal's stage changes newest first, ties on created_at
// broken by the insertion sequence.
func (r *Repository) History(ctx context.Context, dealID, workspaceID uuid.UUID) ([]StageChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.deal_id, c.seq, c.from_stage, c.to_stage, c.trigger_type,
		       c.trigger_call_id, c.justification, c.changed_by, c.created_at
		FROM deal_stage_changes c
		JOIN deals d ON d.id = c.deal_id
		WHERE c.deal_id = $1 AND d.workspace_id = $2
		ORDER BY c.seq DESC
	`, dealID, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := make([]StageChange, 0)
	for rows.Next() {
		var change StageChange
		err := rows.Scan(
			&change.ID, &change.DealID, &change.Seq, &change.FromStage, &change.ToStage,
			&change.TriggerType, &change.TriggerCallID, &change.Justification,
			&change.ChangedBy, &change.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}

	return changes, rows.Err()
}

// OverridesByDeal loads every override row for the deal keyed by its
// StageChange, one query instead of one per history entry.
func (r *Repository) OverridesByDeal(ctx context.Context, dealID uuid.UUID) (map[uuid.UUID][]StageOverride, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.change_id, o.skipped_stage, o.explanation
		FROM deal_stage_overrides o
		JOIN deal_stage_changes c ON c.id = o.change_id
		WHERE c.deal_id = $1
		ORDER BY o.id
	`, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byChange := make(map[uuid.UUID][]StageOverride)
	for rows.Next() {
		var override StageOverride
		if err := rows.Scan(&override.ID, &override.ChangeID, &override.SkippedStage, &override.Explanation); err != nil {
			return nil, err
		}
		byChange[override.ChangeID] = append(byChange[override.ChangeID], override)
	}

	return byChange, rows.Err()
}

// SendBacksByDeal loads every send-back row for the deal keyed by its StageChange.
func (r *Repository) SendBacksByDeal(ctx context.Context, dealID uuid.UUID) (map[uuid.UUID]*SendBack, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.change_id, s.from_stage, s.to_stage, s.reason, s.created_at
		FROM deal_send_backs s
		JOIN deal_stage_changes c ON c.id = s.change_id
		WHERE c.deal_id = $1
	`, dealID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byChange := make(map[uuid.UUID]*SendBack)
	for rows.Next() {
		var sendBack SendBack
		if err := rows.Scan(&sendBack.ID, &sendBack.ChangeID, &sendBack.FromStage, &sendBack.ToStage, &sendBack.Reason, &sendBack.CreatedAt); err != nil {
			return nil, err
		}
		copied := sendBack
		byChange[sendBack.ChangeID] = &copied
	}

	return byChange, rows.Err()
}
