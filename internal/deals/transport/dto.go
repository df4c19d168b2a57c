// Package transport defines the wire-level request and response shapes for
// the deals API.
package transport

import (
	"time"

	"salesclutch/internal/deals/domain"
	"salesclutch/internal/deals/repository"
	"salesclutch/internal/deals/service"

	"github.com/google/uuid"
)

type CreateDealRequest struct {
	Title        string  `json:"title" validate:"required,max=200"`
	ValueCents   int64   `json:"value_cents" validate:"gte=0"`
	Notes        string  `json:"notes" validate:"max=10000"`
	ContactName  *string `json:"contact_name" validate:"omitempty,max=200"`
	ContactPhone *string `json:"contact_phone" validate:"omitempty,max=40"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
}

type UpdateDealRequest struct {
	Title        *string `json:"title" validate:"omitempty,max=200"`
	ValueCents   *int64  `json:"value_cents" validate:"omitempty,gte=0"`
	Notes        *string `json:"notes" validate:"omitempty,max=10000"`
	ContactName  *string `json:"contact_name" validate:"omitempty,max=200"`
	ContactPhone *string `json:"contact_phone" validate:"omitempty,max=40"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
}

type ChangeStageRequest struct {
	Stage         string            `json:"stage" validate:"required"`
	Justification string            `json:"justification" validate:"max=2000"`
	Reason        string            `json:"reason" validate:"max=2000"`
	CallID        *uuid.UUID        `json:"call_id"`
	Skipped       map[string]string `json:"skipped_explanations" validate:"omitempty,dive,max=2000"`
}

type EvaluateRequest struct {
	CallID      uuid.UUID `json:"call_id" validate:"required"`
	TargetStage *string   `json:"target_stage"`
}

type DealResponse struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Stage        string     `json:"stage"`
	ValueCents   int64      `json:"value_cents"`
	Notes        string     `json:"notes"`
	ContactName  *string    `json:"contact_name,omitempty"`
	ContactPhone *string    `json:"contact_phone,omitempty"`
	ContactEmail *string    `json:"contact_email,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func ToDealResponse(deal repository.Deal) DealResponse {
	return DealResponse{
		ID:           deal.ID,
		Title:        deal.Title,
		Stage:        string(deal.Stage),
		ValueCents:   deal.ValueCents,
		Notes:        deal.Notes,
		ContactName:  deal.ContactName,
		ContactPhone: deal.ContactPhone,
		ContactEmail: deal.ContactEmail,
		ClosedAt:     deal.ClosedAt,
		CreatedAt:    deal.CreatedAt,
		UpdatedAt:    deal.UpdatedAt,
	}
}

type ListDealsResponse struct {
	Deals  []DealResponse `json:"deals"`
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

type StageOverrideResponse struct {
	SkippedStage string `json:"skipped_stage"`
	Explanation  string `json:"explanation"`
}

type SendBackResponse struct {
	FromStage string `json:"from_stage"`
	ToStage   string `json:"to_stage"`
	Reason    string `json:"reason"`
}

type StageChangeResponse struct {
	ID            uuid.UUID               `json:"id"`
	Seq           int64                   `json:"seq"`
	FromStage     *string                 `json:"from_stage"`
	ToStage       string                  `json:"to_stage"`
	TriggerType   string                  `json:"trigger_type"`
	TriggerCallID *uuid.UUID              `json:"trigger_call_id,omitempty"`
	Justification string                  `json:"justification"`
	ChangedBy     *uuid.UUID              `json:"changed_by,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
	Overrides     []StageOverrideResponse `json:"overrides,omitempty"`
	SendBack      *SendBackResponse       `json:"send_back,omitempty"`
}

func ToStageChangeResponse(change repository.StageChange) StageChangeResponse {
	resp := StageChangeResponse{
		ID:            change.ID,
		Seq:           change.Seq,
		ToStage:       string(change.ToStage),
		TriggerType:   change.TriggerType,
		TriggerCallID: change.TriggerCallID,
		Justification: change.Justification,
		ChangedBy:     change.ChangedBy,
		CreatedAt:     change.CreatedAt,
	}
	if change.FromStage != nil {
		from := string(*change.FromStage)
		resp.FromStage = &from
	}
	for _, override := range change.Overrides {
		resp.Overrides = append(resp.Overrides, StageOverrideResponse{
			SkippedStage: string(override.SkippedStage),
			Explanation:  override.Explanation,
		})
	}
	if change.SendBack != nil {
		resp.SendBack = &SendBackResponse{
			FromStage: string(change.SendBack.FromStage),
			ToStage:   string(change.SendBack.ToStage),
			Reason:    change.SendBack.Reason,
		}
	}
	return resp
}

type TimelineResponse struct {
	Deal    DealResponse          `json:"deal"`
	Changes []StageChangeResponse `json:"changes"`
}

func ToTimelineResponse(timeline service.Timeline) TimelineResponse {
	resp := TimelineResponse{
		Deal:    ToDealResponse(timeline.Deal),
		Changes: make([]StageChangeResponse, 0, len(timeline.Changes)),
	}
	for _, change := range timeline.Changes {
		resp.Changes = append(resp.Changes, ToStageChangeResponse(change))
	}
	return resp
}

type EvaluateResponse struct {
	Advanced    bool   `json:"advanced"`
	Blocked     bool   `json:"blocked"`
	BlockReason string `json:"block_reason,omitempty"`
	OldStage    string `json:"old_stage"`
	NewStage    string `json:"new_stage"`
}

func ToEvaluateResponse(result service.EvaluateResult) EvaluateResponse {
	return EvaluateResponse{
		Advanced:    result.Advanced,
		Blocked:     result.Decision.Outcome == domain.OutcomeBlocked,
		BlockReason: result.Decision.BlockReason,
		OldStage:    string(result.OldStage),
		NewStage:    string(result.NewStage),
	}
}
