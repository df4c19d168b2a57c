// Package service holds the deal use cases: CRUD, the stage machine, and
// the timeline assembly.
package service

import (
	"context"
	"strings"

	"salesclutch/internal/deals/domain"
	"salesclutch/internal/deals/repository"
	"salesclutch/platform/apperr"
	"salesclutch/platform/logger"
	"salesclutch/platform/phone"

	"github.com/google/uuid"
)

type Service struct {
	repo    *repository.Repository
	machine *StageMachine
	log     *logger.Logger
}

func NewService(repo *repository.Repository, machine *StageMachine, log *logger.Logger) *Service {
	return &Service{repo: repo, machine: machine, log: log}
}

// Machine exposes the stage machine for callers that feed it analysis
// results, such as the call processing worker.
func (s *Service) Machine() *StageMachine {
	return s.machine
}

type CreateDealInput struct {
	Title        string
	ValueCents   int64
	Notes        string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
}

func (s *Service) Create(ctx context.Context, workspaceID uuid.UUID, actorID *uuid.UUID, input CreateDealInput) (repository.Deal, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return repository.Deal{}, apperr.Validation("title is required")
	}
	if input.ValueCents < 0 {
		return repository.Deal{}, apperr.Validation("value must not be negative")
	}

	contactPhone, err := normalizePhone(input.ContactPhone)
	if err != nil {
		return repository.Deal{}, err
	}

	return s.repo.Create(ctx, repository.CreateDealParams{
		WorkspaceID:  workspaceID,
		Title:        title,
		ValueCents:   input.ValueCents,
		Notes:        input.Notes,
		ContactName:  input.ContactName,
		ContactPhone: contactPhone,
		ContactEmail: input.ContactEmail,
		CreatedBy:    actorID,
	})
}

func (s *Service) GetByID(ctx context.Context, id, workspaceID uuid.UUID) (repository.Deal, error) {
	return s.repo.GetByID(ctx, id, workspaceID)
}

func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Deal, int, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 25
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	if params.Stage != nil && !domain.IsKnownStage(*params.Stage) {
		return nil, 0, apperr.Validationf("unknown stage %q", *params.Stage)
	}
	return s.repo.List(ctx, params)
}

type UpdateDealInput struct {
	Title        *string
	ValueCents   *int64
	Notes        *string
	ContactName  *string
	ContactPhone *string
	ContactEmail *string
}

func (s *Service) Update(ctx context.Context, id, workspaceID uuid.UUID, input UpdateDealInput) (repository.Deal, error) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return repository.Deal{}, apperr.Validation("title must not be empty")
	}
	if input.ValueCents != nil && *input.ValueCents < 0 {
		return repository.Deal{}, apperr.Validation("value must not be negative")
	}

	contactPhone, err := normalizePhone(input.ContactPhone)
	if err != nil {
		return repository.Deal{}, err
	}

	return s.repo.Update(ctx, id, workspaceID, repository.UpdateDealParams{
		Title:        input.Title,
		ValueCents:   input.ValueCents,
		Notes:        input.Notes,
		ContactName:  input.ContactName,
		ContactPhone: contactPhone,
		ContactEmail: input.ContactEmail,
	})
}

func (s *Service) Delete(ctx context.Context, id, workspaceID uuid.UUID) error {
	return s.repo.Delete(ctx, id, workspaceID)
}

func normalizePhone(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}
	normalized, err := phone.NormalizeE164(trimmed)
	if err != nil {
		return nil, apperr.Validationf("invalid contact phone %q", trimmed)
	}
	return &normalized, nil
}
