package service

import (
	"context"
	"strings"

	"salesclutch/internal/deals/domain"
	"salesclutch/internal/deals/repository"
	"salesclutch/internal/events"
	"salesclutch/platform/apperr"
	"salesclutch/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence seam the stage machine drives. The pgx
// repository implements it in production; tests substitute an in-memory
// fake with the same compare-and-swap semantics.
type Store interface {
	GetByID(ctx context.Context, id, workspaceID uuid.UUID) (repository.Deal, error)
	ApplyTransition(ctx context.Context, params repository.TransitionParams) (repository.StageChange, error)
}

// evaluateRetries bounds how many times an evaluation is replayed against a
// fresh stage after losing a compare-and-swap race.
const evaluateRetries = 3

// PolicySource yields the current advancement policy. The instruction-set
// registry implements it so a reload takes effect without restarting; each
// evaluation captures one policy snapshot.
type PolicySource interface {
	Policy() *domain.AdvancementPolicy
}

type staticPolicySource struct {
	policy *domain.AdvancementPolicy
}

func (s staticPolicySource) Policy() *domain.AdvancementPolicy { return s.policy }

// StaticPolicy wraps a fixed policy as a PolicySource.
func StaticPolicy(policy *domain.AdvancementPolicy) PolicySource {
	return staticPolicySource{policy: policy}
}

// StageMachine coordinates stage transitions: it asks the policy whether a
// call analysis justifies a move, applies the resulting transition
// atomically, and records manual changes with their override and send-back
// bookkeeping. It owns no policy judgement of its own.
type StageMachine struct {
	store    Store
	policies PolicySource
	bus      events.Bus
	log      *logger.Logger
}

func NewStageMachine(store Store, policies PolicySource, bus events.Bus, log *logger.Logger) *StageMachine {
	return &StageMachine{store: store, policies: policies, bus: bus, log: log}
}

type EvaluateParams struct {
	DealID           uuid.UUID
	WorkspaceID      uuid.UUID
	InstructionSetID string
	Analysis         domain.CallAnalysisResult
	// TargetStage, when set, names the stage the evidence is meant to
	// support; adjacency is then checked against it directly.
	TargetStage   *domain.Stage
	TriggerCallID *uuid.UUID
	ActorID       *uuid.UUID
}

// EvaluateResult reports what one evaluation did. Change is nil unless the
// deal advanced.
type EvaluateResult struct {
	Advanced bool
	Decision domain.Decision
	OldStage domain.Stage
	NewStage domain.Stage
	Change   *repository.StageChange
}

// EvaluateAndMaybeAdvance loads the deal, runs the advancement policy
// against its current stage, and applies the transition when the policy
// says advance. A lost compare-and-swap means another writer moved the deal
// between our read and our write; the evaluation is replayed against the
// fresh stage rather than blindly retried, since the old decision no longer
// describes the deal.
func (m *StageMachine) EvaluateAndMaybeAdvance(ctx context.Context, params EvaluateParams) (EvaluateResult, error) {
	var lastErr error
	for attempt := 0; attempt < evaluateRetries; attempt++ {
		result, err := m.evaluateOnce(ctx, params)
		if err == nil {
			return result, nil
		}
		if apperr.GetKind(err) != apperr.KindConflict {
			return EvaluateResult{}, err
		}
		lastErr = err
	}
	return EvaluateResult{}, lastErr
}

func (m *StageMachine) evaluateOnce(ctx context.Context, params EvaluateParams) (EvaluateResult, error) {
	deal, err := m.store.GetByID(ctx, params.DealID, params.WorkspaceID)
	if err != nil {
		return EvaluateResult{}, err
	}

	if domain.IsTerminal(deal.Stage) {
		return EvaluateResult{
			Decision: domain.Decision{Outcome: domain.OutcomeNoSignal},
			OldStage: deal.Stage,
			NewStage: deal.Stage,
		}, nil
	}

	policy := m.policies.Policy()
	var decision domain.Decision
	if params.TargetStage != nil {
		decision = policy.EvaluateTowards(params.Analysis, deal.Stage, *params.TargetStage, params.InstructionSetID)
	} else {
		decision = policy.Evaluate(params.Analysis, deal.Stage, params.InstructionSetID)
	}

	result := EvaluateResult{
		Decision: decision,
		OldStage: deal.Stage,
		NewStage: deal.Stage,
	}
	if decision.Outcome != domain.OutcomeAdvance {
		return result, nil
	}

	change, err := m.store.ApplyTransition(ctx, repository.TransitionParams{
		DealID:        deal.ID,
		WorkspaceID:   deal.WorkspaceID,
		FromStage:     deal.Stage,
		ToStage:       decision.TargetStage,
		TriggerType:   repository.TriggerAutoCallAnalysis,
		TriggerCallID: params.TriggerCallID,
		Justification: decision.Justification,
		ChangedBy:     params.ActorID,
	})
	if err != nil {
		return EvaluateResult{}, err
	}

	m.log.StageTransition(deal.ID.String(), string(deal.Stage), string(decision.TargetStage), repository.TriggerAutoCallAnalysis, 0)
	m.publishAdvanced(ctx, deal, decision.TargetStage, repository.TriggerAutoCallAnalysis)

	result.Advanced = true
	result.NewStage = decision.TargetStage
	result.Change = &change
	return result, nil
}

type ManualChangeParams struct {
	DealID      uuid.UUID
	WorkspaceID uuid.UUID
	NewStage    domain.Stage
	// Justification is optional free text shown in the timeline.
	Justification string
	// SkippedExplanations must carry one non-empty entry per stage the
	// move skips over; extra keys are ignored.
	SkippedExplanations map[domain.Stage]string
	// Reason annotates backward moves; when empty the justification is
	// recorded on the send-back row instead.
	Reason        string
	TriggerCallID *uuid.UUID
	ChangedBy     *uuid.UUID
}

// ApplyManualChange moves a deal to an arbitrary known stage on a user's
// authority. Forward skips demand an explanation per skipped stage and are
// recorded as overrides; backward moves within the linear order get a
// send-back row. Either way the ledger receives exactly one StageChange.
func (m *StageMachine) ApplyManualChange(ctx context.Context, params ManualChangeParams) (repository.StageChange, error) {
	if !domain.IsKnownStage(params.NewStage) {
		return repository.StageChange{}, apperr.Validationf("unknown stage %q", params.NewStage)
	}

	deal, err := m.store.GetByID(ctx, params.DealID, params.WorkspaceID)
	if err != nil {
		return repository.StageChange{}, err
	}

	if params.NewStage == deal.Stage {
		return repository.StageChange{}, apperr.Validation("deal is already in that stage")
	}

	if domain.IsTerminal(deal.Stage) {
		return repository.StageChange{}, apperr.Validationf("deal is closed as %q and cannot change stage", deal.Stage)
	}

	order := m.policies.Policy().Order()

	overrides, err := buildOverrides(order, deal.Stage, params.NewStage, params.SkippedExplanations)
	if err != nil {
		return repository.StageChange{}, err
	}

	triggerType := repository.TriggerManual
	if len(overrides) > 0 {
		triggerType = repository.TriggerOverride
	}

	transition := repository.TransitionParams{
		DealID:        deal.ID,
		WorkspaceID:   deal.WorkspaceID,
		FromStage:     deal.Stage,
		ToStage:       params.NewStage,
		TriggerType:   triggerType,
		TriggerCallID: params.TriggerCallID,
		Justification: params.Justification,
		ChangedBy:     params.ChangedBy,
		Overrides:     overrides,
	}

	if order.IsRegression(deal.Stage, params.NewStage) {
		reason := strings.TrimSpace(params.Reason)
		if reason == "" {
			reason = params.Justification
		}
		transition.SendBack = &repository.SendBackInput{Reason: reason}
	}

	change, err := m.store.ApplyTransition(ctx, transition)
	if err != nil {
		return repository.StageChange{}, err
	}

	m.log.StageTransition(deal.ID.String(), string(deal.Stage), string(params.NewStage), triggerType, len(overrides))
	if steps, ok := order.StepsAhead(deal.Stage, params.NewStage); ok && steps > 0 {
		m.publishAdvanced(ctx, deal, params.NewStage, triggerType)
	}

	return change, nil
}

// buildOverrides computes the stages a forward move skips over and pairs
// each with its mandatory explanation, in canonical order.
func buildOverrides(order domain.StageOrder, from, to domain.Stage, explanations map[domain.Stage]string) ([]repository.OverrideInput, error) {
	skipped := order.Between(from, to)
	if len(skipped) == 0 {
		return nil, nil
	}

	overrides := make([]repository.OverrideInput, 0, len(skipped))
	for _, stage := range skipped {
		explanation := strings.TrimSpace(explanations[stage])
		if explanation == "" {
			return nil, apperr.Validationf("missing explanation for skipped stage %q", stage)
		}
		overrides = append(overrides, repository.OverrideInput{SkippedStage: stage, Explanation: explanation})
	}

	return overrides, nil
}

func (m *StageMachine) publishAdvanced(ctx context.Context, deal repository.Deal, to domain.Stage, trigger string) {
	if m.bus == nil {
		return
	}

	m.bus.Publish(ctx, events.DealStageAdvanced{
		BaseEvent:   events.NewBaseEvent(),
		DealID:      deal.ID,
		WorkspaceID: deal.WorkspaceID,
		DealTitle:   deal.Title,
		FromStage:   string(deal.Stage),
		ToStage:     string(to),
		Trigger:     trigger,
		OwnerID:     deal.CreatedBy,
	})

	if to == domain.StageClosedWon {
		m.bus.Publish(ctx, events.DealClosedWon{
			BaseEvent:   events.NewBaseEvent(),
			DealID:      deal.ID,
			WorkspaceID: deal.WorkspaceID,
			DealTitle:   deal.Title,
			ValueCents:  deal.ValueCents,
			OwnerID:     deal.CreatedBy,
		})
	}
}
