package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"salesclutch/internal/deals/domain"
	"salesclutch/internal/deals/repository"
	"salesclutch/platform/apperr"
	"salesclutch/platform/logger"

	"github.com/google/uuid"
)

// fakeStore mirrors the repository's transition semantics in memory,
// including the compare-and-swap on from_stage and the terminal closed_at
// rule, so the machine can be exercised without a database.
type fakeStore struct {
	mu      sync.Mutex
	deals   map[uuid.UUID]repository.Deal
	changes []repository.StageChange
	seq     int64

	// afterGet, when set, runs after each GetByID. Tests use it to move
	// the deal between the machine's read and its write.
	afterGet func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{deals: make(map[uuid.UUID]repository.Deal)}
}

func (f *fakeStore) addDeal(stage domain.Stage) repository.Deal {
	f.mu.Lock()
	defer f.mu.Unlock()

	deal := repository.Deal{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		Title:       "Acme renewal",
		Stage:       stage,
		ValueCents:  250_000,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.deals[deal.ID] = deal
	return deal
}

func (f *fakeStore) GetByID(_ context.Context, id, workspaceID uuid.UUID) (repository.Deal, error) {
	f.mu.Lock()
	deal, ok := f.deals[id]
	f.mu.Unlock()

	if !ok || deal.WorkspaceID != workspaceID {
		return repository.Deal{}, apperr.NotFound("deal not found")
	}
	if f.afterGet != nil {
		f.afterGet()
	}
	return deal, nil
}

func (f *fakeStore) ApplyTransition(_ context.Context, params repository.TransitionParams) (repository.StageChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if params.WorkspaceID == uuid.Nil {
		return repository.StageChange{}, apperr.Validation("workspace id is required")
	}
	if !domain.IsKnownStage(params.ToStage) {
		return repository.StageChange{}, apperr.Validationf("unknown stage %q", params.ToStage)
	}
	if params.ToStage == params.FromStage {
		return repository.StageChange{}, apperr.Validation("deal is already in that stage")
	}
	if domain.IsTerminal(params.FromStage) {
		return repository.StageChange{}, apperr.Validation("deal is closed and cannot change stage")
	}
	for _, override := range params.Overrides {
		if strings.TrimSpace(override.Explanation) == "" {
			return repository.StageChange{}, apperr.Validationf("missing explanation for skipped stage %q", override.SkippedStage)
		}
	}

	deal, ok := f.deals[params.DealID]
	if !ok || deal.WorkspaceID != params.WorkspaceID {
		return repository.StageChange{}, apperr.NotFound("deal not found")
	}
	if deal.Stage != params.FromStage {
		return repository.StageChange{}, apperr.Conflict("deal stage changed concurrently, re-evaluate and retry")
	}

	deal.Stage = params.ToStage
	if domain.IsTerminal(params.ToStage) && deal.ClosedAt == nil {
		now := time.Now()
		deal.ClosedAt = &now
	}
	deal.UpdatedAt = time.Now()
	f.deals[deal.ID] = deal

	f.seq++
	from := params.FromStage
	change := repository.StageChange{
		ID:            uuid.New(),
		DealID:        params.DealID,
		Seq:           f.seq,
		FromStage:     &from,
		ToStage:       params.ToStage,
		TriggerType:   params.TriggerType,
		TriggerCallID: params.TriggerCallID,
		Justification: params.Justification,
		ChangedBy:     params.ChangedBy,
		CreatedAt:     time.Now(),
	}
	for _, input := range params.Overrides {
		change.Overrides = append(change.Overrides, repository.StageOverride{
			ID:           uuid.New(),
			ChangeID:     change.ID,
			SkippedStage: input.SkippedStage,
			Explanation:  input.Explanation,
		})
	}
	if params.SendBack != nil {
		change.SendBack = &repository.SendBack{
			ID:        uuid.New(),
			ChangeID:  change.ID,
			FromStage: params.FromStage,
			ToStage:   params.ToStage,
			Reason:    params.SendBack.Reason,
			CreatedAt: time.Now(),
		}
	}
	f.changes = append(f.changes, change)
	return change, nil
}

// history returns the recorded changes newest first, as the repository does.
func (f *fakeStore) history(dealID uuid.UUID) []repository.StageChange {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]repository.StageChange, 0)
	for i := len(f.changes) - 1; i >= 0; i-- {
		if f.changes[i].DealID == dealID {
			out = append(out, f.changes[i])
		}
	}
	return out
}

func newTestMachine(store Store) *StageMachine {
	policy := domain.NewAdvancementPolicy(domain.DefaultStageOrder(), map[string]domain.Stage{
		"demo_readiness":    domain.StageDemo,
		"proposal_followup": domain.StageProposal,
	})
	return NewStageMachine(store, StaticPolicy(policy), nil, logger.New("test"))
}

func structuredResult(nextStep, likelihood, qualification string) domain.CallAnalysisResult {
	return domain.CallAnalysisResult{
		Summary:  "call summary",
		NextStep: nextStep,
		Determination: domain.NewStructuredDetermination(domain.StructuredDetermination{
			LikelihoodToClose:  likelihood,
			QualificationLevel: qualification,
		}),
	}
}

func TestEvaluateAdvancesOnStrongEvidence(t *testing.T) {
	store := newFakeStore()
	deal := store.addDeal(domain.StageDiscovery)
	machine := newTestMachine(store)

	callID := uuid.New()
	result, err := machine.EvaluateAndMaybeAdvance(context.Background(), EvaluateParams{
		DealID:           deal.ID,
		WorkspaceID:      deal.WorkspaceID,
		InstructionSetID: "demo_readiness",
		Analysis:         structuredResult("Let's schedule a demo next week", "high", ""),
		TriggerCallID:    &callID,
	})
	if err != nil {
		t.Fatalf("EvaluateAndMaybeAdvance() error = %v", err)
	}

	if !result.Advanced {
		t.Fatalf("expected advancement, got decision %+v", result.Decision)
	}
	if result.NewStage != domain.StageDemo {
		t.Errorf("NewStage = %q, want %q", result.NewStage, domain.StageDemo)
	}
	if result.Change.TriggerType != repository.TriggerAutoCallAnalysis {
		t.Errorf("TriggerType = %q, want %q", result.Change.TriggerType, repository.TriggerAutoCallAnalysis)
	}
	if result.Change.TriggerCallID == nil || *result.Change.TriggerCallID != callID {
		t.Errorf("TriggerCallID not carried onto the change")
	}

	stored, _ := store.GetByID(context.Background(), deal.ID, deal.WorkspaceID)
	if stored.Stage != domain.StageDemo {
		t.Errorf("stored stage = %q, want %q", stored.Stage, domain.StageDemo)
	}
}

func TestEvaluateNoSignalWhenMappedStageTooFarAhead(t *testing.T) {
	store := newFakeStore()
	deal := store.addDeal(domain.StageLead)
	machine := newTestMachine(store)

	// demo_readiness maps to demo, two steps ahead of lead. Evidence
	// strength is irrelevant past the adjacency gate.
	result, err := machine.EvaluateAndMaybeAdvance(context.Background(), EvaluateParams{
		DealID:           deal.ID,
		WorkspaceID:      deal.WorkspaceID,
		InstructionSetID: "demo_readiness",
		Analysis:         structuredResult("proceed immediately", "very high", "fully qualified"),
	})
	if err != nil {
		t.Fatalf("EvaluateAndMaybeAdvance() error = %v", err)
	}

	if result.Advanced {
		t.Fatal("expected no advancement for a two-step jump")
	}
	if result.Decision.Outcome != domain.OutcomeNoSignal {
		t.Errorf("Outcome = %v, want OutcomeNoSignal", result.Decision.Outcome)
	}

	stored, _ := store.GetByID(context.Background(), deal.ID, deal.WorkspaceID)
	if stored.Stage != domain.StageLead {
		t.Errorf("deal moved to %q, want unchanged at lead", stored.Stage)
	}
	if got := len(store.history(deal.ID)); got != 0 {
		t.Errorf("history has %d entries, want 0", got)
	}
}

func TestEvaluateBlockedLeavesDealUntouched(t *testing.T) {
	store := newFakeStore()
	deal := store.addDeal(domain.StageDiscovery)
	machine := newTestMachine(store)

	result, err := machine.EvaluateAndMaybeAdvance(context.Background(), EvaluateParams{
		DealID:           deal.ID,
		WorkspaceID:      deal.WorkspaceID,
		InstructionSetID: "demo_readiness",
		Analysis:         structuredResult("circle back next quarter", "low", ""),
	})
	if err != nil {
		t.Fatalf("EvaluateAndMaybeAdvance() error = %v", err)
	}

	if result.Advanced {
		t.Fatal("expected block, got advancement")
	}
	if result.Decision.Outcome != domain.OutcomeBlocked {
		t.Fatalf("Outcome = %v, want OutcomeBlocked", result.Decision.Outcome)
	}
	if !strings.Contains(result.Decision.BlockReason, "low") {
		t.Errorf("BlockReason = %q, want the likelihood named", result.Decision.BlockReason)
	}
	if got := len(store.history(deal.ID)); got != 0 {
		t.Errorf("history has %d entries, want 0", got)
	}
}

func TestEvaluateTargetStageGatesAdjacencyDirectly(t *testing.T) {
	store := newFakeStore()
	machine := newTestMachine(store)

	tests := []struct {
		name     string
		current  domain.Stage
		target   domain.Stage
		advanced bool
	}{
		{"adjacent target advances", domain.StageDemo, domain.StageNegotiation, true},
		{"two-step target is no signal", domain.StageDiscovery, domain.StageNegotiation, false},
		{"backward target is no signal", domain.StageNegotiation, domain.StageDemo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deal := store.addDeal(tt.current)
			target := tt.target
			result, err := machine.EvaluateAndMaybeAdvance(context.Background(), EvaluateParams{
				DealID:           deal.ID,
				WorkspaceID:      deal.WorkspaceID,
				InstructionSetID: "demo_readiness",
				Analysis:         structuredResult("proceed with the contract", "high", ""),
				TargetStage:      &target,
			})
			if err != nil {
				t.Fatalf("EvaluateAndMaybeAdvance() error = %v", err)
			}
			if result.Advanced != tt.advanced {
				t.Errorf("Advanced = %v, want %v (decision %+v)", result.Advanced, tt.advanced, result.Decision)
			}
			if tt.advanced && result.NewStage != tt.target {
				t.Errorf("NewStage = %q, want %q", result.NewStage, tt.target)
			}
		})
	}
}

func TestEvaluateReplaysAfterLostRace(t *testing.T) {
	store := newFakeStore()
	deal := store.addDeal(domain.StageDiscovery)
	machine := newTestMachine(store)

	// A concurrent writer moves the deal to demo between the machine's
	// read and its write, exactly once.
	raced := false
	store.afterGet = func() {
		if raced {
			return
		}
		raced = true
		store.mu.Lock()
		d := store.deals[deal.ID]
		d.Stage = domain.StageDemo
		store.deals[deal.ID] = d
		store.mu.Unlock()
	}

	result, err := machine.EvaluateAndMaybeAdvance(context.Background(), EvaluateParams{
		DealID:           deal.ID,
		WorkspaceID:      deal.WorkspaceID,
		InstructionSetID: "demo_readiness",
		Analysis:         structuredResult("schedule the demo", "high", ""),
	})
	if err != nil {
		t.Fatalf("EvaluateAndMaybeAdvance() error = %v", err)
	}

	// The replayed evaluation sees demo as the current stage; demo is no
	// longer one step behind the mapped stage, so the decision degrades
	// to no-signal instead of writing a stale transition.
	if result.Advanced {
		t.Fatal("stale decision was applied after a lost race")
	}
	if result.OldStage != domain.StageDemo {
		t.Errorf("replay evaluated against %q, want the fresh stage demo", result.OldStage)
	}
}

func TestEvaluateSkipsTerminalDeals(t *testing.T) {
	store := newFakeStore()
	deal := store.addDeal(domain.StageClosedWon)
	machine := newTestMachine(store)

	result, err := machine.EvaluateAndMaybeAdvance(context.Background(), EvaluateParams{
		DealID:           deal.ID,
		WorkspaceID:      deal.WorkspaceID,
		InstructionSetID: "demo_readiness",
		Analysis:         structuredResult("proceed", "high", ""),
	})
	if err != nil {
		t.Fatalf("EvaluateAndMaybeAdvance() error = %v", err)
	}
	if result.Advanced {
		t.Fatal("closed deal advanced")
	}
}

func TestManualChangeAppendOnlyHistory(t *testing.T) {
	store := newFakeStore()
	deal := store.addDeal(domain.StageLead)
	machine := newTestMachine(store)
	ctx := context.Background()

	moves := []domain.Stage{domain.StageDiscovery, domain.StageDemo, domain.StageNegotiation}
	for _, to := range moves {
		if _, err := machine.ApplyManualChange(ctx, ManualChangeParams{
			DealID:      deal.ID,
			WorkspaceID: deal.WorkspaceID,
			NewStage:    to,
		}); err != nil {
			t.Fatalf("ApplyManualChange(%q) error = %v", to, err)
		}
	}

	history := store.history(deal.ID)
	if len(history) != len(moves) {
		t.Fatalf("history has %d entries, want %d", len(history), len(moves))
	}
	for i := 1; i < len(history); i++ {
		if history[i].Seq >= history[i-1].Seq {
			t.Errorf("history not newest first at index %d: seq %d then %d", i, history[i-1].Seq, history[i].Seq)
		}
	}
	if history[0].ToStage != domain.StageNegotiation {
		t.Errorf("newest entry moves to %q, want negotiation", history[0].ToStage)
	}
}

func TestManualChangeSkipRequiresAllExplanations(t *testing.T) {
	ctx := context.Background()

	t.Run("one explanation missing", func(t *testing.T) {
		store := newFakeStore()
		deal := store.addDeal(domain.StageDiscovery)
		machine := newTestMachine(store)

		_, err := machine.ApplyManualChange(ctx, ManualChangeParams{
			DealID:      deal.ID,
			WorkspaceID: deal.WorkspaceID,
			NewStage:    domain.StageProposal,
			SkippedExplanations: map[domain.Stage]string{
				domain.StageDemo: "prospect already saw the product",
			},
		})
		if apperr.GetKind(err) != apperr.KindValidation {
			t.Fatalf("error kind = %v, want Validation", apperr.GetKind(err))
		}
		if got := len(store.history(deal.ID)); got != 0 {
			t.Errorf("failed change still wrote %d history entries", got)
		}
	})

	t.Run("both explanations supplied", func(t *testing.T) {
		store := newFakeStore()
		deal := store.addDeal(domain.StageDiscovery)
		machine := newTestMachine(store)

		change, err := machine.ApplyManualChange(ctx, ManualChangeParams{
			DealID:      deal.ID,
			WorkspaceID: deal.WorkspaceID,
			NewStage:    domain.StageProposal,
			SkippedExplanations: map[domain.Stage]string{
				domain.StageDemo:        "prospect already saw the product",
				domain.StageNegotiation: "pricing agreed over email",
			},
		})
		if err != nil {
			t.Fatalf("ApplyManualChange() error = %v", err)
		}

		if change.TriggerType != repository.TriggerOverride {
			t.Errorf("TriggerType = %q, want %q", change.TriggerType, repository.TriggerOverride)
		}
		if len(change.Overrides) != 2 {
			t.Fatalf("got %d overrides, want 2", len(change.Overrides))
		}
		// Canonical order regardless of map iteration.
		if change.Overrides[0].SkippedStage != domain.StageDemo || change.Overrides[1].SkippedStage != domain.StageNegotiation {
			t.Errorf("overrides out of canonical order: %q then %q",
				change.Overrides[0].SkippedStage, change.Overrides[1].SkippedStage)
		}
	})
}

func TestManualChangeToClosedLostIsPlainManual(t *testing.T) {
	store := newFakeStore()
	deal := store.addDeal(domain.StageNegotiation)
	machine := newTestMachine(store)

	change, err := machine.ApplyManualChange(context.Background(), ManualChangeParams{
		DealID:        deal.ID,
		WorkspaceID:   deal.WorkspaceID,
		NewStage:      domain.StageClosedLost,
		Justification: "Prospect went dark",
	})
	if err != nil {
		t.Fatalf("ApplyManualChange() error = %v", err)
	}

	if change.TriggerType != repository.TriggerManual {
		t.Errorf("TriggerType = %q, want %q", change.TriggerType, repository.TriggerManual)
	}
	if len(change.Overrides) != 0 {
		t.Errorf("side exit recorded %d overrides, want 0", len(change.Overrides))
	}
	if change.SendBack != nil {
		t.Error("side exit recorded a send-back")
	}

	stored, _ := store.GetByID(context.Background(), deal.ID, deal.WorkspaceID)
	if stored.ClosedAt == nil {
		t.Error("closed_at not set on terminal entry")
	}
}

func TestManualChangeBackwardRecordsSendBack(t *testing.T) {
	store := newFakeStore()
	deal := store.addDeal(domain.StageProposal)
	machine := newTestMachine(store)

	change, err := machine.ApplyManualChange(context.Background(), ManualChangeParams{
		DealID:        deal.ID,
		WorkspaceID:   deal.WorkspaceID,
		NewStage:      domain.StageNegotiation,
		Justification: "terms reopened",
		Reason:        "legal rejected the liability clause",
	})
	if err != nil {
		t.Fatalf("ApplyManualChange() error = %v", err)
	}

	if change.SendBack == nil {
		t.Fatal("backward move recorded no send-back")
	}
	if change.SendBack.Reason != "legal rejected the liability clause" {
		t.Errorf("send-back reason = %q", change.SendBack.Reason)
	}
	if change.SendBack.FromStage != domain.StageProposal || change.SendBack.ToStage != domain.StageNegotiation {
		t.Errorf("send-back stages = %q -> %q", change.SendBack.FromStage, change.SendBack.ToStage)
	}
	if change.TriggerType != repository.TriggerManual {
		t.Errorf("TriggerType = %q, want %q", change.TriggerType, repository.TriggerManual)
	}
}

func TestManualChangeRejectsNoOpAndUnknownStage(t *testing.T) {
	store := newFakeStore()
	deal := store.addDeal(domain.StageDemo)
	machine := newTestMachine(store)
	ctx := context.Background()

	_, err := machine.ApplyManualChange(ctx, ManualChangeParams{
		DealID:      deal.ID,
		WorkspaceID: deal.WorkspaceID,
		NewStage:    domain.StageDemo,
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("no-op change: error kind = %v, want Validation", apperr.GetKind(err))
	}

	_, err = machine.ApplyManualChange(ctx, ManualChangeParams{
		DealID:      deal.ID,
		WorkspaceID: deal.WorkspaceID,
		NewStage:    domain.Stage("paused"),
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("unknown stage: error kind = %v, want Validation", apperr.GetKind(err))
	}
}

func TestTerminalClosedAtSetExactlyOnce(t *testing.T) {
	store := newFakeStore()
	deal := store.addDeal(domain.StageProposal)
	machine := newTestMachine(store)

	change, err := machine.ApplyManualChange(context.Background(), ManualChangeParams{
		DealID:        deal.ID,
		WorkspaceID:   deal.WorkspaceID,
		NewStage:      domain.StageClosedWon,
		Justification: "signed",
	})
	if err != nil {
		t.Fatalf("ApplyManualChange() error = %v", err)
	}
	if change.ToStage != domain.StageClosedWon {
		t.Fatalf("ToStage = %q", change.ToStage)
	}

	stored, _ := store.GetByID(context.Background(), deal.ID, deal.WorkspaceID)
	if stored.ClosedAt == nil {
		t.Fatal("closed_at not set on closed_won entry")
	}
}

func TestManualChangeRejectsMovesOutOfTerminalStage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		from domain.Stage
		to   domain.Stage
	}{
		{"closed_won back to discovery", domain.StageClosedWon, domain.StageDiscovery},
		{"closed_won to closed_lost", domain.StageClosedWon, domain.StageClosedLost},
		{"closed_lost back to negotiation", domain.StageClosedLost, domain.StageNegotiation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			deal := store.addDeal(tt.from)
			machine := newTestMachine(store)

			_, err := machine.ApplyManualChange(ctx, ManualChangeParams{
				DealID:        deal.ID,
				WorkspaceID:   deal.WorkspaceID,
				NewStage:      tt.to,
				Justification: "reopening",
			})
			if apperr.GetKind(err) != apperr.KindValidation {
				t.Fatalf("error kind = %v, want Validation", apperr.GetKind(err))
			}

			stored, _ := store.GetByID(ctx, deal.ID, deal.WorkspaceID)
			if stored.Stage != tt.from {
				t.Errorf("deal moved to %q, want unchanged at %q", stored.Stage, tt.from)
			}
			if got := len(store.history(deal.ID)); got != 0 {
				t.Errorf("rejected change still wrote %d history entries", got)
			}
		})
	}
}

func TestManualChangeUnknownDeal(t *testing.T) {
	store := newFakeStore()
	machine := newTestMachine(store)

	_, err := machine.ApplyManualChange(context.Background(), ManualChangeParams{
		DealID:      uuid.New(),
		WorkspaceID: uuid.New(),
		NewStage:    domain.StageDemo,
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("error kind = %v, want NotFound", apperr.GetKind(err))
	}
}
