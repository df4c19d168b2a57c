package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"salesclutch/internal/adapters/storage"
	"salesclutch/internal/calls/analyzer"
	"salesclutch/internal/calls/repository"
	"salesclutch/internal/calls/transcriber"
	"salesclutch/internal/deals/domain"
	dealsservice "salesclutch/internal/deals/service"
	"salesclutch/internal/events"
	"salesclutch/internal/instructionset"
	"salesclutch/internal/worker"
	"salesclutch/platform/apperr"
	"salesclutch/platform/logger"

	"github.com/google/uuid"
)

// Advancer feeds a persisted analysis into the deal stage machine.
type Advancer interface {
	EvaluateAndMaybeAdvance(ctx context.Context, params dealsservice.EvaluateParams) (dealsservice.EvaluateResult, error)
}

// Processor runs one queued call end to end: fetch the file, transcribe
// audio, analyze under the chosen lens, persist the result, and feed the
// stage machine when the call belongs to a deal.
type Processor struct {
	repo        *repository.Repository
	store       storage.Service
	transcriber *transcriber.Transcriber
	analyzer    *analyzer.Analyzer
	sets        *instructionset.Registry
	advancer    Advancer
	bus         events.Bus
	log         *logger.Logger
}

func NewProcessor(
	repo *repository.Repository,
	store storage.Service,
	trans *transcriber.Transcriber,
	analyze *analyzer.Analyzer,
	sets *instructionset.Registry,
	advancer Advancer,
	bus events.Bus,
	log *logger.Logger,
) *Processor {
	return &Processor{
		repo:        repo,
		store:       store,
		transcriber: trans,
		analyzer:    analyze,
		sets:        sets,
		advancer:    advancer,
		bus:         bus,
		log:         log,
	}
}

// Process implements worker.Processor. A processing error marks the call
// failed and is returned so the queue can retry; a later attempt reclaims
// the failed row. Calls that already completed are skipped.
func (p *Processor) Process(ctx context.Context, callID, workspaceID uuid.UUID) error {
	started := time.Now()

	call, err := p.repo.MarkProcessing(ctx, callID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindConflict {
			p.log.Info("skipping already processed call", "call_id", callID)
			return nil
		}
		return err
	}
	if call.WorkspaceID != workspaceID {
		return p.fail(ctx, callID, "workspace mismatch", fmt.Errorf("call %s does not belong to workspace %s", callID, workspaceID))
	}

	set, err := p.sets.Get(call.InstructionSet)
	if err != nil {
		return p.fail(ctx, callID, fmt.Sprintf("unknown instruction set %q", call.InstructionSet), err)
	}

	transcript, err := p.loadTranscript(ctx, call)
	if err != nil {
		return p.fail(ctx, callID, "transcription failed", err)
	}

	result, err := p.analyzer.Analyze(ctx, transcript, set.Name, set.Instructions)
	if err != nil {
		return p.fail(ctx, callID, "analysis failed", err)
	}

	completed, err := p.repo.MarkCompleted(ctx, repository.CompleteCallParams{
		ID:            callID,
		Transcript:    transcript,
		Summary:       result.Summary,
		ActionItems:   result.ActionItems,
		NextStep:      result.NextStep,
		Determination: encodeDetermination(result.Determination),
	})
	if err != nil {
		return fmt.Errorf("failed to persist analysis for call %s: %w", callID, err)
	}

	p.publishAnalyzed(ctx, completed, result)
	p.maybeAdvanceDeal(ctx, completed, result)

	p.log.CallProcessed(callID.String(), call.InstructionSet, float64(time.Since(started).Milliseconds()), nil)
	return nil
}

func (p *Processor) fail(ctx context.Context, callID uuid.UUID, reason string, cause error) error {
	if markErr := p.repo.MarkFailed(ctx, callID, reason); markErr != nil {
		p.log.Error("failed to mark call failed", "call_id", callID, "error", markErr)
	}
	p.log.CallProcessed(callID.String(), "", 0, cause)
	return fmt.Errorf("%s: %w", reason, cause)
}

// loadTranscript fetches the stored file and either reads it directly
// (transcript uploads) or runs it through transcription (recordings).
func (p *Processor) loadTranscript(ctx context.Context, call repository.Call) (string, error) {
	reader, err := p.store.Download(ctx, call.FileKey)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", call.FileKey, err)
	}
	defer reader.Close()

	if storage.IsTextFile(call.Filename) {
		data, err := io.ReadAll(reader)
		if err != nil {
			return "", fmt.Errorf("failed to read transcript file: %w", err)
		}
		if len(data) == 0 {
			return "", errors.New("transcript file is empty")
		}
		return string(data), nil
	}

	return p.transcriber.Transcribe(ctx, call.Filename, reader)
}

func (p *Processor) publishAnalyzed(ctx context.Context, call repository.Call, result domain.CallAnalysisResult) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(ctx, events.CallAnalyzed{
		BaseEvent:      events.NewBaseEvent(),
		CallID:         call.ID,
		WorkspaceID:    call.WorkspaceID,
		DealID:         call.DealID,
		InstructionSet: call.InstructionSet,
		Summary:        result.Summary,
	})
}

// maybeAdvanceDeal runs the stage machine for deal-linked calls. Advancement
// problems do not fail the call: the analysis is already persisted, and a
// blocked or conflicted evaluation is an outcome, not an error.
func (p *Processor) maybeAdvanceDeal(ctx context.Context, call repository.Call, result domain.CallAnalysisResult) {
	if call.DealID == nil || p.advancer == nil {
		return
	}

	// No actor: the transition is the system's, not the uploader's. The
	// trigger call is the attribution.
	callID := call.ID
	outcome, err := p.advancer.EvaluateAndMaybeAdvance(ctx, dealsservice.EvaluateParams{
		DealID:           *call.DealID,
		WorkspaceID:      call.WorkspaceID,
		InstructionSetID: call.InstructionSet,
		Analysis:         result,
		TriggerCallID:    &callID,
	})
	if err != nil {
		p.log.Error("stage evaluation failed after call analysis",
			"call_id", call.ID, "deal_id", *call.DealID, "error", err)
		return
	}

	if !outcome.Advanced && outcome.Decision.Outcome == domain.OutcomeBlocked {
		p.log.Info("advancement blocked",
			"call_id", call.ID, "deal_id", *call.DealID, "reason", outcome.Decision.BlockReason)
	}
}

var _ worker.Processor = (*Processor)(nil)
