package service

import (
	"context"
	"testing"

	"salesclutch/internal/calls/repository"
	"salesclutch/internal/deals/domain"
	dealsservice "salesclutch/internal/deals/service"
	"salesclutch/platform/logger"

	"github.com/google/uuid"
)

type recordingAdvancer struct {
	called bool
	params dealsservice.EvaluateParams
}

func (r *recordingAdvancer) EvaluateAndMaybeAdvance(_ context.Context, params dealsservice.EvaluateParams) (dealsservice.EvaluateResult, error) {
	r.called = true
	r.params = params
	return dealsservice.EvaluateResult{}, nil
}

func TestMaybeAdvanceDealLeavesActorUnset(t *testing.T) {
	advancer := &recordingAdvancer{}
	p := &Processor{advancer: advancer, log: logger.New("test")}

	dealID := uuid.New()
	uploader := uuid.New()
	call := repository.Call{
		ID:             uuid.New(),
		WorkspaceID:    uuid.New(),
		DealID:         &dealID,
		InstructionSet: "demo_readiness",
		CreatedBy:      &uploader,
	}

	p.maybeAdvanceDeal(context.Background(), call, domain.CallAnalysisResult{Summary: "demo scheduled"})

	if !advancer.called {
		t.Fatal("advancer was not invoked for a deal-linked call")
	}
	if advancer.params.ActorID != nil {
		t.Errorf("ActorID = %v, want nil for automatic advancement", advancer.params.ActorID)
	}
	if advancer.params.TriggerCallID == nil || *advancer.params.TriggerCallID != call.ID {
		t.Error("trigger call id not carried into the evaluation")
	}
	if advancer.params.DealID != dealID || advancer.params.WorkspaceID != call.WorkspaceID {
		t.Errorf("evaluation scoped to deal %s workspace %s", advancer.params.DealID, advancer.params.WorkspaceID)
	}
}

func TestMaybeAdvanceDealSkipsUnlinkedCalls(t *testing.T) {
	advancer := &recordingAdvancer{}
	p := &Processor{advancer: advancer, log: logger.New("test")}

	p.maybeAdvanceDeal(context.Background(), repository.Call{ID: uuid.New()}, domain.CallAnalysisResult{})

	if advancer.called {
		t.Fatal("advancer invoked for a call with no deal")
	}
}
