package domain

import (
	"strings"
	"testing"
)

func testPolicy(t *testing.T) *AdvancementPolicy {
	t.Helper()
	return NewAdvancementPolicy(DefaultStageOrder(), map[string]Stage{
		"discovery_questioning": StageDiscovery,
		"demo_readiness":        StageDemo,
		"budget_discussion":     StageNegotiation,
		"proposal_followup":     StageProposal,
		"closing_call":          StageClosedWon,
	})
}

func strongEvidence() CallAnalysisResult {
	return CallAnalysisResult{
		Summary:  "Very positive call.",
		NextStep: "Proceed to the next phase and schedule a demo next week",
		Determination: NewStructuredDetermination(StructuredDetermination{
			LikelihoodToClose:  "very high",
			QualificationLevel: "fully qualified",
		}),
	}
}

// The adjacency gate must return no-signal for every mapped stage that is
// not exactly one step ahead, regardless of how strong the evidence is.
func TestAdjacencyGateBlocksNonAdjacentMoves(t *testing.T) {
	policy := testPolicy(t)
	result := strongEvidence()

	cases := []struct {
		name           string
		current        Stage
		instructionSet string
	}{
		{"two steps ahead", StageLead, "demo_readiness"},
		{"three steps ahead", StageLead, "proposal_followup"},
		{"equal stage", StageDiscovery, "discovery_questioning"},
		{"behind", StageNegotiation, "discovery_questioning"},
		{"current outside linear order", StageClosedLost, "demo_readiness"},
	}

	for _, tc := range cases {
		decision := policy.Evaluate(result, tc.current, tc.instructionSet)
		if decision.Outcome != OutcomeNoSignal {
			t.Errorf("%s: outcome = %v, want OutcomeNoSignal", tc.name, decision.Outcome)
		}
	}
}

func TestUnmappedInstructionSetIsNoSignal(t *testing.T) {
	policy := testPolicy(t)
	decision := policy.Evaluate(strongEvidence(), StageLead, "objection_handling")
	if decision.Outcome != OutcomeNoSignal {
		t.Errorf("outcome = %v, want OutcomeNoSignal", decision.Outcome)
	}
}

func TestEvidenceGate(t *testing.T) {
	policy := testPolicy(t)

	cases := []struct {
		name        string
		nextStep    string
		det         Determination
		wantOutcome Outcome
	}{
		{
			"schedule demo phrase",
			"Let's schedule a demo next week",
			NewRawDetermination("unclear"),
			OutcomeAdvance,
		},
		{
			"move forward phrase",
			"We should move forward with procurement",
			NewRawDetermination(""),
			OutcomeAdvance,
		},
		{
			"send proposal phrase",
			"Send proposal by Friday",
			NewRawDetermination(""),
			OutcomeAdvance,
		},
		{
			"high likelihood alone",
			"Wait for their internal review",
			NewStructuredDetermination(StructuredDetermination{LikelihoodToClose: "High"}),
			OutcomeAdvance,
		},
		{
			"qualified prospect alone",
			"Follow up in two weeks",
			NewStructuredDetermination(StructuredDetermination{QualificationLevel: "Qualified buyer"}),
			OutcomeAdvance,
		},
		{
			"not qualified is not a positive signal",
			"Follow up in two weeks",
			NewStructuredDetermination(StructuredDetermination{QualificationLevel: "not qualified"}),
			OutcomeBlocked,
		},
		{
			"schedule without demo is not enough",
			"Schedule a follow-up call",
			NewRawDetermination(""),
			OutcomeBlocked,
		},
		{
			"raw determination carries no favorable signal",
			"They will think about it",
			NewRawDetermination("likelihood_to_close high"),
			OutcomeBlocked,
		},
	}

	for _, tc := range cases {
		result := CallAnalysisResult{NextStep: tc.nextStep, Determination: tc.det}
		decision := policy.Evaluate(result, StageLead, "discovery_questioning")
		if decision.Outcome != tc.wantOutcome {
			t.Errorf("%s: outcome = %v, want %v", tc.name, decision.Outcome, tc.wantOutcome)
		}
		if tc.wantOutcome == OutcomeAdvance && decision.TargetStage != StageDiscovery {
			t.Errorf("%s: target = %s, want %s", tc.name, decision.TargetStage, StageDiscovery)
		}
	}
}

func TestBlockReasonDerivation(t *testing.T) {
	policy := testPolicy(t)

	cases := []struct {
		name       string
		det        Determination
		wantReason string
	}{
		{
			"non-high likelihood",
			NewStructuredDetermination(StructuredDetermination{LikelihoodToClose: "medium"}),
			`likelihood to close is "medium"`,
		},
		{
			"explicitly not qualified",
			NewStructuredDetermination(StructuredDetermination{QualificationLevel: "not qualified"}),
			`prospect marked "not qualified"`,
		},
		{
			"red flags",
			NewStructuredDetermination(StructuredDetermination{RedFlags: []string{"no budget", "no timeline"}}),
			"red flags raised: no budget; no timeline",
		},
		{
			"generic fallback",
			NewRawDetermination("hard to say"),
			"analysis did not produce sufficient evidence to advance",
		},
	}

	for _, tc := range cases {
		result := CallAnalysisResult{NextStep: "They will get back to us", Determination: tc.det}
		decision := policy.Evaluate(result, StageLead, "discovery_questioning")
		if decision.Outcome != OutcomeBlocked {
			t.Fatalf("%s: outcome = %v, want OutcomeBlocked", tc.name, decision.Outcome)
		}
		if decision.BlockReason != tc.wantReason {
			t.Errorf("%s: reason = %q, want %q", tc.name, decision.BlockReason, tc.wantReason)
		}
	}
}

// Identical inputs must always yield identical decisions, including the
// generated text.
func TestEvaluateIsDeterministic(t *testing.T) {
	policy := testPolicy(t)
	result := strongEvidence()

	first := policy.Evaluate(result, StageDiscovery, "demo_readiness")
	for i := 0; i < 50; i++ {
		again := policy.Evaluate(result, StageDiscovery, "demo_readiness")
		if again != first {
			t.Fatalf("evaluation %d differed: %+v vs %+v", i, again, first)
		}
	}

	if first.Outcome != OutcomeAdvance {
		t.Fatalf("outcome = %v, want OutcomeAdvance", first.Outcome)
	}
	if !strings.Contains(first.Justification, "demo_readiness") {
		t.Errorf("justification %q should reference the instruction set", first.Justification)
	}
	if !strings.Contains(first.Justification, result.NextStep) {
		t.Errorf("justification %q should reference the next step text", first.Justification)
	}
}

func TestMappingIsCopiedAtConstruction(t *testing.T) {
	mapping := map[string]Stage{"discovery_questioning": StageDiscovery}
	policy := NewAdvancementPolicy(DefaultStageOrder(), mapping)

	mapping["discovery_questioning"] = StageProposal

	stage, ok := policy.MappedStage("discovery_questioning")
	if !ok || stage != StageDiscovery {
		t.Errorf("MappedStage = (%s, %v), want (discovery, true)", stage, ok)
	}
}
