package domain

import (
	"fmt"
	"strings"
)

// Outcome is the result category of one policy evaluation.
type Outcome int

const (
	// OutcomeNoSignal means the analysis is not evidence for any move from
	// the current stage: the instruction set is unmapped, or the mapped
	// stage is not exactly one step ahead.
	OutcomeNoSignal Outcome = iota
	// OutcomeAdvance means the evidence supports moving one step forward.
	OutcomeAdvance
	// OutcomeBlocked means the adjacency gate passed but the evidence did
	// not clear the bar.
	OutcomeBlocked
)

// Decision is the output of AdvancementPolicy.Evaluate. TargetStage is set
// only for OutcomeAdvance; BlockReason only for OutcomeBlocked.
type Decision struct {
	Outcome       Outcome
	TargetStage   Stage
	Justification string
	BlockReason   string
}

// AdvancementPolicy decides whether a call analysis is sufficient evidence
// to move a deal one step forward. It is a pure function of its inputs:
// no storage, no clock, no mutable state. The stage order and the
// instruction-set mapping are injected at construction so tests can
// substitute alternate pipelines.
type AdvancementPolicy struct {
	order        StageOrder
	stageByInset map[string]Stage
}

// NewAdvancementPolicy builds a policy over the given order and
// instruction-set→stage mapping. The mapping is copied; later mutation of
// the caller's map does not affect the policy.
func NewAdvancementPolicy(order StageOrder, stageByInstructionSet map[string]Stage) *AdvancementPolicy {
	mapping := make(map[string]Stage, len(stageByInstructionSet))
	for id, stage := range stageByInstructionSet {
		mapping[id] = stage
	}
	return &AdvancementPolicy{order: order, stageByInset: mapping}
}

// Order returns the stage order the policy was built with.
func (p *AdvancementPolicy) Order() StageOrder {
	return p.order
}

// MappedStage returns the stage the given instruction set is evidence for.
func (p *AdvancementPolicy) MappedStage(instructionSetID string) (Stage, bool) {
	stage, ok := p.stageByInset[instructionSetID]
	return stage, ok
}

// Evaluate runs the three policy gates in order: stage mapping, adjacency,
// evidence. Identical inputs always produce identical decisions, including
// the justification and block-reason text.
func (p *AdvancementPolicy) Evaluate(result CallAnalysisResult, current Stage, instructionSetID string) Decision {
	mapped, ok := p.stageByInset[instructionSetID]
	if !ok {
		return Decision{Outcome: OutcomeNoSignal}
	}

	// Automatic advancement may only traverse the single next edge. Skips
	// happen exclusively through the manual override path.
	steps, ok := p.order.StepsAhead(current, mapped)
	if !ok || steps != 1 {
		return Decision{Outcome: OutcomeNoSignal}
	}

	if p.hasPositiveSignal(result) {
		return Decision{
			Outcome:       OutcomeAdvance,
			TargetStage:   mapped,
			Justification: buildJustification(instructionSetID, result.NextStep),
		}
	}

	return Decision{
		Outcome:     OutcomeBlocked,
		BlockReason: blockReason(result.Determination),
	}
}

// EvaluateTowards runs the adjacency and evidence gates against an explicit
// target stage, bypassing the instruction-set mapping. Used when the caller
// already knows which stage the evidence is meant to support.
func (p *AdvancementPolicy) EvaluateTowards(result CallAnalysisResult, current, target Stage, instructionSetID string) Decision {
	steps, ok := p.order.StepsAhead(current, target)
	if !ok || steps != 1 {
		return Decision{Outcome: OutcomeNoSignal}
	}

	if p.hasPositiveSignal(result) {
		return Decision{
			Outcome:       OutcomeAdvance,
			TargetStage:   target,
			Justification: buildJustification(instructionSetID, result.NextStep),
		}
	}

	return Decision{
		Outcome:     OutcomeBlocked,
		BlockReason: blockReason(result.Determination),
	}
}

// nextStepSignals are the forward-motion phrases checked against the
// analysis recommendation, case-insensitively. Each entry is a conjunction
// of substrings that must all occur.
var nextStepSignals = [][]string{
	{"proceed"},
	{"move forward"},
	{"schedule", "demo"},
	{"send proposal"},
}

func (p *AdvancementPolicy) hasPositiveSignal(result CallAnalysisResult) bool {
	nextStep := strings.ToLower(result.NextStep)
	for _, phrases := range nextStepSignals {
		if containsAll(nextStep, phrases) {
			return true
		}
	}

	fields, ok := result.Determination.Structured()
	if !ok {
		// Raw determinations contribute no favorable signal.
		return false
	}

	if isHighLikelihood(fields.LikelihoodToClose) {
		return true
	}
	return isQualified(fields.QualificationLevel)
}

func containsAll(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if !strings.Contains(text, phrase) {
			return false
		}
	}
	return true
}

func isHighLikelihood(likelihood string) bool {
	normalized := strings.ToLower(strings.TrimSpace(likelihood))
	return normalized == "high" || normalized == "very high"
}

// isQualified treats a qualification level as favorable when it mentions
// "qualified" without a negation. A bare substring check would read
// "not qualified" as a positive signal.
func isQualified(level string) bool {
	normalized := strings.ToLower(level)
	if !strings.Contains(normalized, "qualified") {
		return false
	}
	return !strings.Contains(normalized, "not qualified") && !strings.Contains(normalized, "unqualified")
}

func buildJustification(instructionSetID, nextStep string) string {
	step := strings.TrimSpace(nextStep)
	if step == "" {
		step = "no recommendation recorded"
	}
	return fmt.Sprintf("Call analyzed under %q recommended: %s", instructionSetID, step)
}

// blockReason derives a human-readable reason from whichever determination
// fields are unfavorable, falling back to a generic message when nothing
// specific can be named.
func blockReason(det Determination) string {
	fields, ok := det.Structured()
	if !ok {
		return "analysis did not produce sufficient evidence to advance"
	}

	if lk := strings.TrimSpace(fields.LikelihoodToClose); lk != "" && !isHighLikelihood(lk) {
		return fmt.Sprintf("likelihood to close is %q", lk)
	}
	if level := strings.ToLower(fields.QualificationLevel); strings.Contains(level, "not qualified") || strings.Contains(level, "unqualified") {
		return fmt.Sprintf("prospect marked %q", strings.TrimSpace(fields.QualificationLevel))
	}
	if len(fields.RedFlags) > 0 {
		return "red flags raised: " + strings.Join(fields.RedFlags, "; ")
	}
	return "analysis did not produce sufficient evidence to advance"
}
