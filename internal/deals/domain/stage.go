// Package domain provides core business rules for the deals bounded context.
package domain

import "fmt"

// Stage is one node in the sales pipeline, or a terminal closed state.
type Stage string

const (
	StageLead        Stage = "lead"
	StageDiscovery   Stage = "discovery"
	StageDemo        Stage = "demo"
	StageNegotiation Stage = "negotiation"
	StageProposal    Stage = "proposal"
	StageClosedWon   Stage = "closed_won"
	StageClosedLost  Stage = "closed_lost"
)

var knownStages = map[Stage]struct{}{
	StageLead:        {},
	StageDiscovery:   {},
	StageDemo:        {},
	StageNegotiation: {},
	StageProposal:    {},
	StageClosedWon:   {},
	StageClosedLost:  {},
}

// IsKnownStage reports whether stage is a legal enum value.
func IsKnownStage(stage Stage) bool {
	_, ok := knownStages[stage]
	return ok
}

// IsTerminal reports whether stage is a closed state. Deals entering a
// terminal stage get closed_at set exactly once; leaving one is not a
// supported operation.
func IsTerminal(stage Stage) bool {
	return stage == StageClosedWon || stage == StageClosedLost
}

// StageOrder is an immutable total order over the linear pipeline stages.
// closed_lost is a side exit reachable from any stage and is never part of
// the order.
type StageOrder struct {
	order []Stage
	index map[Stage]int
}

// NewStageOrder builds a StageOrder from the given linear progression.
// closed_lost, unknown stages, and duplicates are rejected.
func NewStageOrder(stages ...Stage) (StageOrder, error) {
	if len(stages) < 2 {
		return StageOrder{}, fmt.Errorf("stage order needs at least two stages, got %d", len(stages))
	}

	order := make([]Stage, len(stages))
	index := make(map[Stage]int, len(stages))
	for i, stage := range stages {
		if stage == StageClosedLost {
			return StageOrder{}, fmt.Errorf("closed_lost is a side exit and cannot appear in the stage order")
		}
		if !IsKnownStage(stage) {
			return StageOrder{}, fmt.Errorf("unknown stage %q in stage order", stage)
		}
		if _, dup := index[stage]; dup {
			return StageOrder{}, fmt.Errorf("duplicate stage %q in stage order", stage)
		}
		order[i] = stage
		index[stage] = i
	}

	return StageOrder{order: order, index: index}, nil
}

// DefaultStageOrder returns the canonical pipeline progression.
func DefaultStageOrder() StageOrder {
	order, err := NewStageOrder(
		StageLead,
		StageDiscovery,
		StageDemo,
		StageNegotiation,
		StageProposal,
		StageClosedWon,
	)
	if err != nil {
		panic("default stage order: " + err.Error())
	}
	return order
}

// Stages returns a copy of the linear progression.
func (o StageOrder) Stages() []Stage {
	out := make([]Stage, len(o.order))
	copy(out, o.order)
	return out
}

// IndexOf returns the position of stage in the linear order. The second
// return is false for closed_lost and anything else outside the order.
func (o StageOrder) IndexOf(stage Stage) (int, bool) {
	i, ok := o.index[stage]
	return i, ok
}

// StepsAhead returns how many steps ahead of from the stage to is.
// Negative values mean to is behind from. The second return is false when
// either stage is outside the linear order.
func (o StageOrder) StepsAhead(from, to Stage) (int, bool) {
	fi, ok := o.index[from]
	if !ok {
		return 0, false
	}
	ti, ok := o.index[to]
	if !ok {
		return 0, false
	}
	return ti - fi, true
}

// Next returns the stage one step ahead of from, when one exists.
func (o StageOrder) Next(from Stage) (Stage, bool) {
	i, ok := o.index[from]
	if !ok || i+1 >= len(o.order) {
		return "", false
	}
	return o.order[i+1], true
}

// Between returns the stages strictly between from and to in the linear
// order. The result is empty when to is adjacent, equal, behind, or a side
// exit — only forward jumps of two or more steps produce skipped stages.
func (o StageOrder) Between(from, to Stage) []Stage {
	fi, fok := o.index[from]
	ti, tok := o.index[to]
	if !fok || !tok || ti <= fi+1 {
		return nil
	}
	skipped := make([]Stage, 0, ti-fi-1)
	skipped = append(skipped, o.order[fi+1:ti]...)
	return skipped
}

// IsRegression reports whether moving from from to to is a backward move
// within the linear order. Side exits never count as regressions.
func (o StageOrder) IsRegression(from, to Stage) bool {
	steps, ok := o.StepsAhead(from, to)
	return ok && steps < 0
}
