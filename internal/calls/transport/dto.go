// Package transport defines the wire-level shapes for the calls API.
package transport

import (
	"time"

	"salesclutch/internal/calls/repository"

	"github.com/google/uuid"
)

type CallResponse struct {
	ID             uuid.UUID  `json:"id"`
	DealID         *uuid.UUID `json:"deal_id,omitempty"`
	Filename       string     `json:"filename"`
	InstructionSet string     `json:"instruction_set"`
	Status         string     `json:"status"`
	Transcript     *string    `json:"transcript,omitempty"`
	Summary        *string    `json:"summary,omitempty"`
	ActionItems    []string   `json:"action_items,omitempty"`
	NextStep       *string    `json:"next_step,omitempty"`
	Determination  *string    `json:"determination,omitempty"`
	FailureReason  *string    `json:"failure_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
}

func ToCallResponse(call repository.Call) CallResponse {
	return CallResponse{
		ID:             call.ID,
		DealID:         call.DealID,
		Filename:       call.Filename,
		InstructionSet: call.InstructionSet,
		Status:         call.Status,
		Transcript:     call.Transcript,
		Summary:        call.Summary,
		ActionItems:    call.ActionItems,
		NextStep:       call.NextStep,
		Determination:  call.Determination,
		FailureReason:  call.FailureReason,
		CreatedAt:      call.CreatedAt,
		ProcessedAt:    call.ProcessedAt,
	}
}

type ListCallsResponse struct {
	Calls []CallResponse `json:"calls"`
}
