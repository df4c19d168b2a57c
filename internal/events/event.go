package events

import "github.com/google/uuid"

// Auth / workspace events

// UserSignedUp fires when a new user account is created.
type UserSignedUp struct {
	BaseEvent
	UserID uuid.UUID
	Email  string
	Name   string
}

func (e UserSignedUp) EventName() string { return "auth.user.signed_up" }

// WorkspaceCreated fires when a workspace is provisioned, including the
// default workspace created on first sign-up.
type WorkspaceCreated struct {
	BaseEvent
	WorkspaceID uuid.UUID
	Name        string
	CreatedBy   uuid.UUID
}

func (e WorkspaceCreated) EventName() string { return "workspace.created" }

// WorkspaceInviteCreated fires when a member invite is issued.
type WorkspaceInviteCreated struct {
	BaseEvent
	WorkspaceID   uuid.UUID
	WorkspaceName string
	Email         string
	InviteURL     string
	InvitedBy     uuid.UUID
}

func (e WorkspaceInviteCreated) EventName() string { return "workspace.invite.created" }

// Call events

// CallAnalyzed fires when a call finishes processing successfully.
type CallAnalyzed struct {
	BaseEvent
	CallID         uuid.UUID
	WorkspaceID    uuid.UUID
	DealID         *uuid.UUID
	InstructionSet string
	Summary        string
}

func (e CallAnalyzed) EventName() string { return "calls.call.analyzed" }

// Deal events

// DealStageAdvanced fires when a deal moves forward in the pipeline,
// whether automatically or manually.
type DealStageAdvanced struct {
	BaseEvent
	DealID      uuid.UUID
	WorkspaceID uuid.UUID
	DealTitle   string
	FromStage   string
	ToStage     string
	Trigger     string
	OwnerID     *uuid.UUID
}

func (e DealStageAdvanced) EventName() string { return "deals.stage.advanced" }

// DealClosedWon fires when a deal enters closed_won.
type DealClosedWon struct {
	BaseEvent
	DealID      uuid.UUID
	WorkspaceID uuid.UUID
	DealTitle   string
	ValueCents  int64
	OwnerID     *uuid.UUID
}

func (e DealClosedWon) EventName() string { return "deals.closed_won" }
