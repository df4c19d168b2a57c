package notification

import (
	"context"
	"testing"

	dealsrepo "salesclutch/internal/deals/repository"
	"salesclutch/internal/events"
	"salesclutch/platform/logger"

	"github.com/google/uuid"
)

type recordingSender struct {
	welcome  []string
	invites  []string
	advanced []string
	won      []string
}

func (r *recordingSender) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	r.welcome = append(r.welcome, toEmail)
	return nil
}

func (r *recordingSender) SendWorkspaceInviteEmail(ctx context.Context, toEmail, workspaceName, inviteURL string) error {
	r.invites = append(r.invites, toEmail)
	return nil
}

func (r *recordingSender) SendDealAdvancedEmail(ctx context.Context, toEmail, dealTitle, fromStage, toStage, trigger string) error {
	r.advanced = append(r.advanced, toEmail)
	return nil
}

func (r *recordingSender) SendDealWonEmail(ctx context.Context, toEmail, dealTitle string, valueCents int64) error {
	r.won = append(r.won, toEmail)
	return nil
}

func newTestNotifier() (*Notifier, *recordingSender, events.Bus) {
	sender := &recordingSender{}
	bus := events.NewInMemoryBus(logger.New("test"))
	notifier := New(bus, sender, nil)
	return notifier, sender, bus
}

func TestNotifierSendsWelcomeOnSignUp(t *testing.T) {
	_, sender, bus := newTestNotifier()

	err := bus.PublishSync(context.Background(), events.UserSignedUp{
		BaseEvent: events.NewBaseEvent(),
		UserID:    uuid.New(),
		Email:     "dana@example.com",
		Name:      "Dana",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(sender.welcome) != 1 || sender.welcome[0] != "dana@example.com" {
		t.Fatalf("welcome emails = %v", sender.welcome)
	}
}

func TestNotifierSendsInviteEmail(t *testing.T) {
	_, sender, bus := newTestNotifier()

	err := bus.PublishSync(context.Background(), events.WorkspaceInviteCreated{
		BaseEvent:     events.NewBaseEvent(),
		WorkspaceID:   uuid.New(),
		WorkspaceName: "Acme Sales",
		Email:         "newrep@example.com",
		InviteURL:     "https://app.example.com/invites/accept?token=abc",
		InvitedBy:     uuid.New(),
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(sender.invites) != 1 {
		t.Fatalf("invite emails = %v", sender.invites)
	}
}

func TestNotifierIgnoresManualAdvancement(t *testing.T) {
	_, sender, bus := newTestNotifier()

	owner := uuid.New()
	err := bus.PublishSync(context.Background(), events.DealStageAdvanced{
		BaseEvent: events.NewBaseEvent(),
		DealID:    uuid.New(),
		DealTitle: "Acme renewal",
		FromStage: "demo",
		ToStage:   "negotiation",
		Trigger:   dealsrepo.TriggerManual,
		OwnerID:   &owner,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(sender.advanced) != 0 {
		t.Fatalf("manual advancement should not email, got %v", sender.advanced)
	}
}

func TestNotifierSkipsOwnerlessDeals(t *testing.T) {
	_, sender, bus := newTestNotifier()

	err := bus.PublishSync(context.Background(), events.DealClosedWon{
		BaseEvent:  events.NewBaseEvent(),
		DealID:     uuid.New(),
		DealTitle:  "Acme renewal",
		ValueCents: 500000,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(sender.won) != 0 {
		t.Fatalf("ownerless deal should not email, got %v", sender.won)
	}
}
