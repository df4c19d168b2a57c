// Package notification turns domain events into emails.
package notification

import (
	"context"
	"errors"
	"fmt"

	"salesclutch/internal/deals/repository"
	"salesclutch/internal/email"
	"salesclutch/internal/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Notifier subscribes to the event bus and emails the affected users.
// Handler errors surface through the bus's logging; notifications are best
// effort and never block the publishing flow.
type Notifier struct {
	sender email.Sender
	pool   *pgxpool.Pool
}

// New wires the notifier's subscriptions onto the bus.
func New(bus events.Bus, sender email.Sender, pool *pgxpool.Pool) *Notifier {
	n := &Notifier{sender: sender, pool: pool}

	bus.Subscribe(events.UserSignedUp{}.EventName(), events.HandlerFunc(n.onUserSignedUp))
	bus.Subscribe(events.WorkspaceInviteCreated{}.EventName(), events.HandlerFunc(n.onInviteCreated))
	bus.Subscribe(events.DealStageAdvanced{}.EventName(), events.HandlerFunc(n.onDealAdvanced))
	bus.Subscribe(events.DealClosedWon{}.EventName(), events.HandlerFunc(n.onDealClosedWon))

	return n
}

func (n *Notifier) onUserSignedUp(ctx context.Context, event events.Event) error {
	e, ok := event.(events.UserSignedUp)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return n.sender.SendWelcomeEmail(ctx, e.Email, e.Name)
}

func (n *Notifier) onInviteCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.WorkspaceInviteCreated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return n.sender.SendWorkspaceInviteEmail(ctx, e.Email, e.WorkspaceName, e.InviteURL)
}

// onDealAdvanced emails the deal owner about automatic advancements only.
// Manual moves were made by a person who already knows about them.
func (n *Notifier) onDealAdvanced(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DealStageAdvanced)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	if e.Trigger != repository.TriggerAutoCallAnalysis {
		return nil
	}

	toEmail, err := n.ownerEmail(ctx, e.OwnerID)
	if err != nil || toEmail == "" {
		return err
	}
	return n.sender.SendDealAdvancedEmail(ctx, toEmail, e.DealTitle, e.FromStage, e.ToStage, e.Trigger)
}

func (n *Notifier) onDealClosedWon(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DealClosedWon)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	toEmail, err := n.ownerEmail(ctx, e.OwnerID)
	if err != nil || toEmail == "" {
		return err
	}
	return n.sender.SendDealWonEmail(ctx, toEmail, e.DealTitle, e.ValueCents)
}

// ownerEmail resolves the deal owner's address. Deals created by the system
// have no owner; those notifications are skipped.
func (n *Notifier) ownerEmail(ctx context.Context, ownerID *uuid.UUID) (string, error) {
	if ownerID == nil {
		return "", nil
	}

	var toEmail string
	err := n.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, *ownerID).Scan(&toEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return toEmail, nil
}
