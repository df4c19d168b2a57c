// Package email sends transactional mail over SMTP.
package email

import "context"

// Sender delivers the application's transactional emails.
type Sender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, name string) error
	SendWorkspaceInviteEmail(ctx context.Context, toEmail, workspaceName, inviteURL string) error
	SendDealAdvancedEmail(ctx context.Context, toEmail, dealTitle, fromStage, toStage, trigger string) error
	SendDealWonEmail(ctx context.Context, toEmail, dealTitle string, valueCents int64) error
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	return nil
}

func (NoopSender) SendWorkspaceInviteEmail(ctx context.Context, toEmail, workspaceName, inviteURL string) error {
	return nil
}

func (NoopSender) SendDealAdvancedEmail(ctx context.Context, toEmail, dealTitle, fromStage, toStage, trigger string) error {
	return nil
}

func (NoopSender) SendDealWonEmail(ctx context.Context, toEmail, dealTitle string, valueCents int64) error {
	return nil
}

var _ Sender = NoopSender{}
