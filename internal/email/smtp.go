package email

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers mail through a plain SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) SendWelcomeEmail(ctx context.Context, toEmail, name string) error {
	content, err := renderEmailTemplate("welcome.html", welcomeEmailData{
		baseEmailData: baseEmailData{
			Title:   "Welcome to SalesClutch",
			Heading: "Welcome to SalesClutch",
		},
		Name: name,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectWelcome, content)
}

func (s *SMTPSender) SendWorkspaceInviteEmail(ctx context.Context, toEmail, workspaceName, inviteURL string) error {
	content, err := renderEmailTemplate("workspace_invite.html", workspaceInviteEmailData{
		baseEmailData: baseEmailData{
			Title:    "Workspace invitation",
			Heading:  "You have been invited",
			CTALabel: "Accept invitation",
			CTAURL:   inviteURL,
		},
		WorkspaceName: workspaceName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectWorkspaceInvite, workspaceName), content)
}

func (s *SMTPSender) SendDealAdvancedEmail(ctx context.Context, toEmail, dealTitle, fromStage, toStage, trigger string) error {
	content, err := renderEmailTemplate("deal_advanced.html", dealAdvancedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Deal advanced",
			Heading: "A deal moved forward",
		},
		DealTitle: dealTitle,
		FromStage: fromStage,
		ToStage:   toStage,
		Trigger:   trigger,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectDealAdvanced, dealTitle), content)
}

func (s *SMTPSender) SendDealWonEmail(ctx context.Context, toEmail, dealTitle string, valueCents int64) error {
	content, err := renderEmailTemplate("deal_won.html", dealWonEmailData{
		baseEmailData: baseEmailData{
			Title:   "Deal won",
			Heading: "Deal closed won",
		},
		DealTitle:      dealTitle,
		ValueFormatted: formatCents(valueCents),
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectDealWon, dealTitle), content)
}

var _ Sender = (*SMTPSender)(nil)
