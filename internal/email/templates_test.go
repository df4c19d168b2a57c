package email

import (
	"strings"
	"testing"
)

func TestRenderEmailTemplates(t *testing.T) {
	tests := []struct {
		name     string
		template string
		data     any
		want     []string
	}{
		{
			name:     "welcome",
			template: "welcome.html",
			data: welcomeEmailData{
				baseEmailData: baseEmailData{Title: "Welcome", Heading: "Welcome"},
				Name:          "Dana",
			},
			want: []string{"Hi Dana", "Welcome"},
		},
		{
			name:     "workspace invite has cta",
			template: "workspace_invite.html",
			data: workspaceInviteEmailData{
				baseEmailData: baseEmailData{
					Title:    "Invite",
					Heading:  "You have been invited",
					CTALabel: "Accept invitation",
					CTAURL:   "https://app.example.com/invites/accept?token=abc",
				},
				WorkspaceName: "Acme Sales",
			},
			want: []string{"Acme Sales", "Accept invitation", "token=abc"},
		},
		{
			name:     "deal advanced",
			template: "deal_advanced.html",
			data: dealAdvancedEmailData{
				baseEmailData: baseEmailData{Title: "Deal", Heading: "A deal moved forward"},
				DealTitle:     "Acme Corp renewal",
				FromStage:     "demo",
				ToStage:       "negotiation",
				Trigger:       "auto_call_analysis",
			},
			want: []string{"Acme Corp renewal", "demo", "negotiation", "auto_call_analysis"},
		},
		{
			name:     "deal won formats value",
			template: "deal_won.html",
			data: dealWonEmailData{
				baseEmailData:  baseEmailData{Title: "Won", Heading: "Deal closed won"},
				DealTitle:      "Acme Corp renewal",
				ValueFormatted: formatCents(1250000),
			},
			want: []string{"Acme Corp renewal", "$12500.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := renderEmailTemplate(tt.template, tt.data)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			for _, fragment := range tt.want {
				if !strings.Contains(html, fragment) {
					t.Errorf("rendered email missing %q", fragment)
				}
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	if got := formatCents(99); got != "$0.99" {
		t.Fatalf("formatCents(99) = %q", got)
	}
	if got := formatCents(150000); got != "$1500.00" {
		t.Fatalf("formatCents(150000) = %q", got)
	}
}
