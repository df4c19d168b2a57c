package service

import (
	"context"
	"testing"

	"salesclutch/internal/config"
	"salesclutch/platform/apperr"
	"salesclutch/platform/logger"

	"github.com/google/uuid"
)

func newTestService() *Service {
	return &Service{
		cfg: &config.Config{AppBaseURL: "https://app.example.com/"},
		log: logger.New("test"),
	}
}

func TestCreateInviteValidatesInput(t *testing.T) {
	svc := newTestService()
	workspaceID, inviter := uuid.New(), uuid.New()

	tests := []struct {
		name  string
		email string
		role  string
	}{
		{name: "empty email", email: "  ", role: "member"},
		{name: "unknown role", email: "rep@example.com", role: "viewer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateInvite(context.Background(), workspaceID, inviter, tt.email, tt.role)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestInviteURLTrimsTrailingSlash(t *testing.T) {
	svc := newTestService()
	got := svc.inviteURL("tok123")
	want := "https://app.example.com/invites/accept?token=tok123"
	if got != want {
		t.Fatalf("inviteURL = %q, want %q", got, want)
	}
}
