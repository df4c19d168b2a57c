// Package service implements sign-up, sign-in, and session management.
//
// Clients hold two credentials: a short-lived JWT access token carried on
// every request, and a long-lived opaque session token used only to mint
// fresh access tokens. Only the session token's hash is stored.
package service

import (
	"context"
	"strings"
	"time"

	"salesclutch/internal/auth/password"
	"salesclutch/internal/auth/repository"
	"salesclutch/internal/auth/token"
	"salesclutch/internal/config"
	"salesclutch/internal/events"
	"salesclutch/platform/apperr"
	"salesclutch/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const msgInvalidCredentials = "invalid email or password"

// WorkspaceDirectory is the slice of the workspace module auth depends on.
// Sign-in needs the caller's workspace to stamp into the access token, and
// sign-up provisions a default workspace for new accounts.
type WorkspaceDirectory interface {
	ProvisionDefault(ctx context.Context, userID uuid.UUID, ownerName string) (uuid.UUID, string, error)
	PrimaryMembership(ctx context.Context, userID uuid.UUID) (uuid.UUID, string, error)
}

// AuthSession bundles everything a successful authentication returns.
type AuthSession struct {
	User             *repository.User
	AccessToken      string
	AccessExpiresAt  time.Time
	SessionToken     string
	SessionExpiresAt time.Time
}

type Service struct {
	repo       *repository.Repository
	workspaces WorkspaceDirectory
	bus        events.Bus
	google     *googleVerifier
	cfg        *config.Config
	log        *logger.Logger
}

func New(repo *repository.Repository, workspaces WorkspaceDirectory, bus events.Bus, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		workspaces: workspaces,
		bus:        bus,
		google:     newGoogleVerifier(cfg.GoogleClientID),
		cfg:        cfg,
		log:        log,
	}
}

// SignUp creates an account, provisions its default workspace, and signs the
// user in.
func (s *Service) SignUp(ctx context.Context, email, name, plaintext string) (*AuthSession, error) {
	email = normalizeEmail(email)

	hashed, err := password.Hash(plaintext)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	user, err := s.repo.CreateUser(ctx, email, name, &hashed)
	if err != nil {
		s.log.AuthEvent("sign_up", email, false, "create user failed")
		return nil, err
	}

	if _, _, err := s.workspaces.ProvisionDefault(ctx, user.ID, user.Name); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "provision default workspace", err)
	}

	s.bus.Publish(ctx, events.UserSignedUp{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
	})
	s.log.AuthEvent("sign_up", email, true, "")

	return s.issueSession(ctx, user)
}

// SignIn verifies credentials and starts a session. The caller gets the same
// message whether the account is missing or the password is wrong.
func (s *Service) SignIn(ctx context.Context, email, plaintext string) (*AuthSession, error) {
	email = normalizeEmail(email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.AuthEvent("sign_in", email, false, "unknown email")
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		s.log.AuthEvent("sign_in", email, false, "google-only account")
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}
	if err := password.Compare(*user.PasswordHash, plaintext); err != nil {
		s.log.AuthEvent("sign_in", email, false, "bad password")
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	s.log.AuthEvent("sign_in", email, true, "")
	return s.issueSession(ctx, user)
}

// SignInWithGoogle validates a Google ID token and signs the user in,
// creating the account and its default workspace on first contact.
func (s *Service) SignInWithGoogle(ctx context.Context, idToken string) (*AuthSession, error) {
	claims, err := s.google.verify(ctx, idToken)
	if err != nil {
		s.log.AuthEvent("google_sign_in", "", false, err.Error())
		return nil, err
	}

	user, err := s.repo.UpsertGoogleUser(ctx, claims.Subject, normalizeEmail(claims.Email), claims.Name, claims.AvatarURL())
	if err != nil {
		return nil, err
	}

	if _, _, err := s.workspaces.PrimaryMembership(ctx, user.ID); err != nil {
		if !apperr.Is(err, apperr.KindNotFound) {
			return nil, err
		}
		if _, _, err := s.workspaces.ProvisionDefault(ctx, user.ID, user.Name); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "provision default workspace", err)
		}
		s.bus.Publish(ctx, events.UserSignedUp{
			BaseEvent: events.NewBaseEvent(),
			UserID:    user.ID,
			Email:     user.Email,
			Name:      user.Name,
		})
	}

	s.log.AuthEvent("google_sign_in", user.Email, true, "")
	return s.issueSession(ctx, user)
}

// Refresh exchanges a live session token for a fresh access token. The
// session itself is untouched.
func (s *Service) Refresh(ctx context.Context, sessionToken string) (*AuthSession, error) {
	session, err := s.repo.GetSessionByTokenHash(ctx, token.HashSHA256(sessionToken))
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := s.signAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthSession{
		User:             user,
		AccessToken:      accessToken,
		AccessExpiresAt:  expiresAt,
		SessionToken:     sessionToken,
		SessionExpiresAt: session.ExpiresAt,
	}, nil
}

// SignOut revokes the session. Revoking an unknown token is a no-op.
func (s *Service) SignOut(ctx context.Context, sessionToken string) error {
	return s.repo.DeleteSessionByTokenHash(ctx, token.HashSHA256(sessionToken))
}

// CleanupSessions removes expired session rows.
func (s *Service) CleanupSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx)
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) issueSession(ctx context.Context, user *repository.User) (*AuthSession, error) {
	raw, err := token.GenerateSessionToken()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "generate session token", err)
	}

	session, err := s.repo.CreateSession(ctx, user.ID, token.HashSHA256(raw), time.Now().Add(s.cfg.SessionTTL))
	if err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := s.signAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthSession{
		User:             user,
		AccessToken:      accessToken,
		AccessExpiresAt:  expiresAt,
		SessionToken:     raw,
		SessionExpiresAt: session.ExpiresAt,
	}, nil
}

// signAccessToken mints the HS256 JWT the auth middleware verifies. The
// workspace claim is omitted when the user has no membership yet; such a
// token can reach profile endpoints but nothing workspace-scoped.
func (s *Service) signAccessToken(ctx context.Context, user *repository.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.cfg.AccessTokenTTL)
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"type": "access",
		"exp":  expiresAt.Unix(),
		"iat":  time.Now().Unix(),
	}

	workspaceID, role, err := s.workspaces.PrimaryMembership(ctx, user.ID)
	switch {
	case err == nil:
		claims["workspace_id"] = workspaceID.String()
		claims["roles"] = []string{role}
	case apperr.Is(err, apperr.KindNotFound):
		claims["roles"] = []string{}
	default:
		return "", time.Time{}, err
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTAccessSecret))
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.KindInternal, "sign access token", err)
	}
	return signed, expiresAt, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
