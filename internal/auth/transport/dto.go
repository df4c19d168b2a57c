// Package transport defines the auth API request and response shapes.
package transport

import (
	"time"

	"salesclutch/internal/auth/repository"
	"salesclutch/internal/auth/service"
)

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=120"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleSignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type RefreshRequest struct {
	SessionToken string `json:"session_token" validate:"required"`
}

type SignOutRequest struct {
	SessionToken string `json:"session_token" validate:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func ToUserResponse(user *repository.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt,
	}
}

type AuthResponse struct {
	User             UserResponse `json:"user"`
	AccessToken      string       `json:"access_token"`
	AccessExpiresAt  time.Time    `json:"access_expires_at"`
	SessionToken     string       `json:"session_token"`
	SessionExpiresAt time.Time    `json:"session_expires_at"`
}

func ToAuthResponse(auth *service.AuthSession) AuthResponse {
	return AuthResponse{
		User:             ToUserResponse(auth.User),
		AccessToken:      auth.AccessToken,
		AccessExpiresAt:  auth.AccessExpiresAt,
		SessionToken:     auth.SessionToken,
		SessionExpiresAt: auth.SessionExpiresAt,
	}
}
