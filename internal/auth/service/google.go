package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"salesclutch/platform/apperr"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// googleClaims is the subset of the tokeninfo response we use.
type googleClaims struct {
	Subject       string `json:"sub"`
	Audience      string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (c googleClaims) AvatarURL() *string {
	if c.Picture == "" {
		return nil
	}
	return &c.Picture
}

// googleVerifier validates Google ID tokens against the tokeninfo endpoint.
type googleVerifier struct {
	clientID string
	endpoint string
	client   *http.Client
}

func newGoogleVerifier(clientID string) *googleVerifier {
	return &googleVerifier{
		clientID: clientID,
		endpoint: googleTokenInfoURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *googleVerifier) verify(ctx context.Context, idToken string) (*googleClaims, error) {
	if v.clientID == "" {
		return nil, apperr.BadRequest("google sign-in is not configured")
	}

	endpoint := fmt.Sprintf("%s?id_token=%s", v.endpoint, url.QueryEscape(idToken))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "verify google token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Unauthorized("invalid google token")
	}

	var claims googleClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "decode google token info", err)
	}

	if claims.Audience != v.clientID {
		return nil, apperr.Unauthorized("google token issued for another application")
	}
	if claims.EmailVerified != "true" || claims.Email == "" {
		return nil, apperr.Unauthorized("google account email is not verified")
	}
	return &claims, nil
}
