// Package token generates and hashes opaque session tokens.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// SessionTokenBytes is the entropy of a session token before encoding.
const SessionTokenBytes = 48

// GenerateRandomToken returns a URL-safe random token with size bytes of
// entropy.
func GenerateRandomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateSessionToken returns a fresh opaque session token.
func GenerateSessionToken() (string, error) {
	return GenerateRandomToken(SessionTokenBytes)
}

// HashSHA256 returns the hex-encoded SHA-256 digest of value. Only the hash
// is ever persisted; the raw token stays with the client.
func HashSHA256(value string) string {
	digest := sha256.Sum256([]byte(value))
	return hex.EncodeToString(digest[:])
}
