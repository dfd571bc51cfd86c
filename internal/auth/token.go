package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// sessionTokenPrefix identifies session tokens at a glance in logs and
// support tooling without revealing the random portion.
const sessionTokenPrefix = "sess_"

// TokenGenerator abstracts entropy sources for testability.
type TokenGenerator interface {
	GenerateSessionToken() (string, error)
}

// CryptoTokenGenerator is the production TokenGenerator using crypto/rand.
type CryptoTokenGenerator struct{}

// GenerateSessionToken generates a cryptographically secure session token.
// Format: "sess_" + 32 random bytes hex encoded (64 hex chars).
func (CryptoTokenGenerator) GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return sessionTokenPrefix + hex.EncodeToString(b), nil
}

// CanonicalizeEmail normalizes email addresses for consistent DB lookups.
func CanonicalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
