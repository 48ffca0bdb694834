package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// ResetTokenBytes is the amount of randomness in a password reset token
const ResetTokenBytes = 32

// GenerateResetToken returns a new URL-safe reset token
func GenerateResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ResetTokenDigester derives the stored form of reset tokens using HMAC-SHA256.
// Digests are deterministic for a given secret, so a presented token is looked
// up by its digest and the raw value never reaches the database.
type ResetTokenDigester struct {
	secret []byte
}

// NewResetTokenDigester creates a digester keyed with the server secret
func NewResetTokenDigester(secret string) *ResetTokenDigester {
	return &ResetTokenDigester{secret: []byte(secret)}
}

// Digest returns the hex-encoded HMAC of the token
func (d *ResetTokenDigester) Digest(token string) string {
	mac := hmac.New(sha256.New, d.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
