package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ResetTokenBytes is the amount of randomness in a password reset token.
const ResetTokenBytes = 32

// GenerateResetToken returns a random hex token and its digest. Only the
// digest is meant to be stored.
func GenerateResetToken() (plain, digest string, err error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate reset token: %w", err)
	}

	plain = hex.EncodeToString(buf)
	return plain, HashToken(plain), nil
}

// HashToken is the unsalted SHA-256 hex digest used to look tokens up.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
