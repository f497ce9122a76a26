package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomStringLength matches the length of auth keys and the random part of
// password reset tokens.
const RandomStringLength = 32

// RandomString returns a URL-safe random string of RandomStringLength
// characters read from crypto/rand. The alphabet includes '_' and '-'.
func RandomString() (string, error) {
	// 24 bytes encode to exactly 32 base64 characters.
	buf := make([]byte, RandomStringLength*3/4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random string: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
