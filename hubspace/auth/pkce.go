package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"regexp"
)

var verifierFilter = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// GeneratePKCE returns a fresh verifier/challenge pair for one login attempt.
// The verifier is re-filtered to the URL-safe alphabet even though base64url
// output should already satisfy it, to tolerate encoder quirks.
func GeneratePKCE() (verifier, challenge string) {
	b := make([]byte, 40)
	rand.Read(b)
	verifier = verifierFilter.ReplaceAllString(base64.RawURLEncoding.EncodeToString(b), "")
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge
}
