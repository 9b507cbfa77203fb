package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePKCE(t *testing.T) {
	verifier, challenge := GeneratePKCE()

	// 40 random bytes encode to 54 base64url chars; the re-filter may only
	// ever shrink that.
	assert.GreaterOrEqual(t, len(verifier), 43)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_-]+$`), verifier)

	sum := sha256.Sum256([]byte(verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), challenge)
	assert.NotContains(t, challenge, "=")
}

func TestGeneratePKCEUniquePerAttempt(t *testing.T) {
	v1, c1 := GeneratePKCE()
	v2, c2 := GeneratePKCE()
	assert.NotEqual(t, v1, v2)
	assert.NotEqual(t, c1, c2)
}
