package services

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeVerifier(t *testing.T) {
	t.Run("decodes to the configured byte length", func(t *testing.T) {
		verifier, err := generateCodeVerifier()
		require.NoError(t, err)
		require.NotEmpty(t, verifier)

		decoded, err := base64.RawURLEncoding.DecodeString(verifier)
		require.NoError(t, err, "verifier should be valid base64url")
		assert.Equal(t, codeVerifierLength, len(decoded))
	})

	t.Run("uses base64url without padding", func(t *testing.T) {
		verifier, err := generateCodeVerifier()
		require.NoError(t, err)

		assert.False(t, strings.ContainsAny(verifier, "=+/"), "should be unpadded URL-safe base64")
	})

	t.Run("never repeats", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			verifier, err := generateCodeVerifier()
			require.NoError(t, err)
			assert.False(t, seen[verifier], "duplicate verifier generated")
			seen[verifier] = true
		}
	})
}

func TestGenerateCodeChallenge(t *testing.T) {
	t.Run("matches the RFC 7636 S256 example", func(t *testing.T) {
		// Appendix B of RFC 7636.
		challenge := generateCodeChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
		assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cw", challenge)
	})

	t.Run("is deterministic per verifier", func(t *testing.T) {
		verifier, err := generateCodeVerifier()
		require.NoError(t, err)

		assert.Equal(t, generateCodeChallenge(verifier), generateCodeChallenge(verifier))
	})

	t.Run("differs across verifiers", func(t *testing.T) {
		assert.NotEqual(t, generateCodeChallenge("verifier-one"), generateCodeChallenge("verifier-two"))
	})

	t.Run("encodes a SHA-256 digest without padding", func(t *testing.T) {
		challenge := generateCodeChallenge("some-verifier")

		decoded, err := base64.RawURLEncoding.DecodeString(challenge)
		require.NoError(t, err)
		assert.Equal(t, 32, len(decoded))
		assert.False(t, strings.ContainsAny(challenge, "=+/"))
	})
}

func TestGenerateState(t *testing.T) {
	t.Run("decodes to 32 bytes of entropy", func(t *testing.T) {
		state, err := generateState()
		require.NoError(t, err)

		decoded, err := base64.RawURLEncoding.DecodeString(state)
		require.NoError(t, err)
		assert.Equal(t, 32, len(decoded))
	})

	t.Run("never repeats", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			state, err := generateState()
			require.NoError(t, err)
			assert.False(t, seen[state], "duplicate state generated")
			seen[state] = true
		}
	})
}
