package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCipher(t *testing.T) {
	c, err := NewTokenCipher("a-very-long-session-secret-for-tests-only")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		sealed, err := c.Seal("eyJhbGciOiJIUzI1NiJ9.payload.sig")
		require.NoError(t, err)
		assert.NotContains(t, sealed, "payload")

		opened, err := c.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.payload.sig", opened)
	})

	t.Run("empty passes through", func(t *testing.T) {
		sealed, err := c.Seal("")
		assert.NoError(t, err)
		assert.Empty(t, sealed)
		opened, err := c.Open("")
		assert.NoError(t, err)
		assert.Empty(t, opened)
	})

	t.Run("random nonce", func(t *testing.T) {
		a, _ := c.Seal("same")
		b, _ := c.Seal("same")
		assert.NotEqual(t, a, b)
	})

	t.Run("other secret cannot open", func(t *testing.T) {
		sealed, _ := c.Seal("token")
		other, err := NewTokenCipher("another-secret-of-sufficient-length-xx")
		require.NoError(t, err)
		_, err = other.Open(sealed)
		assert.Error(t, err)
	})

	t.Run("short input", func(t *testing.T) {
		_, err := c.Open("AAAA")
		assert.ErrorIs(t, err, ErrInvalidCiphertext)
	})
}

func TestTokenCipherRequiresSecret(t *testing.T) {
	_, err := NewTokenCipher("")
	assert.ErrorIs(t, err, ErrSessionSecretNotSet)
}
