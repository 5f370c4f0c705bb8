package share

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	signer, err := NewSigner("correct horse battery staple")
	require.NoError(t, err)

	token := signer.Token("item-123", time.Now().Add(time.Hour))

	itemID, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "item-123", itemID)
}

func TestExpiredToken(t *testing.T) {
	signer, err := NewSigner("secret")
	require.NoError(t, err)

	token := signer.Token("item-123", time.Now().Add(-time.Minute))

	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestTamperedToken(t *testing.T) {
	signer, err := NewSigner("secret")
	require.NoError(t, err)

	token := signer.Token("item-123", time.Now().Add(time.Hour))
	tampered := "A" + token[1:]

	_, err = signer.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestWrongSecret(t *testing.T) {
	a, err := NewSigner("secret-a")
	require.NoError(t, err)
	b, err := NewSigner("secret-b")
	require.NoError(t, err)

	token := a.Token("item-123", time.Now().Add(time.Hour))

	_, err = b.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokens(t *testing.T) {
	signer, err := NewSigner("secret")
	require.NoError(t, err)

	for _, token := range []string{"", "no-dot", "a.b", "!!!.sig"} {
		_, err := signer.Verify(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestEmptySecretRejected(t *testing.T) {
	_, err := NewSigner("")
	assert.Error(t, err)
}
