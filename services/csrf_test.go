package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSRFTokenRoundTrip(t *testing.T) {
	csrf := NewCSRF("test-secret")

	token, err := csrf.Token()
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, csrf.Verify(token))
}

func TestCSRFVerifyRejectsBadTokens(t *testing.T) {
	csrf := NewCSRF("test-secret")

	token, err := csrf.Token()
	require.NoError(t, err)

	require.False(t, csrf.Verify(""))
	require.False(t, csrf.Verify("not-a-token"))
	require.False(t, csrf.Verify(token+"x"))

	other := NewCSRF("different-secret")
	require.False(t, other.Verify(token), "token signed with another secret must not verify")
}
