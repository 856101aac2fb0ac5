package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	token, err := IssueToken("secret", "user-1", time.Hour)
	require.NoError(t, err)

	claims, err := ParseAndValidateToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "user-1", claims.Subject)
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := IssueToken("secret", "user-1", time.Hour)
	require.NoError(t, err)

	_, err = ParseAndValidateToken("other-secret", token)
	require.Error(t, err)
}

func TestValidate_Expired(t *testing.T) {
	token, err := IssueToken("secret", "user-1", -time.Minute)
	require.NoError(t, err)

	_, err = ParseAndValidateToken("secret", token)
	require.Error(t, err)
}

func TestParseBearerToken(t *testing.T) {
	tok, err := ParseBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	require.Equal(t, "abc.def.ghi", tok)

	_, err = ParseBearerToken("")
	require.Error(t, err)

	_, err = ParseBearerToken("Basic abc")
	require.Error(t, err)
}
