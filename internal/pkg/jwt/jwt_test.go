package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-signing-key-for-tests"

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "maria@financepro.com", "GERENTE", "suc-1", testSecret, 30)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateAccessToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "maria@financepro.com", claims.Email)
	assert.Equal(t, "GERENTE", claims.Rol)
	assert.Equal(t, "suc-1", claims.SucursalID)
	assert.Equal(t, TypeAccess, claims.TokenType)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Contains(t, claims.Audience, Audience)
	assert.Equal(t, "user-1", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, 29*time.Minute)
	assert.LessOrEqual(t, remaining, 30*time.Minute)
}

func TestGenerateRefreshToken_RoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken("user-1", "maria@financepro.com", testSecret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, TypeRefresh, claims.TokenType)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Empty(t, claims.Rol)
	assert.Empty(t, claims.SucursalID)

	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, 6*24*time.Hour)
}

func TestGeneratePendingToken_RoundTrip(t *testing.T) {
	token, err := GeneratePendingToken("user-1", "maria@financepro.com", testSecret)
	require.NoError(t, err)

	claims, err := ValidatePendingToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, TypeTwoFactor, claims.TokenType)
	assert.Empty(t, claims.Rol)

	remaining := time.Until(claims.ExpiresAt.Time)
	assert.LessOrEqual(t, remaining, PendingTokenMinutes*time.Minute)
}

func TestValidate_WrongTokenType(t *testing.T) {
	refresh, err := GenerateRefreshToken("user-1", "maria@financepro.com", testSecret, 7)
	require.NoError(t, err)

	_, err = ValidateAccessToken(refresh, testSecret)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	access, err := GenerateAccessToken("user-1", "maria@financepro.com", "ADMIN", "", testSecret, 30)
	require.NoError(t, err)

	_, err = ValidateRefreshToken(access, testSecret)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	pending, err := GeneratePendingToken("user-1", "maria@financepro.com", testSecret)
	require.NoError(t, err)

	_, err = ValidateAccessToken(pending, testSecret)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "maria@financepro.com", "ADMIN", "", testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("user-1", "maria@financepro.com", "ADMIN", "", testSecret, 30)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "a-completely-different-secret!!")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	for _, in := range []string{"", "not.a.jwt", "aaaa.bbbb.cccc"} {
		_, err := ValidateAccessToken(in, testSecret)
		assert.ErrorIs(t, err, ErrTokenInvalid, "input %q", in)
	}
}

func TestGetExpiryTime(t *testing.T) {
	got := GetExpiryTime(7)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), got, time.Minute)
}
