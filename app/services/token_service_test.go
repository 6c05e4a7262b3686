package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) TokenService {
	t.Helper()
	svc, err := NewTokenService(time.Hour, 24*time.Hour, "fukubiki-test", "fukubiki-api", "test-secret-key-at-least-32-bytes!!")
	require.NoError(t, err)
	return svc
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Hour, 24*time.Hour, "iss", "aud", "")
	assert.Error(t, err)
}

func TestGenerateAndValidateAdminTokens(t *testing.T) {
	svc := newTestTokenService(t)

	accessToken, refreshToken, err := svc.GenerateAdminTokens(42)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	accessClaims, err := svc.ValidateAdminToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), accessClaims.AdminID)
	assert.Equal(t, "access", accessClaims.TokenType)
	assert.NotEmpty(t, accessClaims.TokenID)

	refreshClaims, err := svc.ValidateAdminToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
	assert.NotEqual(t, accessClaims.TokenID, refreshClaims.TokenID)
}

func TestValidateAdminTokenRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t)

	_, err := svc.ValidateAdminToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateAdminTokenRejectsWrongKey(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService(time.Hour, 24*time.Hour, "fukubiki-test", "fukubiki-api", "a-completely-different-secret-key!!")
	require.NoError(t, err)

	accessToken, _, err := other.GenerateAdminTokens(1)
	require.NoError(t, err)

	_, err = svc.ValidateAdminToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateAdminTokenExpired(t *testing.T) {
	svc, err := NewTokenService(-time.Minute, 24*time.Hour, "fukubiki-test", "fukubiki-api", "test-secret-key-at-least-32-bytes!!")
	require.NoError(t, err)

	accessToken, _, err := svc.GenerateAdminTokens(7)
	require.NoError(t, err)

	_, err = svc.ValidateAdminToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshAdminTokenRotatesAndRevokes(t *testing.T) {
	svc := newTestTokenService(t)

	_, refreshToken, err := svc.GenerateAdminTokens(9)
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshAdminToken(refreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)
	assert.NotEqual(t, refreshToken, newRefresh)

	// The consumed refresh token cannot be replayed
	assert.True(t, svc.IsTokenRevoked(refreshToken))
	_, _, err = svc.RefreshAdminToken(refreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// The new pair stays usable
	claims, err := svc.ValidateAdminToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.AdminID)
}

func TestRefreshAdminTokenRejectsAccessToken(t *testing.T) {
	svc := newTestTokenService(t)

	accessToken, _, err := svc.GenerateAdminTokens(3)
	require.NoError(t, err)

	_, _, err = svc.RefreshAdminToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevokeToken(t *testing.T) {
	svc := newTestTokenService(t)

	accessToken, _, err := svc.GenerateAdminTokens(5)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(accessToken))
	assert.True(t, svc.IsTokenRevoked(accessToken))

	_, err = svc.ValidateAdminToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}
