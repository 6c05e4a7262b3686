package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyadama/fukubiki/app/dto"
	"github.com/oyadama/fukubiki/app/services"
	"github.com/oyadama/fukubiki/repository"
	testingutil "github.com/oyadama/fukubiki/testing"
)

// newTestAuthFlow builds the flow with the captcha gate off; the captcha
// service itself is covered by the services package tests.
func newTestAuthFlow(t *testing.T, testDB *testingutil.TestDB) AdminAuthFlow {
	tokenService, err := services.NewTokenService(time.Hour, 24*time.Hour, "fukubiki-test", "fukubiki-admin", "test-secret-key-for-admin-auth")
	require.NoError(t, err)

	return NewAdminAuthFlow(
		repository.NewAdminRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		tokenService,
		nil,
		false,
	)
}

func TestAdminAuthFlowLogin(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestAuthFlow(t, testDB)
		adminRepo := repository.NewAdminRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		const password = "S3cure!Passw0rd"
		admin, err := fixtures.CreateTestAdmin(password)
		require.NoError(t, err)

		t.Run("Success", func(t *testing.T) {
			result, err := flow.Login(ctx, &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: password,
			}, metadata)
			require.NoError(t, err)

			assert.NotEmpty(t, result.AccessToken)
			assert.NotEmpty(t, result.RefreshToken)
			assert.Equal(t, "Bearer", result.TokenType)
			assert.Equal(t, admin.Username, result.Admin.Username)

			// A successful login stamps last_login_at
			reloaded, err := adminRepo.ByUsername(ctx, admin.Username)
			require.NoError(t, err)
			require.NotNil(t, reloaded)
			assert.NotNil(t, reloaded.LastLoginAt)
		})

		t.Run("WrongPassword", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: "not-the-password",
			}, metadata)
			assert.True(t, IsIncorrectPassword(err))
		})

		t.Run("UnknownUsername", func(t *testing.T) {
			_, err := flow.Login(ctx, &dto.AdminLoginRequest{
				Username: "nobody_here",
				Password: password,
			}, metadata)
			assert.True(t, IsAdminNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminAuthFlowRefresh(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestAuthFlow(t, testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		const password = "S3cure!Passw0rd"
		admin, err := fixtures.CreateTestAdmin(password)
		require.NoError(t, err)

		login, err := flow.Login(ctx, &dto.AdminLoginRequest{
			Username: admin.Username,
			Password: password,
		}, metadata)
		require.NoError(t, err)

		rotated, err := flow.Refresh(ctx, &dto.AdminRefreshTokenRequest{RefreshToken: login.RefreshToken}, metadata)
		require.NoError(t, err)
		assert.NotEmpty(t, rotated.AccessToken)
		assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

		// The consumed refresh token must not work twice
		_, err = flow.Refresh(ctx, &dto.AdminRefreshTokenRequest{RefreshToken: login.RefreshToken}, metadata)
		assert.Error(t, err)

		_, err = flow.Refresh(ctx, &dto.AdminRefreshTokenRequest{RefreshToken: "not-a-token"}, metadata)
		assert.Error(t, err)

		return nil
	})
	require.NoError(t, err)
}
