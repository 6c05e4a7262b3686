package businessflow

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyadama/fukubiki/app/dto"
	"github.com/oyadama/fukubiki/config"
	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/repository"
	testingutil "github.com/oyadama/fukubiki/testing"
	"github.com/oyadama/fukubiki/utils"
)

func testWidgetConfig() config.WidgetConfig {
	return config.WidgetConfig{
		PublicBaseURL: "https://draw.example.com",
		APIBaseURL:    "https://api.example.com",
		CacheTTL:      time.Minute,
		CallLogSize:   100,
	}
}

func newTestDistributionFlow(testDB *testingutil.TestDB) DistributionFlow {
	return NewDistributionFlow(
		repository.NewTenantRepository(testDB.DB),
		repository.NewCampaignRepository(testDB.DB),
		repository.NewTenantBindingRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		testWidgetConfig(),
	)
}

func TestDistributionFlowResolveCurrent(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestDistributionFlow(testDB)
		bindingRepo := repository.NewTenantBindingRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		t.Run("LazyProvisioning", func(t *testing.T) {
			tenant, err := fixtures.CreateTestTenant()
			require.NoError(t, err)
			campaign, err := fixtures.CreateTestCampaign()
			require.NoError(t, err)

			// No binding exists yet; resolution must create it
			result, err := flow.ResolveCurrent(ctx, &dto.GetCurrentCampaignRequest{Tenant: tenant.UUID.String()}, metadata)
			require.NoError(t, err)
			assert.Equal(t, campaign.UUID.String(), result.Campaign.CampaignUUID)
			assert.Equal(t, campaign.Title, result.Campaign.Title)

			binding, err := bindingRepo.ByTenantAndCampaign(ctx, tenant.ID, campaign.ID)
			require.NoError(t, err)
			require.NotNil(t, binding)
			firstBindingUUID := binding.UUID

			// Resolution is idempotent: the second call reuses the binding
			again, err := flow.ResolveCurrent(ctx, &dto.GetCurrentCampaignRequest{Tenant: tenant.UUID.String()}, metadata)
			require.NoError(t, err)
			assert.Equal(t, firstBindingUUID.String(), again.Campaign.BindingUUID)
		})

		t.Run("TenantNotFound", func(t *testing.T) {
			_, err := flow.ResolveCurrent(ctx, &dto.GetCurrentCampaignRequest{Tenant: uuid.New().String()}, metadata)
			assert.True(t, IsTenantNotFound(err))
		})

		t.Run("TenantInactive", func(t *testing.T) {
			tenant, err := fixtures.CreateInactiveTenant()
			require.NoError(t, err)

			_, err = flow.ResolveCurrent(ctx, &dto.GetCurrentCampaignRequest{Tenant: tenant.UUID.String()}, metadata)
			assert.True(t, IsTenantInactive(err))
		})

		t.Run("MissingTenantParam", func(t *testing.T) {
			_, err := flow.ResolveCurrent(ctx, &dto.GetCurrentCampaignRequest{}, metadata)
			assert.True(t, IsTenantParamRequired(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDistributionFlowPicksLatestCampaign(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestDistributionFlow(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)

		now := utils.UTCNow()
		older, err := fixtures.CreateCampaignWithWindow(now.Add(-48*time.Hour), now.Add(24*time.Hour))
		require.NoError(t, err)
		newer, err := fixtures.CreateCampaignWithWindow(now.Add(-time.Hour), now.Add(24*time.Hour))
		require.NoError(t, err)

		result, err := flow.ResolveCurrent(ctx, &dto.GetCurrentCampaignRequest{Tenant: tenant.UUID.String()}, metadata)
		require.NoError(t, err)
		assert.Equal(t, newer.UUID.String(), result.Campaign.CampaignUUID)

		// The list surface still exposes both, newest first
		listed, err := flow.ListActiveCampaigns(ctx, &dto.ListCampaignsRequest{Tenant: tenant.UUID.String()}, metadata)
		require.NoError(t, err)
		require.Equal(t, 2, listed.Total)
		assert.Equal(t, newer.UUID.String(), listed.Campaigns[0].CampaignUUID)
		assert.Equal(t, older.UUID.String(), listed.Campaigns[1].CampaignUUID)

		return nil
	})
	require.NoError(t, err)
}

func TestDistributionFlowNoActiveCampaign(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestDistributionFlow(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)

		// An expired campaign must not resolve
		now := utils.UTCNow()
		_, err = fixtures.CreateCampaignWithWindow(now.Add(-48*time.Hour), now.Add(-24*time.Hour))
		require.NoError(t, err)

		_, err = flow.ResolveCurrent(ctx, &dto.GetCurrentCampaignRequest{Tenant: tenant.UUID.String()}, metadata)
		assert.True(t, IsNoActiveCampaign(err))

		return nil
	})
	require.NoError(t, err)
}

func TestDistributionFlowCustomizeAndDeactivate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestDistributionFlow(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)

		t.Run("CustomizeOverridesFields", func(t *testing.T) {
			result, err := flow.CustomizeCurrent(ctx, &dto.CustomizeBindingRequest{
				Tenant:     tenant.UUID.String(),
				Title:      utils.ToPtr("Our Branded Draw"),
				BrandColor: utils.ToPtr("#ff6600"),
				Questions: []models.CustomQuestion{
					{ID: "q1", Prompt: "How did you hear about us?", Type: "text"},
				},
			}, metadata)
			require.NoError(t, err)

			assert.Equal(t, "Our Branded Draw", result.Campaign.Title)
			require.NotNil(t, result.Campaign.BrandColor)
			assert.Equal(t, "#ff6600", *result.Campaign.BrandColor)
			// Untouched fields stay inherited from the campaign
			assert.Equal(t, campaign.Description, result.Campaign.Description)
		})

		t.Run("CustomizeRejectsTooManyQuestions", func(t *testing.T) {
			questions := make([]models.CustomQuestion, utils.MaxCustomQuestions+1)
			for i := range questions {
				questions[i] = models.CustomQuestion{ID: fmt.Sprintf("q%d", i), Prompt: "?", Type: "text"}
			}

			_, err := flow.CustomizeCurrent(ctx, &dto.CustomizeBindingRequest{
				Tenant:    tenant.UUID.String(),
				Questions: questions,
			}, metadata)
			assert.True(t, IsTooManyQuestions(err))
		})

		t.Run("CustomizeRejectsDuplicateQuestionIDs", func(t *testing.T) {
			_, err := flow.CustomizeCurrent(ctx, &dto.CustomizeBindingRequest{
				Tenant: tenant.UUID.String(),
				Questions: []models.CustomQuestion{
					{ID: "q1", Prompt: "A", Type: "text"},
					{ID: "q1", Prompt: "B", Type: "text"},
				},
			}, metadata)
			assert.True(t, IsDuplicateQuestionIDs(err))
		})

		t.Run("DeactivateStopsResolution", func(t *testing.T) {
			result, err := flow.DeactivateCurrent(ctx, &dto.DeactivateBindingRequest{Tenant: tenant.UUID.String()}, metadata)
			require.NoError(t, err)
			assert.NotEmpty(t, result.BindingUUID)

			_, err = flow.ResolveCurrent(ctx, &dto.GetCurrentCampaignRequest{Tenant: tenant.UUID.String()}, metadata)
			assert.True(t, IsNoActiveCampaign(err))
		})

		return nil
	})
	require.NoError(t, err)
}
