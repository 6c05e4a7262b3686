package businessflow

import (
	"bytes"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/oyadama/fukubiki/app/dto"
	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/repository"
	testingutil "github.com/oyadama/fukubiki/testing"
	"github.com/oyadama/fukubiki/utils"
)

// newTestEntryFlow builds the flow with the captcha gate off; captcha
// verification is covered separately.
func newTestEntryFlow(testDB *testingutil.TestDB) EntryFlow {
	return NewEntryFlow(
		newTestDistributionFlow(testDB),
		repository.NewEntryRepository(testDB.DB),
		repository.NewTenantRepository(testDB.DB),
		repository.NewCampaignRepository(testDB.DB),
		repository.NewTenantBindingRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		nil,
		false,
	)
}

func TestEntryFlowSubmit(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestEntryFlow(testDB)
		entryRepo := repository.NewEntryRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)

		t.Run("StoresNormalizedEntry", func(t *testing.T) {
			accepted := promtestutil.ToFloat64(entrySubmissionsTotal.WithLabelValues("accepted"))
			result, err := flow.Submit(ctx, &dto.SubmitEntryRequest{
				Tenant:        tenant.UUID.String(),
				FirstName:     "  Hanako ",
				LastName:      "Yamada",
				Email:         " Hanako.Yamada@Example.COM ",
				AgreedToTerms: true,
			}, metadata)
			require.NoError(t, err)
			assert.NotEmpty(t, result.EntryUUID)
			assert.False(t, result.SubmittedAt.IsZero())

			stored, err := entryRepo.ByUUID(ctx, result.EntryUUID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, "Hanako", stored.FirstName)
			assert.Equal(t, "hanako.yamada@example.com", stored.Email)
			assert.Equal(t, campaign.ID, stored.CampaignID)
			assert.Equal(t, "203.0.113.10", stored.SourceIP)

			assert.Equal(t, accepted+1, promtestutil.ToFloat64(entrySubmissionsTotal.WithLabelValues("accepted")))
		})

		t.Run("RejectsDuplicateEmail", func(t *testing.T) {
			// Different casing and whitespace must still hit the unique index
			_, err := flow.Submit(ctx, &dto.SubmitEntryRequest{
				Tenant:        tenant.UUID.String(),
				FirstName:     "Hanako",
				LastName:      "Yamada",
				Email:         "HANAKO.YAMADA@example.com",
				AgreedToTerms: true,
			}, metadata)
			assert.True(t, IsDuplicateEntry(err))
		})

		t.Run("SameEmailUnderAnotherTenant", func(t *testing.T) {
			// Uniqueness is scoped to (tenant, campaign): another tenant
			// distributing the same campaign accepts the same email.
			other, err := fixtures.CreateTestTenant()
			require.NoError(t, err)

			result, err := flow.Submit(ctx, &dto.SubmitEntryRequest{
				Tenant:        other.UUID.String(),
				FirstName:     "Hanako",
				LastName:      "Yamada",
				Email:         "hanako.yamada@example.com",
				AgreedToTerms: true,
			}, metadata)
			require.NoError(t, err)
			assert.NotEmpty(t, result.EntryUUID)
		})

		t.Run("RequiresTermsAgreement", func(t *testing.T) {
			_, err := flow.Submit(ctx, &dto.SubmitEntryRequest{
				Tenant:    tenant.UUID.String(),
				FirstName: "Taro",
				LastName:  "Suzuki",
				Email:     "taro@example.com",
			}, metadata)
			assert.True(t, IsTermsNotAgreed(err))
		})

		t.Run("RejectsUnknownQuestion", func(t *testing.T) {
			_, err := flow.Submit(ctx, &dto.SubmitEntryRequest{
				Tenant:        tenant.UUID.String(),
				FirstName:     "Taro",
				LastName:      "Suzuki",
				Email:         "taro@example.com",
				Answers:       map[string]string{"nope": "yes"},
				AgreedToTerms: true,
			}, metadata)
			assert.True(t, IsUnknownQuestion(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestEntryFlowAnswerValidation(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		distribution := newTestDistributionFlow(testDB)
		flow := newTestEntryFlow(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		_, err = fixtures.CreateTestCampaign()
		require.NoError(t, err)

		_, err = distribution.CustomizeCurrent(ctx, &dto.CustomizeBindingRequest{
			Tenant: tenant.UUID.String(),
			Questions: []models.CustomQuestion{
				{ID: "source", Prompt: "How did you hear about us?", Type: "choice", Required: true, Options: []string{"web", "store"}},
			},
		}, metadata)
		require.NoError(t, err)

		t.Run("RejectsMissingRequiredAnswer", func(t *testing.T) {
			_, err := flow.Submit(ctx, &dto.SubmitEntryRequest{
				Tenant:        tenant.UUID.String(),
				FirstName:     "Hanako",
				LastName:      "Yamada",
				Email:         "missing@example.com",
				AgreedToTerms: true,
			}, metadata)
			assert.True(t, IsMissingAnswer(err))
		})

		t.Run("RejectsOptionOutsideChoices", func(t *testing.T) {
			_, err := flow.Submit(ctx, &dto.SubmitEntryRequest{
				Tenant:        tenant.UUID.String(),
				FirstName:     "Hanako",
				LastName:      "Yamada",
				Email:         "badoption@example.com",
				Answers:       map[string]string{"source": "carrier-pigeon"},
				AgreedToTerms: true,
			}, metadata)
			assert.True(t, IsInvalidOptionValue(err))
		})

		t.Run("AcceptsValidChoice", func(t *testing.T) {
			result, err := flow.Submit(ctx, &dto.SubmitEntryRequest{
				Tenant:        tenant.UUID.String(),
				FirstName:     "Hanako",
				LastName:      "Yamada",
				Email:         "valid@example.com",
				Answers:       map[string]string{"source": "web"},
				AgreedToTerms: true,
			}, metadata)
			require.NoError(t, err)
			assert.NotEmpty(t, result.EntryUUID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestEntryFlowCaptchaGate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := NewEntryFlow(
			newTestDistributionFlow(testDB),
			repository.NewEntryRepository(testDB.DB),
			repository.NewTenantRepository(testDB.DB),
			repository.NewCampaignRepository(testDB.DB),
			repository.NewTenantBindingRepository(testDB.DB),
			repository.NewAuditLogRepository(testDB.DB),
			nil,
			true,
		)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		// The gate runs before anything else, so no fixtures are needed
		_, err := flow.Submit(ctx, &dto.SubmitEntryRequest{
			Tenant:        "550e8400-e29b-41d4-a716-446655440000",
			FirstName:     "Hanako",
			LastName:      "Yamada",
			Email:         "hanako@example.com",
			AgreedToTerms: true,
		}, metadata)
		assert.True(t, IsInvalidCaptcha(err))

		_, err = flow.Submit(ctx, &dto.SubmitEntryRequest{
			Tenant:        "550e8400-e29b-41d4-a716-446655440000",
			FirstName:     "Hanako",
			LastName:      "Yamada",
			Email:         "hanako@example.com",
			AgreedToTerms: true,
			CaptchaID:     "expired-or-bogus",
			CaptchaAngle:  90,
		}, metadata)
		assert.True(t, IsInvalidCaptcha(err))

		return nil
	})
	require.NoError(t, err)
}

func TestEntryFlowStats(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestEntryFlow(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err := fixtures.CreateTestEntry(tenant, campaign)
			require.NoError(t, err)
		}

		stats, err := flow.Stats(ctx, &dto.EntryStatsRequest{Tenant: tenant.UUID.String()}, metadata)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.TotalEntries)
		assert.Equal(t, int64(3), stats.UniqueEmailCount)
		require.Len(t, stats.DailyCounts, 1)
		assert.Equal(t, utils.UTCNow().Format("2006-01-02"), stats.DailyCounts[0].Day)
		assert.Equal(t, int64(3), stats.DailyCounts[0].Count)

		scoped := campaign.UUID.String()
		byCampaign, err := flow.Stats(ctx, &dto.EntryStatsRequest{Tenant: tenant.UUID.String(), Campaign: &scoped}, metadata)
		require.NoError(t, err)
		assert.Equal(t, int64(3), byCampaign.TotalEntries)

		return nil
	})
	require.NoError(t, err)
}

func TestEntryFlowExport(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		distribution := newTestDistributionFlow(testDB)
		flow := newTestEntryFlow(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)

		_, err = distribution.CustomizeCurrent(ctx, &dto.CustomizeBindingRequest{
			Tenant: tenant.UUID.String(),
			Questions: []models.CustomQuestion{
				{ID: "source", Prompt: "How did you hear about us?", Type: "text"},
			},
		}, metadata)
		require.NoError(t, err)

		_, err = flow.Submit(ctx, &dto.SubmitEntryRequest{
			Tenant:        tenant.UUID.String(),
			FirstName:     "Hanako",
			LastName:      "Yamada",
			Email:         "hanako@example.com",
			Answers:       map[string]string{"source": "store"},
			AgreedToTerms: true,
		}, metadata)
		require.NoError(t, err)

		filename, content, err := flow.Export(ctx, &dto.ExportEntriesRequest{
			Tenant:   tenant.UUID.String(),
			Campaign: campaign.UUID.String(),
		}, metadata)
		require.NoError(t, err)
		assert.Equal(t, "entries_"+tenant.UUID.String()+"_"+campaign.UUID.String()+".xlsx", filename)

		xl, err := excelize.OpenReader(bytes.NewReader(content))
		require.NoError(t, err)
		defer func() { _ = xl.Close() }()

		rows, err := xl.GetRows(xl.GetSheetName(0))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"first_name", "last_name", "email", "submitted_at", "terms_agreed", "marketing_agreed", "How did you hear about us?"}, rows[0])
		assert.Equal(t, "Hanako", rows[1][0])
		assert.Equal(t, "hanako@example.com", rows[1][2])
		assert.Equal(t, "store", rows[1][6])

		return nil
	})
	require.NoError(t, err)
}
