package businessflow

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyadama/fukubiki/app/dto"
	"github.com/oyadama/fukubiki/repository"
	testingutil "github.com/oyadama/fukubiki/testing"
	"github.com/oyadama/fukubiki/utils"
)

func newTestWinnerFlow(testDB *testingutil.TestDB) WinnerFlow {
	return NewWinnerFlow(
		repository.NewCampaignRepository(testDB.DB),
		repository.NewEntryRepository(testDB.DB),
		repository.NewWinnerRepository(testDB.DB),
		repository.NewTenantRepository(testDB.DB),
		repository.NewAuditLogRepository(testDB.DB),
		testDB.DB,
	)
}

func TestWinnerFlowSelectWinner(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestWinnerFlow(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		admin, err := fixtures.CreateTestAdmin("S3cure!Passw0rd")
		require.NoError(t, err)
		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)

		t.Run("NoEntries", func(t *testing.T) {
			_, err := flow.SelectWinner(ctx, &dto.SelectWinnerRequest{
				CampaignUUID: campaign.UUID.String(),
				AdminID:      admin.ID,
			}, metadata)
			assert.True(t, IsNoEntries(err))
		})

		entryEmails := make(map[string]bool)
		for i := 0; i < 5; i++ {
			entry, err := fixtures.CreateTestEntry(tenant, campaign)
			require.NoError(t, err)
			entryEmails[entry.Email] = true
		}

		t.Run("DrawsOneEntry", func(t *testing.T) {
			result, err := flow.SelectWinner(ctx, &dto.SelectWinnerRequest{
				CampaignUUID: campaign.UUID.String(),
				AdminID:      admin.ID,
			}, metadata)
			require.NoError(t, err)

			assert.True(t, entryEmails[result.Winner.Email], "winner must come from the entry pool")
			assert.Equal(t, campaign.UUID.String(), result.Winner.CampaignUUID)
			assert.Equal(t, tenant.UUID.String(), result.Winner.TenantUUID)
			assert.Equal(t, utils.WinnerSelectionMethodRandom, result.Winner.Method)
			assert.True(t, strings.HasPrefix(result.Winner.TicketRef, "TKT-"))
			assert.False(t, result.Winner.SelectedAt.IsZero())
		})

		t.Run("SecondDrawRejected", func(t *testing.T) {
			_, err := flow.SelectWinner(ctx, &dto.SelectWinnerRequest{
				CampaignUUID: campaign.UUID.String(),
				AdminID:      admin.ID,
			}, metadata)
			assert.True(t, IsWinnerAlreadySelected(err))
		})

		t.Run("UnknownCampaign", func(t *testing.T) {
			_, err := flow.SelectWinner(ctx, &dto.SelectWinnerRequest{
				CampaignUUID: "d2719f3a-0000-4000-8000-000000000000",
				AdminID:      admin.ID,
			}, metadata)
			assert.True(t, IsCampaignNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestWinnerFlowConcurrentDraws(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestWinnerFlow(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		admin, err := fixtures.CreateTestAdmin("S3cure!Passw0rd")
		require.NoError(t, err)
		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		for i := 0; i < 4; i++ {
			_, err := fixtures.CreateTestEntry(tenant, campaign)
			require.NoError(t, err)
		}

		const drawers = 6
		errs := make(chan error, drawers)

		var wg sync.WaitGroup
		for i := 0; i < drawers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := flow.SelectWinner(ctx, &dto.SelectWinnerRequest{
					CampaignUUID: campaign.UUID.String(),
					AdminID:      admin.ID,
				}, metadata)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		// Exactly one racing draw lands; the unique index on the campaign
		// turns every other one into a conflict.
		won, conflicted := 0, 0
		for err := range errs {
			switch {
			case err == nil:
				won++
			case IsWinnerAlreadySelected(err):
				conflicted++
			default:
				require.NoError(t, err)
			}
		}
		assert.Equal(t, 1, won)
		assert.Equal(t, drawers-1, conflicted)

		return nil
	})
	require.NoError(t, err)
}

func TestWinnerFlowListAndUpdate(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestWinnerFlow(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		admin, err := fixtures.CreateTestAdmin("S3cure!Passw0rd")
		require.NoError(t, err)
		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)

		now := utils.UTCNow()
		var winnerUUID, lastCampaignUUID string
		for i := 0; i < 3; i++ {
			campaign, err := fixtures.CreateTestCampaign()
			require.NoError(t, err)
			_, err = fixtures.CreateTestEntry(tenant, campaign)
			require.NoError(t, err)

			result, err := flow.SelectWinner(ctx, &dto.SelectWinnerRequest{
				CampaignUUID: campaign.UUID.String(),
				AdminID:      admin.ID,
			}, metadata)
			require.NoError(t, err)
			winnerUUID = result.Winner.UUID
			lastCampaignUUID = campaign.UUID.String()
		}

		t.Run("ListPagesNewestFirst", func(t *testing.T) {
			page1, err := flow.ListWinners(ctx, &dto.ListWinnersRequest{Page: 1, PageSize: 2}, metadata)
			require.NoError(t, err)
			assert.Equal(t, int64(3), page1.Total)
			require.Len(t, page1.Winners, 2)
			assert.Equal(t, winnerUUID, page1.Winners[0].UUID)

			page2, err := flow.ListWinners(ctx, &dto.ListWinnersRequest{Page: 2, PageSize: 2}, metadata)
			require.NoError(t, err)
			assert.Len(t, page2.Winners, 1)
		})

		t.Run("ListScopedToCampaign", func(t *testing.T) {
			scoped, err := flow.ListWinners(ctx, &dto.ListWinnersRequest{Campaign: &lastCampaignUUID}, metadata)
			require.NoError(t, err)
			assert.Equal(t, int64(1), scoped.Total)
			require.Len(t, scoped.Winners, 1)
			assert.Equal(t, winnerUUID, scoped.Winners[0].UUID)
			assert.Equal(t, lastCampaignUUID, scoped.Winners[0].CampaignUUID)
		})

		t.Run("ListCampaignsForDrawTooling", func(t *testing.T) {
			result, err := flow.ListCampaigns(ctx, &dto.ListAdminCampaignsRequest{Page: 1, PageSize: 10}, metadata)
			require.NoError(t, err)
			assert.Equal(t, int64(3), result.Total)
			require.Len(t, result.Campaigns, 3)
			for _, c := range result.Campaigns {
				assert.Equal(t, int64(1), c.EntryCount)
				assert.True(t, c.HasWinner)
				assert.True(t, c.Active)
			}
		})

		t.Run("UpdateContactFields", func(t *testing.T) {
			notes := "Called, prize ships Monday"
			result, err := flow.UpdateWinner(ctx, &dto.UpdateWinnerRequest{
				WinnerUUID:  winnerUUID,
				AdminID:     admin.ID,
				ContactedAt: &now,
				Notes:       &notes,
			}, metadata)
			require.NoError(t, err)

			require.NotNil(t, result.Winner.ContactedAt)
			assert.WithinDuration(t, now, *result.Winner.ContactedAt, time.Second)
			require.NotNil(t, result.Winner.Notes)
			assert.Equal(t, notes, *result.Winner.Notes)
			assert.Nil(t, result.Winner.ClaimedAt)

			// Reload from the database: the update must be committed, not
			// just reflected on the in-memory record.
			winnerRepo := repository.NewWinnerRepository(testDB.DB)
			stored, err := winnerRepo.ByUUID(ctx, winnerUUID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			require.NotNil(t, stored.ContactedAt)
			assert.WithinDuration(t, now, *stored.ContactedAt, time.Second)
			require.NotNil(t, stored.Notes)
			assert.Equal(t, notes, *stored.Notes)
		})

		t.Run("UpdateUnknownWinner", func(t *testing.T) {
			_, err := flow.UpdateWinner(ctx, &dto.UpdateWinnerRequest{
				WinnerUUID: "d2719f3a-0000-4000-8000-000000000001",
				AdminID:    admin.ID,
			}, metadata)
			assert.True(t, IsWinnerNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
