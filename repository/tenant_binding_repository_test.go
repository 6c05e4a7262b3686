package repository

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingutil "github.com/oyadama/fukubiki/testing"
)

func TestTenantBindingProvisionMissing(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := NewTenantBindingRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		first, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		second, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)

		campaignIDs := []uint{first.ID, second.ID}

		created, err := repo.ProvisionMissing(ctx, tenant.ID, campaignIDs)
		require.NoError(t, err)
		assert.Equal(t, int64(2), created)

		// Replays insert nothing
		created, err = repo.ProvisionMissing(ctx, tenant.ID, campaignIDs)
		require.NoError(t, err)
		assert.Equal(t, int64(0), created)

		t.Run("FillsOnlyTheGap", func(t *testing.T) {
			third, err := fixtures.CreateTestCampaign()
			require.NoError(t, err)

			created, err := repo.ProvisionMissing(ctx, tenant.ID, append(campaignIDs, third.ID))
			require.NoError(t, err)
			assert.Equal(t, int64(1), created)

			binding, err := repo.ByTenantAndCampaign(ctx, tenant.ID, third.ID)
			require.NoError(t, err)
			require.NotNil(t, binding)
			assert.NotEqual(t, uint(0), binding.ID)
		})

		t.Run("EmptyCampaignList", func(t *testing.T) {
			created, err := repo.ProvisionMissing(ctx, tenant.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, int64(0), created)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestTenantBindingConcurrentProvisioning(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := NewTenantBindingRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		first, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		second, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)
		campaignIDs := []uint{first.ID, second.ID}

		const callers = 8
		counts := make(chan int64, callers)
		errs := make(chan error, callers)

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				created, err := repo.ProvisionMissing(ctx, tenant.ID, campaignIDs)
				counts <- created
				errs <- err
			}()
		}
		wg.Wait()
		close(counts)
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		// Racing callers may split the inserts between them, but across all
		// of them each (tenant, campaign) pair is provisioned exactly once.
		var total int64
		for created := range counts {
			total += created
		}
		assert.Equal(t, int64(len(campaignIDs)), total)

		for _, campaignID := range campaignIDs {
			binding, err := repo.ByTenantAndCampaign(ctx, tenant.ID, campaignID)
			require.NoError(t, err)
			require.NotNil(t, binding)
		}

		return nil
	})
	require.NoError(t, err)
}

func TestTenantBindingListActiveByTenant(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		repo := NewTenantBindingRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)

		binding, err := fixtures.CreateTestBinding(tenant, campaign)
		require.NoError(t, err)

		active, err := repo.ListActiveByTenant(ctx, tenant.ID, []uint{campaign.ID})
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, binding.UUID, active[0].UUID)

		// Deactivated bindings drop out of the active listing
		deactivated := *binding
		inactive := false
		deactivated.IsActive = &inactive
		require.NoError(t, repo.Update(ctx, deactivated))

		active, err = repo.ListActiveByTenant(ctx, tenant.ID, []uint{campaign.ID})
		require.NoError(t, err)
		assert.Empty(t, active)

		return nil
	})
	require.NoError(t, err)
}
