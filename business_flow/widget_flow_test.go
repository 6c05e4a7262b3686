package businessflow

import (
	"testing"

	"github.com/google/uuid"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyadama/fukubiki/config"
	testingutil "github.com/oyadama/fukubiki/testing"
)

func newTestWidgetFlow(testDB *testingutil.TestDB) WidgetFlow {
	return NewWidgetFlow(
		newTestDistributionFlow(testDB),
		nil,
		&config.CacheConfig{Enabled: false},
		testWidgetConfig(),
	)
}

func TestWidgetFlowRender(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := newTestWidgetFlow(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := NewClientMetadata("203.0.113.10", "test-agent")

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)

		t.Run("RendersCurrentCampaign", func(t *testing.T) {
			rendered := promtestutil.ToFloat64(widgetRendersTotal.WithLabelValues("rendered"))
			script := flow.Render(ctx, tenant.UUID.String(), metadata)
			assert.Contains(t, script, campaign.Title)
			assert.Contains(t, script, tenant.UUID.String())
			assert.NotContains(t, script, "fukubiki-widget-empty")
			assert.Equal(t, rendered+1, promtestutil.ToFloat64(widgetRendersTotal.WithLabelValues("rendered")))
		})

		t.Run("UnknownTenantGetsPlaceholder", func(t *testing.T) {
			placeholders := promtestutil.ToFloat64(widgetRendersTotal.WithLabelValues("placeholder"))
			script := flow.Render(ctx, uuid.New().String(), metadata)
			assert.Contains(t, script, "fukubiki-widget-empty")
			assert.Equal(t, placeholders+1, promtestutil.ToFloat64(widgetRendersTotal.WithLabelValues("placeholder")))
		})

		t.Run("EmptyTenantGetsPlaceholder", func(t *testing.T) {
			script := flow.Render(ctx, "", metadata)
			assert.Contains(t, script, "fukubiki-widget-empty")
			assert.Contains(t, script, "currently unavailable")
		})

		return nil
	})
	require.NoError(t, err)
}

func TestWidgetFlowRenderWithNilCacheConfig(t *testing.T) {
	// A flow wired without any cache section still serves a script for
	// every input; nothing on the render path may reach for the config.
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow := NewWidgetFlow(newTestDistributionFlow(testDB), nil, nil, testWidgetConfig())
		ctx := testingutil.CreateTestContext()

		tenant, err := fixtures.CreateTestTenant()
		require.NoError(t, err)
		campaign, err := fixtures.CreateTestCampaign()
		require.NoError(t, err)

		script := flow.Render(ctx, "", nil)
		assert.Contains(t, script, "fukubiki-widget-empty")

		script = flow.Render(ctx, uuid.New().String(), nil)
		assert.Contains(t, script, "fukubiki-widget-empty")

		script = flow.Render(ctx, tenant.UUID.String(), nil)
		assert.Contains(t, script, campaign.Title)

		return nil
	})
	require.NoError(t, err)
}

func TestWidgetFlowRecentCallsWithoutCache(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newTestWidgetFlow(testDB)

		_, err := flow.RecentCalls(testingutil.CreateTestContext(), 10)
		assert.ErrorIs(t, err, ErrCacheNotAvailable)

		return nil
	})
	require.NoError(t, err)
}
