package businessflow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/utils"
)

func newMergeFixtures() (*models.TenantBinding, *models.Campaign) {
	cover := "https://cdn.example.com/cover.jpg"
	campaign := &models.Campaign{
		ID:          1,
		UUID:        uuid.New(),
		Title:       "Summer Prize Draw",
		Description: "Win a trip for two.",
		StartsAt:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:      time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC),
		Media: models.MediaList{
			{URL: "https://cdn.example.com/hero.jpg", Kind: models.MediaKindImage},
			{URL: "https://cdn.example.com/teaser.mp4", Kind: models.MediaKindVideo},
		},
		PrimaryMediaIndex: 1,
		CoverMediaURL:     &cover,
	}

	binding := &models.TenantBinding{
		ID:         10,
		UUID:       uuid.New(),
		TenantID:   5,
		CampaignID: campaign.ID,
		IsActive:   utils.ToPtr(true),
	}

	return binding, campaign
}

func TestMergeEffectiveViewInheritsCampaignDefaults(t *testing.T) {
	binding, campaign := newMergeFixtures()
	tenantUUID := uuid.New().String()

	view := MergeEffectiveView(binding, campaign, tenantUUID, "https://draw.example.com", "https://api.example.com")

	assert.Equal(t, campaign.Title, view.Title)
	assert.Equal(t, campaign.Description, view.Description)
	assert.Equal(t, campaign.Media, view.Media)
	assert.Equal(t, 1, view.PrimaryMediaIndex)
	assert.Equal(t, campaign.CoverMediaURL, view.CoverMediaURL)
	assert.Equal(t, campaign.StartsAt, view.StartsAt)
	assert.Equal(t, campaign.EndsAt, view.EndsAt)
	assert.Nil(t, view.BrandColor)

	assert.Equal(t, "https://api.example.com/api/v1/entries?tenant="+tenantUUID, view.EntryEndpoint)
	assert.Equal(t, "https://draw.example.com/c/"+campaign.UUID.String()+"?tenant="+tenantUUID, view.PublicURL)
}

func TestMergeEffectiveViewFieldLevelOverrides(t *testing.T) {
	binding, campaign := newMergeFixtures()
	binding.Title = utils.ToPtr("Tenant Branded Draw")
	binding.Overrides = models.BindingOverrides{
		BrandColor: utils.ToPtr("#ff6600"),
		Questions: []models.CustomQuestion{
			{ID: "q1", Prompt: "Favorite color?", Type: "text"},
		},
	}

	view := MergeEffectiveView(binding, campaign, uuid.New().String(), "https://draw.example.com", "https://api.example.com")

	// Overridden fields take the binding value
	assert.Equal(t, "Tenant Branded Draw", view.Title)
	require.NotNil(t, view.BrandColor)
	assert.Equal(t, "#ff6600", *view.BrandColor)
	assert.Len(t, view.Questions, 1)

	// Untouched fields stay inherited
	assert.Equal(t, campaign.Description, view.Description)
	assert.Equal(t, campaign.Media, view.Media)
	assert.Equal(t, campaign.PrimaryMediaIndex, view.PrimaryMediaIndex)
}

func TestMergeEffectiveViewEmptyStringDoesNotOverride(t *testing.T) {
	binding, campaign := newMergeFixtures()
	binding.Title = utils.ToPtr("")
	binding.Description = utils.ToPtr("")

	view := MergeEffectiveView(binding, campaign, uuid.New().String(), "https://draw.example.com", "https://api.example.com")

	assert.Equal(t, campaign.Title, view.Title)
	assert.Equal(t, campaign.Description, view.Description)
}

func TestMergeEffectiveViewMediaOverrideResetsPrimaryIndex(t *testing.T) {
	binding, campaign := newMergeFixtures()
	override := models.MediaList{
		{URL: "https://tenant.example.com/own.jpg", Kind: models.MediaKindImage},
	}
	binding.Media = &override

	view := MergeEffectiveView(binding, campaign, uuid.New().String(), "https://draw.example.com", "https://api.example.com")

	assert.Equal(t, override, view.Media)
	// The campaign's index pointed into a different list
	assert.Equal(t, 0, view.PrimaryMediaIndex)
}

func TestMergeEffectiveViewClampsOutOfRangePrimaryIndex(t *testing.T) {
	binding, campaign := newMergeFixtures()
	binding.PrimaryMediaIndex = utils.ToPtr(7)

	view := MergeEffectiveView(binding, campaign, uuid.New().String(), "https://draw.example.com", "https://api.example.com")

	assert.Equal(t, 0, view.PrimaryMediaIndex)
	require.NotNil(t, view.PrimaryMedia())
	assert.Equal(t, campaign.Media[0].URL, view.PrimaryMedia().URL)
}

func TestMergeEffectiveViewIsDeterministic(t *testing.T) {
	binding, campaign := newMergeFixtures()
	binding.Overrides = models.BindingOverrides{
		BrandColor: utils.ToPtr("#123456"),
		LogoURL:    utils.ToPtr("https://tenant.example.com/logo.png"),
	}
	tenantUUID := uuid.New().String()

	first := MergeEffectiveView(binding, campaign, tenantUUID, "https://draw.example.com", "https://api.example.com")
	second := MergeEffectiveView(binding, campaign, tenantUUID, "https://draw.example.com", "https://api.example.com")

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}
