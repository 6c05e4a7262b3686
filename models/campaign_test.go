package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaignIsActiveAt(t *testing.T) {
	campaign := &Campaign{
		StartsAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC),
	}

	assert.False(t, campaign.IsActiveAt(time.Date(2026, 5, 31, 23, 59, 59, 0, time.UTC)))
	assert.True(t, campaign.IsActiveAt(campaign.StartsAt))
	assert.True(t, campaign.IsActiveAt(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)))
	assert.True(t, campaign.IsActiveAt(campaign.EndsAt))
	assert.False(t, campaign.IsActiveAt(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCampaignPrimaryMedia(t *testing.T) {
	campaign := &Campaign{
		Media: MediaList{
			{URL: "https://cdn.example.com/a.jpg", Kind: MediaKindImage},
			{URL: "https://cdn.example.com/b.mp4", Kind: MediaKindVideo},
		},
		PrimaryMediaIndex: 1,
	}

	m := campaign.PrimaryMedia()
	require.NotNil(t, m)
	assert.Equal(t, "https://cdn.example.com/b.mp4", m.URL)

	campaign.PrimaryMediaIndex = 5
	assert.Nil(t, campaign.PrimaryMedia())

	campaign.PrimaryMediaIndex = -1
	assert.Nil(t, campaign.PrimaryMedia())
}

func TestCampaignBeforeCreateDefaults(t *testing.T) {
	campaign := &Campaign{Title: "Draw"}

	require.NoError(t, campaign.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, campaign.UUID)
	assert.False(t, campaign.CreatedAt.IsZero())

	// Existing identity is preserved
	existing := campaign.UUID
	require.NoError(t, campaign.BeforeCreate(nil))
	assert.Equal(t, existing, campaign.UUID)
}

func TestEntryBeforeCreateMirrorsConsentTime(t *testing.T) {
	entry := &Entry{FirstName: "Hanako", LastName: "Yamada"}

	require.NoError(t, entry.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, entry.UUID)
	assert.False(t, entry.SubmittedAt.IsZero())
	assert.Equal(t, entry.SubmittedAt, entry.ConsentAt)
	assert.Equal(t, "Hanako Yamada", entry.FullName())
}

func TestWinnerBeforeCreateDefaultsMethod(t *testing.T) {
	winner := &Winner{CampaignID: 1, TenantID: 1, EntryID: 1}

	require.NoError(t, winner.BeforeCreate(nil))
	assert.Equal(t, "random", winner.Method)
	assert.False(t, winner.SelectedAt.IsZero())
}
