// Package businessflow contains the core business logic and use cases for distribution workflows
package businessflow

import (
	"fmt"
	"time"

	"github.com/oyadama/fukubiki/models"
)

// EffectiveView is the fully merged, tenant-specific presentation of a
// campaign. Identical inputs always produce an identical view, which is what
// makes the widget cache safe.
type EffectiveView struct {
	TenantUUID        string                  `json:"tenant_uuid"`
	CampaignUUID      string                  `json:"campaign_uuid"`
	BindingUUID       string                  `json:"binding_uuid"`
	Title             string                  `json:"title"`
	Description       string                  `json:"description"`
	StartsAt          time.Time               `json:"starts_at"`
	EndsAt            time.Time               `json:"ends_at"`
	Media             models.MediaList        `json:"media"`
	PrimaryMediaIndex int                     `json:"primary_media_index"`
	CoverMediaURL     *string                 `json:"cover_media_url,omitempty"`
	BrandColor        *string                 `json:"brand_color,omitempty"`
	LogoURL           *string                 `json:"logo_url,omitempty"`
	RedirectURL       *string                 `json:"redirect_url,omitempty"`
	Template          *string                 `json:"template,omitempty"`
	ExtraMedia        []models.MediaItem      `json:"extra_media,omitempty"`
	Questions         []models.CustomQuestion `json:"questions,omitempty"`
	EntryEndpoint     string                  `json:"entry_endpoint"`
	PublicURL         string                  `json:"public_url"`
}

// PrimaryMedia returns the designated primary media item of the merged view
func (v *EffectiveView) PrimaryMedia() *models.MediaItem {
	if v.PrimaryMediaIndex < 0 || v.PrimaryMediaIndex >= len(v.Media) {
		return nil
	}
	return &v.Media[v.PrimaryMediaIndex]
}

// MergeEffectiveView layers a binding's overrides over the campaign defaults.
// Fallback is field-level: overriding the title leaves the media list
// inherited. Pure function, no I/O.
func MergeEffectiveView(binding *models.TenantBinding, campaign *models.Campaign, tenantUUID string, publicBaseURL, apiBaseURL string) *EffectiveView {
	view := &EffectiveView{
		TenantUUID:        tenantUUID,
		CampaignUUID:      campaign.UUID.String(),
		BindingUUID:       binding.UUID.String(),
		Title:             campaign.Title,
		Description:       campaign.Description,
		StartsAt:          campaign.StartsAt,
		EndsAt:            campaign.EndsAt,
		Media:             campaign.Media,
		PrimaryMediaIndex: campaign.PrimaryMediaIndex,
		CoverMediaURL:     campaign.CoverMediaURL,
	}

	if binding.Title != nil && *binding.Title != "" {
		view.Title = *binding.Title
	}
	if binding.Description != nil && *binding.Description != "" {
		view.Description = *binding.Description
	}
	if binding.Media != nil && len(*binding.Media) > 0 {
		view.Media = *binding.Media
		// The default primary index only makes sense against the list it
		// was authored for
		view.PrimaryMediaIndex = 0
	}
	if binding.PrimaryMediaIndex != nil {
		view.PrimaryMediaIndex = *binding.PrimaryMediaIndex
	}
	if binding.CoverMediaURL != nil && *binding.CoverMediaURL != "" {
		view.CoverMediaURL = binding.CoverMediaURL
	}
	if view.PrimaryMediaIndex < 0 || view.PrimaryMediaIndex >= len(view.Media) {
		view.PrimaryMediaIndex = 0
	}

	o := binding.Overrides
	if o.BrandColor != nil && *o.BrandColor != "" {
		view.BrandColor = o.BrandColor
	}
	if o.LogoURL != nil && *o.LogoURL != "" {
		view.LogoURL = o.LogoURL
	}
	if o.RedirectURL != nil && *o.RedirectURL != "" {
		view.RedirectURL = o.RedirectURL
	}
	if o.Template != nil && *o.Template != "" {
		view.Template = o.Template
	}
	view.ExtraMedia = o.ExtraMedia
	view.Questions = o.Questions

	view.EntryEndpoint = fmt.Sprintf("%s/api/v1/entries?tenant=%s", apiBaseURL, tenantUUID)
	view.PublicURL = fmt.Sprintf("%s/c/%s?tenant=%s", publicBaseURL, view.CampaignUUID, tenantUUID)

	return view
}
