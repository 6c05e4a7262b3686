// Package dto contains Data Transfer Objects for API request and response structures
package dto

import (
	"time"

	"github.com/oyadama/fukubiki/models"
)

// EffectiveCampaignDTO is the merged tenant-specific presentation of a
// campaign returned by the resolver and campaign-list endpoints. The widget
// endpoint renders from the same structure so both surfaces stay visually
// consistent.
type EffectiveCampaignDTO struct {
	TenantUUID        string                  `json:"tenant_uuid"`
	CampaignUUID      string                  `json:"campaign_uuid"`
	BindingUUID       string                  `json:"binding_uuid"`
	Title             string                  `json:"title"`
	Description       string                  `json:"description"`
	StartsAt          time.Time               `json:"starts_at"`
	EndsAt            time.Time               `json:"ends_at"`
	Media             []models.MediaItem      `json:"media"`
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

// GetCurrentCampaignRequest represents the query for the tenant's current campaign
type GetCurrentCampaignRequest struct {
	Tenant string `json:"tenant" validate:"required,uuid4" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// GetCurrentCampaignResponse wraps the resolved effective view
type GetCurrentCampaignResponse struct {
	Campaign EffectiveCampaignDTO `json:"campaign"`
}

// ListCampaignsRequest represents the query for all active campaigns of a tenant
type ListCampaignsRequest struct {
	Tenant string `json:"tenant" validate:"required,uuid4" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ListCampaignsResponse lists every active campaign merged for the tenant
type ListCampaignsResponse struct {
	Campaigns []EffectiveCampaignDTO `json:"campaigns"`
	Total     int                    `json:"total"`
}

// CustomizeBindingRequest carries the tenant's overrides for its current binding.
// All fields are optional; absent fields keep their stored value.
type CustomizeBindingRequest struct {
	Tenant            string                  `json:"-" validate:"required,uuid4"`
	Title             *string                 `json:"title,omitempty" validate:"omitempty,max=255"`
	Description       *string                 `json:"description,omitempty" validate:"omitempty,max=10000"`
	Media             []models.MediaItem      `json:"media,omitempty" validate:"omitempty,dive"`
	PrimaryMediaIndex *int                    `json:"primary_media_index,omitempty" validate:"omitempty,min=0"`
	CoverMediaURL     *string                 `json:"cover_media_url,omitempty" validate:"omitempty,url"`
	BrandColor        *string                 `json:"brand_color,omitempty" validate:"omitempty,hexcolor"`
	LogoURL           *string                 `json:"logo_url,omitempty" validate:"omitempty,url"`
	RedirectURL       *string                 `json:"redirect_url,omitempty" validate:"omitempty,url"`
	Template          *string                 `json:"template,omitempty" validate:"omitempty,max=64"`
	ExtraMedia        []models.MediaItem      `json:"extra_media,omitempty" validate:"omitempty,max=10,dive"`
	Questions         []models.CustomQuestion `json:"questions,omitempty" validate:"omitempty,max=5,dive"`
}

// CustomizeBindingResponse returns the re-merged view after customization
type CustomizeBindingResponse struct {
	Message  string               `json:"message"`
	Campaign EffectiveCampaignDTO `json:"campaign"`
}

// DeactivateBindingRequest deactivates the tenant's current binding
type DeactivateBindingRequest struct {
	Tenant string `json:"-" validate:"required,uuid4"`
}

// DeactivateBindingResponse confirms the deactivation
type DeactivateBindingResponse struct {
	Message     string `json:"message"`
	BindingUUID string `json:"binding_uuid"`
}
