package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oyadama/fukubiki/utils"
	"gorm.io/gorm"
)

// Campaign represents a base prize-draw definition authored by the operator.
// Content is immutable once created; tenants layer their own overrides on top
// through TenantBinding. A campaign is active while now falls inside
// [StartsAt, EndsAt].
type Campaign struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UUID              uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_campaigns_uuid" json:"uuid"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	Description       string     `gorm:"type:text;not null" json:"description"`
	StartsAt          time.Time  `gorm:"not null;index:idx_campaigns_starts_at" json:"starts_at"`
	EndsAt            time.Time  `gorm:"not null;index:idx_campaigns_ends_at" json:"ends_at"`
	Media             MediaList  `gorm:"type:jsonb;not null" json:"media"`
	PrimaryMediaIndex int        `gorm:"not null;default:0" json:"primary_media_index"`
	CoverMediaURL     *string    `gorm:"type:text" json:"cover_media_url,omitempty"`
	CreatedBy         *uint      `gorm:"index:idx_campaigns_created_by" json:"created_by,omitempty"`
	CreatedAt         time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_campaigns_created_at" json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`

	// Relations
	Bindings []TenantBinding `gorm:"foreignKey:CampaignID;references:ID" json:"bindings,omitempty"`
	Winner   *Winner         `gorm:"foreignKey:CampaignID;references:ID" json:"winner,omitempty"`
}

// TableName returns the table name for the model
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate is called before creating a new record
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Campaign) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsActiveAt reports whether the campaign window contains the given instant
func (c *Campaign) IsActiveAt(t time.Time) bool {
	return !t.Before(c.StartsAt) && !t.After(c.EndsAt)
}

// PrimaryMedia returns the designated primary media item, if any
func (c *Campaign) PrimaryMedia() *MediaItem {
	if c.PrimaryMediaIndex < 0 || c.PrimaryMediaIndex >= len(c.Media) {
		return nil
	}
	return &c.Media[c.PrimaryMediaIndex]
}

// CampaignFilter represents filter criteria for campaigns
type CampaignFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Title         *string    `json:"title,omitempty"`
	ActiveAt      *time.Time `json:"active_at,omitempty"`
	CreatedBy     *uint      `json:"created_by,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
