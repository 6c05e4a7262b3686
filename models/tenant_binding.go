package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oyadama/fukubiki/utils"
	"gorm.io/gorm"
)

// CustomQuestion is a tenant-defined entry-form question
type CustomQuestion struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Type     string   `json:"type"` // text, choice, checkbox
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

// BindingOverrides holds the tenant's presentation customizations for a
// bound campaign. Stored as one JSONB blob since the fields always travel
// together.
type BindingOverrides struct {
	BrandColor  *string          `json:"brand_color,omitempty"`
	LogoURL     *string          `json:"logo_url,omitempty"`
	RedirectURL *string          `json:"redirect_url,omitempty"`
	Template    *string          `json:"template,omitempty"`
	ExtraMedia  []MediaItem      `json:"extra_media,omitempty"`
	Questions   []CustomQuestion `json:"questions,omitempty"`
}

// Value implements the driver.Valuer interface for BindingOverrides
func (o BindingOverrides) Value() (driver.Value, error) {
	return json.Marshal(o)
}

// Scan implements the sql.Scanner interface for BindingOverrides
func (o *BindingOverrides) Scan(value any) error {
	if value == nil {
		*o = BindingOverrides{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into BindingOverrides", value)
	}

	return json.Unmarshal(bytes, o)
}

// TenantBinding is the (tenant, campaign) relationship record. Provisioned
// lazily the first time a tenant is resolved against an active campaign;
// never hard-deleted, only deactivated, so entry and winner history stays
// referable. The composite unique index makes concurrent provisioning
// idempotent.
type TenantBinding struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_tenant_bindings_uuid" json:"uuid"`
	TenantID   uint      `gorm:"not null;uniqueIndex:uk_tenant_bindings_tenant_campaign;index:idx_tenant_bindings_tenant_id" json:"tenant_id"`
	CampaignID uint      `gorm:"not null;uniqueIndex:uk_tenant_bindings_tenant_campaign;index:idx_tenant_bindings_campaign_id" json:"campaign_id"`
	IsActive   *bool     `gorm:"default:true;index:idx_tenant_bindings_is_active" json:"is_active"`

	// Field-level overrides; nil means inherit the campaign default
	Title             *string    `gorm:"size:255" json:"title,omitempty"`
	Description       *string    `gorm:"type:text" json:"description,omitempty"`
	Media             *MediaList `gorm:"type:jsonb" json:"media,omitempty"`
	PrimaryMediaIndex *int       `json:"primary_media_index,omitempty"`
	CoverMediaURL     *string    `gorm:"type:text" json:"cover_media_url,omitempty"`

	Overrides BindingOverrides `gorm:"type:jsonb;not null" json:"overrides"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_tenant_bindings_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Tenant   *Tenant   `gorm:"foreignKey:TenantID;references:ID" json:"tenant,omitempty"`
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (TenantBinding) TableName() string {
	return "tenant_bindings"
}

// BeforeCreate is called before creating a new record
func (b *TenantBinding) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	if b.IsActive == nil {
		b.IsActive = utils.ToPtr(true)
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (b *TenantBinding) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	b.UpdatedAt = &now
	return nil
}

// TenantBindingFilter represents filter criteria for tenant bindings
type TenantBindingFilter struct {
	ID         *uint      `json:"id,omitempty"`
	UUID       *uuid.UUID `json:"uuid,omitempty"`
	TenantID   *uint      `json:"tenant_id,omitempty"`
	CampaignID *uint      `json:"campaign_id,omitempty"`
	IsActive   *bool      `json:"is_active,omitempty"`
}
