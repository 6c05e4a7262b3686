package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oyadama/fukubiki/utils"
	"gorm.io/gorm"
)

// Tenant represents an independent business account that distributes
// campaigns under its own branding. Account provisioning and sessions are
// handled outside this core; the engine only needs the identity row.
type Tenant struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_tenants_uuid" json:"uuid"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Email       string     `gorm:"size:255;not null;uniqueIndex:uk_tenants_email" json:"email"`
	IsActive    *bool      `gorm:"default:true;index:idx_tenants_is_active" json:"is_active"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_tenants_created_at" json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`

	// Relations
	Bindings []TenantBinding `gorm:"foreignKey:TenantID;references:ID" json:"bindings,omitempty"`
}

// TableName returns the table name for the model
func (Tenant) TableName() string {
	return "tenants"
}

// BeforeCreate is called before creating a new record
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	return nil
}

// TenantFilter represents filter criteria for tenants
type TenantFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Email         *string    `json:"email,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
