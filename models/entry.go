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

// AnswerMap holds free-form answers keyed by custom-question id
type AnswerMap map[string]string

// Value implements the driver.Valuer interface for AnswerMap
func (a AnswerMap) Value() (driver.Value, error) {
	if a == nil {
		return json.Marshal(AnswerMap{})
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for AnswerMap
func (a *AnswerMap) Scan(value any) error {
	if value == nil {
		*a = AnswerMap{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AnswerMap", value)
	}

	return json.Unmarshal(bytes, a)
}

// Entry is one person's submission into a campaign under a given tenant.
// Email is stored lowercased; the composite unique index enforces one entry
// per email per (tenant, campaign) at the store, so a race between the
// existence check and the insert is still caught.
type Entry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_entries_uuid" json:"uuid"`
	TenantID   uint      `gorm:"not null;uniqueIndex:uk_entries_tenant_campaign_email;index:idx_entries_tenant_id" json:"tenant_id"`
	CampaignID uint      `gorm:"not null;uniqueIndex:uk_entries_tenant_campaign_email;index:idx_entries_campaign_id" json:"campaign_id"`
	FirstName  string    `gorm:"size:100;not null" json:"first_name"`
	LastName   string    `gorm:"size:100;not null" json:"last_name"`
	Email      string    `gorm:"size:255;not null;uniqueIndex:uk_entries_tenant_campaign_email" json:"email"`

	Answers         AnswerMap `gorm:"type:jsonb;not null" json:"answers"`
	TermsAgreed     bool      `gorm:"not null" json:"terms_agreed"`
	MarketingAgreed bool      `gorm:"not null;default:false" json:"marketing_agreed"`

	// ConsentAt mirrors SubmittedAt; consent is captured contemporaneously,
	// never backdated.
	ConsentAt   time.Time `gorm:"not null" json:"consent_at"`
	SubmittedAt time.Time `gorm:"not null;index:idx_entries_submitted_at" json:"submitted_at"`
	SourceIP    string    `gorm:"size:45" json:"source_ip"`

	// Relations
	Tenant   *Tenant   `gorm:"foreignKey:TenantID;references:ID" json:"tenant,omitempty"`
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
}

// TableName returns the table name for the model
func (Entry) TableName() string {
	return "entries"
}

// BeforeCreate is called before creating a new record
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = utils.UTCNow()
	}
	if e.ConsentAt.IsZero() {
		e.ConsentAt = e.SubmittedAt
	}
	return nil
}

// FullName returns the entrant's display name
func (e *Entry) FullName() string {
	return e.FirstName + " " + e.LastName
}

// EntryFilter represents filter criteria for entries
type EntryFilter struct {
	ID              *uint      `json:"id,omitempty"`
	UUID            *uuid.UUID `json:"uuid,omitempty"`
	TenantID        *uint      `json:"tenant_id,omitempty"`
	CampaignID      *uint      `json:"campaign_id,omitempty"`
	Email           *string    `json:"email,omitempty"`
	SubmittedAfter  *time.Time `json:"submitted_after,omitempty"`
	SubmittedBefore *time.Time `json:"submitted_before,omitempty"`
}
