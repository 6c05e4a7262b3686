package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oyadama/fukubiki/utils"
	"gorm.io/gorm"
)

// Winner is the audited result of a random draw over a campaign's entries.
// The unique index on CampaignID enforces the single-winner policy at the
// store: the losing side of a concurrent selection race hits a duplicate-key
// error instead of creating a second winner.
type Winner struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_winners_uuid" json:"uuid"`
	CampaignID uint      `gorm:"not null;uniqueIndex:uk_winners_campaign_id" json:"campaign_id"`
	TenantID   uint      `gorm:"not null;index:idx_winners_tenant_id" json:"tenant_id"`
	EntryID    uint      `gorm:"not null;index:idx_winners_entry_id" json:"entry_id"`

	TicketRef  string    `gorm:"size:64;not null" json:"ticket_ref"`
	SelectedBy uint      `gorm:"not null" json:"selected_by"`
	Method     string    `gorm:"size:32;not null" json:"method"`
	SelectedAt time.Time `gorm:"not null;index:idx_winners_selected_at" json:"selected_at"`

	// Downstream operator workflow fields; not written by the selector
	ContactedAt *time.Time `json:"contacted_at,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	Notes       *string    `gorm:"type:text" json:"notes,omitempty"`

	// Relations
	Campaign *Campaign `gorm:"foreignKey:CampaignID;references:ID" json:"campaign,omitempty"`
	Tenant   *Tenant   `gorm:"foreignKey:TenantID;references:ID" json:"tenant,omitempty"`
	Entry    *Entry    `gorm:"foreignKey:EntryID;references:ID" json:"entry,omitempty"`
}

// TableName returns the table name for the model
func (Winner) TableName() string {
	return "winners"
}

// BeforeCreate is called before creating a new record
func (w *Winner) BeforeCreate(tx *gorm.DB) error {
	if w.UUID == uuid.Nil {
		w.UUID = uuid.New()
	}
	if w.SelectedAt.IsZero() {
		w.SelectedAt = utils.UTCNow()
	}
	if w.Method == "" {
		w.Method = utils.WinnerSelectionMethodRandom
	}
	return nil
}

// WinnerFilter represents filter criteria for winners
type WinnerFilter struct {
	ID         *uint      `json:"id,omitempty"`
	UUID       *uuid.UUID `json:"uuid,omitempty"`
	CampaignID *uint      `json:"campaign_id,omitempty"`
	TenantID   *uint      `json:"tenant_id,omitempty"`
	EntryID    *uint      `json:"entry_id,omitempty"`
}
