package dto

import "time"

// SubmitEntryRequest represents an entrant's submission into the tenant's
// current campaign
type SubmitEntryRequest struct {
	Tenant            string            `json:"-" validate:"required,uuid4"`
	FirstName         string            `json:"first_name" validate:"required,min=1,max=100" example:"Hanako"`
	LastName          string            `json:"last_name" validate:"required,min=1,max=100" example:"Yamada"`
	Email             string            `json:"email" validate:"required,email,max=255" example:"hanako@example.com"`
	Answers           map[string]string `json:"answers,omitempty" validate:"omitempty,max=5"`
	AgreedToTerms     bool              `json:"agreed_to_terms" example:"true"`
	AgreedToMarketing bool              `json:"agreed_to_marketing" example:"false"`
	CaptchaID         string            `json:"captcha_id,omitempty" validate:"omitempty,max=128"`
	CaptchaAngle      float64           `json:"captcha_angle,omitempty" validate:"omitempty,min=0,max=360"`
}

// SubmitEntryResponse confirms a stored entry
type SubmitEntryResponse struct {
	Message     string    `json:"message"`
	EntryUUID   string    `json:"entry_uuid"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// EntryStatsRequest represents the query for tenant entry statistics
type EntryStatsRequest struct {
	Tenant   string  `json:"-" validate:"required,uuid4"`
	Campaign *string `json:"-" validate:"omitempty,uuid4"`
}

// DailyEntryCountDTO is one day's submission total
type DailyEntryCountDTO struct {
	Day   string `json:"day" example:"2026-01-15"`
	Count int64  `json:"count" example:"42"`
}

// EntryStatsResponse aggregates a tenant's entry activity
type EntryStatsResponse struct {
	TotalEntries     int64                `json:"total_entries"`
	UniqueEmailCount int64                `json:"unique_email_count"`
	DailyCounts      []DailyEntryCountDTO `json:"daily_counts"`
}

// ExportEntriesRequest represents the operator export query
type ExportEntriesRequest struct {
	Tenant   string `json:"-" validate:"required,uuid4"`
	Campaign string `json:"-" validate:"required,uuid4"`
}

// Common error codes for entry operations
const (
	ErrorNoActiveCampaign = "NO_ACTIVE_CAMPAIGN"
	ErrorDuplicateEntry   = "DUPLICATE_ENTRY"
	ErrorTermsNotAgreed   = "TERMS_NOT_AGREED"
	ErrorInvalidAnswer    = "INVALID_ANSWER"
)
