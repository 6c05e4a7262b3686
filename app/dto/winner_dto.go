package dto

import "time"

// WinnerDTO is the audited result of a campaign draw
type WinnerDTO struct {
	UUID         string     `json:"uuid"`
	CampaignUUID string     `json:"campaign_uuid"`
	TenantUUID   string     `json:"tenant_uuid"`
	EntryUUID    string     `json:"entry_uuid"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	TicketRef    string     `json:"ticket_ref"`
	Method       string     `json:"method"`
	SelectedAt   time.Time  `json:"selected_at"`
	ContactedAt  *time.Time `json:"contacted_at,omitempty"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// SelectWinnerRequest triggers a draw for one campaign
type SelectWinnerRequest struct {
	CampaignUUID string `json:"-" validate:"required,uuid4"`
	AdminID      uint   `json:"-" validate:"required"`
}

// SelectWinnerResponse returns the drawn winner
type SelectWinnerResponse struct {
	Message string    `json:"message"`
	Winner  WinnerDTO `json:"winner"`
}

// ListWinnersRequest pages through past draws, optionally scoped to one campaign
type ListWinnersRequest struct {
	Campaign *string `json:"-" validate:"omitempty,uuid4"`
	Page     int     `json:"-" validate:"omitempty,min=1"`
	PageSize int     `json:"-" validate:"omitempty,min=1,max=100"`
}

// ListWinnersResponse lists past draws, newest first
type ListWinnersResponse struct {
	Winners []WinnerDTO `json:"winners"`
	Total   int64       `json:"total"`
}

// UpdateWinnerRequest mutates the downstream contact/claim workflow fields
type UpdateWinnerRequest struct {
	WinnerUUID  string     `json:"-" validate:"required,uuid4"`
	AdminID     uint       `json:"-" validate:"required"`
	ContactedAt *time.Time `json:"contacted_at,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	Notes       *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// UpdateWinnerResponse returns the updated winner
type UpdateWinnerResponse struct {
	Message string    `json:"message"`
	Winner  WinnerDTO `json:"winner"`
}

// AdminCampaignDTO is the operator-facing campaign summary used by draw tooling
type AdminCampaignDTO struct {
	UUID       string    `json:"uuid"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	Active     bool      `json:"active"`
	EntryCount int64     `json:"entry_count"`
	HasWinner  bool      `json:"has_winner"`
}

// ListAdminCampaignsRequest pages through all campaigns for operators
type ListAdminCampaignsRequest struct {
	Page     int `json:"-" validate:"omitempty,min=1"`
	PageSize int `json:"-" validate:"omitempty,min=1,max=100"`
}

// ListAdminCampaignsResponse lists campaigns newest first
type ListAdminCampaignsResponse struct {
	Campaigns []AdminCampaignDTO `json:"campaigns"`
	Total     int64              `json:"total"`
}

// Common error codes for winner operations
const (
	ErrorWinnerAlreadySelected = "WINNER_ALREADY_SELECTED"
	ErrorNoEntries             = "NO_ENTRIES"
	ErrorCampaignNotFound      = "CAMPAIGN_NOT_FOUND"
	ErrorWinnerNotFound        = "WINNER_NOT_FOUND"
)
