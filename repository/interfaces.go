// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/oyadama/fukubiki/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// CampaignRepository defines operations for base campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	ListActiveAt(ctx context.Context, at time.Time) ([]*models.Campaign, error)
	List(ctx context.Context, limit, offset int) ([]*models.Campaign, int64, error)
}

// TenantRepository defines operations for tenants
type TenantRepository interface {
	Repository[models.Tenant, models.TenantFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Tenant, error)
	ByEmail(ctx context.Context, email string) (*models.Tenant, error)
}

// TenantBindingRepository defines operations for tenant bindings
type TenantBindingRepository interface {
	Repository[models.TenantBinding, models.TenantBindingFilter]
	ByTenantAndCampaign(ctx context.Context, tenantID, campaignID uint) (*models.TenantBinding, error)
	// ProvisionMissing inserts one binding per (tenant, campaign) pair that
	// does not exist yet. Idempotent under concurrent callers: conflicting
	// inserts are silently skipped, never an error.
	ProvisionMissing(ctx context.Context, tenantID uint, campaignIDs []uint) (int64, error)
	ListActiveByTenant(ctx context.Context, tenantID uint, campaignIDs []uint) ([]*models.TenantBinding, error)
	Update(ctx context.Context, binding models.TenantBinding) error
}

// EntryRepository defines operations for entries
type EntryRepository interface {
	Repository[models.Entry, models.EntryFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Entry, error)
	ListByCampaign(ctx context.Context, campaignID uint) ([]*models.Entry, error)
	ListByTenantAndCampaign(ctx context.Context, tenantID, campaignID uint, limit, offset int) ([]*models.Entry, error)
	CountByCampaign(ctx context.Context, campaignID uint) (int64, error)
	CountByTenantAndCampaign(ctx context.Context, tenantID uint, campaignID *uint) (int64, error)
	CountDistinctEmails(ctx context.Context, tenantID uint, campaignID *uint) (int64, error)
	DailyCounts(ctx context.Context, tenantID uint, campaignID *uint, since time.Time) ([]DailyEntryCount, error)
}

// DailyEntryCount is one row of the grouped per-day submission counts
type DailyEntryCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// WinnerRepository defines operations for winners
type WinnerRepository interface {
	Repository[models.Winner, models.WinnerFilter]
	ByCampaignID(ctx context.Context, campaignID uint) (*models.Winner, error)
	ByUUID(ctx context.Context, uuid string) (*models.Winner, error)
	List(ctx context.Context, limit, offset int) ([]*models.Winner, int64, error)
	Update(ctx context.Context, winner *models.Winner) error
}

// AdminRepository defines operations for operator accounts
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, adminID uint, at time.Time) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByTenant(ctx context.Context, tenantID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
