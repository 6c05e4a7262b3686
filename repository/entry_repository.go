package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/utils"
	"gorm.io/gorm"
)

// EntryRepositoryImpl implements the EntryRepository interface
type EntryRepositoryImpl struct {
	*BaseRepository[models.Entry, models.EntryFilter]
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &EntryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Entry, models.EntryFilter](db),
	}
}

// ByUUID retrieves an entry by UUID
func (r *EntryRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Entry, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.EntryFilter{UUID: &parsedUUID}
	entries, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, nil
	}

	return entries[0], nil
}

// ListByCampaign retrieves every entry for a campaign across all tenants.
// This is the winner-selection pool: a shared campaign draws over the union
// of all participating tenants' entries.
func (r *EntryRepositoryImpl) ListByCampaign(ctx context.Context, campaignID uint) ([]*models.Entry, error) {
	filter := models.EntryFilter{CampaignID: &campaignID}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

// ListByTenantAndCampaign retrieves a tenant's entries for a campaign with pagination
func (r *EntryRepositoryImpl) ListByTenantAndCampaign(ctx context.Context, tenantID, campaignID uint, limit, offset int) ([]*models.Entry, error) {
	filter := models.EntryFilter{TenantID: &tenantID, CampaignID: &campaignID}
	return r.ByFilter(ctx, filter, "submitted_at ASC, id ASC", limit, offset)
}

// CountByCampaign counts all entries of a campaign across tenants
func (r *EntryRepositoryImpl) CountByCampaign(ctx context.Context, campaignID uint) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	if err := db.Model(&models.Entry{}).Where("campaign_id = ?", campaignID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count campaign entries: %w", err)
	}

	return count, nil
}

// CountByTenantAndCampaign counts a tenant's entries, optionally scoped to one campaign
func (r *EntryRepositoryImpl) CountByTenantAndCampaign(ctx context.Context, tenantID uint, campaignID *uint) (int64, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Entry{}).Where("tenant_id = ?", tenantID)
	if campaignID != nil {
		query = query.Where("campaign_id = ?", *campaignID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}

	return count, nil
}

// CountDistinctEmails counts distinct entrant emails, optionally scoped to one campaign
func (r *EntryRepositoryImpl) CountDistinctEmails(ctx context.Context, tenantID uint, campaignID *uint) (int64, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Entry{}).
		Distinct("email").
		Where("tenant_id = ?", tenantID)
	if campaignID != nil {
		query = query.Where("campaign_id = ?", *campaignID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count distinct emails: %w", err)
	}

	return count, nil
}

// DailyCounts groups submissions per day since the given cutoff. Aggregation
// happens in the database; rows are never loaded into memory.
func (r *EntryRepositoryImpl) DailyCounts(ctx context.Context, tenantID uint, campaignID *uint, since time.Time) ([]DailyEntryCount, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Entry{}).
		Select("date_trunc('day', submitted_at) AS day, COUNT(*) AS count").
		Where("tenant_id = ? AND submitted_at >= ?", tenantID, since).
		Group("day").
		Order("day ASC")
	if campaignID != nil {
		query = query.Where("campaign_id = ?", *campaignID)
	}

	var counts []DailyEntryCount
	if err := query.Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to group daily entry counts: %w", err)
	}

	return counts, nil
}

// ByFilter retrieves entries based on filter criteria
func (r *EntryRepositoryImpl) ByFilter(ctx context.Context, filter models.EntryFilter, orderBy string, limit, offset int) ([]*models.Entry, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Entry{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.SubmittedAfter != nil {
		query = query.Where("submitted_at >= ?", *filter.SubmittedAfter)
	}
	if filter.SubmittedBefore != nil {
		query = query.Where("submitted_at <= ?", *filter.SubmittedBefore)
	}

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var entries []*models.Entry
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to find entries by filter: %w", err)
	}

	return entries, nil
}
