package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/utils"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements the CampaignRepository interface
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

// ByUUID retrieves a campaign by UUID
func (r *CampaignRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Campaign, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.CampaignFilter{UUID: &parsedUUID}
	campaigns, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(campaigns) == 0 {
		return nil, nil
	}

	return campaigns[0], nil
}

// ListActiveAt retrieves all campaigns whose [starts_at, ends_at] window
// contains the given instant
func (r *CampaignRepositoryImpl) ListActiveAt(ctx context.Context, at time.Time) ([]*models.Campaign, error) {
	filter := models.CampaignFilter{ActiveAt: &at}
	return r.ByFilter(ctx, filter, "starts_at DESC", 0, 0)
}

// List retrieves campaigns with pagination and a total count
func (r *CampaignRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*models.Campaign, int64, error) {
	db := r.getDB(ctx)

	var total int64
	if err := db.Model(&models.Campaign{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	campaigns, err := r.ByFilter(ctx, models.CampaignFilter{}, "created_at DESC", limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ByFilter retrieves campaigns based on filter criteria
func (r *CampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Campaign{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Title != nil {
		query = query.Where("title ILIKE ?", "%"+*filter.Title+"%")
	}
	if filter.ActiveAt != nil {
		query = query.Where("starts_at <= ? AND ends_at >= ?", *filter.ActiveAt, *filter.ActiveAt)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
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

	var campaigns []*models.Campaign
	if err := query.Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to find campaigns by filter: %w", err)
	}

	return campaigns, nil
}
