package repository

import (
	"context"
	"fmt"

	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/utils"
	"gorm.io/gorm"
)

// WinnerRepositoryImpl implements the WinnerRepository interface
type WinnerRepositoryImpl struct {
	*BaseRepository[models.Winner, models.WinnerFilter]
}

// NewWinnerRepository creates a new winner repository
func NewWinnerRepository(db *gorm.DB) WinnerRepository {
	return &WinnerRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Winner, models.WinnerFilter](db),
	}
}

// ByCampaignID retrieves the winner of a campaign, nil when none has been drawn
func (r *WinnerRepositoryImpl) ByCampaignID(ctx context.Context, campaignID uint) (*models.Winner, error) {
	filter := models.WinnerFilter{CampaignID: &campaignID}
	winners, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(winners) == 0 {
		return nil, nil
	}

	return winners[0], nil
}

// ByUUID retrieves a winner by UUID, nil when no record matches
func (r *WinnerRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Winner, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.WinnerFilter{UUID: &parsedUUID}
	winners, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(winners) == 0 {
		return nil, nil
	}

	return winners[0], nil
}

// List retrieves winners newest first along with the total count
func (r *WinnerRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*models.Winner, int64, error) {
	db := r.getDB(ctx)

	var total int64
	if err := db.Model(&models.Winner{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count winners: %w", err)
	}

	winners, err := r.ByFilter(ctx, models.WinnerFilter{}, "selected_at DESC, id DESC", limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return winners, total, nil
}

// Update persists changes to an existing winner record
func (r *WinnerRepositoryImpl) Update(ctx context.Context, winner *models.Winner) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Save(winner).Error
	if err != nil {
		return fmt.Errorf("failed to update winner: %w", err)
	}

	return nil
}

// ByFilter retrieves winners based on filter criteria
func (r *WinnerRepositoryImpl) ByFilter(ctx context.Context, filter models.WinnerFilter, orderBy string, limit, offset int) ([]*models.Winner, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Winner{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}
	if filter.EntryID != nil {
		query = query.Where("entry_id = ?", *filter.EntryID)
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

	var winners []*models.Winner
	if err := query.Find(&winners).Error; err != nil {
		return nil, fmt.Errorf("failed to find winners by filter: %w", err)
	}

	return winners, nil
}
