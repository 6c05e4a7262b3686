package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TenantBindingRepositoryImpl implements the TenantBindingRepository interface
type TenantBindingRepositoryImpl struct {
	*BaseRepository[models.TenantBinding, models.TenantBindingFilter]
}

// NewTenantBindingRepository creates a new tenant binding repository
func NewTenantBindingRepository(db *gorm.DB) TenantBindingRepository {
	return &TenantBindingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TenantBinding, models.TenantBindingFilter](db),
	}
}

// ByTenantAndCampaign retrieves the binding for a (tenant, campaign) pair
func (r *TenantBindingRepositoryImpl) ByTenantAndCampaign(ctx context.Context, tenantID, campaignID uint) (*models.TenantBinding, error) {
	db := r.getDB(ctx)

	var binding models.TenantBinding
	err := db.Where("tenant_id = ? AND campaign_id = ?", tenantID, campaignID).
		Last(&binding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find binding for tenant %d campaign %d: %w", tenantID, campaignID, err)
	}

	return &binding, nil
}

// ProvisionMissing upserts one default binding per campaign for the tenant.
// ON CONFLICT DO NOTHING on the (tenant_id, campaign_id) unique index keeps
// the operation idempotent under concurrent callers; a lost race counts as
// success. Returns the number of bindings actually created.
func (r *TenantBindingRepositoryImpl) ProvisionMissing(ctx context.Context, tenantID uint, campaignIDs []uint) (int64, error) {
	if len(campaignIDs) == 0 {
		return 0, nil
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
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

	bindings := make([]models.TenantBinding, 0, len(campaignIDs))
	now := utils.UTCNow()
	for _, campaignID := range campaignIDs {
		bindings = append(bindings, models.TenantBinding{
			UUID:       uuid.New(),
			TenantID:   tenantID,
			CampaignID: campaignID,
			IsActive:   utils.ToPtr(true),
			CreatedAt:  now,
		})
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "campaign_id"}},
		DoNothing: true,
	}).Create(&bindings)
	if result.Error != nil {
		err = fmt.Errorf("failed to provision bindings for tenant %d: %w", tenantID, result.Error)
		return 0, err
	}

	return result.RowsAffected, nil
}

// ListActiveByTenant retrieves the tenant's active bindings limited to the
// given campaigns, newest binding first
func (r *TenantBindingRepositoryImpl) ListActiveByTenant(ctx context.Context, tenantID uint, campaignIDs []uint) ([]*models.TenantBinding, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.TenantBinding{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("created_at DESC, id DESC")
	if len(campaignIDs) > 0 {
		query = query.Where("campaign_id IN ?", campaignIDs)
	}

	var bindings []*models.TenantBinding
	if err := query.Find(&bindings).Error; err != nil {
		return nil, fmt.Errorf("failed to list active bindings for tenant %d: %w", tenantID, err)
	}

	return bindings, nil
}

// Update updates a binding
func (r *TenantBindingRepositoryImpl) Update(ctx context.Context, binding models.TenantBinding) error {
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

	now := utils.UTCNow()
	binding.UpdatedAt = &now

	err = db.Save(&binding).Error
	if err != nil {
		return fmt.Errorf("failed to update binding %d: %w", binding.ID, err)
	}

	return nil
}

// ByFilter retrieves bindings based on filter criteria
func (r *TenantBindingRepositoryImpl) ByFilter(ctx context.Context, filter models.TenantBindingFilter, orderBy string, limit, offset int) ([]*models.TenantBinding, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.TenantBinding{})
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
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
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

	var bindings []*models.TenantBinding
	if err := query.Find(&bindings).Error; err != nil {
		return nil, fmt.Errorf("failed to find bindings by filter: %w", err)
	}

	return bindings, nil
}
