package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/oyadama/fukubiki/models"
	"github.com/oyadama/fukubiki/utils"
	"gorm.io/gorm"
)

// TenantRepositoryImpl implements the TenantRepository interface
type TenantRepositoryImpl struct {
	*BaseRepository[models.Tenant, models.TenantFilter]
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &TenantRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Tenant, models.TenantFilter](db),
	}
}

// ByUUID retrieves a tenant by UUID
func (r *TenantRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Tenant, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.TenantFilter{UUID: &parsedUUID}
	tenants, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(tenants) == 0 {
		return nil, nil
	}

	return tenants[0], nil
}

// ByEmail retrieves a tenant by email (case-insensitive)
func (r *TenantRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	filter := models.TenantFilter{Email: &normalized}
	tenants, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}

	if len(tenants) == 0 {
		return nil, nil
	}

	return tenants[0], nil
}

// ByFilter retrieves tenants based on filter criteria
func (r *TenantRepositoryImpl) ByFilter(ctx context.Context, filter models.TenantFilter, orderBy string, limit, offset int) ([]*models.Tenant, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Tenant{})
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Email != nil {
		query = query.Where("LOWER(email) = ?", strings.ToLower(*filter.Email))
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
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

	var tenants []*models.Tenant
	if err := query.Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to find tenants by filter: %w", err)
	}

	return tenants, nil
}
