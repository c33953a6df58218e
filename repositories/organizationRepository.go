package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"PracticeManager/models"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *models.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).Scopes(activeOnly).First(&org, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "organization")
	}
	return &org, nil
}

func (r *organizationRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Organization{}).
		Where("id = ? AND active = ?", id, true).
		Updates(fields)
	return affected(res, "organization")
}
