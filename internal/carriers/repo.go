package carriers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haulbid/bidboard-backend/pkg/db/models"
)

// Repository exposes persistence helpers for carrier profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, profile *models.CarrierProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CarrierProfile, error)
	Update(ctx context.Context, profile *models.CarrierProfile) error
	List(ctx context.Context, search string, limit, offset int) ([]models.CarrierProfile, int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a carrier repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, profile *models.CarrierProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.CarrierProfile, error) {
	var profile models.CarrierProfile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repositoryImpl) Update(ctx context.Context, profile *models.CarrierProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *repositoryImpl) List(ctx context.Context, search string, limit, offset int) ([]models.CarrierProfile, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CarrierProfile{})
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		like := "%" + strings.ToLower(trimmed) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(COALESCE(mc_number, '')) LIKE ? OR LOWER(COALESCE(dot_number, '')) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CarrierProfile
	err := query.Order("name ASC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}
