package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type PricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) GetByProvider(ctx context.Context, providerID uint64) (*model.PricingConfig, error) {
	var cfg model.PricingConfig
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Upsert replaces the provider's configuration wholesale.
func (r *PricingRepository) Upsert(ctx context.Context, cfg *model.PricingConfig) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_id"}},
			UpdateAll: true,
		}).
		Create(cfg).Error
}
