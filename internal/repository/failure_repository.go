package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type FailureRepository struct {
	db *gorm.DB
}

func NewFailureRepository(db *gorm.DB) *FailureRepository {
	return &FailureRepository{db: db}
}

func (r *FailureRepository) Record(ctx context.Context, f *model.CollaboratorFailure) error {
	return r.db.WithContext(ctx).Create(f).Error
}

// ListOpen returns unresolved failures, optionally for one contract.
func (r *FailureRepository) ListOpen(ctx context.Context, contractID *uint64) ([]model.CollaboratorFailure, error) {
	query := r.db.WithContext(ctx).Where("resolved_at IS NULL")
	if contractID != nil {
		query = query.Where("contract_id = ?", *contractID)
	}
	var failures []model.CollaboratorFailure
	if err := query.Order("id ASC").Find(&failures).Error; err != nil {
		return nil, err
	}
	return failures, nil
}

// Resolve closes every open failure of an operation on a contract.
func (r *FailureRepository) Resolve(ctx context.Context, contractID uint64, operation string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.CollaboratorFailure{}).
		Where("contract_id = ? AND operation = ? AND resolved_at IS NULL", contractID, operation).
		Update("resolved_at", at).Error
}

func (r *FailureRepository) DeleteByContract(ctx context.Context, contractID uint64) error {
	return r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Delete(&model.CollaboratorFailure{}).Error
}
