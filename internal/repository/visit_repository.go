package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type VisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

type VisitFilter struct {
	ContractID *uint64
	Status     *model.VisitStatus
	From       *time.Time
	To         *time.Time
}

func (r *VisitRepository) CreateBatch(ctx context.Context, visits []model.Visit) error {
	if len(visits) == 0 {
		return nil
	}
	for i := range visits {
		if visits[i].PublicID == uuid.Nil {
			visits[i].PublicID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&visits).Error
}

func (r *VisitRepository) GetByID(ctx context.Context, id uint64) (*model.Visit, error) {
	var v model.Visit
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VisitRepository) GetByPublicID(ctx context.Context, id uuid.UUID) (*model.Visit, error) {
	var v model.Visit
	if err := r.db.WithContext(ctx).Where("public_id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VisitRepository) List(ctx context.Context, providerID uint64, filter VisitFilter) ([]model.Visit, error) {
	query := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("scheduled_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("scheduled_date < ?", *filter.To)
	}
	var visits []model.Visit
	if err := query.Order("contract_id ASC, visit_number ASC").Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

// Last returns the highest-numbered visit of a contract.
func (r *VisitRepository) Last(ctx context.Context, contractID uint64) (*model.Visit, error) {
	var v model.Visit
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("visit_number DESC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CountUpcoming counts scheduled visits dated at or after now.
func (r *VisitRepository) CountUpcoming(ctx context.Context, contractID uint64, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Where("contract_id = ? AND status = ? AND scheduled_date >= ?", contractID, model.VisitScheduled, now).
		Count(&count).Error
	return count, err
}

// CountOutstanding counts visits whose service has not been delivered.
func (r *VisitRepository) CountOutstanding(ctx context.Context, contractID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Where("contract_id = ? AND status IN ?", contractID, []model.VisitStatus{
			model.VisitScheduled,
			model.VisitInProgress,
		}).
		Count(&count).Error
	return count, err
}

func (r *VisitRepository) Update(ctx context.Context, id uint64, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Transition applies fields when the visit is still in status from.
func (r *VisitRepository) Transition(
	ctx context.Context,
	id uint64,
	from model.VisitStatus,
	fields map[string]any,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Visit{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

func (r *VisitRepository) DeleteByContract(ctx context.Context, contractID uint64) error {
	return r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Delete(&model.Visit{}).Error
}
