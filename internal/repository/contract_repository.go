package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

type ContractFilter struct {
	Status   *model.ContractStatus
	ClientID *uint64
}

func (r *ContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	if contract.PublicID == uuid.Nil {
		contract.PublicID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *ContractRepository) GetByID(ctx context.Context, id uint64) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).First(&contract, id).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) GetByPublicID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).Where("public_id = ?", id).First(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *ContractRepository) ListByProvider(ctx context.Context, providerID uint64, filter ContractFilter) ([]model.Contract, error) {
	query := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	var contracts []model.Contract
	if err := query.Order("created_at DESC").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) Update(ctx context.Context, id uint64, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Transition applies fields together with status=to, guarded by the
// current status being from. It reports whether this call won.
func (r *ContractRepository) Transition(
	ctx context.Context,
	id uint64,
	from, to model.ContractStatus,
	fields map[string]any,
) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	res := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// MarkFullySigned stamps fully_signed_at exactly once.
func (r *ContractRepository) MarkFullySigned(ctx context.Context, id uint64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("id = ? AND status = ? AND fully_signed_at IS NULL", id, model.ContractStatusNew).
		Updates(map[string]any{
			"status":            model.ContractStatusSigned,
			"fully_signed_at":   at,
			"onboarding_status": model.OnboardingPendingScheduling,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *ContractRepository) ListByStatus(ctx context.Context, status model.ContractStatus) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListStartingBy returns signed contracts whose start date has arrived.
func (r *ContractRepository) ListStartingBy(ctx context.Context, now time.Time) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_date IS NOT NULL AND start_date <= ?", model.ContractStatusSigned, now).
		Order("id ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListEndingBy returns active contracts whose end date has passed.
func (r *ContractRepository) ListEndingBy(ctx context.Context, now time.Time) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL AND end_date <= ?", model.ContractStatusActive, now).
		Order("id ASC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) CountOpenForClient(ctx context.Context, clientID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("client_id = ? AND status NOT IN ?", clientID, []model.ContractStatus{
			model.ContractStatusCompleted,
			model.ContractStatusCancelled,
		}).
		Count(&count).Error
	return count, err
}

func (r *ContractRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&model.Contract{}, id).Error
}
