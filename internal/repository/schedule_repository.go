package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

type ScheduleFilter struct {
	ContractID     *uint64
	ApprovalStatus *model.ApprovalStatus
	From           *time.Time
	To             *time.Time
}

func (r *ScheduleRepository) Create(ctx context.Context, s *model.Schedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id uint64) (*model.Schedule, error) {
	var s model.Schedule
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepository) ListByProvider(ctx context.Context, providerID uint64, filter ScheduleFilter) ([]model.Schedule, error) {
	query := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if filter.ContractID != nil {
		query = query.Where("contract_id = ?", *filter.ContractID)
	}
	if filter.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", *filter.ApprovalStatus)
	}
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date < ?", *filter.To)
	}
	var schedules []model.Schedule
	if err := query.Order("date ASC, start_time ASC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *ScheduleRepository) ListByContract(ctx context.Context, contractID uint64) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("date ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

// FindBySlot looks up a live schedule for the same contract, day and start.
func (r *ScheduleRepository) FindBySlot(ctx context.Context, contractID uint64, date time.Time, start string) (*model.Schedule, error) {
	var s model.Schedule
	err := r.db.WithContext(ctx).
		Where("contract_id = ? AND date = ? AND start_time = ? AND status <> ?",
			contractID, date, start, model.ScheduleStatusCancelled).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepository) Update(ctx context.Context, id uint64, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// TransitionApproval applies fields when the schedule's approval status is
// one of from.
func (r *ScheduleRepository) TransitionApproval(
	ctx context.Context,
	id uint64,
	from []model.ApprovalStatus,
	fields map[string]any,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Schedule{}).
		Where("id = ? AND approval_status IN ?", id, from).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

func (r *ScheduleRepository) DeleteByContract(ctx context.Context, contractID uint64) error {
	return r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Delete(&model.Schedule{}).Error
}
