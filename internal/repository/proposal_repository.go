package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type ProposalRepository struct {
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) Create(ctx context.Context, p *model.SchedulingProposal) error {
	if p.PublicID == uuid.Nil {
		p.PublicID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProposalRepository) Save(ctx context.Context, p *model.SchedulingProposal) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProposalRepository) GetByID(ctx context.Context, id uint64) (*model.SchedulingProposal, error) {
	var p model.SchedulingProposal
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProposalRepository) GetByPublicID(ctx context.Context, id uuid.UUID) (*model.SchedulingProposal, error) {
	var p model.SchedulingProposal
	if err := r.db.WithContext(ctx).Where("public_id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindOpen returns the contract's negotiable proposal, if any.
func (r *ProposalRepository) FindOpen(ctx context.Context, contractID uint64) (*model.SchedulingProposal, error) {
	var p model.SchedulingProposal
	err := r.db.WithContext(ctx).
		Where("contract_id = ? AND status IN ?", contractID, []model.ProposalStatus{
			model.ProposalPending,
			model.ProposalCountered,
		}).
		Order("id DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProposalRepository) ListByContract(ctx context.Context, contractID uint64) ([]model.SchedulingProposal, error) {
	var proposals []model.SchedulingProposal
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("id ASC").
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

// Transition applies fields when the proposal is still in status from.
func (r *ProposalRepository) Transition(
	ctx context.Context,
	id uint64,
	from model.ProposalStatus,
	fields map[string]any,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.SchedulingProposal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

// ExpirePending marks pending proposals past their deadline as expired.
func (r *ProposalRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.SchedulingProposal{}).
		Where("status = ? AND expires_at < ?", model.ProposalPending, now).
		Update("status", model.ProposalExpired)
	return res.RowsAffected, res.Error
}

func (r *ProposalRepository) DeleteByContract(ctx context.Context, contractID uint64) error {
	return r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Delete(&model.SchedulingProposal{}).Error
}
