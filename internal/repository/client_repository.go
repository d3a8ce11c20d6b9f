package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *model.Client) error {
	if client.PublicID == uuid.Nil {
		client.PublicID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uint64) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) GetByPublicID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).Where("public_id = ?", id).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) ListByProvider(ctx context.Context, providerID uint64, status *model.ClientStatus) ([]model.Client, error) {
	query := r.db.WithContext(ctx).Where("provider_id = ?", providerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var clients []model.Client
	if err := query.Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *ClientRepository) Update(ctx context.Context, id uint64, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&model.Client{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Advance moves the client forward to next only if that is a forward step
// from its current status. It reports whether a row changed.
func (r *ClientRepository) Advance(ctx context.Context, id uint64, next model.ClientStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Client{}).
		Where("id = ? AND status IN ?", id, model.StatusesBefore(next)).
		Update("status", next)
	return res.RowsAffected > 0, res.Error
}

func (r *ClientRepository) Cancel(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Client{}).
		Where("id = ? AND status <> ?", id, model.ClientStatusCancelled).
		Update("status", model.ClientStatusCancelled)
	return res.RowsAffected > 0, res.Error
}

// ListReadyToActivate returns scheduled clients holding an accepted
// schedule dated on or before day.
func (r *ClientRepository) ListReadyToActivate(ctx context.Context, day time.Time) ([]model.Client, error) {
	var clients []model.Client
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.*
		FROM clients c
		WHERE c.status = ?
			AND EXISTS (
				SELECT 1 FROM schedules s
				WHERE s.client_id = c.id
					AND s.approval_status = ?
					AND s.status <> ?
					AND s.date <= ?
			)
		ORDER BY c.id ASC
	`, model.ClientStatusScheduled, model.ApprovalAccepted, model.ScheduleStatusCancelled, day).Scan(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}
