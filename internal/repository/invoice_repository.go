package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// NextNumber returns the provider's next sequential invoice number.
func (r *InvoiceRepository) NextNumber(ctx context.Context, providerID uint64) (string, error) {
	var count int64
	if err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM invoices WHERE provider_id = ?
	`, providerID).Scan(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%05d", count+1), nil
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *model.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uint64) (*model.Invoice, error) {
	var inv model.Invoice
	if err := r.db.WithContext(ctx).First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvoiceRepository) ListByContract(ctx context.Context, contractID uint64) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("id ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *InvoiceRepository) MarkPaid(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("id = ?", id).
		Update("status", model.InvoicePaid).Error
}

func (r *InvoiceRepository) DeleteByContract(ctx context.Context, contractID uint64) error {
	return r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Delete(&model.Invoice{}).Error
}
