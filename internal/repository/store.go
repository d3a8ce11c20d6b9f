package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one connection. Inside Transaction
// every repository shares the same tx.
type Store struct {
	db *gorm.DB

	Pricing   *PricingRepository
	Clients   *ClientRepository
	Contracts *ContractRepository
	Proposals *ProposalRepository
	Schedules *ScheduleRepository
	Visits    *VisitRepository
	Invoices  *InvoiceRepository
	Failures  *FailureRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Pricing:   NewPricingRepository(db),
		Clients:   NewClientRepository(db),
		Contracts: NewContractRepository(db),
		Proposals: NewProposalRepository(db),
		Schedules: NewScheduleRepository(db),
		Visits:    NewVisitRepository(db),
		Invoices:  NewInvoiceRepository(db),
		Failures:  NewFailureRepository(db),
	}
}

// Transaction runs fn atomically. A returned error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
