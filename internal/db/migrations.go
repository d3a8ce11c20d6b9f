package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/cleaning-contracts/internal/model"
)

var models = []any{
	&model.PricingConfig{},
	&model.Client{},
	&model.Contract{},
	&model.SchedulingProposal{},
	&model.Schedule{},
	&model.Visit{},
	&model.Invoice{},
	&model.CollaboratorFailure{},
}

// postgresStatements only run against postgres. The partial index keeps at
// most one negotiable proposal per contract.
var postgresStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_scheduling_proposal_open
		ON scheduling_proposals (contract_id)
		WHERE status IN ('pending', 'countered');`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_status_start
		ON contracts (status, start_date)
		WHERE status = 'signed';`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_status_end
		ON contracts (status, end_date)
		WHERE status = 'active';`,
	`CREATE INDEX IF NOT EXISTS idx_visits_upcoming
		ON visits (contract_id, scheduled_date)
		WHERE status = 'scheduled';`,
}

// Migrate brings the schema up to date. It is safe to run on every start.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return runMigrations(db)
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range postgresStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
