package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/payments-service/internal/model"
)

var migrationStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_jobs_paid_paid_at ON jobs (paid, paid_at);`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_contract_unpaid ON jobs (contract_id, paid);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_status ON contracts (status);`,
}

// Migrate creates the profiles, contracts and jobs tables and their indexes.
// Every step is idempotent.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Profile{}, &model.Contract{}, &model.Job{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
