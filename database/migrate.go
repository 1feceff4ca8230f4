package database

import (
	"fmt"

	"hospital-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(12,2))
// - Indexes (payments, bills)
// - Basic CHECK constraints on money columns
// - Idempotency keys table + unique index
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Patient{},
			&models.Bill{},
			&models.Payment{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE bills    ALTER COLUMN consultation_fee   TYPE numeric(12,2)`,
			`ALTER TABLE bills    ALTER COLUMN medication_charges TYPE numeric(12,2)`,
			`ALTER TABLE bills    ALTER COLUMN lab_charges        TYPE numeric(12,2)`,
			`ALTER TABLE bills    ALTER COLUMN other_charges      TYPE numeric(12,2)`,
			`ALTER TABLE bills    ALTER COLUMN tax                TYPE numeric(12,2)`,
			`ALTER TABLE bills    ALTER COLUMN discount           TYPE numeric(12,2)`,
			`ALTER TABLE bills    ALTER COLUMN subtotal           TYPE numeric(12,2)`,
			`ALTER TABLE bills    ALTER COLUMN total_amount       TYPE numeric(12,2)`,
			`ALTER TABLE bills    ALTER COLUMN paid_amount        TYPE numeric(12,2)`,
			`ALTER TABLE bills    ALTER COLUMN balance            TYPE numeric(12,2)`,
			`ALTER TABLE payments ALTER COLUMN amount             TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_payments_bill_applied_at ON payments (bill_id, applied_at)`,
			`CREATE INDEX IF NOT EXISTS idx_bills_status_bill_date ON bills (payment_status, bill_date)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			// Payments.amount >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'payments'::regclass
					  AND conname  = 'chk_payments_amount_nonneg'
				) THEN
					ALTER TABLE payments
					ADD CONSTRAINT chk_payments_amount_nonneg
					CHECK (amount >= 0);
				END IF;
			END $$;`,
			// Paid amount can never exceed the bill total (backstop behind the
			// engine's balance check).
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'bills'::regclass
					  AND conname  = 'chk_bills_paid_within_total'
				) THEN
					ALTER TABLE bills
					ADD CONSTRAINT chk_bills_paid_within_total
					CHECK (paid_amount >= 0 AND paid_amount <= total_amount);
				END IF;
			END $$;`,
			// Balance >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'bills'::regclass
					  AND conname  = 'chk_bills_balance_nonneg'
				) THEN
					ALTER TABLE bills
					ADD CONSTRAINT chk_bills_balance_nonneg
					CHECK (balance >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
