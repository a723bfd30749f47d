package database

import (
	_ "embed"
	"fmt"

	"perfume-backoffice/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed schema.sql
var schemaSQL string

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		zap.S().Fatalf("could not connect to database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		zap.S().Fatalf("migration failed: %v", err)
	}

	zap.S().Info("database connected, migration complete")
}

// Migrate upgrades tables created by the early order screens, which only had
// price/custom price columns, then applies the idempotent schema.
func Migrate(db *gorm.DB) error {
	if db.Migrator().HasTable("orders") {
		legacy := []struct{ column, ddl string }{
			{"status", "ALTER TABLE orders ADD COLUMN status text NOT NULL DEFAULT 'Pending'"},
			{"payment_status", "ALTER TABLE orders ADD COLUMN payment_status text NOT NULL DEFAULT 'Unpaid'"},
			{"payment_method", "ALTER TABLE orders ADD COLUMN payment_method text"},
			{"order_date", "ALTER TABLE orders ADD COLUMN order_date timestamptz NOT NULL DEFAULT now()"},
			{"delivery_date", "ALTER TABLE orders ADD COLUMN delivery_date timestamptz"},
			{"notes", "ALTER TABLE orders ADD COLUMN notes text"},
		}
		for _, l := range legacy {
			var exists bool
			db.Raw(`
				SELECT EXISTS (
					SELECT 1 FROM information_schema.columns
					WHERE table_name = 'orders' AND column_name = ?
				)
			`, l.column).Scan(&exists)
			if exists {
				continue
			}
			zap.S().Infof("adding orders.%s column", l.column)
			if err := db.Exec(l.ddl).Error; err != nil {
				return fmt.Errorf("add orders.%s: %w", l.column, err)
			}
		}
	}

	if err := db.Exec(schemaSQL).Error; err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
