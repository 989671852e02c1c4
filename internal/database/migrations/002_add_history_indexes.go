package migrations

import (
	"gorm.io/gorm"
)

// AddHistoryIndexes adds the indexes behind order listing, the dashboard and
// the recovery sweep
func AddHistoryIndexes(db *gorm.DB) error {
	indexes := []string{
		// Orders page: per user, newest first, optional day window
		`CREATE INDEX IF NOT EXISTS idx_orders_user_created
		 ON orders(user_id, created_at)`,

		// Recovery sweep: stale PENDING orders
		`CREATE INDEX IF NOT EXISTS idx_orders_status_created
		 ON orders(status, created_at)`,

		// Dashboard recent trades and today's P/L
		`CREATE INDEX IF NOT EXISTS idx_trades_user_created
		 ON trades(user_id, created_at)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
