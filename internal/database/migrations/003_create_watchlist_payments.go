package migrations

import (
	"github.com/ksred/papertrade-api/internal/types"
	"gorm.io/gorm"
)

// CreateWatchlistPayments creates the watchlist and payments tables
func CreateWatchlistPayments(db *gorm.DB) error {
	if err := db.AutoMigrate(&types.WatchlistItem{}); err != nil {
		return err
	}

	return db.AutoMigrate(&types.Payment{})
}
