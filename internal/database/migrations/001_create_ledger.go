package migrations

import (
	"github.com/ksred/papertrade-api/internal/types"
	"gorm.io/gorm"
)

// CreateLedger creates the users, holdings, orders and trades tables
func CreateLedger(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.User{},
		&types.Holding{},
		&types.Order{},
		&types.Trade{},
	)
}
