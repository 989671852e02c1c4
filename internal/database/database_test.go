package database

import (
	"testing"

	"github.com/ksred/papertrade-api/internal/config"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewDatabaseMigrates(t *testing.T) {
	db, err := NewDatabase(config.DatabaseConfig{Driver: "sqlite", DSN: "file:migrate_test?mode=memory&cache=shared"})
	require.NoError(t, err)

	for _, table := range []interface{}{&types.User{}, &types.Holding{}, &types.Order{}, &types.Trade{}, &types.WatchlistItem{}, &types.Payment{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasIndex(&types.Order{}, "idx_orders_status_created"))

	// Running again is a no-op
	require.NoError(t, Migrate(db))
}

func TestUniqueHoldingPerUserSymbol(t *testing.T) {
	db, err := NewDatabase(config.DatabaseConfig{Driver: "sqlite", DSN: "file:unique_test?mode=memory&cache=shared"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&types.Holding{UserID: 1, Symbol: "TCS", Quantity: 1, AverageBuyPrice: 10}).Error)
	err = db.Create(&types.Holding{UserID: 1, Symbol: "TCS", Quantity: 2, AverageBuyPrice: 11}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(config.DatabaseConfig{Driver: "mysql", DSN: "x"})
	assert.Error(t, err)
}
