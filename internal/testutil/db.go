// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ksred/papertrade-api/internal/config"
	"github.com/ksred/papertrade-api/internal/database"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewDatabase(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// CreateUser inserts a user with the given balance.
func CreateUser(t *testing.T, db *gorm.DB, email string, balance float64) *types.User {
	t.Helper()

	user := &types.User{
		Email:        email,
		Username:     strings.Split(email, "@")[0],
		PasswordHash: "x",
		Balance:      balance,
		Version:      1,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
