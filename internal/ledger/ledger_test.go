package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/ksred/papertrade-api/internal/testutil"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAdjustBalance(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "a@example.com", 100000)

	balance, err := AdjustBalance(db, user, -15000)
	require.NoError(t, err)
	assert.Equal(t, 85000.0, balance)
	assert.Equal(t, int64(2), user.Version)

	stored, err := LoadUser(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 85000.0, stored.Balance)
	assert.Equal(t, int64(2), stored.Version)
}

func TestAdjustBalanceRejectsOverdraft(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "a@example.com", 100)

	_, err := AdjustBalance(db, user, -100.01)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	stored, err := LoadUser(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.Balance)
}

func TestAdjustBalanceStaleVersion(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "a@example.com", 1000)

	stale := *user
	_, err := AdjustBalance(db, user, 10)
	require.NoError(t, err)

	_, err = AdjustBalance(db, &stale, 20)
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := LoadUser(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1010.0, stored.Balance)
}

func TestLoadUserMissing(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := LoadUser(db, 42)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTransactRetriesConflicts(t *testing.T) {
	db := testutil.NewDB(t)

	calls := 0
	err := Transact(context.Background(), db, 3, func(tx *gorm.DB) error {
		calls++
		if calls < 3 {
			return ErrConflict
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestTransactGivesUp(t *testing.T) {
	db := testutil.NewDB(t)

	calls := 0
	err := Transact(context.Background(), db, 2, func(tx *gorm.DB) error {
		calls++
		return ErrConflict
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 2, calls)
}

func TestTransactRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "a@example.com", 500)
	boom := errors.New("boom")

	calls := 0
	err := Transact(context.Background(), db, DefaultAttempts, func(tx *gorm.DB) error {
		calls++
		u, err := LoadUser(tx, user.ID)
		if err != nil {
			return err
		}
		if _, err := AdjustBalance(tx, u, 250); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	var stored types.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, 500.0, stored.Balance)
}
