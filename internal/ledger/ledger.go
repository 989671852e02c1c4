// Package ledger owns the conditional writes on user balances. Every balance
// change is a compare-and-set on the user's version column so concurrent
// writers cannot lose each other's updates.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ksred/papertrade-api/internal/metrics"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/ksred/papertrade-api/pkg/money"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DefaultAttempts bounds Transact retries on ErrConflict
const DefaultAttempts = 5

var (
	// ErrConflict means a row changed between read and conditional write
	ErrConflict = errors.New("ledger: concurrent modification")
	// ErrInsufficientFunds means a debit would take the balance below zero
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
	ErrUserNotFound      = errors.New("ledger: user not found")
)

// LoadUser reads a user inside tx
func LoadUser(tx *gorm.DB, userID uint) (*types.User, error) {
	var user types.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	return &user, nil
}

// AdjustBalance applies delta to user's balance, conditional on the version
// it was read at. On success user is updated in place and the new balance is
// returned.
func AdjustBalance(tx *gorm.DB, user *types.User, delta float64) (float64, error) {
	newBalance := money.Add(user.Balance, delta)
	if newBalance < 0 {
		return user.Balance, ErrInsufficientFunds
	}

	result := tx.Model(&types.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]interface{}{
			"balance": newBalance,
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return user.Balance, fmt.Errorf("update balance for user %d: %w", user.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return user.Balance, ErrConflict
	}

	user.Balance = newBalance
	user.Version++
	return newBalance, nil
}

// Transact runs fn in a transaction and retries it, up to attempts times,
// while it fails with ErrConflict. Any other error is returned immediately.
func Transact(ctx context.Context, db *gorm.DB, attempts int, fn func(tx *gorm.DB) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, ErrConflict) {
			return err
		}
		metrics.LedgerConflicts.Inc()
		log.Debug().Int("attempt", attempt).Msg("ledger conflict, retrying")
	}
	return err
}
