package trading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ksred/papertrade-api/internal/ledger"
	"github.com/ksred/papertrade-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetUser(ctx context.Context, userID uint) (*types.User, error) {
	return ledger.LoadUser(d.db.WithContext(ctx), userID)
}

// GetHolding returns nil without error when the user holds no position
func (d *Database) GetHolding(ctx context.Context, userID uint, symbol string) (*types.Holding, error) {
	return findHolding(d.db.WithContext(ctx), userID, symbol)
}

func (d *Database) CreateOrder(ctx context.Context, order *types.Order) error {
	return d.db.WithContext(ctx).Create(order).Error
}

func (d *Database) GetOrder(ctx context.Context, orderID string) (*types.Order, error) {
	var order types.Order
	if err := d.db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// resolvePending moves a PENDING order to status. It reports false when the
// order was no longer PENDING.
func (d *Database) resolvePending(ctx context.Context, orderID, status, reason string) (bool, error) {
	return resolvePending(d.db.WithContext(ctx), orderID, status, reason)
}

func resolvePending(tx *gorm.DB, orderID, status, reason string) (bool, error) {
	result := tx.Model(&types.Order{}).
		Where("order_id = ? AND status = ?", orderID, types.OrderStatusPending).
		Updates(map[string]interface{}{
			"status": status,
			"reason": reason,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListOrders returns a user's orders, newest first
func (d *Database) ListOrders(ctx context.Context, q orderQuery) ([]types.Order, error) {
	query := d.db.WithContext(ctx).Where("user_id = ?", q.userID)
	if q.symbol != "" {
		query = query.Where("symbol = ?", q.symbol)
	}
	if q.typ != "" {
		query = query.Where("type = ?", q.typ)
	}
	if !q.from.IsZero() {
		query = query.Where("created_at >= ? AND created_at <= ?", q.from.UTC(), q.to.UTC())
	}

	orders := make([]types.Order, 0)
	if err := query.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// GetStalePendingOrders returns PENDING orders created before cutoff, oldest first
func (d *Database) GetStalePendingOrders(ctx context.Context, cutoff time.Time, limit int) ([]types.Order, error) {
	var orders []types.Order
	err := d.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", types.OrderStatusPending, cutoff.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (d *Database) TradeExists(ctx context.Context, orderID string) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&types.Trade{}).Where("order_id = ?", orderID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func findHolding(tx *gorm.DB, userID uint, symbol string) (*types.Holding, error) {
	var holding types.Holding
	err := tx.Where("user_id = ? AND symbol = ?", userID, symbol).First(&holding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load holding %s for user %d: %w", symbol, userID, err)
	}
	return &holding, nil
}

// updateHolding writes fields conditional on the version h was read at
func updateHolding(tx *gorm.DB, h *types.Holding, fields map[string]interface{}) error {
	fields["version"] = gorm.Expr("version + 1")
	result := tx.Model(&types.Holding{}).
		Where("id = ? AND version = ?", h.ID, h.Version).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update holding %d: %w", h.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.ErrConflict
	}
	return nil
}

// deleteHolding removes h conditional on the version it was read at
func deleteHolding(tx *gorm.DB, h *types.Holding) error {
	result := tx.Where("id = ? AND version = ?", h.ID, h.Version).Delete(&types.Holding{})
	if result.Error != nil {
		return fmt.Errorf("delete holding %d: %w", h.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ledger.ErrConflict
	}
	return nil
}

// createHolding inserts a first position. A concurrent insert for the same
// (user, symbol) surfaces as a conflict so the caller re-reads and merges.
func createHolding(tx *gorm.DB, h *types.Holding) error {
	if err := tx.Create(h).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ledger.ErrConflict
		}
		return fmt.Errorf("create holding: %w", err)
	}
	return nil
}
