package payments

import (
	"context"

	"github.com/ksred/papertrade-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetPayment(ctx context.Context, transactionRef string) (*types.Payment, error) {
	var payment types.Payment
	if err := d.db.WithContext(ctx).Where("transaction_ref = ?", transactionRef).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetUserPayments returns a user's payments, newest first
func (d *Database) GetUserPayments(ctx context.Context, userID uint) ([]types.Payment, error) {
	payments := make([]types.Payment, 0)
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
